// Package leaderboard sorts scored entries and renders them as Markdown tables.
package leaderboard

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/openlah/leaderboard/internal/papers"
)

const (
	// MaxTitleRunes is the display width of paper titles before truncation.
	MaxTitleRunes = 50

	timestampLayout = "2006-01-02 15:04 UTC"
)

//go:embed leaderboard.md.tmpl
var documentTemplate string

var tmpl = template.Must(template.New("leaderboard").Parse(documentTemplate))

// Document is one leaderboard ready to render.
type Document struct {
	Board         Board
	Entries       []papers.Entry
	Repository    string
	TrackingLabel string
	GeneratedAt   time.Time
}

// Rendered is the output of Render.
type Rendered struct {
	Board       Board
	Ranked      []papers.Entry
	Content     []byte
	GeneratedAt time.Time
}

type row struct {
	Rank         int
	Title        string
	URL          string
	Heat         int
	Open         string
	Repro        string
	NonRepro     string
	HeatWeighted string
	Updated      string
}

type view struct {
	Title             string
	Description       string
	GeneratedAt       string
	Rows              []row
	IssuesURL         string
	OpennessScale     string
	ReproPenaltyScale string
}

// Render sorts the document entries with the board ordering and renders the Markdown.
func Render(doc Document) (Rendered, error) {
	ranked := Rank(doc.Entries, doc.Board.Less)

	v := view{
		Title:             doc.Board.Title,
		Description:       doc.Board.Description,
		GeneratedAt:       doc.GeneratedAt.UTC().Format(timestampLayout),
		Rows:              make([]row, 0, len(ranked)),
		IssuesURL:         IssuesURL(doc.Repository, doc.TrackingLabel),
		OpennessScale:     ScoreScale(papers.OpennessTable()),
		ReproPenaltyScale: ScoreScale(papers.ReproPenaltyTable()),
	}
	for i, entry := range ranked {
		v.Rows = append(v.Rows, row{
			Rank:         i + 1,
			Title:        TruncateTitle(entry.Title),
			URL:          entry.URL,
			Heat:         entry.Heat,
			Open:         entry.Label(papers.CategoryOpen),
			Repro:        entry.Label(papers.CategoryRepro),
			NonRepro:     fmt.Sprintf("%.2f", entry.NonRepro),
			HeatWeighted: fmt.Sprintf("%.2f", entry.HeatWeighted),
			Updated:      entry.UpdatedDate(),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", doc.Board.Filename, err)
	}
	return Rendered{
		Board:       doc.Board,
		Ranked:      ranked,
		Content:     buf.Bytes(),
		GeneratedAt: doc.GeneratedAt.UTC(),
	}, nil
}

// ScoreScale formats a score table as "label=value" pairs for the footer.
// Values keep at least one decimal, so 1 is written as 1.0.
func ScoreScale(table []papers.LabelScore) string {
	pairs := make([]string, 0, len(table))
	for _, row := range table {
		value := strconv.FormatFloat(row.Value, 'f', -1, 64)
		if !strings.Contains(value, ".") {
			value += ".0"
		}
		pairs = append(pairs, row.Label+"="+value)
	}
	return strings.Join(pairs, ", ")
}

// Rank returns a sorted copy of entries, highest first.
// less reports whether a ranks below b; equal entries keep their input order.
func Rank(entries []papers.Entry, less func(a, b papers.Entry) bool) []papers.Entry {
	ranked := make([]papers.Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[j], ranked[i])
	})
	return ranked
}

// TruncateTitle cuts titles longer than MaxTitleRunes and appends an ellipsis.
func TruncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= MaxTitleRunes {
		return title
	}
	return string(runes[:MaxTitleRunes]) + "..."
}

// IssuesURL links to the open tracking issues of repository.
func IssuesURL(repository, trackingLabel string) string {
	if trackingLabel == "" {
		trackingLabel = papers.DefaultTrackingLabel
	}
	query := "is:issue is:open label:" + trackingLabel
	return "https://github.com/" + strings.Trim(repository, "/") + "/issues?q=" + url.QueryEscape(query)
}
