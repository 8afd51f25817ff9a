// Package papers turns tracking issues into scored leaderboard entries.
package papers

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

const (
	// DefaultTrackingLabel marks issues that track one paper.
	DefaultTrackingLabel = "paper/tracking"
	// DefaultTitlePrefix is removed from issue titles for display.
	DefaultTitlePrefix = "[Paper] "
	// NotAvailable is displayed for missing labels and unparseable dates.
	NotAvailable = "N/A"
)

// Category is one of the three status label families.
type Category string

const (
	// CategoryOpen covers open/* labels.
	CategoryOpen Category = "open"
	// CategoryRepro covers repro/* labels.
	CategoryRepro Category = "repro"
	// CategoryHeat covers heat/* labels.
	CategoryHeat Category = "heat"
)

var categories = []Category{CategoryOpen, CategoryRepro, CategoryHeat}

var bodyPatterns = map[Category]*regexp.Regexp{
	CategoryOpen:  regexp.MustCompile(`(?i)(open/(?:none|empty|broken|partial|full))`),
	CategoryRepro: regexp.MustCompile(`(?i)(repro/(?:none|partial|mismatch|match|unknown))`),
	CategoryHeat:  regexp.MustCompile(`(?i)(heat/[123])`),
}

// Issue is one open issue record as returned by the hosting platform.
type Issue struct {
	Number        int
	Title         string
	URL           string
	CreatedAt     string
	UpdatedAt     string
	Body          string
	Labels        []string
	IsPullRequest bool
}

// Entry is one scored tracking issue. It is not modified after construction.
type Entry struct {
	Number    int
	Title     string
	URL       string
	CreatedAt string
	UpdatedAt string
	Labels    map[Category]string
	Scores
}

// Label returns the status label of category c, or N/A when absent.
func (e Entry) Label(c Category) string {
	if label, ok := e.Labels[c]; ok {
		return label
	}
	return NotAvailable
}

// UpdatedDate returns the update date as YYYY-MM-DD, or N/A.
func (e Entry) UpdatedDate() string {
	return displayDate(e.UpdatedAt)
}

// CreatedDate returns the creation date as YYYY-MM-DD, or N/A.
func (e Entry) CreatedDate() string {
	return displayDate(e.CreatedAt)
}

// Extractor filters issues and builds entries.
type Extractor struct {
	TrackingLabel string
	TitlePrefix   string
}

// NewExtractor returns an Extractor with the default tracking label and title prefix.
func NewExtractor() Extractor {
	return Extractor{
		TrackingLabel: DefaultTrackingLabel,
		TitlePrefix:   DefaultTitlePrefix,
	}
}

// Extract converts every tracking issue into an Entry, keeping input order.
// Pull requests and issues without the tracking label are skipped.
func (x Extractor) Extract(issues []Issue) []Entry {
	entries := make([]Entry, 0, len(issues))
	for _, issue := range issues {
		if !x.IsTracking(issue) {
			continue
		}
		entries = append(entries, x.NewEntry(issue))
	}
	return entries
}

// IsTracking reports whether issue is a tracking issue and not a pull request.
func (x Extractor) IsTracking(issue Issue) bool {
	if issue.IsPullRequest {
		return false
	}
	return slices.Contains(issue.Labels, x.trackingLabel())
}

// NewEntry builds the entry of one issue. Labels take precedence over the body.
func (x Extractor) NewEntry(issue Issue) Entry {
	labels := ExtractLabels(issue.Labels)
	fromBody := ExtractFromBody(issue.Body)
	for _, c := range categories {
		if _, ok := labels[c]; ok {
			continue
		}
		if value, ok := fromBody[c]; ok {
			labels[c] = value
		}
	}

	return Entry{
		Number:    issue.Number,
		Title:     x.displayTitle(issue.Title),
		URL:       issue.URL,
		CreatedAt: issue.CreatedAt,
		UpdatedAt: issue.UpdatedAt,
		Labels:    labels,
		Scores:    Score(labels[CategoryOpen], labels[CategoryRepro], labels[CategoryHeat]),
	}
}

func (x Extractor) trackingLabel() string {
	if x.TrackingLabel == "" {
		return DefaultTrackingLabel
	}
	return x.TrackingLabel
}

func (x Extractor) displayTitle(title string) string {
	if x.TitlePrefix != "" {
		title = strings.ReplaceAll(title, x.TitlePrefix, "")
	}
	return strings.TrimSpace(title)
}

// ExtractLabels picks the status labels out of label names.
// When a category appears more than once the last label wins.
func ExtractLabels(names []string) map[Category]string {
	labels := make(map[Category]string, len(categories))
	for _, name := range names {
		for _, c := range categories {
			if strings.HasPrefix(name, string(c)+"/") {
				labels[c] = name
				break
			}
		}
	}
	return labels
}

// ExtractFromBody finds the first status value of each category in free text.
func ExtractFromBody(body string) map[Category]string {
	found := make(map[Category]string, len(categories))
	if body == "" {
		return found
	}
	for _, c := range categories {
		if match := bodyPatterns[c].FindString(body); match != "" {
			found[c] = strings.ToLower(match)
		}
	}
	return found
}

// ParseBodyField returns the first line under a "### <field>" heading in an issue form body.
// fieldPattern is a regular expression fragment matched case-insensitively.
func ParseBodyField(body, fieldPattern string) (string, bool) {
	if body == "" {
		return "", false
	}
	pattern, err := regexp.Compile(`(?i)###\s*` + fieldPattern + `[^\n]*\n+([^\n#]+)`)
	if err != nil {
		return "", false
	}
	match := pattern.FindStringSubmatch(body)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

// Timestamps without an offset keep their wall-clock date.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

func displayDate(raw string) string {
	if raw == "" {
		return NotAvailable
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(time.DateOnly)
		}
	}
	return NotAvailable
}
