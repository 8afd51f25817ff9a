package leaderboard

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/openlah/leaderboard/internal/papers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2026, time.March, 4, 5, 6, 7, 0, time.UTC)

func entry(number int, updatedAt string, labels ...string) papers.Entry {
	return papers.NewExtractor().NewEntry(papers.Issue{
		Number:    number,
		Title:     "[Paper] Paper " + string(rune('A'+number-1)),
		URL:       "https://github.com/o/r/issues/" + string(rune('0'+number)),
		UpdatedAt: updatedAt,
		Labels:    append([]string{"paper/tracking"}, labels...),
	})
}

func boardByName(t *testing.T, name string) Board {
	t.Helper()
	for _, board := range Boards() {
		if board.Name == name {
			return board
		}
	}
	t.Fatalf("board %q not found", name)
	return Board{}
}

func numbers(entries []papers.Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Number)
	}
	return out
}

func TestBoards(t *testing.T) {
	t.Parallel()

	boards := Boards()
	require.Len(t, boards, 3)
	assert.Equal(t, "leaderboard_nonrepro.md", boards[0].Filename)
	assert.Equal(t, "leaderboard_heatweighted.md", boards[1].Filename)
	assert.Equal(t, "leaderboard_recent.md", boards[2].Filename)
}

func TestRankNonRepro(t *testing.T) {
	t.Parallel()

	entries := []papers.Entry{
		entry(1, "", "open/full", "repro/match", "heat/3"),       // 0.0
		entry(2, "", "open/none", "repro/none", "heat/1"),        // 1.0
		entry(3, "", "open/empty", "repro/none", "heat/3"),       // 0.9
		entry(4, "", "open/partial", "repro/mismatch", "heat/2"), // 0.6
		entry(5, "", "open/none", "repro/mismatch", "heat/3"),    // 1.0, hotter
	}

	ranked := Rank(entries, boardByName(t, "nonrepro").Less)
	assert.Equal(t, []int{5, 2, 3, 4, 1}, numbers(ranked))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, numbers(entries), "input must not be reordered")
}

func TestRankHeatWeighted(t *testing.T) {
	t.Parallel()

	entries := []papers.Entry{
		entry(1, "", "open/none", "repro/none", "heat/1"),        // 1.0
		entry(2, "", "open/partial", "repro/mismatch", "heat/2"), // 1.2
		entry(3, "", "open/full", "repro/match", "heat/3"),       // 0.0
		entry(4, "", "open/full", "repro/match", "heat/1"),       // 0.0
	}

	ranked := Rank(entries, boardByName(t, "heatweighted").Less)
	assert.Equal(t, []int{2, 1, 3, 4}, numbers(ranked))
}

func TestRankRecentIsStable(t *testing.T) {
	t.Parallel()

	entries := []papers.Entry{
		entry(1, "2025-01-01T00:00:00Z"),
		entry(2, "2025-03-01T00:00:00Z"),
		entry(3, "2025-01-01T00:00:00Z"),
		entry(4, ""),
	}

	ranked := Rank(entries, boardByName(t, "recent").Less)
	assert.Equal(t, []int{2, 1, 3, 4}, numbers(ranked))
}

func TestRender(t *testing.T) {
	t.Parallel()

	board := boardByName(t, "nonrepro")
	rendered, err := Render(Document{
		Board: board,
		Entries: []papers.Entry{
			entry(1, "2025-02-03T04:05:06Z", "open/full", "repro/match", "heat/3"),
			entry(2, "2025-02-04T04:05:06Z", "open/partial", "repro/mismatch", "heat/2"),
		},
		Repository:    "owner/repo",
		TrackingLabel: "paper/tracking",
		GeneratedAt:   generatedAt,
	})
	require.NoError(t, err)

	content := string(rendered.Content)
	assert.True(t, strings.HasPrefix(content, "# 📈 NonRepro Leaderboard / 不可复现排行榜\n\n> 按不可复现分数"))
	assert.Contains(t, content, "📅 **Last Updated**: 2026-03-04 05:06 UTC\n")
	assert.Contains(t, content, "| Rank | Paper | Heat | Open | Repro | NonRepro | HeatWeighted | Updated |\n")
	assert.Contains(t, content,
		"| 1 | [Paper B](https://github.com/o/r/issues/2) | 2 | open/partial | repro/mismatch | 0.60 | 1.20 | 2025-02-04 |\n"+
			"| 2 | [Paper A](https://github.com/o/r/issues/1) | 3 | open/full | repro/match | 0.00 | 0.00 | 2025-02-03 |\n"+
			"\n---\n")
	assert.Contains(t, content, "https://github.com/owner/repo/issues?q=is%3Aissue+is%3Aopen+label%3Apaper%2Ftracking")
	assert.NotContains(t, content, "No data yet")
	assert.True(t, strings.HasSuffix(content, ")\n"))
	assert.Equal(t, []int{2, 1}, numbers(rendered.Ranked))
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	rendered, err := Render(Document{
		Board:       boardByName(t, "recent"),
		Repository:  "owner/repo",
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)

	content := string(rendered.Content)
	assert.Equal(t, 1, strings.Count(content, "| - | 暂无数据 / No data yet | - | - | - | - | - | - |\n"))
	assert.Contains(t, content, "# 🕐 Recent Leaderboard")
	assert.Contains(t, content, "`HeatWeightedScore = Heat × NonReproScore`")
	assert.Contains(t, content, "label%3Apaper%2Ftracking")
	assert.Empty(t, rendered.Ranked)
}

func TestRenderMissingLabels(t *testing.T) {
	t.Parallel()

	rendered, err := Render(Document{
		Board:       boardByName(t, "nonrepro"),
		Entries:     []papers.Entry{entry(1, "garbage")},
		Repository:  "owner/repo",
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)
	assert.Contains(t, string(rendered.Content), "| 1 | [Paper A](https://github.com/o/r/issues/1) | 1 | N/A | N/A | 0.70 | 0.70 | N/A |\n")
}

func TestRenderFooterListsScoreTables(t *testing.T) {
	t.Parallel()

	rendered, err := Render(Document{
		Board:       boardByName(t, "heatweighted"),
		Repository:  "owner/repo",
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)

	content := string(rendered.Content)
	assert.Contains(t, content,
		"- `Openness`: open/full=1.0, open/partial=0.4, open/broken=0.2, open/empty=0.1, open/none=0.0\n")
	assert.Contains(t, content,
		"- `ReproPenalty`: repro/match=0.0, repro/partial=0.4, repro/mismatch=1.0, repro/none=1.0, repro/unknown=0.7\n")
	for _, row := range append(papers.OpennessTable(), papers.ReproPenaltyTable()...) {
		assert.Contains(t, content, row.Label+"="+strconv.FormatFloat(row.Value, 'f', 1, 64))
	}
}

func TestScoreScale(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a=1.0, b=0.25, c=0.0", ScoreScale([]papers.LabelScore{
		{Label: "a", Value: 1},
		{Label: "b", Value: 0.25},
		{Label: "c", Value: 0},
	}))
	assert.Empty(t, ScoreScale(nil))
}

func TestTruncateTitle(t *testing.T) {
	t.Parallel()

	exact := strings.Repeat("a", 50)
	long := strings.Repeat("b", 51)
	wide := strings.Repeat("论", 51)

	assert.Equal(t, exact, TruncateTitle(exact))
	assert.Equal(t, "short", TruncateTitle("short"))
	assert.Equal(t, strings.Repeat("b", 50)+"...", TruncateTitle(long))
	assert.Equal(t, strings.Repeat("论", 50)+"...", TruncateTitle(wide))
}

func TestIssuesURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"https://github.com/o/r/issues?q=is%3Aissue+is%3Aopen+label%3Apaper%2Ftracking",
		IssuesURL("o/r", ""),
	)
	assert.Equal(t,
		"https://github.com/o/r/issues?q=is%3Aissue+is%3Aopen+label%3Atracked",
		IssuesURL("o/r", "tracked"),
	)
}
