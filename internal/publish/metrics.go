package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/openlah/leaderboard/internal/papers"
	"github.com/prometheus/client_golang/prometheus"
)

// Run summarizes one leaderboard generation for the metrics textfile.
type Run struct {
	Repository    string
	IssuesFetched int
	Entries       []papers.Entry
	GeneratedAt   time.Time
}

var (
	issuesFetchedDesc = prometheus.NewDesc(
		"leaderboard_issues_fetched",
		"Open issues and pull requests returned by the GitHub API.",
		[]string{"repository"}, nil,
	)
	entriesDesc = prometheus.NewDesc(
		"leaderboard_entries",
		"Tracking issues placed on the leaderboards.",
		[]string{"repository"}, nil,
	)
	nonReproDesc = prometheus.NewDesc(
		"leaderboard_entry_nonrepro_score",
		"NonRepro score of a tracking issue.",
		[]string{"repository", "issue"}, nil,
	)
	heatWeightedDesc = prometheus.NewDesc(
		"leaderboard_entry_heat_weighted_score",
		"HeatWeighted score of a tracking issue.",
		[]string{"repository", "issue"}, nil,
	)
	generatedDesc = prometheus.NewDesc(
		"leaderboard_generated_timestamp_seconds",
		"Unix time of the last leaderboard generation.",
		[]string{"repository"}, nil,
	)
)

// MetricsWriter writes run gauges in the node-exporter textfile format.
type MetricsWriter struct {
	path string
}

// NewMetricsWriter creates a writer for the textfile at path.
func NewMetricsWriter(path string) *MetricsWriter {
	return &MetricsWriter{path: path}
}

// WriteRun renders the gauges of run and replaces the textfile. It returns the path.
func (w *MetricsWriter) WriteRun(run Run) (string, error) {
	if w.path == "" {
		return "", fmt.Errorf("metrics textfile path is required")
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return "", fmt.Errorf("create metrics directory %s: %w", dir, err)
		}
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(&runCollector{run: run}); err != nil {
		return "", fmt.Errorf("register run collector: %w", err)
	}
	if err := prometheus.WriteToTextfile(w.path, registry); err != nil {
		return "", fmt.Errorf("write metrics textfile %s: %w", w.path, err)
	}
	return w.path, nil
}

type runCollector struct {
	run Run
}

func (c *runCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- issuesFetchedDesc
	ch <- entriesDesc
	ch <- nonReproDesc
	ch <- heatWeightedDesc
	ch <- generatedDesc
}

func (c *runCollector) Collect(ch chan<- prometheus.Metric) {
	repo := c.run.Repository
	ch <- prometheus.MustNewConstMetric(issuesFetchedDesc, prometheus.GaugeValue, float64(c.run.IssuesFetched), repo)
	ch <- prometheus.MustNewConstMetric(entriesDesc, prometheus.GaugeValue, float64(len(c.run.Entries)), repo)

	seen := make(map[int]struct{}, len(c.run.Entries))
	for _, entry := range c.run.Entries {
		// duplicate label sets would fail the whole gather
		if _, dup := seen[entry.Number]; dup {
			continue
		}
		seen[entry.Number] = struct{}{}

		issue := strconv.Itoa(entry.Number)
		ch <- prometheus.MustNewConstMetric(nonReproDesc, prometheus.GaugeValue, entry.NonRepro, repo, issue)
		ch <- prometheus.MustNewConstMetric(heatWeightedDesc, prometheus.GaugeValue, entry.HeatWeighted, repo, issue)
	}

	if !c.run.GeneratedAt.IsZero() {
		ch <- prometheus.MustNewConstMetric(generatedDesc, prometheus.GaugeValue, float64(c.run.GeneratedAt.Unix()), repo)
	}
}
