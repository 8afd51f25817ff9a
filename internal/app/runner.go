// Package app wires issue fetching, scoring, rendering and publishing into one run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/openlah/leaderboard/internal/leaderboard"
	"github.com/openlah/leaderboard/internal/papers"
	"github.com/openlah/leaderboard/internal/publish"
	"github.com/openlah/leaderboard/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// IssueLister returns the open issues of a repository.
type IssueLister interface {
	ListOpenIssues(ctx context.Context, repository string) ([]papers.Issue, error)
}

// DocumentSink stores one rendered board and returns where it went.
type DocumentSink interface {
	Write(ctx context.Context, doc leaderboard.Rendered) (string, error)
}

// RunRecorder stores per-run figures.
type RunRecorder interface {
	WriteRun(run publish.Run) (string, error)
}

// Options configures a Runner.
type Options struct {
	Repository string
	TokenSet   bool
	Extractor  papers.Extractor
	Issues     IssueLister
	Files      DocumentSink
	// Mirrors receive every board after Files has written it.
	Mirrors []DocumentSink
	Metrics RunRecorder
	Logger  *zap.Logger
	Now     func() time.Time
}

// Summary reports the outcome of a successful run.
type Summary struct {
	Repository    string
	IssuesFetched int
	Entries       int
	Files         []string
}

// Runner generates all leaderboards for one repository.
type Runner struct {
	repository string
	tokenSet   bool
	extractor  papers.Extractor
	issues     IssueLister
	files      DocumentSink
	mirrors    []DocumentSink
	metrics    RunRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// NewRunner validates opts and creates a runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Repository == "" {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Issues == nil {
		return nil, fmt.Errorf("issue lister is required")
	}
	if opts.Files == nil {
		return nil, fmt.Errorf("document sink is required")
	}

	extractor := opts.Extractor
	if extractor.TrackingLabel == "" {
		extractor.TrackingLabel = papers.DefaultTrackingLabel
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		repository: opts.Repository,
		tokenSet:   opts.TokenSet,
		extractor:  extractor,
		issues:     opts.Issues,
		files:      opts.Files,
		mirrors:    opts.Mirrors,
		metrics:    opts.Metrics,
		logger:     logger,
		now:        now,
	}, nil
}

// Run fetches, scores, renders and writes every board, stopping at the first error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{Repository: r.repository}

	r.logger.Info("generating leaderboards",
		zap.String("repository", r.repository),
		zap.Bool("token_set", r.tokenSet),
	)
	if !r.tokenSet {
		r.logger.Warn("no GitHub token set; unauthenticated requests are limited to 60 per hour")
	}

	issues, err := r.fetch(ctx)
	if err != nil {
		return summary, err
	}
	summary.IssuesFetched = len(issues)
	r.logger.Info("fetched open issues", zap.Int("count", len(issues)))

	entries := r.extractor.Extract(issues)
	summary.Entries = len(entries)
	r.logger.Info("found tracking issues",
		zap.Int("count", len(entries)),
		zap.String("label", r.extractor.TrackingLabel),
	)

	generatedAt := r.now().UTC()
	rendered, err := r.render(ctx, entries, generatedAt)
	if err != nil {
		return summary, err
	}

	files, err := r.write(ctx, rendered)
	summary.Files = files
	if err != nil {
		return summary, err
	}

	if r.metrics != nil {
		path, err := r.metrics.WriteRun(publish.Run{
			Repository:    r.repository,
			IssuesFetched: len(issues),
			Entries:       entries,
			GeneratedAt:   generatedAt,
		})
		if err != nil {
			return summary, fmt.Errorf("write run metrics: %w", err)
		}
		r.logger.Info("wrote metrics textfile", zap.String("path", path))
	}

	r.logger.Info("leaderboards generated",
		zap.Int("files", len(summary.Files)),
		zap.Int("entries", summary.Entries),
	)
	return summary, nil
}

func (r *Runner) fetch(ctx context.Context) ([]papers.Issue, error) {
	ctx, end := telemetry.StartStage(ctx, "fetch", attribute.String("github.repository", r.repository))
	issues, err := r.issues.ListOpenIssues(ctx, r.repository)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("fetch issues: %w", err)
	}
	return issues, nil
}

func (r *Runner) render(ctx context.Context, entries []papers.Entry, generatedAt time.Time) ([]leaderboard.Rendered, error) {
	_, end := telemetry.StartStage(ctx, "render", attribute.Int("leaderboard.entries", len(entries)))

	boards := leaderboard.Boards()
	out := make([]leaderboard.Rendered, 0, len(boards))
	for _, board := range boards {
		rendered, err := leaderboard.Render(leaderboard.Document{
			Board:         board,
			Entries:       entries,
			Repository:    r.repository,
			TrackingLabel: r.extractor.TrackingLabel,
			GeneratedAt:   generatedAt,
		})
		if err != nil {
			end(err)
			return nil, err
		}
		out = append(out, rendered)
	}
	end(nil)
	return out, nil
}

func (r *Runner) write(ctx context.Context, rendered []leaderboard.Rendered) ([]string, error) {
	ctx, end := telemetry.StartStage(ctx, "write", attribute.Int("leaderboard.boards", len(rendered)))

	files := make([]string, 0, len(rendered))
	for _, doc := range rendered {
		path, err := r.files.Write(ctx, doc)
		if err != nil {
			end(err)
			return files, err
		}
		files = append(files, path)
		r.logger.Info("wrote leaderboard",
			zap.String("path", path),
			zap.Int("entries", len(doc.Ranked)),
		)

		for _, mirror := range r.mirrors {
			location, err := mirror.Write(ctx, doc)
			if err != nil {
				err = fmt.Errorf("mirror %s: %w", doc.Board.Name, err)
				end(err)
				return files, err
			}
			r.logger.Debug("mirrored leaderboard", zap.String("board", doc.Board.Name), zap.String("location", location))
		}
	}
	end(nil)
	return files, nil
}
