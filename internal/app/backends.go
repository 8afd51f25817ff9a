package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openlah/leaderboard/internal/config"
	"github.com/openlah/leaderboard/internal/githubapi"
	"github.com/openlah/leaderboard/internal/papers"
	"github.com/openlah/leaderboard/internal/publish"
	"go.uber.org/zap"
)

// NewRunnerFromConfig builds the GitHub client and every configured sink.
// The returned close func releases sink connections and is never nil.
func NewRunnerFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runner, func() error, error) {
	noop := func() error { return nil }
	if cfg == nil {
		return nil, noop, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := githubapi.NewRESTClient(githubapi.ClientConfig{
		APIBaseURL: cfg.GitHub.APIBaseURL,
		Token:      cfg.GitHub.Token,
		UserAgent:  cfg.GitHub.UserAgent,
		Timeout:    cfg.GitHub.RequestTimeout,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("create github client: %w", err)
	}
	fetcher, err := githubapi.NewIssueFetcher(client, cfg.GitHub.PerPage)
	if err != nil {
		return nil, noop, err
	}

	var (
		mirrors []DocumentSink
		closers []func() error
	)
	if cfg.Publish.RedisEnabled() {
		redisPublisher, err := publish.DialRedis(ctx, publish.RedisConfig{
			Addr:      strings.TrimSpace(cfg.Publish.RedisAddr),
			Password:  cfg.Publish.RedisPassword,
			DB:        cfg.Publish.RedisDB,
			Namespace: cfg.Publish.Namespace,
			TTL:       cfg.Publish.TTL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connect board mirror: %w", err)
		}
		logger.Info("mirroring leaderboards to redis",
			zap.String("addr", cfg.Publish.RedisAddr),
			zap.String("namespace", cfg.Publish.Namespace),
		)
		mirrors = append(mirrors, redisPublisher)
		closers = append(closers, redisPublisher.Close)
	}

	var metrics RunRecorder
	if path := strings.TrimSpace(cfg.Output.MetricsTextfile); path != "" {
		metrics = publish.NewMetricsWriter(path)
	}

	closeAll := func() error {
		var errs []error
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	runner, err := NewRunner(Options{
		Repository: cfg.GitHub.Repository,
		TokenSet:   strings.TrimSpace(cfg.GitHub.Token) != "",
		Extractor: papers.Extractor{
			TrackingLabel: cfg.GitHub.TrackingLabel,
			TitlePrefix:   cfg.GitHub.TitlePrefix,
		},
		Issues:  fetcher,
		Files:   publish.NewFileWriter(cfg.Output.DocsDir),
		Mirrors: mirrors,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = closeAll()
		return nil, noop, err
	}
	return runner, closeAll, nil
}
