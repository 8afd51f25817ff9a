package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names an optional YAML configuration file.
	EnvConfigPath = "LEADERBOARD_CONFIG"
	// EnvLogLevel overrides log.level.
	EnvLogLevel = "LEADERBOARD_LOG_LEVEL"
	// EnvRepository is the owner/name repository identifier.
	EnvRepository = "GITHUB_REPOSITORY"
	// EnvGitHubToken is the preferred token variable.
	EnvGitHubToken = "GITHUB_TOKEN"
	// EnvGHToken is the fallback token variable.
	EnvGHToken = "GH_TOKEN"

	defaultAPIBaseURL     = "https://api.github.com/"
	defaultRequestTimeout = 30 * time.Second
	defaultPerPage        = 100
	defaultUserAgent      = "OpenLah-Leaderboard-Bot"
	defaultTrackingLabel  = "paper/tracking"
	defaultTitlePrefix    = "[Paper] "
	defaultDocsDir        = "docs"
	defaultNamespace      = "leaderboard"
)

var (
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validTraceModes  = []string{"off", "errors", "sampled", "detailed"}
	repositoryFormat = regexp.MustCompile(`^[^/\s]+/[^/\s]+$`)
)

// Config is the root application configuration.
type Config struct {
	Log       LogConfig
	GitHub    GitHubConfig
	Output    OutputConfig
	Publish   PublishConfig
	Telemetry TelemetryConfig
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// GitHubConfig configures issue fetching.
type GitHubConfig struct {
	APIBaseURL     string
	Repository     string
	Token          string
	RequestTimeout time.Duration
	PerPage        int
	UserAgent      string
	TrackingLabel  string
	TitlePrefix    string
}

// OutputConfig configures generated files.
type OutputConfig struct {
	DocsDir         string `yaml:"docs_dir"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// PublishConfig configures the optional Redis mirror of rendered boards.
type PublishConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string
	TTL           time.Duration
}

// TelemetryConfig configures OpenTelemetry behavior.
type TelemetryConfig struct {
	OTELEnabled          bool
	OTELTraceMode        string
	OTELTraceSampleRatio float64
	// OTELTraceFile receives exported spans; empty means stderr.
	OTELTraceFile string
}

// RedisEnabled reports whether rendered boards are mirrored to Redis.
func (p PublishConfig) RedisEnabled() bool {
	return strings.TrimSpace(p.RedisAddr) != ""
}

// Default returns the configuration used when no YAML file is supplied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from YAML and validates the result.
func Load(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("config reader is nil")
	}

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw rawConfig
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg := raw.toConfig()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables on the configuration.
// GITHUB_TOKEN wins over GH_TOKEN; empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	get := func(key string) string {
		value, ok := lookup(key)
		if !ok {
			return ""
		}
		return strings.TrimSpace(value)
	}

	if token := get(EnvGitHubToken); token != "" {
		c.GitHub.Token = token
	} else if token := get(EnvGHToken); token != "" {
		c.GitHub.Token = token
	}
	if repo := get(EnvRepository); repo != "" {
		c.GitHub.Repository = repo
	}
	if level := get(EnvLogLevel); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// Validate validates configuration values.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains(validLogLevels, c.Log.Level) {
		errs = append(errs, "log.level must be one of debug|info|warn|error")
	}
	if c.GitHub.RequestTimeout <= 0 {
		errs = append(errs, "github.request_timeout must be > 0")
	}
	if c.GitHub.PerPage <= 0 || c.GitHub.PerPage > 100 {
		errs = append(errs, "github.per_page must be between 1 and 100")
	}
	if strings.TrimSpace(c.GitHub.TrackingLabel) == "" {
		errs = append(errs, "github.tracking_label is required")
	}
	if c.GitHub.Repository != "" && !ValidRepository(c.GitHub.Repository) {
		errs = append(errs, "github.repository must be in owner/name form")
	}
	if strings.TrimSpace(c.Output.DocsDir) == "" {
		errs = append(errs, "output.docs_dir is required")
	}
	if c.Publish.RedisDB < 0 {
		errs = append(errs, "publish.redis_db must be >= 0")
	}
	if c.Publish.TTL < 0 {
		errs = append(errs, "publish.ttl must be >= 0")
	}
	if !slices.Contains(validTraceModes, c.Telemetry.OTELTraceMode) {
		errs = append(errs, "telemetry.otel_trace_mode must be one of off|errors|sampled|detailed")
	}
	if c.Telemetry.OTELTraceSampleRatio < 0 || c.Telemetry.OTELTraceSampleRatio > 1 {
		errs = append(errs, "telemetry.otel_trace_sample_ratio must be within [0,1]")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidRepository reports whether repo looks like owner/name.
func ValidRepository(repo string) bool {
	return repositoryFormat.MatchString(repo)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.GitHub.APIBaseURL == "" {
		cfg.GitHub.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.GitHub.RequestTimeout == 0 {
		cfg.GitHub.RequestTimeout = defaultRequestTimeout
	}
	if cfg.GitHub.PerPage == 0 {
		cfg.GitHub.PerPage = defaultPerPage
	}
	if cfg.GitHub.UserAgent == "" {
		cfg.GitHub.UserAgent = defaultUserAgent
	}
	if cfg.GitHub.TrackingLabel == "" {
		cfg.GitHub.TrackingLabel = defaultTrackingLabel
	}
	if cfg.GitHub.TitlePrefix == "" {
		cfg.GitHub.TitlePrefix = defaultTitlePrefix
	}
	if cfg.Output.DocsDir == "" {
		cfg.Output.DocsDir = defaultDocsDir
	}
	if cfg.Publish.Namespace == "" {
		cfg.Publish.Namespace = defaultNamespace
	}
	if cfg.Telemetry.OTELTraceMode == "" {
		cfg.Telemetry.OTELTraceMode = "off"
	}
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil || value.Kind == 0 || strings.TrimSpace(value.Value) == "" {
		d.Duration = 0
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}

	parsed, err := parseFlexibleDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func parseFlexibleDuration(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}

	if standard, err := time.ParseDuration(trimmed); err == nil {
		return standard, nil
	}

	if strings.HasSuffix(trimmed, "d") {
		return parseDurationWithMultiplier(strings.TrimSuffix(trimmed, "d"), 24)
	}
	if strings.HasSuffix(trimmed, "w") {
		return parseDurationWithMultiplier(strings.TrimSuffix(trimmed, "w"), 24*7)
	}

	return 0, fmt.Errorf("parse duration %q: invalid unit", raw)
}

func parseDurationWithMultiplier(numeric string, multiplierHours float64) (time.Duration, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(numeric), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration value %q: %w", numeric, err)
	}

	nanos := value * multiplierHours * float64(time.Hour)
	if nanos > math.MaxInt64 || nanos < math.MinInt64 {
		return 0, fmt.Errorf("parse duration value %q: out of range", numeric)
	}
	return time.Duration(nanos), nil
}

type rawConfig struct {
	Log       LogConfig    `yaml:"log"`
	GitHub    rawGitHub    `yaml:"github"`
	Output    OutputConfig `yaml:"output"`
	Publish   rawPublish   `yaml:"publish"`
	Telemetry rawTelemetry `yaml:"telemetry"`
}

type rawGitHub struct {
	APIBaseURL     string   `yaml:"api_base_url"`
	Repository     string   `yaml:"repository"`
	RequestTimeout duration `yaml:"request_timeout"`
	PerPage        int      `yaml:"per_page"`
	UserAgent      string   `yaml:"user_agent"`
	TrackingLabel  string   `yaml:"tracking_label"`
	TitlePrefix    string   `yaml:"title_prefix"`
}

type rawPublish struct {
	RedisAddr     string   `yaml:"redis_addr"`
	RedisPassword string   `yaml:"redis_password"`
	RedisDB       int      `yaml:"redis_db"`
	Namespace     string   `yaml:"namespace"`
	TTL           duration `yaml:"ttl"`
}

type rawTelemetry struct {
	OTELEnabled          bool    `yaml:"otel_enabled"`
	OTELTraceMode        string  `yaml:"otel_trace_mode"`
	OTELTraceSampleRatio float64 `yaml:"otel_trace_sample_ratio"`
	OTELTraceFile        string  `yaml:"otel_trace_file"`
}

func (r rawConfig) toConfig() *Config {
	return &Config{
		Log: r.Log,
		GitHub: GitHubConfig{
			APIBaseURL:     r.GitHub.APIBaseURL,
			Repository:     strings.TrimSpace(r.GitHub.Repository),
			RequestTimeout: r.GitHub.RequestTimeout.Duration,
			PerPage:        r.GitHub.PerPage,
			UserAgent:      r.GitHub.UserAgent,
			TrackingLabel:  r.GitHub.TrackingLabel,
			TitlePrefix:    r.GitHub.TitlePrefix,
		},
		Output: r.Output,
		Publish: PublishConfig{
			RedisAddr:     r.Publish.RedisAddr,
			RedisPassword: r.Publish.RedisPassword,
			RedisDB:       r.Publish.RedisDB,
			Namespace:     r.Publish.Namespace,
			TTL:           r.Publish.TTL.Duration,
		},
		Telemetry: TelemetryConfig{
			OTELEnabled:          r.Telemetry.OTELEnabled,
			OTELTraceMode:        strings.ToLower(strings.TrimSpace(r.Telemetry.OTELTraceMode)),
			OTELTraceSampleRatio: r.Telemetry.OTELTraceSampleRatio,
			OTELTraceFile:        strings.TrimSpace(r.Telemetry.OTELTraceFile),
		},
	}
}
