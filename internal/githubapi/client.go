package githubapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

const (
	defaultGitHubAPIBaseURL = "https://api.github.com/"
	defaultUserAgent        = "OpenLah-Leaderboard-Bot"
	defaultRequestTimeout   = 30 * time.Second

	// tokenType makes the Authorization header read "token <TOKEN>".
	tokenType = "token"
)

// ClientConfig configures the GitHub REST client.
type ClientConfig struct {
	APIBaseURL    string
	Token         string
	UserAgent     string
	Timeout       time.Duration
	BaseTransport http.RoundTripper
}

// NewHTTPClient creates the HTTP client used for API calls.
// When a token is configured every request carries it in the Authorization header.
func NewHTTPClient(cfg ClientConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	transport := cfg.BaseTransport
	if transport == nil {
		transport = http.DefaultTransport
	}

	token := strings.TrimSpace(cfg.Token)
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: token,
				TokenType:   tokenType,
			}),
			Base: transport,
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// NewRESTClient creates a go-github client with optional API base URL override.
func NewRESTClient(cfg ClientConfig) (*github.Client, error) {
	client := github.NewClient(NewHTTPClient(cfg))

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.UserAgent = userAgent

	baseURL, err := parseAPIBaseURL(cfg.APIBaseURL)
	if err != nil {
		return nil, err
	}
	client.BaseURL = baseURL
	return client, nil
}

func parseAPIBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultGitHubAPIBaseURL
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse github api base url: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("parse github api base url: missing scheme or host")
	}
	if !strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path += "/"
	}
	return parsedURL, nil
}
