package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/openlah/leaderboard/internal/papers"
	"github.com/openlah/leaderboard/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPerPage is the page size requested from the issues endpoint.
const DefaultPerPage = 100

// FetchError describes a failed issues page request.
type FetchError struct {
	Repository string
	Page       int
	// StatusCode is zero for transport failures.
	StatusCode  int
	Reason      string
	RateLimited bool
	RateLimit   RateLimitHeaders
	Err         error
}

func (e *FetchError) Error() string {
	prefix := fmt.Sprintf("fetch issues page %d of %s", e.Page, e.Repository)
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: network error: %v", prefix, e.Err)
	}
	msg := fmt.Sprintf("%s: github api error: %d %s", prefix, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.RateLimited {
		if details := e.RateLimit.String(); details != "" {
			msg += " (" + details + ")"
		}
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a rate-limit class fetch failure.
func IsRateLimited(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.RateLimited
}

// IssueFetcher lists repository issues page by page.
type IssueFetcher struct {
	client  *github.Client
	perPage int
}

// NewIssueFetcher creates an issue fetcher over a go-github client.
func NewIssueFetcher(client *github.Client, perPage int) (*IssueFetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("github client is required")
	}
	if perPage <= 0 || perPage > DefaultPerPage {
		perPage = DefaultPerPage
	}
	return &IssueFetcher{
		client:  client,
		perPage: perPage,
	}, nil
}

// ListOpenIssues returns every open issue of repository, pull requests included.
// Pages are requested serially until one is empty or shorter than the page size.
func (f *IssueFetcher) ListOpenIssues(ctx context.Context, repository string) ([]papers.Issue, error) {
	owner, name, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	var all []papers.Issue
	for page := 1; ; page++ {
		batch, err := f.listPage(ctx, owner, name, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < f.perPage {
			break
		}
	}
	return all, nil
}

func (f *IssueFetcher) listPage(ctx context.Context, owner, name string, page int) ([]papers.Issue, error) {
	var span trace.Span
	if telemetry.ShouldTraceDependencies() {
		ctx, span = otel.Tracer("leaderboard/internal/githubapi").Start(
			ctx,
			"githubapi.issues.list_page",
			trace.WithAttributes(
				attribute.String("github.repository", owner+"/"+name),
				attribute.Int("github.page", page),
			),
		)
		defer span.End()
	}

	query := url.Values{}
	query.Set("state", "open")
	query.Set("per_page", strconv.Itoa(f.perPage))
	query.Set("page", strconv.Itoa(page))
	path := fmt.Sprintf("repos/%s/%s/issues?%s", url.PathEscape(owner), url.PathEscape(name), query.Encode())

	// Issues.ListByRepo sends a preview media type; the plain v3 Accept header is kept here.
	req, err := f.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("build list issues request: %w", err)
	}

	var issues []*github.Issue
	if _, err := f.client.Do(ctx, req, &issues); err != nil {
		fetchErr := classifyError(owner+"/"+name, page, err)
		if span != nil {
			span.RecordError(fetchErr)
			span.SetStatus(codes.Error, fetchErr.Error())
		}
		return nil, fetchErr
	}

	out := make([]papers.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		out = append(out, toIssue(issue))
	}
	if span != nil {
		span.SetAttributes(attribute.Int("github.page_size", len(out)))
		span.SetStatus(codes.Ok, "page fetched")
	}
	return out, nil
}

// SplitRepository splits an owner/name identifier.
func SplitRepository(repository string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q must be in owner/name form", repository)
	}
	return owner, name, nil
}

func classifyError(repository string, page int, err error) *FetchError {
	fetchErr := &FetchError{
		Repository: repository,
		Page:       page,
		Err:        err,
	}

	var (
		rateErr  *github.RateLimitError
		abuseErr *github.AbuseRateLimitError
		apiErr   *github.ErrorResponse
	)
	switch {
	case errors.As(err, &rateErr):
		fetchErr.RateLimited = true
		fetchErr.Reason = rateErr.Message
		fillFromResponse(fetchErr, rateErr.Response)
		if fetchErr.StatusCode == 0 {
			fetchErr.StatusCode = http.StatusForbidden
		}
	case errors.As(err, &abuseErr):
		fetchErr.RateLimited = true
		fetchErr.Reason = abuseErr.Message
		fillFromResponse(fetchErr, abuseErr.Response)
		if fetchErr.StatusCode == 0 {
			fetchErr.StatusCode = http.StatusForbidden
		}
	case errors.As(err, &apiErr):
		fetchErr.Reason = apiErr.Message
		fillFromResponse(fetchErr, apiErr.Response)
		fetchErr.RateLimited = isRateLimitStatus(fetchErr.StatusCode)
	}
	return fetchErr
}

func fillFromResponse(fetchErr *FetchError, resp *http.Response) {
	if resp == nil {
		return
	}
	fetchErr.StatusCode = resp.StatusCode
	fetchErr.RateLimit = ParseRateLimitHeaders(resp.Header, resp.StatusCode)
}

func toIssue(issue *github.Issue) papers.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		if label == nil {
			continue
		}
		labels = append(labels, label.GetName())
	}

	return papers.Issue{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		URL:           issue.GetHTMLURL(),
		CreatedAt:     formatTimestamp(issue.CreatedAt),
		UpdatedAt:     formatTimestamp(issue.UpdatedAt),
		Body:          issue.GetBody(),
		Labels:        labels,
		IsPullRequest: issue.IsPullRequest(),
	}
}

func formatTimestamp(ts *github.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
