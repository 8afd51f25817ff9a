package githubapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestParseRateLimitHeaders(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		statusCode  int
		headers     map[string]string
		want        RateLimitHeaders
		wantPresent bool
	}{
		{
			name:       "parses_standard_headers",
			statusCode: http.StatusOK,
			headers: map[string]string{
				"X-RateLimit-Remaining": "4999",
				"X-RateLimit-Reset":     "1739837000",
				"X-RateLimit-Used":      "1",
			},
			want: RateLimitHeaders{
				Remaining: 4999,
				Used:      1,
				ResetUnix: 1739837000,
			},
			wantPresent: true,
		},
		{
			name:       "detects_secondary_limit_from_retry_after",
			statusCode: http.StatusForbidden,
			headers: map[string]string{
				"Retry-After": "60",
			},
			want: RateLimitHeaders{
				RetryAfter:       60 * time.Second,
				SecondaryLimited: true,
			},
		},
		{
			name:       "handles_invalid_values_safely",
			statusCode: http.StatusTooManyRequests,
			headers: map[string]string{
				"X-RateLimit-Remaining": "abc",
				"X-RateLimit-Reset":     "xyz",
				"Retry-After":           "nan",
			},
			want: RateLimitHeaders{
				SecondaryLimited: true,
			},
			wantPresent: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			header := make(http.Header)
			for key, value := range tc.headers {
				header.Set(key, value)
			}

			got := ParseRateLimitHeaders(header, tc.statusCode)
			if got.Remaining != tc.want.Remaining {
				t.Fatalf("Remaining = %d, want %d", got.Remaining, tc.want.Remaining)
			}
			if got.Used != tc.want.Used {
				t.Fatalf("Used = %d, want %d", got.Used, tc.want.Used)
			}
			if got.ResetUnix != tc.want.ResetUnix {
				t.Fatalf("ResetUnix = %d, want %d", got.ResetUnix, tc.want.ResetUnix)
			}
			if got.RetryAfter != tc.want.RetryAfter {
				t.Fatalf("RetryAfter = %v, want %v", got.RetryAfter, tc.want.RetryAfter)
			}
			if got.SecondaryLimited != tc.want.SecondaryLimited {
				t.Fatalf("SecondaryLimited = %t, want %t", got.SecondaryLimited, tc.want.SecondaryLimited)
			}
			if got.Present() != tc.wantPresent {
				t.Fatalf("Present() = %t, want %t", got.Present(), tc.wantPresent)
			}
		})
	}
}

func TestParseRateLimitHeadersNil(t *testing.T) {
	t.Parallel()

	got := ParseRateLimitHeaders(nil, http.StatusForbidden)
	if got.Present() || got.SecondaryLimited {
		t.Fatalf("ParseRateLimitHeaders(nil) = %#v, want zero value", got)
	}
	if !got.ResetAt().IsZero() {
		t.Fatalf("ResetAt() = %v, want zero", got.ResetAt())
	}
}

func TestFetchErrorMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		err       *FetchError
		wantParts []string
	}{
		{
			name: "transport_failure",
			err: &FetchError{
				Repository: "openlah/papers",
				Page:       2,
				Err:        errors.New("dial tcp: connection refused"),
			},
			wantParts: []string{"fetch issues page 2 of openlah/papers", "network error", "connection refused"},
		},
		{
			name: "rate_limited_with_headers",
			err: &FetchError{
				Repository:  "openlah/papers",
				Page:        1,
				StatusCode:  http.StatusForbidden,
				Reason:      "API rate limit exceeded",
				RateLimited: true,
				RateLimit: ParseRateLimitHeaders(http.Header{
					"X-Ratelimit-Remaining": []string{"0"},
					"X-Ratelimit-Reset":     []string{"1893456000"},
				}, http.StatusForbidden),
			},
			wantParts: []string{"403 Forbidden", "API rate limit exceeded", "rate limit remaining 0", "resets 2030-01-01T00:00:00Z"},
		},
		{
			name: "secondary_limit_with_retry_after",
			err: &FetchError{
				Repository:  "openlah/papers",
				Page:        3,
				StatusCode:  http.StatusTooManyRequests,
				RateLimited: true,
				RateLimit: ParseRateLimitHeaders(http.Header{
					"X-Ratelimit-Remaining": []string{"12"},
					"X-Ratelimit-Used":      []string{"4988"},
					"Retry-After":           []string{"90"},
				}, http.StatusTooManyRequests),
			},
			wantParts: []string{"429 Too Many Requests", "(secondary rate limit, rate limit remaining 12, used 4988, retry after 1m30s)"},
		},
		{
			name: "not_found",
			err: &FetchError{
				Repository: "openlah/papers",
				Page:       1,
				StatusCode: http.StatusNotFound,
			},
			wantParts: []string{"github api error: 404 Not Found"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			msg := tc.err.Error()
			for _, part := range tc.wantParts {
				if !strings.Contains(msg, part) {
					t.Fatalf("Error() = %q, missing %q", msg, part)
				}
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	t.Parallel()

	limited := &FetchError{StatusCode: http.StatusTooManyRequests, RateLimited: true}
	if !IsRateLimited(fmt.Errorf("run: %w", limited)) {
		t.Fatalf("IsRateLimited(wrapped) = false, want true")
	}
	if IsRateLimited(&FetchError{StatusCode: http.StatusNotFound}) {
		t.Fatalf("IsRateLimited(404) = true, want false")
	}
	if IsRateLimited(errors.New("plain")) {
		t.Fatalf("IsRateLimited(plain) = true, want false")
	}
}
