package githubapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitHeaders contains parsed GitHub rate-limit response headers.
type RateLimitHeaders struct {
	Remaining        int
	ResetUnix        int64
	Used             int
	RetryAfter       time.Duration
	SecondaryLimited bool
	present          bool
}

// Present reports whether the response carried rate-limit headers.
func (h RateLimitHeaders) Present() bool {
	return h.present
}

// ResetAt returns the reset time of the primary limit, or the zero time.
func (h RateLimitHeaders) ResetAt() time.Time {
	if h.ResetUnix <= 0 {
		return time.Time{}
	}
	return time.Unix(h.ResetUnix, 0).UTC()
}

// ParseRateLimitHeaders parses rate-limit and retry headers.
func ParseRateLimitHeaders(header http.Header, statusCode int) RateLimitHeaders {
	parsed := RateLimitHeaders{}
	if header == nil {
		return parsed
	}
	parsed.present = header.Get("X-RateLimit-Remaining") != ""
	parsed.Remaining = parseInt(header.Get("X-RateLimit-Remaining"))
	parsed.Used = parseInt(header.Get("X-RateLimit-Used"))
	parsed.ResetUnix = parseInt64(header.Get("X-RateLimit-Reset"))

	retryAfterSeconds := parseInt(header.Get("Retry-After"))
	if retryAfterSeconds > 0 {
		parsed.RetryAfter = time.Duration(retryAfterSeconds) * time.Second
	}

	if statusCode == http.StatusTooManyRequests {
		parsed.SecondaryLimited = true
	}
	if statusCode == http.StatusForbidden && parsed.RetryAfter > 0 {
		parsed.SecondaryLimited = true
	}

	return parsed
}

// String summarizes the limit state for error messages, e.g.
// "secondary rate limit, retry after 1m0s".
func (h RateLimitHeaders) String() string {
	var parts []string
	if h.SecondaryLimited {
		parts = append(parts, "secondary rate limit")
	}
	if h.present {
		usage := fmt.Sprintf("rate limit remaining %d", h.Remaining)
		if h.Used > 0 {
			usage += fmt.Sprintf(", used %d", h.Used)
		}
		parts = append(parts, usage)
	}
	if reset := h.ResetAt(); !reset.IsZero() {
		parts = append(parts, "resets "+reset.Format(time.RFC3339))
	}
	if h.RetryAfter > 0 {
		parts = append(parts, "retry after "+h.RetryAfter.String())
	}
	return strings.Join(parts, ", ")
}

// isRateLimitStatus reports the statuses GitHub uses for primary and secondary limits.
func isRateLimitStatus(statusCode int) bool {
	return statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests
}

func parseInt(raw string) int {
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt64(raw string) int64 {
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
