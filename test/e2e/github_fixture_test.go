//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeGitHubAPI struct {
	mu sync.Mutex

	server *httptest.Server

	issues    map[string][]fixtureIssue
	failures  map[string]*failureRule
	callCount map[string]int
}

type failureRule struct {
	status    int
	remaining int
	headers   map[string]string
	body      map[string]string
}

type fixtureIssue struct {
	Number      int
	Title       string
	Body        string
	Labels      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PullRequest bool
}

func newFakeGitHubAPI(t *testing.T) *fakeGitHubAPI {
	t.Helper()

	fixture := &fakeGitHubAPI{
		issues:    make(map[string][]fixtureIssue),
		failures:  make(map[string]*failureRule),
		callCount: make(map[string]int),
	}
	fixture.server = httptest.NewServer(http.HandlerFunc(fixture.serveHTTP))
	t.Cleanup(fixture.Close)
	return fixture
}

func (f *fakeGitHubAPI) URL() string {
	if f == nil || f.server == nil {
		return ""
	}
	return f.server.URL
}

func (f *fakeGitHubAPI) Close() {
	if f == nil || f.server == nil {
		return
	}
	f.server.Close()
}

func (f *fakeGitHubAPI) SetIssues(owner string, repo string, issues []fixtureIssue) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues[repoKey(owner, repo)] = append([]fixtureIssue(nil), issues...)
}

func (f *fakeGitHubAPI) FailPath(path string, statusCode int, times int, headers map[string]string) {
	if f == nil || statusCode <= 0 || times <= 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = &failureRule{
		status:    statusCode,
		remaining: times,
		headers:   headers,
		body: map[string]string{
			"message": fmt.Sprintf("forced failure for %s", path),
		},
	}
}

func (f *fakeGitHubAPI) PathCallCount(path string) int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount[path]
}

func (f *fakeGitHubAPI) serveHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	f.incrementCall(path)

	if f.tryFailPath(path, w) {
		return
	}

	segments := splitPath(path)
	if len(segments) == 4 && segments[0] == "repos" && segments[3] == "issues" {
		f.handleIssueList(w, r, segments[1], segments[2])
		return
	}
	f.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func (f *fakeGitHubAPI) incrementCall(path string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount[path]++
}

func (f *fakeGitHubAPI) tryFailPath(path string, w http.ResponseWriter) bool {
	if f == nil {
		return false
	}

	f.mu.Lock()
	rule, ok := f.failures[path]
	if ok && rule.remaining > 0 {
		rule.remaining--
		status := rule.status
		body := rule.body
		headers := rule.headers
		f.mu.Unlock()
		for key, value := range headers {
			w.Header().Set(key, value)
		}
		f.writeJSON(w, status, body)
		return true
	}
	f.mu.Unlock()
	return false
}

func (f *fakeGitHubAPI) handleIssueList(w http.ResponseWriter, r *http.Request, owner string, repo string) {
	f.mu.Lock()
	issues, ok := f.issues[repoKey(owner, repo)]
	f.mu.Unlock()
	if !ok {
		f.writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 30
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	start := (page - 1) * perPage
	if start > len(issues) {
		start = len(issues)
	}
	end := start + perPage
	if end > len(issues) {
		end = len(issues)
	}

	payload := make([]map[string]any, 0, end-start)
	for _, issue := range issues[start:end] {
		labels := make([]map[string]string, 0, len(issue.Labels))
		for _, label := range issue.Labels {
			labels = append(labels, map[string]string{"name": label})
		}
		item := map[string]any{
			"number":     issue.Number,
			"title":      issue.Title,
			"html_url":   fmt.Sprintf("https://github.com/%s/%s/issues/%d", owner, repo, issue.Number),
			"state":      "open",
			"labels":     labels,
			"created_at": issue.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at": issue.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if issue.Body != "" {
			item["body"] = issue.Body
		}
		if issue.PullRequest {
			item["pull_request"] = map[string]string{
				"url": fmt.Sprintf("https://api.github.com/repos/%s/%s/pulls/%d", owner, repo, issue.Number),
			}
		}
		payload = append(payload, item)
	}
	f.writeJSON(w, http.StatusOK, payload)
}

func (f *fakeGitHubAPI) writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		w.Header().Set("X-RateLimit-Remaining", "4500")
	}
	if w.Header().Get("X-RateLimit-Reset") == "" {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
	}
	w.WriteHeader(statusCode)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		return
	}
}

func splitPath(path string) []string {
	trimmed := strings.TrimSpace(path)
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func repoKey(owner string, repo string) string {
	return strings.ToLower(strings.TrimSpace(owner)) + "/" + strings.ToLower(strings.TrimSpace(repo))
}
