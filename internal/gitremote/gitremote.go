// Package gitremote resolves the owner/name identifier of the local checkout.
package gitremote

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
)

const originRemote = "origin"

// ErrNotGitHubRemote is returned when a remote URL does not point at github.com.
var ErrNotGitHubRemote = errors.New("remote url is not a github.com repository")

var remotePattern = regexp.MustCompile(`github\.com[:/]([^/]+/[^/]+?)(?:\.git)?$`)

// ParseRemoteURL extracts owner/name from an ssh or https github.com remote URL.
func ParseRemoteURL(remoteURL string) (string, error) {
	match := remotePattern.FindStringSubmatch(strings.TrimSpace(remoteURL))
	if match == nil {
		return "", fmt.Errorf("parse %q: %w", remoteURL, ErrNotGitHubRemote)
	}
	return match[1], nil
}

// OriginRepository opens the repository containing dir and parses its origin remote.
func OriginRepository(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open git repository: %w", err)
	}

	remote, err := repo.Remote(originRemote)
	if err != nil {
		return "", fmt.Errorf("read remote %s: %w", originRemote, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no url", originRemote)
	}
	return ParseRemoteURL(urls[0])
}
