// Package version holds build information and release-update checks
// against the GitHub releases API.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// Version and Commit are stamped at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
)

const (
	// DefaultBaseURL is the GitHub API endpoint.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds a release lookup.
	DefaultTimeout = 30 * time.Second

	// releaseRepo is where paygate releases are published.
	releaseRepo = "paygatehq/paygate"

	maxResponseBodySize = 64 * 1024
)

// ErrReleaseLookupFailed indicates the GitHub API request failed.
var ErrReleaseLookupFailed = errors.New("release lookup failed")

// Release is the subset of a GitHub release the update check needs.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Client fetches release information.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a release client. baseURL may be empty for the
// real GitHub API; tests point it at a local server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// LatestRelease fetches the latest published release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, releaseRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("paygate/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH))
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrReleaseLookupFailed, resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &release, nil
}

// Compare compares two version strings. Returns 1 if v1 > v2, 0 if
// equal, -1 if v1 < v2. Development builds ("dev", empty, bare commit
// hashes) sort below every release.
func Compare(v1, v2 string) int {
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	dev1 := v1 == "dev" || v1 == "" || isCommitHash(v1)
	dev2 := v2 == "dev" || v2 == "" || isCommitHash(v2)
	if dev1 && dev2 {
		return 0
	}
	if dev1 {
		return -1
	}
	if dev2 {
		return 1
	}

	parts1 := parseVersion(v1)
	parts2 := parseVersion(v2)
	for i := 0; i < 3; i++ {
		var a, b int
		if i < len(parts1) {
			a = parts1[i]
		}
		if i < len(parts2) {
			b = parts2[i]
		}
		if a > b {
			return 1
		}
		if a < b {
			return -1
		}
	}
	return 0
}

// IsNewer reports whether latest is a newer release than current.
func IsNewer(current, latest string) bool {
	return Compare(latest, current) > 0
}

// parseVersion splits a semver string into its numeric parts,
// discarding pre-release and build suffixes.
func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	parts := strings.Split(version, ".")
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		var n int
		if _, err := fmt.Sscanf(part, "%d", &n); err == nil {
			result = append(result, n)
		}
	}
	return result
}

// isCommitHash reports whether s looks like a git commit hash: 7-40
// hex characters with at least one letter.
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	hasLetter := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			hasLetter = true
		default:
			return false
		}
	}
	return hasLetter
}
