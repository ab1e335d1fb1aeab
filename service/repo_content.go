package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/constants"
)

// defaultContentAPIBaseURL is the hosting provider's REST endpoint
const defaultContentAPIBaseURL = "https://api.github.com"

// contentAPIResponse is the subset of the contents API payload we consume
type contentAPIResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GitHubContentFetcher implements domain.ContentFetcher against the GitHub
// contents API. A 404 maps to domain.ErrFileAbsent, which is an outcome, not
// a failure; anything else unexpected maps to an API error.
type GitHubContentFetcher struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGitHubContentFetcher creates a content fetcher. The token is optional
// and only raises rate limits.
func NewGitHubContentFetcher(token string) *GitHubContentFetcher {
	return &GitHubContentFetcher{
		baseURL: defaultContentAPIBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NewGitHubContentFetcherWithBaseURL creates a content fetcher against a
// custom endpoint. Used by tests and GitHub Enterprise installations.
func NewGitHubContentFetcherWithBaseURL(baseURL, token string) *GitHubContentFetcher {
	f := NewGitHubContentFetcher(token)
	f.baseURL = strings.TrimRight(baseURL, "/")
	return f
}

// FetchFile retrieves a single file from the repository's branch
func (f *GitHubContentFetcher) FetchFile(ctx context.Context, repo domain.RepoRef, path string) ([]byte, error) {
	branch := repo.Branch
	if branch == "" {
		branch = constants.DefaultBranch
	}

	requestURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		f.baseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name),
		escapeContentPath(path), url.QueryEscape(branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, domain.NewAPIError("failed to build content request", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(
			fmt.Sprintf("content lookup failed for %s", repo.Slug()), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrFileAbsent
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewAPIError(
			fmt.Sprintf("content API returned status %d for %s", resp.StatusCode, path), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError("failed to read content response", err)
	}

	var payload contentAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NewAPIError("malformed content API response", err)
	}
	if payload.Encoding != "base64" {
		return nil, domain.NewAPIError(
			fmt.Sprintf("unexpected content encoding %q", payload.Encoding), nil)
	}

	// The API wraps base64 payloads with newlines
	decoded, err := base64.StdEncoding.DecodeString(
		strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, domain.NewAPIError("failed to decode file content", err)
	}
	return decoded, nil
}

// escapeContentPath escapes each path segment while keeping the separators,
// so names with spaces or fragment characters address the right resource
func escapeContentPath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
