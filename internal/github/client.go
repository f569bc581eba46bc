// Package github implements the remote release provider against the GitHub
// REST API.
package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/waabox/devsync/internal/domain"
)

const defaultBaseURL = "https://api.github.com"

// Client implements domain.ReleaseProvider for GitHub. Without a token
// every call degrades to a logged no-op: a missing credential disables the
// release features, it never fails the pipeline.
type Client struct {
	token    string
	baseURL  string
	client   *http.Client
	reporter domain.Reporter
}

var _ domain.ReleaseProvider = (*Client)(nil)

// NewClient creates a GitHub client. baseURL is used for testing; pass
// empty string to use the real GitHub API.
func NewClient(token string, baseURL string, reporter domain.Reporter) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if reporter == nil {
		reporter = domain.NopReporter{}
	}
	return &Client{
		token:    token,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		reporter: reporter,
	}
}

// HasCredential reports whether the client can reach the API at all.
func (c *Client) HasCredential() bool {
	return c.token != ""
}

// CreateRelease publishes a release for an existing tag and returns its
// URL. In degraded mode it logs and returns ("", nil).
func (c *Client) CreateRelease(repo domain.Repository, req domain.ReleaseRequest) (string, error) {
	if !c.HasCredential() {
		c.reporter.Warn("Cannot create release without a GitHub token")
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases", c.baseURL, repo.Owner, repo.Name)
	payload := map[string]interface{}{
		"tag_name":   req.TagName,
		"name":       req.Name,
		"body":       req.Body,
		"draft":      req.Draft,
		"prerelease": req.Prerelease,
	}
	var result struct {
		HTMLURL string `json:"html_url"`
	}
	if err := c.post(endpoint, payload, &result); err != nil {
		return "", fmt.Errorf("creating release %s: %w", req.TagName, err)
	}
	return result.HTMLURL, nil
}

// ListReleases returns all releases for the repository, most recent first.
// Degraded mode yields an empty list.
func (c *Client) ListReleases(repo domain.Repository) ([]domain.Release, error) {
	if !c.HasCredential() {
		c.reporter.Warn("Cannot list releases without a GitHub token")
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases", c.baseURL, repo.Owner, repo.Name)
	var raw []apiRelease
	if err := c.get(endpoint, &raw); err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	releases := make([]domain.Release, len(raw))
	for i, r := range raw {
		releases[i] = r.toRelease()
	}
	return releases, nil
}

// UploadAsset attaches the file at path to the release tagged tag. The
// upload endpoint is taken from the release's upload_url, so it follows
// GitHub's separate uploads host.
func (c *Client) UploadAsset(repo domain.Repository, tag string, path string) error {
	if !c.HasCredential() {
		c.reporter.Warn("Cannot upload assets without a GitHub token")
		return nil
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.baseURL, repo.Owner, repo.Name, tag)
	var release struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.get(endpoint, &release); err != nil {
		return fmt.Errorf("resolving release for tag %s: %w", tag, err)
	}

	// upload_url arrives as a URI template: .../assets{?name,label}
	uploadURL := release.UploadURL
	if i := strings.Index(uploadURL, "{"); i >= 0 {
		uploadURL = uploadURL[:i]
	}
	uploadURL += "?name=" + url.QueryEscape(filepath.Base(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading asset %s: %w", path, err)
	}

	req, err := http.NewRequest(http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("uploading asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// LatestRunStatus reports the state of the newest workflow run on branch,
// or RunUnknown when none is visible. Degraded mode also reports
// RunUnknown.
func (c *Client) LatestRunStatus(repo domain.Repository, branch string) (domain.RunStatus, error) {
	if !c.HasCredential() {
		return domain.RunUnknown, nil
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/actions/runs?branch=%s&per_page=1",
		c.baseURL, repo.Owner, repo.Name, url.QueryEscape(branch))
	var result struct {
		WorkflowRuns []workflowRun `json:"workflow_runs"`
	}
	if err := c.get(endpoint, &result); err != nil {
		return domain.RunUnknown, fmt.Errorf("querying workflow runs: %w", err)
	}
	if len(result.WorkflowRuns) == 0 {
		return domain.RunUnknown, nil
	}
	run := result.WorkflowRuns[0]
	return mapRunStatus(run.Status, run.Conclusion), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

func (c *Client) get(endpoint string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) post(endpoint string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func (c *Client) apiError(resp *http.Response) error {
	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("github API error: %s (ensure the token has 'repo' scope)", resp.Status)
	}
	return fmt.Errorf("github API error: %s", resp.Status)
}

// apiRelease is the raw GitHub API response shape for a release.
type apiRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Body       string `json:"body"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	CreatedAt  string `json:"created_at"`
	HTMLURL    string `json:"html_url"`
}

func (r apiRelease) toRelease() domain.Release {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.Release{
		TagName:    r.TagName,
		Name:       r.Name,
		Body:       r.Body,
		Draft:      r.Draft,
		Prerelease: r.Prerelease,
		CreatedAt:  created,
		HTMLURL:    r.HTMLURL,
	}
}

// workflowRun is the raw GitHub API response shape for a workflow run.
type workflowRun struct {
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

func mapRunStatus(status, conclusion string) domain.RunStatus {
	if status == "in_progress" || status == "queued" || status == "waiting" {
		return domain.RunRunning
	}
	if status == "completed" {
		switch conclusion {
		case "success":
			return domain.RunSuccess
		case "failure", "timed_out":
			return domain.RunFailed
		case "cancelled":
			return domain.RunCancelled
		}
	}
	return domain.RunPending
}
