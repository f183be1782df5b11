package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrImportFailed is returned when GitHub reports a terminal import failure.
var ErrImportFailed = errors.New("repository import failed")

// importFailureStates are the import statuses GitHub never recovers from.
var importFailureStates = map[string]bool{
	"error":                   true,
	"auth_failed":             true,
	"detection_found_nothing": true,
	"detection_needs_auth":    true,
}

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepoURL extracts owner and name from
// https://github.com/<owner>/<name>[.git][/...].
func ParseRepoURL(rawURL string) (Repository, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Repository{}, fmt.Errorf("invalid repository URL %q: %w", rawURL, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("repository URL %q has no owner/name path", rawURL)
	}
	return Repository{
		Owner: parts[0],
		Name:  strings.TrimSuffix(parts[1], ".git"),
	}, nil
}

// CreateRepository creates name in the configured organisation.
func (c *Client) CreateRepository(ctx context.Context, name string) error {
	path := fmt.Sprintf("orgs/%s/repos", url.PathEscape(c.org))
	if err := c.requestJSON(ctx, http.MethodPost, path, map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("failed to create repository %s/%s: %w", c.org, name, err)
	}
	c.logger.Info("Created repository %s/%s", c.org, name)
	return nil
}

// DeleteRepository deletes repo. An empty owner means the configured
// organisation.
func (c *Client) DeleteRepository(ctx context.Context, repo Repository) error {
	if repo.Owner == "" {
		repo.Owner = c.org
	}
	if err := c.requestJSON(ctx, http.MethodDelete, repoPath(repo), nil, nil); err != nil {
		return fmt.Errorf("failed to delete repository %s: %w", repo, err)
	}
	c.logger.Info("Deleted repository %s", repo)
	return nil
}

// ImportRepository starts a source import of fromURL into toName in the
// configured organisation and waits until GitHub reports it complete.
func (c *Client) ImportRepository(ctx context.Context, fromURL, toName string) error {
	repo := Repository{Owner: c.org, Name: toName}
	body := map[string]string{
		"vcs":     "git",
		"vcs_url": fromURL,
	}
	if err := c.requestJSON(ctx, http.MethodPut, repoPath(repo)+"/import", body, nil); err != nil {
		return fmt.Errorf("failed to start import of %s into %s: %w", fromURL, repo, err)
	}
	c.logger.Info("Started import of %s into %s", fromURL, repo)
	return c.WaitForImport(ctx, repo, c.importPoll)
}

// WaitForImport polls the import status of repo until it is complete.
func (c *Client) WaitForImport(ctx context.Context, repo Repository, opts PollOptions) error {
	target, err := c.resolve(repoPath(repo)+"/import", nil)
	if err != nil {
		return err
	}
	if _, err := c.PollUntil(ctx, target, importComplete, opts); err != nil {
		return fmt.Errorf("import into %s did not complete: %w", repo, err)
	}
	return nil
}

func importComplete(body []byte) (bool, error) {
	var status struct {
		Status string `json:"status"`
		Text   string `json:"status_text"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return false, nil
	}
	if importFailureStates[status.Status] {
		return false, fmt.Errorf("%w: status %q: %s", ErrImportFailed, status.Status, status.Text)
	}
	return status.Status == "complete", nil
}

// SearchPullRequestNumber returns the number of the first pull request in
// repo whose search text matches component.
func (c *Client) SearchPullRequestNumber(ctx context.Context, component string, repo Repository) (string, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("%s type:pr repo:%s", component, repo))

	resp, err := c.Request(ctx, http.MethodGet, "search/issues", RequestOptions{
		Query:            query,
		FailOnStatusCode: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to search pull requests in %s: %w", repo, err)
	}

	var result struct {
		Items []struct {
			Number int `json:"number"`
		} `json:"items"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		return "", err
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("no pull request for %q in %s", component, repo)
	}
	return strconv.Itoa(result.Items[0].Number), nil
}

func repoPath(repo Repository) string {
	return fmt.Sprintf("repos/%s/%s", url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
}
