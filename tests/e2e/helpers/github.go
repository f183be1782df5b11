package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/github"
	"github.com/stretchr/testify/require"
)

const gitHubTimeout = 10 * time.Minute

// GitHub wraps the GitHub client for tests. Every call fails the test on
// error.
type GitHub struct {
	client *github.Client
	t      *testing.T
}

// NewGitHub builds a client from cfg.GitHub. Extra options are passed
// through, e.g. to point the client at a test server.
func NewGitHub(t *testing.T, cfg config.Config, opts ...github.Option) *GitHub {
	t.Helper()
	client, err := github.NewClient(cfg.GitHub, opts...)
	require.NoError(t, err, "failed to create GitHub client")
	return &GitHub{client: client, t: t}
}

// CreateRepository creates name in the configured organisation and deletes
// it again when the test finishes.
func (g *GitHub) CreateRepository(name string) github.Repository {
	g.t.Helper()
	ctx, cancel := g.context()
	defer cancel()

	require.NoError(g.t, g.client.CreateRepository(ctx, name), "failed to create repository %s", name)
	repo := github.Repository{Owner: g.client.Org(), Name: name}
	g.t.Logf("✓ Repository created: %s", repo)
	g.t.Cleanup(func() { g.deleteQuietly(repo) })
	return repo
}

// DeleteRepository deletes repo.
func (g *GitHub) DeleteRepository(repo github.Repository) {
	g.t.Helper()
	ctx, cancel := g.context()
	defer cancel()

	require.NoError(g.t, g.client.DeleteRepository(ctx, repo), "failed to delete repository %s", repo)
	g.t.Logf("✓ Repository deleted: %s", repo)
}

// ImportRepository imports fromURL into a new repository named toName and
// waits for the import to complete.
func (g *GitHub) ImportRepository(fromURL, toName string) github.Repository {
	g.t.Helper()
	ctx, cancel := g.context()
	defer cancel()

	require.NoError(g.t, g.client.ImportRepository(ctx, fromURL, toName), "failed to import %s into %s", fromURL, toName)
	repo := github.Repository{Owner: g.client.Org(), Name: toName}
	g.t.Logf("✓ Repository imported: %s", repo)
	return repo
}

// DeleteFolder removes folder from the configured branch of repo.
func (g *GitHub) DeleteFolder(repo github.Repository, folder string) *github.DeleteFolderResult {
	g.t.Helper()
	ctx, cancel := g.context()
	defer cancel()

	res, err := g.client.DeleteFolder(ctx, repo, folder)
	require.NoError(g.t, err, "failed to delete folder %s in %s", folder, repo)
	g.t.Logf("✓ Folder %s deleted from %s (%d blobs, commit %s)", folder, repo, res.DeletedBlobs, res.NewCommit)
	return res
}

// PullRequestNumber returns the number of the pull request opened for
// component in repo.
func (g *GitHub) PullRequestNumber(component string, repo github.Repository) string {
	g.t.Helper()
	ctx, cancel := g.context()
	defer cancel()

	number, err := g.client.SearchPullRequestNumber(ctx, component, repo)
	require.NoError(g.t, err, "failed to find pull request for %s in %s", component, repo)
	return number
}

// WaitForResponseBody polls url until a 200 response contains content.
func (g *GitHub) WaitForResponseBody(url, content string, opts github.PollOptions) *github.Response {
	g.t.Helper()
	ctx, cancel := g.context()
	defer cancel()

	resp, err := g.client.PollResponseBody(ctx, url, content, opts)
	require.NoError(g.t, err, "response of %s never contained %q", url, content)
	return resp
}

func (g *GitHub) deleteQuietly(repo github.Repository) {
	ctx, cancel := g.context()
	defer cancel()
	if err := g.client.DeleteRepository(ctx, repo); err != nil {
		g.t.Logf("Warning: failed to delete repository %s: %v", repo, err)
	}
}

func (g *GitHub) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), gitHubTimeout)
}
