package helpers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/github"
	"github.com/stretchr/testify/assert"
)

func TestGitHub_RepositoryLifecycle(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/orgs/test-org/repos":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"name":"demo"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/search/issues":
			_, _ = w.Write([]byte(`{"total_count":1,"items":[{"number":42}]}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.GitHub.APIURL = srv.URL
	cfg.GitHub.Org = "test-org"
	cfg.GitHub.Token = "token"
	cfg.GitHub.RequestTimeout = 5 * time.Second

	t.Run("create and search", func(t *testing.T) {
		gh := NewGitHub(t, cfg, github.WithHTTPClient(srv.Client()))

		repo := gh.CreateRepository("demo")
		assert.Equal(t, github.Repository{Owner: "test-org", Name: "demo"}, repo)
		assert.Equal(t, "42", gh.PullRequestNumber("demo", repo))
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"POST /orgs/test-org/repos",
		"GET /search/issues",
		"DELETE /repos/test-org/demo",
	}, calls)
}

func TestGitHub_ImportAndDeleteFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "PUT /repos/test-org/demo/import":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":"importing"}`))
		case "GET /repos/test-org/demo/import":
			_, _ = w.Write([]byte(`{"status":"complete"}`))
		case "GET /repos/test-org/demo/git/refs/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"c1"}}`))
		case "GET /repos/test-org/demo/git/commits/c1":
			_, _ = w.Write([]byte(`{"sha":"c1","tree":{"sha":"t1"}}`))
		case "GET /repos/test-org/demo/git/trees/main:docs":
			_, _ = w.Write([]byte(`{"sha":"t2","tree":[{"path":"a.md","mode":"100644","type":"blob","sha":"b1"}]}`))
		case "POST /repos/test-org/demo/git/trees":
			_, _ = w.Write([]byte(`{"sha":"t3"}`))
		case "POST /repos/test-org/demo/git/commits":
			_, _ = w.Write([]byte(`{"sha":"c2","tree":{"sha":"t3"}}`))
		case "PATCH /repos/test-org/demo/git/refs/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"c2"}}`))
		case "DELETE /repos/test-org/demo":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.GitHub.APIURL = srv.URL
	cfg.GitHub.Org = "test-org"
	cfg.GitHub.RequestsPerSecond = 1000
	gh := NewGitHub(t, cfg,
		github.WithHTTPClient(srv.Client()),
		github.WithImportPoll(github.PollOptions{Interval: time.Millisecond, MaxAttempts: 3}),
	)

	repo := gh.ImportRepository("https://github.com/upstream/demo", "demo")
	assert.Equal(t, "test-org/demo", repo.String())

	resp := gh.WaitForResponseBody(srv.URL+"/repos/test-org/demo/import", `"status":"complete"`,
		github.PollOptions{Interval: time.Millisecond, MaxAttempts: 2})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	res := gh.DeleteFolder(repo, "docs")
	assert.Equal(t, "c2", res.NewCommit)
	assert.Equal(t, 1, res.DeletedBlobs)

	gh.DeleteRepository(repo)
}
