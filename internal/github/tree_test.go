package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeGitData serves the six Git Data API calls made by DeleteFolder.
func fakeGitData(t *testing.T, failStep string) (http.Handler, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.Body))
		}
		requests = append(requests, rec)

		step := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/repos/owner/repo/git")
		if step == failStep {
			w.WriteHeader(http.StatusConflict)
			return
		}

		switch step {
		case "GET /refs/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"commit-old"}}`))
		case "GET /commits/commit-old":
			_, _ = w.Write([]byte(`{"sha":"commit-old","tree":{"sha":"tree-root"}}`))
		case "GET /trees/main:docs/guide":
			_, _ = w.Write([]byte(`{"sha":"tree-folder","truncated":false,"tree":[
				{"path":"a.md","mode":"100644","type":"blob","sha":"b1"},
				{"path":"img","mode":"040000","type":"tree","sha":"t1"},
				{"path":"img/logo.png","mode":"100644","type":"blob","sha":"b2"},
				{"path":"run.sh","mode":"100755","type":"blob","sha":"b3"}
			]}`))
		case "POST /trees":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"sha":"tree-new"}`))
		case "POST /commits":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"sha":"commit-new","tree":{"sha":"tree-new"}}`))
		case "PATCH /refs/heads/main":
			_, _ = w.Write([]byte(`{"object":{"sha":"commit-new"}}`))
		default:
			t.Errorf("unexpected request %s", step)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return handler, &requests
}

func TestDeleteFolder(t *testing.T) {
	handler, requests := fakeGitData(t, "")
	c, _ := newTestClient(t, handler)

	result, err := c.DeleteFolder(context.Background(), Repository{"owner", "repo"}, "docs/guide")
	require.NoError(t, err)

	assert.Equal(t, &DeleteFolderResult{
		OldCommit:    "commit-old",
		NewCommit:    "commit-new",
		NewTree:      "tree-new",
		DeletedBlobs: 3,
	}, result)

	require.Len(t, *requests, 6)
	reqs := *requests

	assert.Equal(t, "recursive=1", reqs[2].Query)

	treeReq := reqs[3]
	assert.Equal(t, "tree-root", treeReq.Body["base_tree"])
	entries, ok := treeReq.Body["tree"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 3)
	for _, raw := range entries {
		entry := raw.(map[string]any)
		sha, present := entry["sha"]
		assert.True(t, present, "sha must be serialised")
		assert.Nil(t, sha)
		assert.True(t, strings.HasPrefix(entry["path"].(string), "docs/guide/"))
		assert.Equal(t, "blob", entry["type"])
	}

	commitReq := reqs[4]
	assert.Equal(t, "tree-new", commitReq.Body["tree"])
	assert.Equal(t, []any{"commit-old"}, commitReq.Body["parents"])

	refReq := reqs[5]
	assert.Equal(t, http.MethodPatch, refReq.Method)
	assert.Equal(t, "commit-new", refReq.Body["sha"])
}

func TestDeleteFolder_AbortsOnFirstFailure(t *testing.T) {
	handler, requests := fakeGitData(t, "POST /commits")
	c, _ := newTestClient(t, handler)

	_, err := c.DeleteFolder(context.Background(), Repository{"owner", "repo"}, "docs/guide")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create commit")
	assert.Len(t, *requests, 5, "the ref is never updated")
}

func TestDeleteFolder_RejectsRepositoryRoot(t *testing.T) {
	for _, folder := range []string{"", "/", "//"} {
		handler, requests := fakeGitData(t, "")
		c, _ := newTestClient(t, handler)

		_, err := c.DeleteFolder(context.Background(), Repository{"owner", "repo"}, folder)
		require.ErrorIs(t, err, ErrNoFolder, "folder %q", folder)
		assert.Empty(t, *requests, "folder %q must not reach the API", folder)
	}
}

func TestBuildDeletionTree(t *testing.T) {
	sha := "abc"
	entries := []TreeEntry{
		{Path: "a.txt", Mode: "100644", Type: "blob", SHA: &sha},
		{Path: "sub", Mode: "040000", Type: "tree", SHA: &sha},
		{Path: "sub/b.txt", Mode: "100644", Type: "blob", SHA: &sha},
	}

	got := BuildDeletionTree("/folder/", entries)
	assert.Equal(t, []TreeEntry{
		{Path: "folder/a.txt", Mode: "100644", Type: "blob"},
		{Path: "folder/sub/b.txt", Mode: "100644", Type: "blob"},
	}, got)

	data, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"folder/a.txt","mode":"100644","type":"blob","sha":null}`, string(data))
}

func TestBuildDeletionTree_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		folder := rapid.StringMatching(`[a-z]{1,8}(/[a-z]{1,8}){0,2}`).Draw(rt, "folder")
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		entries := make([]TreeEntry, n)
		blobs := 0
		for i := range entries {
			typ := rapid.SampledFrom([]string{"blob", "tree", "commit"}).Draw(rt, "type")
			if typ == "blob" {
				blobs++
			}
			sha := rapid.StringMatching(`[0-9a-f]{40}`).Draw(rt, "sha")
			entries[i] = TreeEntry{
				Path: rapid.StringMatching(`[a-z]{1,8}\.txt`).Draw(rt, "path"),
				Mode: "100644",
				Type: typ,
				SHA:  &sha,
			}
		}

		got := BuildDeletionTree(folder, entries)
		if len(got) != blobs {
			rt.Fatalf("expected %d entries, got %d", blobs, len(got))
		}
		for _, e := range got {
			if e.SHA != nil {
				rt.Fatalf("entry %s keeps its sha", e.Path)
			}
			if !strings.HasPrefix(e.Path, folder+"/") {
				rt.Fatalf("entry %s not under %s", e.Path, folder)
			}
		}
	})
}
