package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/moolen/hac-console/internal/logging"
)

// ErrEmptyFolder is returned when the folder holds no blobs to delete.
var ErrEmptyFolder = errors.New("folder contains no files")

// ErrNoFolder is returned when the folder path is empty after trimming
// slashes, which would address the repository root.
var ErrNoFolder = errors.New("folder path must not be empty")

// TreeEntry is an entry of a Git tree. A nil SHA is serialised as null,
// which deletes the path when posted against a base tree.
type TreeEntry struct {
	Path string  `json:"path"`
	Mode string  `json:"mode"`
	Type string  `json:"type"`
	SHA  *string `json:"sha"`
}

// DeleteFolderResult describes the commit that removed a folder.
type DeleteFolderResult struct {
	OldCommit    string
	NewCommit    string
	NewTree      string
	DeletedBlobs int
}

type gitObjectRef struct {
	SHA string `json:"sha"`
}

type gitRef struct {
	Object gitObjectRef `json:"object"`
}

type gitCommit struct {
	SHA  string       `json:"sha"`
	Tree gitObjectRef `json:"tree"`
}

type gitTree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// BuildDeletionTree turns a recursive listing of folder into tree entries
// that delete every blob in it. Non-blob entries are dropped.
func BuildDeletionTree(folder string, entries []TreeEntry) []TreeEntry {
	folder = strings.Trim(folder, "/")
	out := make([]TreeEntry, 0, len(entries))
	for _, e := range entries {
		if e.Type != "blob" {
			continue
		}
		out = append(out, TreeEntry{
			Path: folder + "/" + e.Path,
			Mode: e.Mode,
			Type: e.Type,
		})
	}
	return out
}

// DeleteFolder removes folder from the configured branch of repo with a
// single commit built through the Git Data API. The steps run in order and
// the first failure aborts; nothing is rolled back.
func (c *Client) DeleteFolder(ctx context.Context, repo Repository, folder string) (*DeleteFolderResult, error) {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return nil, ErrNoFolder
	}
	base := repoPath(repo) + "/git"
	refPath := base + "/refs/heads/" + url.PathEscape(c.branch)
	logger := c.logger.WithContext(ctx).WithFields(
		logging.Field("repo", repo.String()),
		logging.Field("folder", folder),
	)

	var ref gitRef
	if err := c.requestJSON(ctx, http.MethodGet, refPath, nil, &ref); err != nil {
		return nil, fmt.Errorf("get branch ref: %w", err)
	}
	oldCommit := ref.Object.SHA

	var commit gitCommit
	if err := c.requestJSON(ctx, http.MethodGet, base+"/commits/"+oldCommit, nil, &commit); err != nil {
		return nil, fmt.Errorf("get commit %s: %w", oldCommit, err)
	}
	rootTree := commit.Tree.SHA

	var listing gitTree
	treeRef := escapePath(c.branch + ":" + folder)
	if err := c.requestJSON(ctx, http.MethodGet, base+"/trees/"+treeRef+"?recursive=1", nil, &listing); err != nil {
		return nil, fmt.Errorf("list folder tree: %w", err)
	}
	if listing.Truncated {
		logger.Warn("Tree listing is truncated, some files may not be deleted")
	}

	entries := BuildDeletionTree(folder, listing.Tree)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFolder, folder)
	}

	var newTree gitTree
	treeBody := map[string]any{
		"base_tree": rootTree,
		"tree":      entries,
	}
	if err := c.requestJSON(ctx, http.MethodPost, base+"/trees", treeBody, &newTree); err != nil {
		return nil, fmt.Errorf("create tree: %w", err)
	}

	var newCommit gitCommit
	commitBody := map[string]any{
		"message": "Delete " + folder,
		"tree":    newTree.SHA,
		"parents": []string{oldCommit},
	}
	if err := c.requestJSON(ctx, http.MethodPost, base+"/commits", commitBody, &newCommit); err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}

	if err := c.requestJSON(ctx, http.MethodPatch, refPath, map[string]string{"sha": newCommit.SHA}, nil); err != nil {
		return nil, fmt.Errorf("update branch ref: %w", err)
	}

	logger.InfoWithFields("Deleted folder",
		logging.Field("commit", newCommit.SHA),
		logging.Field("files", len(entries)),
	)
	return &DeleteFolderResult{
		OldCommit:    oldCommit,
		NewCommit:    newCommit.SHA,
		NewTree:      newTree.SHA,
		DeletedBlobs: len(entries),
	}, nil
}

// escapePath escapes each segment of a slash separated path while keeping
// the separators.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
