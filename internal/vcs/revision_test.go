package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevision_NotARepository(t *testing.T) {
	rev, err := Revision(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, rev)
}

func TestRevision_EmptyRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	rev, err := Revision(dir)
	require.NoError(t, err)
	assert.Empty(t, rev)
}

func TestRevision_FromSubdirectory(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.md"), []byte("# Home\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("docs/index.md")
	require.NoError(t, err)
	hash, err := wt.Commit("docs", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	rev, err := Revision(docs)
	require.NoError(t, err)
	assert.Equal(t, hash.String()[:ShortHashLen], rev)
}
