package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitRequest(t *testing.T, ch <-chan Request, reason string) Request {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case r := <-ch:
			if r.Reason == reason {
				return r
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s request", reason)
			return Request{}
		}
	}
}

func TestWatcher_SourceAndConfigChanges(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	out := filepath.Join(docs, "site")
	require.NoError(t, os.MkdirAll(out, 0o750))
	cfgPath := filepath.Join(dir, "codedoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("version: \"1.0\"\n"), 0o600))

	requests := make(chan Request, 32)
	w, err := NewWatcher(docs, cfgPath, []string{out}, func(r Request) { requests <- r }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.md"), []byte("# Home\n"), 0o600))
	r := waitRequest(t, requests, ReasonSource)
	assert.Equal(t, "index.md", filepath.Base(r.Path))

	require.NoError(t, os.WriteFile(cfgPath, []byte("version: \"1.0\"\nproject:\n  title: X\n"), 0o600))
	waitRequest(t, requests, ReasonConfig)

	sub := filepath.Join(docs, "guide")
	require.NoError(t, os.Mkdir(sub, 0o750))
	waitRequest(t, requests, ReasonSource)
	// Give the watcher a moment to register the new directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "intro.md"), []byte("# Intro\n"), 0o600))
	r = waitRequest(t, requests, ReasonSource)
	assert.Contains(t, r.Path, "guide")
}

func TestWatcher_IgnoresOutputAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(out, 0o750))

	requests := make(chan Request, 32)
	w, err := NewWatcher(dir, "", []string{out}, func(r Request) { requests <- r }, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o600))

	select {
	case r := <-requests:
		t.Fatalf("unexpected request %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_CloseWithoutStart(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), "", nil, func(Request) {}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}
