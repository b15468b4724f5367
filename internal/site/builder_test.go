package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/codedoc/internal/codefilter"
	"git.home.luguber.info/inful/codedoc/internal/config"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/highlight"
	"git.home.luguber.info/inful/codedoc/internal/index"
	"git.home.luguber.info/inful/codedoc/internal/manifest"
	"git.home.luguber.info/inful/codedoc/internal/metrics"
	"git.home.luguber.info/inful/codedoc/internal/render"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	skipped  int
	rendered int
	outcomes []metrics.BuildOutcomeLabel
}

func (c *countingRecorder) IncPagesSkipped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped++
}

func (c *countingRecorder) ObservePageRender(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendered++
}

func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

type fixture struct {
	cfg   *config.Config
	store *index.Store
	in    string
	out   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default().Clone()
	cfg.Build.Input = filepath.Join(dir, "docs")
	cfg.Build.Output = filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(cfg.Build.Input, 0o750))

	store, err := index.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return &fixture{cfg: cfg, store: store, in: cfg.Build.Input, out: cfg.Build.Output}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.in, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) build(t *testing.T, opts ...Option) (*Report, error) {
	t.Helper()
	opts = append([]Option{WithRevision("abc1234"), WithHighlighter(highlight.Plain{})}, opts...)
	b, err := NewBuilder(f.cfg, f.store, opts...)
	require.NoError(t, err)
	return b.Build(context.Background())
}

const containersPage = `---
title: Containers
keywords: [array]
---
# Containers

## SmallVector

` + "```cpp\nSmallVector<int, 4> v DOXYGEN_IGNORE(= {});\nauto x = DOXYGEN_ELLIPSIS(1, (2), 3);\n```\n"

func TestBuild_RendersPagesAndSearchData(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.md", "# Home\n\nWelcome.\n")
	f.write(t, "api/containers.md", containersPage)

	report, err := f.build(t)
	require.NoError(t, err)
	assert.Equal(t, metrics.BuildOutcomeSuccess, report.Outcome)
	assert.NotEmpty(t, report.BuildID)
	assert.Equal(t, 2, report.Pages)
	assert.ElementsMatch(t, []string{"index.html", "api/containers.html"}, report.Rendered)
	assert.Contains(t, report.StageDurations, StageManifest)

	page := f.read(t, "api/containers.html")
	assert.Contains(t, page, "<title>Containers | ")
	assert.Contains(t, page, "SmallVector&lt;int, 4&gt; v ;")
	assert.Contains(t, page, "auto x = "+codefilter.Ellipsis+";")
	assert.NotContains(t, page, "DOXYGEN_")
	assert.Contains(t, page, "abc1234")
	assert.Contains(t, page, `href="../pages.html"`)

	var data SearchData
	require.NoError(t, json.Unmarshal([]byte(f.read(t, render.SearchDataBinary)), &data))
	assert.Equal(t, SearchDataVersion, data.Version)
	assert.Equal(t, report.BuildID, data.BuildID)
	assert.Equal(t, report.SearchEntries, len(data.Entries))

	urls := make([]string, 0, len(data.Entries))
	for _, e := range data.Entries {
		urls = append(urls, e.URL)
	}
	assert.Contains(t, urls, "api/containers.html#smallvector")
	assert.Contains(t, urls, "index.html")

	m, err := manifest.Read(f.out)
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, m.ID)
	assert.Equal(t, "abc1234", m.Inputs.Revision)
	assert.Equal(t, []string{"api/containers.html", "index.html"}, m.Outputs.Rendered)
	assert.Contains(t, m.Outputs.ArtifactHashes, render.SearchDataBinary)
}

func TestBuild_SkipsUnchangedPages(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.md", "# A\n")
	f.write(t, "b.md", "# B\n")
	rec := &countingRecorder{}

	_, err := f.build(t, WithRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.rendered)

	report, err := f.build(t, WithRecorder(rec))
	require.NoError(t, err)
	assert.Empty(t, report.Rendered)
	assert.ElementsMatch(t, []string{"a.html", "b.html"}, report.Skipped)
	assert.Equal(t, 2, rec.skipped)

	f.write(t, "b.md", "# B\n\nChanged.\n")
	report, err = f.build(t, WithRecorder(rec))
	require.NoError(t, err)
	assert.Equal(t, []string{"b.html"}, report.Rendered)

	report, err = f.build(t, WithRecorder(rec), WithForce(true))
	require.NoError(t, err)
	assert.Len(t, report.Rendered, 2)

	require.NoError(t, os.Remove(filepath.Join(f.out, "a.html")))
	report, err = f.build(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html"}, report.Rendered, "missing output is rebuilt")

	assert.Equal(t, []metrics.BuildOutcomeLabel{
		metrics.BuildOutcomeSuccess, metrics.BuildOutcomeSuccess,
		metrics.BuildOutcomeSuccess, metrics.BuildOutcomeSuccess,
	}, rec.outcomes)
}

func TestBuild_ConfigChangeInvalidatesPages(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.md", "# A\n")

	_, err := f.build(t)
	require.NoError(t, err)

	f.cfg.Project.Title = "Renamed"
	report, err := f.build(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html"}, report.Rendered)
	assert.Contains(t, f.read(t, "a.html"), "| Renamed</title>")
}

func TestBuild_RevisionChangeRelabelsPages(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.md", "# A\n")

	_, err := f.build(t)
	require.NoError(t, err)

	report, err := f.build(t, WithRevision("def5678"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html"}, report.Rendered)
	assert.Contains(t, f.read(t, "a.html"), "def5678")

	f.cfg.Project.VersionLabels = false
	_, err = f.build(t)
	require.NoError(t, err)
	report, err = f.build(t, WithRevision("0000000"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html"}, report.Skipped)
}

func TestBuild_DraftsAndUndocumentedPages(t *testing.T) {
	f := newFixture(t)
	f.write(t, "draft.md", "---\ndraft: true\n---\n# Draft\n")
	f.write(t, "empty.md", "---\ntitle: Empty\n---\n")
	f.write(t, "real.md", "# Real\n")

	report, err := f.build(t)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"empty.html", "real.html"}, report.Rendered)

	f.cfg.Project.ShowUndocumented = false
	report, err = f.build(t)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, []string{"empty.html"}, report.Removed)
	assert.NoFileExists(t, filepath.Join(f.out, "empty.html"))
	assert.NoFileExists(t, filepath.Join(f.out, "draft.html"))
}

func TestBuild_PrunesDeletedSources(t *testing.T) {
	f := newFixture(t)
	f.write(t, "keep.md", "# Keep\n")
	f.write(t, "gone.md", "# Gone\n")

	_, err := f.build(t)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.in, "gone.md")))

	report, err := f.build(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"gone.html"}, report.Removed)
	assert.NoFileExists(t, filepath.Join(f.out, "gone.html"))

	results, err := f.store.Search(context.Background(), "gone", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuild_EmbeddedSearchData(t *testing.T) {
	f := newFixture(t)
	f.cfg.Search.DownloadBinary = false
	f.write(t, "index.md", "# Home\n")

	_, err := f.build(t)
	require.NoError(t, err)

	js := f.read(t, render.SearchDataEmbedded)
	assert.True(t, strings.HasPrefix(js, "Search.load({"))
	assert.True(t, strings.HasSuffix(js, ");\n"))
	assert.NoFileExists(t, filepath.Join(f.out, render.SearchDataBinary))
}

func TestBuild_SearchDisabled(t *testing.T) {
	f := newFixture(t)
	f.cfg.Search.Disabled = true
	f.write(t, "index.md", "# Home\n")

	report, err := f.build(t)
	require.NoError(t, err)
	assert.Zero(t, report.SearchEntries)
	assert.NoFileExists(t, filepath.Join(f.out, render.SearchDataBinary))
	assert.NoFileExists(t, filepath.Join(f.out, render.SearchDataEmbedded))
}

func TestBuild_UnmatchedParenthesisFailsBuild(t *testing.T) {
	f := newFixture(t)
	f.write(t, "bad.md", "```cpp\nDOXYGEN_IGNORE(int x\n```\n")
	rec := &countingRecorder{}

	report, err := f.build(t, WithRecorder(rec))
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, metrics.BuildOutcomeFailed, report.Outcome)
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeFailed}, rec.outcomes)

	assert.ErrorIs(t, err, codefilter.ErrUnmatchedParenthesis)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryRender))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageRender, se.Stage)
	assert.NoFileExists(t, filepath.Join(f.out, "bad.html"))
}

func TestBuild_MissingInput(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.Input = filepath.Join(t.TempDir(), "missing")

	_, err := f.build(t)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryFileSystem))
}

func TestBuild_Canceled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.md", "# Home\n")
	b, err := NewBuilder(f.cfg, f.store, WithRevision(""))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewBuilder_UnknownFilter(t *testing.T) {
	f := newFixture(t)
	f.cfg.CodeFilters.Post = map[string][]string{"C++": {"nope"}}
	_, err := NewBuilder(f.cfg, f.store)
	require.Error(t, err)
	assert.True(t, derrors.IsCategory(err, derrors.CategoryConfig))
}

func TestOutputPathAndTitle(t *testing.T) {
	assert.Equal(t, "api/containers.html", OutputPath("api/containers.md"))
	assert.Equal(t, "README.html", OutputPath("README.MD"))
	assert.Equal(t, "Getting Started", TitleFromPath("guide/getting-started.md"))
	assert.Equal(t, "Build Options", TitleFromPath("build_options.md"))
}
