package site

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/frontmatter"
	"git.home.luguber.info/inful/codedoc/internal/index"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
	"git.home.luguber.info/inful/codedoc/internal/render"
)

func stageDiscover(_ context.Context, bs *buildState) error {
	cfg := bs.builder.cfg
	root := cfg.Build.Input
	if _, err := os.Stat(root); err != nil {
		return derrors.FileSystemError("stat input", err).WithContext("path", root)
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		content, err := os.ReadFile(p) // #nosec G304 -- path comes from walking the input directory
		if err != nil {
			return derrors.FileSystemError("read page", err).WithContext("path", rel)
		}
		doc, err := frontmatter.Parse(content)
		if err != nil {
			return derrors.RenderFailed(rel, err)
		}
		if doc.Meta.Draft {
			bs.logger.Debug("Skipping draft page", logfields.Page(rel))
			return nil
		}
		if !cfg.Project.ShowUndocumented && len(bytes.TrimSpace(doc.Body)) == 0 {
			bs.logger.Debug("Skipping undocumented page", logfields.Page(rel))
			return nil
		}
		bs.sources = append(bs.sources, source{rel: rel, out: OutputPath(rel), doc: doc})
		return nil
	})
	if err != nil {
		if _, ok := derrors.As(err); ok {
			return err
		}
		return derrors.FileSystemError("walk input", err).WithContext("path", root)
	}
	bs.report.Pages = len(bs.sources)
	bs.logger.Info("Discovered pages", slog.Int("pages", len(bs.sources)))
	return nil
}

func stageRender(ctx context.Context, bs *buildState) error {
	b := bs.builder
	for _, src := range bs.sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		bs.seen[src.out] = struct{}{}

		unchanged, err := bs.unchanged(ctx, src)
		if err != nil {
			return err
		}
		if unchanged {
			bs.report.Skipped = append(bs.report.Skipped, src.out)
			b.recorder.IncPagesSkipped()
			bs.logger.Debug("Page unchanged", logfields.Page(src.rel))
			continue
		}
		if err := bs.renderPage(ctx, src); err != nil {
			return err
		}
		bs.report.Rendered = append(bs.report.Rendered, src.out)
	}
	return nil
}

// unchanged reports whether src can be skipped: same content, same
// build-affecting configuration and revision label, and the output file
// still present.
func (bs *buildState) unchanged(ctx context.Context, src source) (bool, error) {
	if bs.builder.force {
		return false, nil
	}
	rec, found, err := bs.builder.store.PageFingerprint(ctx, src.out)
	if err != nil {
		return false, derrors.IndexError("read page state", err).WithContext("page", src.out)
	}
	if !found || rec.Fingerprint != src.doc.Fingerprint || rec.ConfigHash != bs.pageKey {
		return false, nil
	}
	_, err = os.Stat(filepath.Join(bs.builder.cfg.Build.Output, filepath.FromSlash(src.out)))
	return err == nil, nil
}

func (bs *buildState) renderPage(ctx context.Context, src source) error {
	b := bs.builder
	t0 := time.Now()

	body, err := b.markdown.Render(src.doc.Body, src.doc.Meta.Language)
	if err != nil {
		return derrors.RenderFailed(src.rel, err)
	}

	title := src.doc.Meta.Title
	if title == "" {
		title = index.FirstHeading(body)
	}
	if title == "" {
		title = TitleFromPath(src.rel)
	}

	page, err := render.Page(render.NewPageData(b.cfg, src.out, title, body, bs.revision))
	if err != nil {
		return derrors.RenderFailed(src.rel, err)
	}
	if err := writeOutput(b.cfg.Build.Output, src.out, page); err != nil {
		return err
	}

	entries, err := index.ExtractEntries(src.out, title, body, src.doc.Meta.Keywords)
	if err != nil {
		return derrors.IndexError("extract entries", err).WithContext("page", src.out)
	}
	if err := b.store.ReplaceEntries(ctx, src.out, entries); err != nil {
		return derrors.IndexError("replace entries", err).WithContext("page", src.out)
	}
	if err := b.store.RecordPage(ctx, index.Page{
		Path:        src.out,
		Source:      src.rel,
		Title:       title,
		Fingerprint: src.doc.Fingerprint,
		ConfigHash:  bs.pageKey,
		BuildID:     bs.report.BuildID,
	}); err != nil {
		return derrors.IndexError("record page", err).WithContext("page", src.out)
	}

	dur := time.Since(t0)
	b.recorder.ObservePageRender(dur)
	bs.logger.Debug("Rendered page",
		logfields.Page(src.rel),
		logfields.Path(src.out),
		logfields.DurationMS(float64(dur.Microseconds())/1000))
	return nil
}

func stagePrune(ctx context.Context, bs *buildState) error {
	b := bs.builder
	recorded, err := b.store.Pages(ctx)
	if err != nil {
		return derrors.IndexError("list pages", err)
	}
	for _, p := range recorded {
		if _, ok := bs.seen[p]; ok {
			continue
		}
		if err := b.store.DeletePage(ctx, p); err != nil {
			return derrors.IndexError("delete page", err).WithContext("page", p)
		}
		target := filepath.Join(b.cfg.Build.Output, filepath.FromSlash(p))
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return derrors.FileSystemError("remove page", err).WithContext("path", target)
		}
		bs.report.Removed = append(bs.report.Removed, p)
		bs.logger.Info("Removed stale page", logfields.Path(p))
	}
	return nil
}

// OutputPath maps a Markdown source path to its HTML output path.
func OutputPath(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
}

// TitleFromPath derives a page title from its file name: "getting-started.md"
// becomes "Getting Started".
func TitleFromPath(rel string) string {
	base := path.Base(filepath.ToSlash(rel))
	base = strings.TrimSuffix(base, path.Ext(base))
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func writeOutput(root, rel string, data []byte) error {
	target := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return derrors.FileSystemError("create output directory", err).WithContext("path", target)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil { // #nosec G306 -- published site content
		return derrors.FileSystemError("write output", err).WithContext("path", target)
	}
	return nil
}
