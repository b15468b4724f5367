package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/codedoc/internal/filters"
	"git.home.luguber.info/inful/codedoc/internal/highlight"
	"git.home.luguber.info/inful/codedoc/internal/render"
)

// FilterCmd implements the 'filter' command.
type FilterCmd struct {
	Lang  string `short:"l" help:"Language of the snippet (default: build.default_language)"`
	Stage string `short:"s" enum:"pre,post,all" default:"pre" help:"Filter stage to run: pre, post, or all (pre, highlight, post)"`
	File  string `arg:"" optional:"" type:"existingfile" help:"Read the snippet from this file instead of stdin"`
}

func (f *FilterCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	lang := f.Lang
	if lang == "" {
		lang = cfg.Build.DefaultLanguage
	}

	var in []byte
	if f.File != "" {
		in, err = os.ReadFile(f.File)
	} else {
		in, err = io.ReadAll(g.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read snippet: %w", err)
	}

	set, err := filters.NewSet(cfg, filters.WithLogger(g.Logger))
	if err != nil {
		return err
	}

	var out string
	switch f.Stage {
	case "all":
		out, err = render.NewMarkdown(set, highlight.NewChroma(), lang).Snippet(lang, string(in))
	default:
		out, err = set.Run(filters.Stage(f.Stage), lang, string(in))
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(g.Stdout, out)
	return err
}
