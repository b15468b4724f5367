package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codedoc/cmd/codedoc/commands"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], commands.NewGlobal()))
}

func run(args []string, g *commands.Global) int {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("codedoc"),
		kong.Description("Static documentation site builder with code snippet filters"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Writers(g.Stdout, g.Stderr),
		kong.Bind(g),
	)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}
	if err := ctx.Run(g, cli); err != nil {
		return derrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).Report(g.Stderr, err)
	}
	return 0
}
