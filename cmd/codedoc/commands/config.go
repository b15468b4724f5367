package commands

import (
	"fmt"
)

// ShowConfigCmd implements the 'config' command.
type ShowConfigCmd struct {
	Snapshot bool `help:"Print only the hash of the build-affecting settings"`
}

func (s *ShowConfigCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if s.Snapshot {
		_, err = fmt.Fprintln(g.Stdout, cfg.Snapshot())
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = g.Stdout.Write(data)
	return err
}
