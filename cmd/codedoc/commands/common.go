package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/codedoc/internal/config"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/index"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "codedoc.yaml"

// Global carries the process streams and logger shared by all commands.
type Global struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobal returns a Global bound to the process streams.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"codedoc.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" help:"Render the documentation site"`
	Filter     FilterCmd     `cmd:"" help:"Run the code filters of one language over stdin"`
	Init       InitCmd       `cmd:"" help:"Write an example configuration file"`
	ShowConfig ShowConfigCmd `cmd:"" name:"config" help:"Print the effective configuration"`
	Search     SearchCmd     `cmd:"" help:"Query the search index of the last build"`
	Watch      WatchCmd      `cmd:"" help:"Rebuild the site whenever sources or configuration change"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// LoadConfig loads the configuration file and switches logging to its
// settings. A missing file at the default path falls back to the built-in
// configuration.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		if c.Config != DefaultConfigPath || !derrors.IsCategory(err, derrors.CategoryConfig) || !isNotExist(c.Config) {
			return nil, err
		}
		g.Logger.Info("No configuration file found; using built-in configuration", logfields.Path(c.Config))
		cfg = config.Default()
	}
	logger := cfg.Logging.NewLogger(g.Stderr, c.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger
	return cfg, nil
}

// ConfigFile returns the configuration path when it names an existing file.
func (c *CLI) ConfigFile() string {
	if isNotExist(c.Config) {
		return ""
	}
	return c.Config
}

func isNotExist(path string) bool {
	_, err := os.Stat(path)
	return errors.Is(err, os.ErrNotExist)
}

// OpenStore opens the state database configured for cfg, creating its directory.
func OpenStore(cfg *config.Config) (*index.Store, error) {
	path := cfg.Build.StateDBPath()
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, derrors.FileSystemError("create state directory", err).WithContext("path", path)
		}
	}
	store, err := index.Open(path)
	if err != nil {
		return nil, derrors.IndexError("open state database", err).WithContext("path", path)
	}
	return store, nil
}
