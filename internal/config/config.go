package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"git.home.luguber.info/inful/codedoc/internal/codefilter"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only configuration format version understood by Load.
const CurrentVersion = "1.0"

// Config is the complete site configuration. Load and Default return a fully
// defaulted and validated value; consumers treat it as read-only and use
// Clone when they need a modified copy.
type Config struct {
	Version     string                 `yaml:"version"`
	Project     ProjectConfig          `yaml:"project"`
	Search      SearchConfig           `yaml:"search"`
	Stylesheets []string               `yaml:"stylesheets"`
	Navbar      []NavLink              `yaml:"navbar"`
	Macros      []codefilter.MacroRule `yaml:"macros"`
	CodeFilters CodeFiltersConfig      `yaml:"code_filters"`
	Build       BuildConfig            `yaml:"build"`
	Logging     LoggingConfig          `yaml:"logging"`
	Metrics     MetricsConfig          `yaml:"metrics"`
}

// ProjectConfig describes the documented project.
type ProjectConfig struct {
	Title            string `yaml:"title"`
	Doxyfile         string `yaml:"doxyfile"`         // generator project file
	MainProjectURL   string `yaml:"main_project_url"` // canonical site URL
	ShowUndocumented bool   `yaml:"show_undocumented"`
	VersionLabels    bool   `yaml:"version_labels"`
}

// SearchConfig controls the generated search data.
type SearchConfig struct {
	Disabled       bool   `yaml:"disabled,omitempty"`
	DownloadBinary bool   `yaml:"download_binary"` // fetch search data as a separate file instead of embedding it
	BaseURL        string `yaml:"base_url"`
	ExternalURL    string `yaml:"external_url"` // template containing {query}
}

// NavLink is one navbar entry with optional sub-items.
type NavLink struct {
	Label  string    `yaml:"label"`
	Target string    `yaml:"target"`
	Items  []NavLink `yaml:"items,omitempty"`
}

// CodeFiltersConfig maps language identifiers to filter names for each stage.
type CodeFiltersConfig struct {
	Pre  map[string][]string `yaml:"pre"`  // before highlighting
	Post map[string][]string `yaml:"post"` // after highlighting
}

// BuildConfig controls the site build.
type BuildConfig struct {
	Input           string `yaml:"input"`
	Output          string `yaml:"output"`
	DefaultLanguage string `yaml:"default_language"`   // for indented and untagged code blocks
	StateDB         string `yaml:"state_db"`           // relative paths resolve inside Output
	Schedule        string `yaml:"schedule,omitempty"` // cron expression for periodic rebuilds in watch mode
	Debounce        string `yaml:"debounce,omitempty"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Listen   string `yaml:"listen,omitempty"`   // HTTP address in watch mode
	Textfile string `yaml:"textfile,omitempty"` // node-exporter textfile after a build
}

// Load loads, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, derrors.ConfigNotFound(configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityFatal, "failed to unmarshal config")
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, derrors.ValidationFailed("version", fmt.Sprintf("unsupported configuration version %q (expected %s)", cfg.Version, CurrentVersion))
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes the built-in configuration as an example file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Stylesheets = append([]string(nil), c.Stylesheets...)
	out.Navbar = cloneNav(c.Navbar)
	out.Macros = append([]codefilter.MacroRule(nil), c.Macros...)
	out.CodeFilters = CodeFiltersConfig{
		Pre:  cloneFilterMap(c.CodeFilters.Pre),
		Post: cloneFilterMap(c.CodeFilters.Post),
	}
	return &out
}

// ExternalSearchURL fills the external search template with an escaped query.
func (s SearchConfig) ExternalSearchURL(query string) string {
	return strings.ReplaceAll(s.ExternalURL, "{query}", url.QueryEscape(query))
}

// loadEnvFiles loads .env then .env.local; existing variables are never overridden.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s could not be loaded: %v\n", p, err)
		}
	}
}

func cloneNav(in []NavLink) []NavLink {
	if in == nil {
		return nil
	}
	out := make([]NavLink, len(in))
	for i, l := range in {
		out[i] = NavLink{Label: l.Label, Target: l.Target, Items: cloneNav(l.Items)}
	}
	return out
}

func cloneFilterMap(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
