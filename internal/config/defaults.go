package config

import (
	"git.home.luguber.info/inful/codedoc/internal/codefilter"
)

const (
	FilterStripDocMacros = "strip_doc_macros"
	FilterColorSwatches  = "color_swatches"

	defaultLanguage = "C++"
	defaultStateDB  = ".codedoc/state.db"
	defaultDebounce = "500ms"
)

// Default returns the built-in site configuration for the engine's C++ API docs.
func Default() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Project: ProjectConfig{
			Title:            "Jazz² Resurrection",
			Doxyfile:         "Doxyfile",
			MainProjectURL:   "https://deat.tk/jazz2/",
			ShowUndocumented: true,
			VersionLabels:    true,
		},
		Search: SearchConfig{
			DownloadBinary: true,
			BaseURL:        "https://deat.tk/jazz2/docs/",
			ExternalURL:    "https://google.com/search?q=site:deat.tk+{query}",
		},
		Stylesheets: []string{
			"https://fonts.googleapis.com/css?family=Source+Sans+Pro:400,400i,600,600i%7CSource+Code+Pro:400,400i,600",
			"css/m-dark+documentation.compiled.css",
		},
		Navbar: []NavLink{
			{Label: "Pages", Target: "pages"},
			{Label: "Namespaces", Target: "namespaces"},
			{Label: "Classes", Target: "annotated", Items: []NavLink{
				{Label: "Containers", Target: "namespaceDeath_1_1Containers"},
				{Label: "IO", Target: "namespaceDeath_1_1IO"},
			}},
			{Label: "Files", Target: "files"},
			{Label: "GitHub", Target: "https://github.com/deathkiller/jazz2-native"},
		},
		Macros: codefilter.DefaultMacroRules(),
		CodeFilters: CodeFiltersConfig{
			Pre:  map[string][]string{defaultLanguage: {FilterStripDocMacros}},
			Post: map[string][]string{defaultLanguage: {FilterColorSwatches}},
		},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills unset fields. Explicitly configured values are kept.
func applyDefaults(cfg *Config) {
	if cfg.Project.Title == "" {
		cfg.Project.Title = "Documentation"
	}
	if len(cfg.Macros) == 0 {
		cfg.Macros = codefilter.DefaultMacroRules()
	}
	if cfg.CodeFilters.Pre == nil && cfg.CodeFilters.Post == nil {
		cfg.CodeFilters.Pre = map[string][]string{defaultLanguage: {FilterStripDocMacros}}
		cfg.CodeFilters.Post = map[string][]string{defaultLanguage: {FilterColorSwatches}}
	}

	if cfg.Build.Input == "" {
		cfg.Build.Input = "./docs"
	}
	if cfg.Build.Output == "" {
		cfg.Build.Output = "./site"
	}
	if cfg.Build.DefaultLanguage == "" {
		cfg.Build.DefaultLanguage = defaultLanguage
	}
	if cfg.Build.StateDB == "" {
		cfg.Build.StateDB = defaultStateDB
	}
	if cfg.Build.Debounce == "" {
		cfg.Build.Debounce = defaultDebounce
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9464"
	}
}
