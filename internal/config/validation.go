package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/codedoc/internal/codefilter"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"github.com/go-co-op/gocron/v2"
)

// Validate checks the configuration. It is called by Load and Parse after defaults.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateProject,
		c.validateSearch,
		c.validateNavbar,
		c.validateMacros,
		c.validateCodeFilters,
		c.validateBuild,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateProject() error {
	if c.Project.MainProjectURL != "" {
		if err := validateAbsoluteURL(c.Project.MainProjectURL); err != nil {
			return derrors.ValidationFailed("project.main_project_url", err.Error())
		}
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Disabled {
		return nil
	}
	if c.Search.BaseURL != "" {
		if err := validateAbsoluteURL(c.Search.BaseURL); err != nil {
			return derrors.ValidationFailed("search.base_url", err.Error())
		}
	}
	if c.Search.ExternalURL != "" && !strings.Contains(c.Search.ExternalURL, "{query}") {
		return derrors.ValidationFailed("search.external_url", "template must contain {query}")
	}
	return nil
}

func (c *Config) validateNavbar() error {
	var walk func(prefix string, links []NavLink, depth int) error
	walk = func(prefix string, links []NavLink, depth int) error {
		for i, l := range links {
			field := fmt.Sprintf("%s[%d]", prefix, i)
			if strings.TrimSpace(l.Label) == "" {
				return derrors.ValidationFailed(field+".label", "label must not be empty")
			}
			if strings.TrimSpace(l.Target) == "" {
				return derrors.ValidationFailed(field+".target", "target must not be empty")
			}
			if len(l.Items) > 0 && depth > 0 {
				return derrors.ValidationFailed(field+".items", "sub-items cannot be nested further")
			}
			if err := walk(field+".items", l.Items, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk("navbar", c.Navbar, 0)
}

func (c *Config) validateMacros() error {
	_, err := codefilter.NewMacroStripper(c.Macros)
	return err
}

func (c *Config) validateCodeFilters() error {
	known := map[string]struct{}{FilterStripDocMacros: {}, FilterColorSwatches: {}}
	for stage, m := range map[string]map[string][]string{"pre": c.CodeFilters.Pre, "post": c.CodeFilters.Post} {
		for lang, names := range m {
			if strings.TrimSpace(lang) == "" {
				return derrors.ValidationFailed("code_filters."+stage, "language key must not be empty")
			}
			for _, n := range names {
				if _, ok := known[n]; !ok {
					return derrors.UnknownFilter(lang, n)
				}
			}
		}
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.Input == c.Build.Output {
		return derrors.ValidationFailed("build.output", "output directory must differ from input directory")
	}
	if _, err := c.Build.DebounceDuration(); err != nil {
		return derrors.ValidationFailed("build.debounce", err.Error())
	}
	if c.Build.Schedule != "" {
		if err := validateCron(c.Build.Schedule); err != nil {
			return derrors.ValidationFailed("build.schedule", err.Error())
		}
	}
	return nil
}

// DebounceDuration parses the watch-mode debounce interval.
func (b BuildConfig) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(b.Debounce)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", b.Debounce)
	}
	return d, nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

// validateCron builds a throwaway job definition so schedule syntax errors
// surface at load time instead of when watch mode starts.
func validateCron(expr string) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = s.Shutdown() }()
	_, err = s.NewJob(gocron.CronJob(expr, false), gocron.NewTask(func() {}))
	return err
}

// StateDBPath resolves the state database location. Relative paths live
// inside the output directory.
func (b BuildConfig) StateDBPath() string {
	if b.StateDB == ":memory:" || filepath.IsAbs(b.StateDB) {
		return b.StateDB
	}
	return filepath.Join(b.Output, b.StateDB)
}
