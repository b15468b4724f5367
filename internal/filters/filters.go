// Package filters assembles the per-language code filter chains that run
// before and after syntax highlighting.
package filters

import (
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"git.home.luguber.info/inful/codedoc/internal/codefilter"
	"git.home.luguber.info/inful/codedoc/internal/config"
	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
	"git.home.luguber.info/inful/codedoc/internal/metrics"
)

// Stage identifies when a chain runs relative to highlighting.
type Stage string

const (
	StagePre  Stage = "pre"
	StagePost Stage = "post"
)

// Filter transforms one snippet.
type Filter interface {
	Name() string
	Apply(code string) (string, error)
}

// Catalog resolves filter names from configuration to instances.
type Catalog map[string]Filter

// NewCatalog returns the built-in filters configured from cfg.
func NewCatalog(cfg *config.Config, logger *slog.Logger) (Catalog, error) {
	stripper, err := codefilter.NewMacroStripper(cfg.Macros, codefilter.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return Catalog{
		config.FilterStripDocMacros: stripper,
		config.FilterColorSwatches:  codefilter.ColorSwatchFilter{},
	}, nil
}

var languageAliases = map[string]string{
	"cpp": "c++",
	"cxx": "c++",
	"cc":  "c++",
	"hpp": "c++",
	"h":   "c++",
}

// CanonicalLanguage folds a language identifier so "C++", "cpp" and "CXX"
// select the same chain.
func CanonicalLanguage(lang string) string {
	key := cases.Fold().String(strings.TrimSpace(lang))
	if alias, ok := languageAliases[key]; ok {
		return alias
	}
	return key
}

// Set holds the immutable filter chains of both stages.
type Set struct {
	chains   map[Stage]map[string][]Filter
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Set.
type Option func(*Set)

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Set) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Set) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSet builds the chains configured in cfg.CodeFilters.
func NewSet(cfg *config.Config, opts ...Option) (*Set, error) {
	s := &Set{
		chains:   map[Stage]map[string][]Filter{StagePre: {}, StagePost: {}},
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	catalog, err := NewCatalog(cfg, s.logger)
	if err != nil {
		return nil, err
	}
	if err := s.add(StagePre, cfg.CodeFilters.Pre, catalog); err != nil {
		return nil, err
	}
	if err := s.add(StagePost, cfg.CodeFilters.Post, catalog); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) add(stage Stage, byLang map[string][]string, catalog Catalog) error {
	langs := make([]string, 0, len(byLang))
	for lang := range byLang {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		key := CanonicalLanguage(lang)
		for _, name := range byLang[lang] {
			f, ok := catalog[name]
			if !ok {
				return derrors.UnknownFilter(lang, name)
			}
			s.chains[stage][key] = append(s.chains[stage][key], f)
		}
	}
	return nil
}

// Pre runs the before-highlighting chain for lang.
func (s *Set) Pre(lang, code string) (string, error) { return s.run(StagePre, lang, code) }

// Post runs the after-highlighting chain for lang.
func (s *Set) Post(lang, code string) (string, error) { return s.run(StagePost, lang, code) }

// Run runs the chain of stage for lang. Languages without a chain pass through.
func (s *Set) Run(stage Stage, lang, code string) (string, error) { return s.run(stage, lang, code) }

func (s *Set) run(stage Stage, lang, code string) (string, error) {
	key := CanonicalLanguage(lang)
	for _, f := range s.chains[stage][key] {
		out, err := f.Apply(code)
		if err != nil {
			s.recorder.IncFilterResult(string(stage), key, f.Name(), metrics.ResultFailed)
			s.logger.Debug("Code filter failed",
				logfields.Stage(string(stage)),
				logfields.Language(lang),
				logfields.Filter(f.Name()),
				logfields.Error(err))
			return "", err
		}
		s.recorder.IncFilterResult(string(stage), key, f.Name(), metrics.ResultSuccess)
		code = out
	}
	return code, nil
}

// Names lists the filter names of a chain, for diagnostics.
func (s *Set) Names(stage Stage, lang string) []string {
	chain := s.chains[stage][CanonicalLanguage(lang)]
	names := make([]string, len(chain))
	for i, f := range chain {
		names[i] = f.Name()
	}
	return names
}

// Languages lists the canonical languages that have a chain in any stage.
func (s *Set) Languages() []string {
	seen := map[string]struct{}{}
	for _, byLang := range s.chains {
		for k := range byLang {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
