package site

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	derrors "git.home.luguber.info/inful/codedoc/internal/errors"
	"git.home.luguber.info/inful/codedoc/internal/index"
	"git.home.luguber.info/inful/codedoc/internal/logfields"
	"git.home.luguber.info/inful/codedoc/internal/manifest"
	"git.home.luguber.info/inful/codedoc/internal/render"
)

// SearchDataVersion is the schema version of the search data file.
const SearchDataVersion = 1

// SearchData is the payload of the search data file.
type SearchData struct {
	Version     int           `json:"version"`
	BuildID     string        `json:"build_id"`
	BaseURL     string        `json:"base_url,omitempty"`
	ExternalURL string        `json:"external_url,omitempty"`
	Entries     []index.Entry `json:"entries"`
}

// EncodeSearchData renders data as JSON for download mode, or as a script
// calling Search.load for embedded mode.
func EncodeSearchData(data SearchData, embedded bool) ([]byte, error) {
	if data.Entries == nil {
		data.Entries = []index.Entry{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	if !embedded {
		return payload, nil
	}
	out := make([]byte, 0, len(payload)+16)
	out = append(out, "Search.load("...)
	out = append(out, payload...)
	out = append(out, ");\n"...)
	return out, nil
}

func stageSearch(ctx context.Context, bs *buildState) error {
	cfg := bs.builder.cfg
	if cfg.Search.Disabled {
		return nil
	}
	entries, err := bs.builder.store.Entries(ctx)
	if err != nil {
		return derrors.IndexError("list entries", err)
	}

	file := render.SearchDataFile(cfg.Search)
	data, err := EncodeSearchData(SearchData{
		Version:     SearchDataVersion,
		BuildID:     bs.report.BuildID,
		BaseURL:     cfg.Search.BaseURL,
		ExternalURL: cfg.Search.ExternalURL,
		Entries:     entries,
	}, !cfg.Search.DownloadBinary)
	if err != nil {
		return derrors.InternalError("encode search data", err)
	}
	if err := writeOutput(cfg.Build.Output, file, data); err != nil {
		return err
	}

	// Only one of the two formats is current.
	for _, stale := range []string{render.SearchDataBinary, render.SearchDataEmbedded} {
		if stale == file {
			continue
		}
		if err := os.Remove(filepath.Join(cfg.Build.Output, stale)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			bs.logger.Warn("Failed to remove stale search data", logfields.Path(stale), logfields.Error(err))
		}
	}

	bs.searchFile = file
	bs.searchData = data
	bs.report.SearchEntries = len(entries)
	bs.logger.Info("Wrote search data", logfields.Path(file), slog.Int("entries", len(entries)))
	return nil
}

func stageManifest(_ context.Context, bs *buildState) error {
	cfg := bs.builder.cfg
	m := &manifest.BuildManifest{
		ID:        bs.report.BuildID,
		Timestamp: bs.report.Start.UTC(),
		Inputs: manifest.Inputs{
			Source:     cfg.Build.Input,
			Revision:   bs.revision,
			ConfigHash: bs.configHash,
			Pages:      bs.report.Pages,
		},
		Plan: manifest.Plan{
			DefaultLanguage: cfg.Build.DefaultLanguage,
			PreFilters:      cfg.CodeFilters.Pre,
			PostFilters:     cfg.CodeFilters.Post,
			Forced:          bs.builder.force,
		},
		Outputs: manifest.Outputs{
			Rendered:      append([]string{}, bs.report.Rendered...),
			Skipped:       append([]string(nil), bs.report.Skipped...),
			Removed:       append([]string(nil), bs.report.Removed...),
			SearchData:    bs.searchFile,
			SearchEntries: bs.report.SearchEntries,
		},
		Status:   manifest.StatusSuccess,
		Duration: time.Since(bs.report.Start).Milliseconds(),
	}
	if bs.searchFile != "" {
		m.AddArtifact(bs.searchFile, bs.searchData)
	}
	if err := os.MkdirAll(cfg.Build.Output, 0o750); err != nil {
		return derrors.FileSystemError("create output directory", err).WithContext("path", cfg.Build.Output)
	}
	if err := m.Write(cfg.Build.Output); err != nil {
		return derrors.FileSystemError("write manifest", err).WithContext("path", cfg.Build.Output)
	}
	return nil
}
