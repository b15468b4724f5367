// Package manifest records what a build consumed and produced.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileName is the manifest written at the root of the output directory.
const FileName = ".codedoc-manifest.json"

// Build statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// BuildManifest is a complete record of a build's inputs, plan, and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Plan      Plan      `json:"plan"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures all inputs to the build.
type Inputs struct {
	Source     string `json:"source"`
	Revision   string `json:"revision,omitempty"`
	ConfigHash string `json:"config_hash"`
	Pages      int    `json:"pages"`
}

// Plan captures the code filter chains the build ran.
type Plan struct {
	DefaultLanguage string              `json:"default_language"`
	PreFilters      map[string][]string `json:"pre_filters,omitempty"`
	PostFilters     map[string][]string `json:"post_filters,omitempty"`
	Forced          bool                `json:"forced,omitempty"`
}

// Outputs captures all outputs of the build.
type Outputs struct {
	Rendered       []string          `json:"rendered"`
	Skipped        []string          `json:"skipped,omitempty"`
	Removed        []string          `json:"removed,omitempty"`
	SearchData     string            `json:"search_data,omitempty"`
	SearchEntries  int               `json:"search_entries"`
	ArtifactHashes map[string]string `json:"artifact_hashes,omitempty"`
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs and plan.
// Two builds with the same hash rendered the same sources the same way.
func (m *BuildManifest) Hash() (string, error) {
	hashInput := struct {
		Revision   string `json:"revision"`
		ConfigHash string `json:"config_hash"`
		Pages      int    `json:"pages"`
		Plan       Plan   `json:"plan"`
	}{
		Revision:   m.Inputs.Revision,
		ConfigHash: m.Inputs.ConfigHash,
		Pages:      m.Inputs.Pages,
		Plan:       Plan{DefaultLanguage: m.Plan.DefaultLanguage, PreFilters: m.Plan.PreFilters, PostFilters: m.Plan.PostFilters},
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// AddArtifact records the sha256 of an output file.
func (m *BuildManifest) AddArtifact(name string, data []byte) {
	if m.Outputs.ArtifactHashes == nil {
		m.Outputs.ArtifactHashes = map[string]string{}
	}
	m.Outputs.ArtifactHashes[name] = fmt.Sprintf("%x", sha256.Sum256(data))
}

// Write stores the manifest as FileName in dir. Output lists are sorted first.
func (m *BuildManifest) Write(dir string) error {
	sort.Strings(m.Outputs.Rendered)
	sort.Strings(m.Outputs.Skipped)
	sort.Strings(m.Outputs.Removed)
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0o600)
}

// Read loads the manifest from dir.
func Read(dir string) (*BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}
