package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the fields that affect rendered output.
// A changed snapshot invalidates every page fingerprint in the build state.
// Map-keyed fields are hashed in sorted key order.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	w("project.title", c.Project.Title)
	w("project.main_project_url", c.Project.MainProjectURL)
	w("project.show_undocumented", strconv.FormatBool(c.Project.ShowUndocumented))
	w("project.version_labels", strconv.FormatBool(c.Project.VersionLabels))
	w("search.disabled", strconv.FormatBool(c.Search.Disabled))
	w("search.download_binary", strconv.FormatBool(c.Search.DownloadBinary))
	w("search.base_url", c.Search.BaseURL)
	w("search.external_url", c.Search.ExternalURL)
	w("stylesheets", strings.Join(c.Stylesheets, ","))
	var nav func(prefix string, links []NavLink)
	nav = func(prefix string, links []NavLink) {
		for i, l := range links {
			p := prefix + "." + strconv.Itoa(i)
			w(p, l.Label, l.Target)
			nav(p, l.Items)
		}
	}
	nav("navbar", c.Navbar)
	for i, m := range c.Macros {
		w("macros."+strconv.Itoa(i), m.Marker, m.Replacement)
	}
	for _, stage := range []struct {
		name string
		m    map[string][]string
	}{{"pre", c.CodeFilters.Pre}, {"post", c.CodeFilters.Post}} {
		keys := make([]string, 0, len(stage.m))
		for k := range stage.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			w("code_filters."+stage.name+"."+k, strings.Join(stage.m[k], ","))
		}
	}
	w("build.default_language", c.Build.DefaultLanguage)
	return hex.EncodeToString(h.Sum(nil))
}
