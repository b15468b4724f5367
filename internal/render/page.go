package render

import (
	"bytes"
	_ "embed"
	"html/template"
	"strings"

	"git.home.luguber.info/inful/codedoc/internal/config"
)

//go:embed page.html.tmpl
var pageTemplateText string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"navHref": navHref,
}).Parse(pageTemplateText))

const (
	// SearchDataBinary is fetched by the search script at runtime.
	SearchDataBinary = "searchdata.json"
	// SearchDataEmbedded is loaded as a script tag.
	SearchDataEmbedded = "searchdata.js"
)

// SearchData is the search configuration exposed to page templates.
type SearchData struct {
	Enabled        bool
	DownloadBinary bool
	BaseURL        string
	ExternalURL    string
	DataFile       string
}

// PageData is everything the page template renders.
type PageData struct {
	Title        string
	Path         string // output path relative to the site root, slash separated
	Root         string // relative prefix from the page back to the site root
	Project      config.ProjectConfig
	Stylesheets  []string
	Navbar       []config.NavLink
	Search       SearchData
	VersionLabel string
	Body         template.HTML
}

// NewPageData fills the site-wide fields from cfg. revision is shown as the
// version label when version labels are enabled.
func NewPageData(cfg *config.Config, path, title string, body []byte, revision string) PageData {
	pd := PageData{
		Title:       title,
		Path:        path,
		Root:        RootPrefix(path),
		Project:     cfg.Project,
		Stylesheets: cfg.Stylesheets,
		Navbar:      cfg.Navbar,
		Search: SearchData{
			Enabled:        !cfg.Search.Disabled,
			DownloadBinary: cfg.Search.DownloadBinary,
			BaseURL:        cfg.Search.BaseURL,
			ExternalURL:    cfg.Search.ExternalURL,
			DataFile:       SearchDataFile(cfg.Search),
		},
		Body: template.HTML(body), // #nosec G203 -- produced by the Markdown renderer
	}
	if cfg.Project.VersionLabels {
		pd.VersionLabel = revision
	}
	return pd
}

// SearchDataFile names the search data file for the configured mode.
func SearchDataFile(s config.SearchConfig) string {
	if s.DownloadBinary {
		return SearchDataBinary
	}
	return SearchDataEmbedded
}

// Page renders a complete HTML document.
func Page(data PageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RootPrefix returns the "../" chain leading from path to the site root.
func RootPrefix(path string) string {
	depth := strings.Count(strings.Trim(path, "/"), "/")
	return strings.Repeat("../", depth)
}

// navHref resolves a navbar target. Absolute URLs pass through; bare
// targets name a page at the site root.
func navHref(root, target string) string {
	if strings.Contains(target, "://") || strings.HasPrefix(target, "/") || strings.HasPrefix(target, "#") {
		return target
	}
	if !strings.HasSuffix(target, ".html") {
		target += ".html"
	}
	return root + target
}
