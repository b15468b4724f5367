// Package index persists build state and the search index in SQLite.
//
// The pages table records the fingerprint of every rendered page so
// unchanged pages can be skipped on the next build. The entries table holds
// the search entries (page titles and section headings) written to the
// site's search data file.
package index
