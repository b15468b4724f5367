// Package site builds the static documentation site.
//
// A build runs a fixed sequence of stages: discover the Markdown sources,
// render the changed pages, prune pages whose sources disappeared, write
// the search data file and finally the build manifest. Page fingerprints
// and the search index live in the SQLite store, which lets a build skip
// every page whose content and build-affecting configuration are unchanged.
package site
