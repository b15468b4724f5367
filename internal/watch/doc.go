// Package watch keeps a site up to date: it rebuilds when sources or the
// configuration file change, on an optional cron schedule, and can serve
// build metrics over HTTP while it runs.
package watch
