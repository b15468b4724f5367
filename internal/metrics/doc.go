// Package metrics provides observability hooks for snippet filtering and site builds.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	set, err := filters.NewSet(cfg, filters.WithRecorder(recorder))
//
// PrometheusRecorder is the real implementation. Its registry can be served
// over HTTP (HTTPHandler) in watch mode or written to a node-exporter textfile
// (WriteTextfile) after a one-shot build.
package metrics
