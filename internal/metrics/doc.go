// Package metrics records step and run outcomes.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay optional:
//
//	p := pipeline.New(steps...).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A one-shot CLI run has no scrape endpoint; WriteTextfile dumps the registry in the
// node-exporter textfile format instead. The daemon can also serve it over HTTP
// (HTTPHandler).
package metrics
