// Package metric records command metrics of a CLI run in a Prometheus
// registry.
//
// The CLI is not a long running process, so nothing is served over HTTP.
// Instead the registry is written in the text exposition format to a file
// when the run ends, for the node_exporter textfile collector to pick up.
package metric
