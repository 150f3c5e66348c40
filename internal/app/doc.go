// Package app wires the reference oxidized application: a router with a
// greeting, a health check, text and JSON echo endpoints, a WebSocket echo
// and, when enabled, the Prometheus endpoint; wrapped in request ID,
// logging, audit, panic recovery and metrics layers.
package app
