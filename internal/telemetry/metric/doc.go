// Package metric exposes runtime metrics in the Prometheus format.
//
//   - prometheus.go: the Registry, its collectors and the /metrics handler
//   - observer.go: connection, request and WebSocket session events
//   - layer.go: a web.Layer timing the handlers it wraps
//   - collector.go: build information as a constant gauge
//
// Each Registry owns its own prometheus.Registry; nothing is registered
// with the global default registry.
package metric
