package metric

import (
	"strconv"
	"time"

	"github.com/alexu8007/Oxidized/pkg/server"
	"github.com/alexu8007/Oxidized/pkg/ws"
)

var (
	_ server.Observer    = (*Registry)(nil)
	_ ws.SessionObserver = (*Registry)(nil)
)

// ConnOpened implements server.Observer.
func (r *Registry) ConnOpened() {
	r.ConnectionsTotal.Inc()
	r.ConnectionsActive.Inc()
}

// ConnClosed implements server.Observer.
func (r *Registry) ConnClosed(d time.Duration) {
	r.ConnectionsActive.Dec()
	r.ConnectionDuration.Observe(d.Seconds())
}

// TLSHandshakeFailed implements server.Observer.
func (r *Registry) TLSHandshakeFailed(error) {
	r.TLSHandshakeErrors.Inc()
}

// RequestServed implements server.Observer.
func (r *Registry) RequestServed(method string, status int, outcome string, d time.Duration) {
	method = methodLabel(method)
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status), outcome).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ProtocolError implements server.Observer.
func (r *Registry) ProtocolError(error) {
	r.ProtocolErrors.Inc()
}

// ConnUpgraded implements server.Observer.
func (r *Registry) ConnUpgraded() {
	r.Upgrades.Inc()
}

// UpgradeFailed implements ws.SessionObserver.
func (r *Registry) UpgradeFailed(error) {
	r.WSUpgradeFailures.Inc()
}

// SessionStarted implements ws.SessionObserver.
func (r *Registry) SessionStarted() {
	r.WSSessionsActive.Inc()
}

// SessionEnded implements ws.SessionObserver.
func (r *Registry) SessionEnded(d time.Duration) {
	r.WSSessionsActive.Dec()
	r.WSSessionDuration.Observe(d.Seconds())
}

// MessageReceived implements ws.SessionObserver.
func (r *Registry) MessageReceived(t ws.MessageType) {
	r.WSMessages.WithLabelValues("in", t.String()).Inc()
}

// MessageSent implements ws.SessionObserver.
func (r *Registry) MessageSent(t ws.MessageType) {
	r.WSMessages.WithLabelValues("out", t.String()).Inc()
}

// methodLabel bounds the method label to the standard methods so arbitrary
// client input cannot grow the label set.
func methodLabel(m string) string {
	switch m {
	case "GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "CONNECT", "TRACE":
		return m
	}
	return "OTHER"
}
