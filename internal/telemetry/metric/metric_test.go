package metric

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/alexu8007/Oxidized/pkg/web"
	"github.com/alexu8007/Oxidized/pkg/ws"
)

// family returns the gathered metric family with the given name.
func family(t *testing.T, r *Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %q not found", name)
	return nil
}

// sample returns the metric in mf whose labels match all of labels.
func sample(t *testing.T, mf *dto.MetricFamily, labels map[string]string) *dto.Metric {
	t.Helper()
	for _, m := range mf.GetMetric() {
		matched := 0
		for _, lp := range m.GetLabel() {
			if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
				matched++
			}
		}
		if matched == len(labels) {
			return m
		}
	}
	t.Fatalf("%s has no sample with labels %v", mf.GetName(), labels)
	return nil
}

func TestNewRegistryGathers(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{
		"oxidized_connections_active",
		"oxidized_connections_total",
		"oxidized_tls_handshake_errors_total",
		"oxidized_ws_sessions_active",
		"oxidized_build_info",
		"go_goroutines",
	} {
		family(t, r, name)
	}
}

func TestTwoRegistriesAreIndependent(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	a.ConnOpened()
	if got := family(t, b, "oxidized_connections_total").GetMetric()[0].GetCounter().GetValue(); got != 0 {
		t.Errorf("second registry counted %v connections", got)
	}
}

func TestConnectionEvents(t *testing.T) {
	r := NewRegistry()
	r.ConnOpened()
	r.ConnOpened()
	r.ConnClosed(20 * time.Millisecond)
	r.TLSHandshakeFailed(errors.New("bad record"))
	r.ProtocolError(errors.New("malformed"))
	r.ConnUpgraded()

	tests := []struct {
		name string
		want float64
		get  func(*dto.Metric) float64
	}{
		{"oxidized_connections_total", 2, func(m *dto.Metric) float64 { return m.GetCounter().GetValue() }},
		{"oxidized_connections_active", 1, func(m *dto.Metric) float64 { return m.GetGauge().GetValue() }},
		{"oxidized_tls_handshake_errors_total", 1, func(m *dto.Metric) float64 { return m.GetCounter().GetValue() }},
		{"oxidized_protocol_errors_total", 1, func(m *dto.Metric) float64 { return m.GetCounter().GetValue() }},
		{"oxidized_connection_upgrades_total", 1, func(m *dto.Metric) float64 { return m.GetCounter().GetValue() }},
		{"oxidized_connection_duration_seconds", 1, func(m *dto.Metric) float64 { return float64(m.GetHistogram().GetSampleCount()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := family(t, r, tt.name).GetMetric()[0]
			if got := tt.get(m); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRequestServed(t *testing.T) {
	r := NewRegistry()
	r.RequestServed("GET", 200, "ok", time.Millisecond)
	r.RequestServed("GET", 404, "not_found", time.Millisecond)
	r.RequestServed("GET", 404, "not_found", time.Millisecond)
	r.RequestServed("BREW", 404, "not_found", time.Millisecond)

	mf := family(t, r, "oxidized_requests_total")
	if got := sample(t, mf, map[string]string{"method": "GET", "status": "404", "outcome": "not_found"}).GetCounter().GetValue(); got != 2 {
		t.Errorf("GET 404 not_found = %v, want 2", got)
	}
	if got := sample(t, mf, map[string]string{"method": "GET", "status": "200", "outcome": "ok"}).GetCounter().GetValue(); got != 1 {
		t.Errorf("GET 200 ok = %v, want 1", got)
	}
	sample(t, mf, map[string]string{"method": "OTHER"})
}

func TestSessionEvents(t *testing.T) {
	r := NewRegistry()
	r.SessionStarted()
	r.MessageReceived(ws.TextMessage)
	r.MessageSent(ws.TextMessage)
	r.MessageReceived(ws.PingMessage)
	r.SessionEnded(time.Second)
	r.UpgradeFailed(web.ErrUpgradeUnavailable)

	if got := family(t, r, "oxidized_ws_sessions_active").GetMetric()[0].GetGauge().GetValue(); got != 0 {
		t.Errorf("sessions_active = %v, want 0", got)
	}
	if got := family(t, r, "oxidized_ws_upgrade_failures_total").GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("upgrade_failures_total = %v, want 1", got)
	}
	mf := family(t, r, "oxidized_ws_messages_total")
	if got := sample(t, mf, map[string]string{"direction": "in", "type": "text"}).GetCounter().GetValue(); got != 1 {
		t.Errorf("in/text = %v, want 1", got)
	}
	if got := sample(t, mf, map[string]string{"direction": "out", "type": "text"}).GetCounter().GetValue(); got != 1 {
		t.Errorf("out/text = %v, want 1", got)
	}
	sample(t, mf, map[string]string{"direction": "in", "type": "ping"})
}

func TestLayer(t *testing.T) {
	r := NewRegistry()
	var inFlight float64
	inner := web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
		inFlight = family(t, r, "oxidized_requests_in_flight").GetMetric()[0].GetGauge().GetValue()
		if req.Path() == "/fail" {
			return nil, web.NewError(web.KindExtract, "bad body")
		}
		return web.Text("ok"), nil
	})
	h := r.Layer()(inner)

	for _, path := range []string{"/ok", "/fail"} {
		req, err := web.NewRequest("POST", path, nil)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = h.Call(context.Background(), req)
	}

	if inFlight != 1 {
		t.Errorf("in-flight during call = %v, want 1", inFlight)
	}
	if got := family(t, r, "oxidized_requests_in_flight").GetMetric()[0].GetGauge().GetValue(); got != 0 {
		t.Errorf("in-flight after calls = %v, want 0", got)
	}
	mf := family(t, r, "oxidized_handler_duration_seconds")
	if got := sample(t, mf, map[string]string{"method": "POST", "outcome": "extract"}).GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("extract samples = %d, want 1", got)
	}
	if got := sample(t, mf, map[string]string{"method": "POST", "outcome": "ok"}).GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("ok samples = %d, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.ConnOpened()

	req, err := web.NewRequest("GET", "/metrics", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := r.Handler().Call(context.Background(), req)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.StatusCode() != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode())
	}
	body := string(resp.Body)
	if !strings.Contains(body, "oxidized_connections_total 1") {
		t.Errorf("exposition missing connections_total:\n%s", body)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
}
