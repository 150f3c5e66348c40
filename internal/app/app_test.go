package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	gws "github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/alexu8007/Oxidized/internal/server/config"
	"github.com/alexu8007/Oxidized/internal/telemetry/logger"
	"github.com/alexu8007/Oxidized/pkg/middleware"
	"github.com/alexu8007/Oxidized/pkg/web"
)

func newTestApp(t *testing.T, modify func(*config.ServerConfig)) *App {
	t.Helper()
	cfg := config.Default()
	if modify != nil {
		modify(cfg)
	}
	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func call(t *testing.T, h web.Handler, method, target, body string) (*web.Response, error) {
	t.Helper()
	req, err := web.NewRequest(method, target, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	return h.Call(context.Background(), req)
}

func TestRoutes(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		wantBody    string
		wantType    string
		wantErrKind web.Kind
		wantErr     bool
	}{
		{name: "hello", method: "GET", target: "/", wantBody: "Hello, World!", wantType: "text/plain; charset=utf-8"},
		{name: "echo text", method: "POST", target: "/echo", body: "ping", wantBody: "ping", wantType: "text/plain; charset=utf-8"},
		{name: "echo json", method: "POST", target: "/echo/json", body: `{"x":1}`, wantBody: `{"x":1}`, wantType: "application/json"},
		{name: "bad json", method: "POST", target: "/echo/json", body: `{"x":`, wantErr: true, wantErrKind: web.KindExtract},
		{name: "invalid utf-8", method: "POST", target: "/echo", body: "\xff\xfe", wantErr: true, wantErrKind: web.KindExtract},
		{name: "unknown path", method: "GET", target: "/missing", wantErr: true, wantErrKind: web.KindNotFound},
		{name: "wrong method", method: "DELETE", target: "/echo", wantErr: true, wantErrKind: web.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := call(t, a.Handler(), tt.method, tt.target, tt.body)
			if tt.wantErr {
				if web.KindOf(err) != tt.wantErrKind {
					t.Errorf("KindOf(err) = %v, want %v (err = %v)", web.KindOf(err), tt.wantErrKind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if string(resp.Body) != tt.wantBody {
				t.Errorf("body = %q, want %q", resp.Body, tt.wantBody)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if resp.Header.Get(middleware.RequestIDHeader) == "" {
				t.Errorf("%s not set", middleware.RequestIDHeader)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, nil)
	resp, err := call(t, a.Handler(), "GET", "/health", "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	var got healthResponse
	if err := json.Unmarshal(resp.Body, &got); err != nil {
		t.Fatalf("decode health: %v (%s)", err, resp.Body)
	}
	if got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
	if got.Version.Version == "" {
		t.Error("version missing")
	}
}

func TestLogLevelRoute(t *testing.T) {
	a := newTestApp(t, nil)
	t.Cleanup(func() { _ = logger.SetLevel("info") })

	resp, err := call(t, a.Handler(), "PUT", "/log/level", "debug\n")
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body) != "debug" {
		t.Errorf("PUT = %d %q, want 200 %q", resp.StatusCode(), resp.Body, "debug")
	}
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want %q", got, "debug")
	}

	resp, err = call(t, a.Handler(), "GET", "/log/level", "")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	if string(resp.Body) != "debug" {
		t.Errorf("GET body = %q, want %q", resp.Body, "debug")
	}

	resp, err = call(t, a.Handler(), "PUT", "/log/level", "chatty")
	if err != nil {
		t.Fatalf("PUT error = %v", err)
	}
	if resp.StatusCode() != http.StatusBadRequest {
		t.Errorf("PUT chatty status = %d, want 400", resp.StatusCode())
	}
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("GetLevel() after rejected change = %q, want unchanged", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t, nil)
	if _, err := call(t, a.Handler(), "GET", "/", ""); err != nil {
		t.Fatal(err)
	}

	resp, err := call(t, a.Handler(), "GET", "/metrics", "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	body := string(resp.Body)
	for _, want := range []string{"oxidized_handler_duration_seconds", "oxidized_build_info"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	a := newTestApp(t, func(c *config.ServerConfig) { c.Metrics.Enabled = false })
	if a.Metrics() != nil {
		t.Error("Metrics() should be nil when disabled")
	}
	if _, err := call(t, a.Handler(), "GET", "/metrics", ""); web.KindOf(err) != web.KindNotFound {
		t.Errorf("GET /metrics error = %v, want route miss", err)
	}
}

func TestMetricsCustomPath(t *testing.T) {
	a := newTestApp(t, func(c *config.ServerConfig) { c.Metrics.Path = "/internal/metrics" })
	resp, err := call(t, a.Handler(), "GET", "/internal/metrics", "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode())
	}
}

func TestNewTLSFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Server.TLS = config.TLSConfig{CertFile: "/nonexistent/cert", KeyFile: "/nonexistent/key"}
	if _, err := New(cfg, nil); err == nil {
		t.Error("New() should fail when the TLS key pair cannot be loaded")
	}
}

// serve runs the application on a loopback listener until the test ends.
func serve(t *testing.T, a *App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Server().Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

func TestServeFallbackOverTCP(t *testing.T) {
	a := newTestApp(t, nil)
	addr := serve(t, a)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	fmt.Fprintf(conn, "POST /echo/json HTTP/1.1\r\nHost: x\r\nContent-Length: 3\r\n\r\nnop")
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || string(body) != "Not Found" {
		t.Errorf("response = %d %q, want 404 %q", resp.StatusCode, body, "Not Found")
	}
}

func TestWebSocketEcho(t *testing.T) {
	a := newTestApp(t, nil)
	addr := serve(t, a)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, br, _, err := gws.Dial(ctx, "ws://"+addr+"/ws")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	var rd io.Reader = conn
	if br != nil {
		rd = br
	}
	rw := struct {
		io.Reader
		io.Writer
	}{rd, conn}

	if err := wsutil.WriteClientText(rw, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := wsutil.ReadServerText(rw)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(reply, []byte("hello")) {
		t.Errorf("reply = %q, want %q", reply, "hello")
	}

	if err := wsutil.WriteClientMessage(rw, gws.OpClose, gws.NewCloseFrameBody(gws.StatusNormalClosure, "")); err != nil {
		t.Fatalf("write close: %v", err)
	}
	f, err := gws.ReadFrame(rd)
	if err != nil {
		t.Fatalf("read close: %v", err)
	}
	if f.Header.OpCode != gws.OpClose {
		t.Errorf("opcode = %v, want close", f.Header.OpCode)
	}
}
