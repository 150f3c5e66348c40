package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/alexu8007/Oxidized/internal/http1"
	"github.com/alexu8007/Oxidized/pkg/web"
)

// outcomeOK labels requests the handler answered without error.
const outcomeOK = "ok"

// maxDrainBytes bounds how much is read from a client after an error response.
const maxDrainBytes = 256 << 10

// limitReader caps how much of the connection one request head may use.
// A negative limit means unlimited.
type limitReader struct {
	r      io.Reader
	remain int64
	hit    bool
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remain < 0 {
		return l.r.Read(p)
	}
	if l.remain == 0 {
		l.hit = true
		return 0, io.EOF
	}
	if int64(len(p)) > l.remain {
		p = p[:l.remain]
	}
	n, err := l.r.Read(p)
	l.remain -= int64(n)
	return n, err
}

// conn is the state of one accepted connection.
type conn struct {
	srv    *Server
	rwc    net.Conn
	lr     *limitReader
	br     *bufio.Reader
	bw     *bufio.Writer
	logger *slog.Logger
}

func (s *Server) serveConn(ctx context.Context, rwc net.Conn) {
	id := ulid.Make().String()
	ctx = web.WithConnID(ctx, id)
	logger := s.logger.With("conn_id", id, "remote_addr", rwc.RemoteAddr().String())

	start := time.Now()
	s.observer.ConnOpened()
	upgraded := false
	defer func() {
		if !upgraded {
			rwc.Close()
		}
		s.observer.ConnClosed(time.Since(start))
	}()

	if s.tlsConfig != nil {
		tc := tls.Server(rwc, s.tlsConfig)
		if err := tc.HandshakeContext(ctx); err != nil {
			logger.Debug("tls handshake failed", "error", err)
			s.observer.TLSHandshakeFailed(err)
			return
		}
		rwc = tc
	}

	lr := &limitReader{r: rwc, remain: -1}
	c := &conn{
		srv:    s,
		rwc:    rwc,
		lr:     lr,
		br:     bufio.NewReader(lr),
		bw:     bufio.NewWriter(rwc),
		logger: logger,
	}
	upgraded = c.serve(ctx)
}

// serve runs the request loop. It reports whether the connection was
// handed over to an upgraded protocol, in which case it must stay open.
func (c *conn) serve(ctx context.Context) bool {
	s := c.srv
	for {
		hr, err := c.readRequest()
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case c.lr.hit:
				status = http.StatusRequestHeaderFieldsTooLarge
			case isClosed(err):
				return false
			}
			c.logger.Debug("malformed request", "error", err, "status", status)
			s.observer.ProtocolError(err)
			_ = http1.WriteError(c.bw, status)
			c.closeWrite()
			return false
		}

		if hr.ProtoMajor == 1 && hr.ProtoMinor >= 1 && strings.EqualFold(hr.Header.Get("Expect"), "100-continue") {
			if err := http1.WriteContinue(c.bw); err != nil {
				return false
			}
		}

		req := web.FromHTTP(hr)
		req.RemoteAddr = c.rwc.RemoteAddr().String()
		pending := web.NewPendingUpgrade()
		req.WithUpgrade(pending).WithContext(ctx)

		resp := c.dispatch(ctx, req)
		status := resp.StatusCode()
		upgrade := pending.Requested() && status == http.StatusSwitchingProtocols
		if !upgrade {
			pending.Fail(web.ErrUpgradeUnavailable)
		}

		keepAlive := http1.KeepAlive(hr.ProtoMajor, hr.ProtoMinor, hr.Header) &&
			status != http.StatusSwitchingProtocols
		headOnly := hr.Method == http.MethodHead
		if err := http1.WriteResponse(c.bw, status, resp.Header, resp.Body, keepAlive, headOnly); err != nil {
			c.logger.Debug("write response failed", "error", err)
			pending.Fail(web.ErrUpgradeUnavailable.Wrap(err))
			return false
		}
		if err := c.bw.Flush(); err != nil {
			c.logger.Debug("write response failed", "error", err)
			pending.Fail(web.ErrUpgradeUnavailable.Wrap(err))
			return false
		}

		if upgrade {
			s.observer.ConnUpgraded()
			c.logger.Debug("connection upgraded", "path", req.Path())
			pending.Complete(c.rwc, c.br)
			return true
		}

		// Drain whatever the handler left so the next request starts
		// at a message boundary.
		req.Close()
		if err := hr.Body.Close(); err != nil {
			return false
		}
		if !keepAlive {
			return false
		}
	}
}

func (c *conn) readRequest() (*http.Request, error) {
	c.lr.remain = int64(c.srv.maxHeaderBytes) + 4096
	c.lr.hit = false
	hr, err := http.ReadRequest(c.br)
	c.lr.remain = -1
	return hr, err
}

// dispatch calls the handler and converts any failure into the 404
// fallback. The failure kind is kept for logs and the observer only.
func (c *conn) dispatch(ctx context.Context, req *web.Request) *web.Response {
	start := time.Now()
	resp, err := c.srv.handler.Call(ctx, req)
	if err == nil && resp == nil {
		err = web.NewError(web.KindInternal, "handler returned no response")
	}

	outcome := outcomeOK
	if err != nil {
		outcome = web.KindOf(err).String()
		c.logger.Debug("handler failed",
			"method", req.Method,
			"path", req.Path(),
			"kind", outcome,
			"error", err)
		resp = web.NotFound()
	}
	c.srv.observer.RequestServed(req.Method, resp.StatusCode(), outcome, time.Since(start))
	return resp
}

// closeWrite half-closes the connection after an error response and
// discards what the client still sends, so closing does not reset the
// connection before the client has read the response.
func (c *conn) closeWrite() {
	cw, ok := c.rwc.(interface{ CloseWrite() error })
	if !ok {
		return
	}
	if err := cw.CloseWrite(); err != nil {
		return
	}
	_, _ = io.CopyN(io.Discard, c.rwc, maxDrainBytes)
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
