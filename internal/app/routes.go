package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexu8007/Oxidized/internal/infra/buildinfo"
	"github.com/alexu8007/Oxidized/internal/telemetry/logger"
	"github.com/alexu8007/Oxidized/pkg/router"
	"github.com/alexu8007/Oxidized/pkg/web"
	"github.com/alexu8007/Oxidized/pkg/ws"
)

// Route paths served by the reference application.
const (
	PathRoot     = "/"
	PathHealth   = "/health"
	PathEcho     = "/echo"
	PathEchoJSON = "/echo/json"
	PathWS       = "/ws"
	PathLogLevel = "/log/level"
)

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status  string         `json:"status"`
	Version buildinfo.Info `json:"version"`
}

// registerRoutes installs the application routes on r.
func registerRoutes(r *router.Router, wsOpts ...ws.Option) {
	r.Get(PathRoot, web.NoArg(hello)).
		Get(PathHealth, web.NoArg(health)).
		Head(PathHealth, web.NoArg(health)).
		Post(PathEcho, web.WithBody(echoText)).
		Post(PathEchoJSON, web.WithBody(echoJSON)).
		Get(PathLogLevel, web.NoArg(logLevel)).
		Put(PathLogLevel, web.WithBody(setLogLevel)).
		WS(PathWS, echoSession, wsOpts...)
}

func hello(ctx context.Context) (*web.Response, error) {
	return web.Text("Hello, World!"), nil
}

func health(ctx context.Context) (*web.Response, error) {
	return web.JSONResponse(healthResponse{
		Status:  "ok",
		Version: buildinfo.Get(),
	})
}

func echoText(ctx context.Context, body web.String) (*web.Response, error) {
	return web.Text(string(body)), nil
}

func echoJSON(ctx context.Context, body web.JSON[json.RawMessage]) (*web.Response, error) {
	return web.NewResponse(body.Value).WithHeader("Content-Type", "application/json"), nil
}

func logLevel(ctx context.Context) (*web.Response, error) {
	return web.Text(logger.GetLevel()), nil
}

// setLogLevel changes the level of every logger built by logger.New.
func setLogLevel(ctx context.Context, body web.String) (*web.Response, error) {
	level := strings.TrimSpace(string(body))
	if err := logger.SetLevel(level); err != nil {
		return web.Text(err.Error()).WithStatus(http.StatusBadRequest), nil
	}
	logger.L(ctx).Info("log level changed", "level", logger.GetLevel())
	return web.Text(logger.GetLevel()), nil
}

// echoSession sends every text and binary message back to the peer until
// the peer closes the session.
func echoSession(ctx context.Context, c *ws.Conn) error {
	log := logger.L(ctx).With("remote_addr", c.RemoteAddr().String())
	log.Debug("websocket session started")

	for msg, err := range c.Messages(ctx) {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		switch msg.Type {
		case ws.TextMessage, ws.BinaryMessage:
			if err := c.Send(msg); err != nil {
				return err
			}
		case ws.CloseMessage:
			attrs := []any{}
			if msg.Close != nil {
				attrs = append(attrs, slog.Int("code", int(msg.Close.Code)), slog.String("reason", msg.Close.Reason))
			}
			log.Debug("websocket closed by peer", attrs...)
		}
	}
	return nil
}
