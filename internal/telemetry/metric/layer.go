package metric

import (
	"context"
	"time"

	"github.com/alexu8007/Oxidized/pkg/web"
)

// Layer records handler latency and in-flight requests for everything it
// wraps.
func (r *Registry) Layer() web.Layer {
	return func(next web.Handler) web.Handler {
		return web.HandlerFunc(func(ctx context.Context, req *web.Request) (*web.Response, error) {
			r.RequestsInFlight.Inc()
			defer r.RequestsInFlight.Dec()

			start := time.Now()
			resp, err := next.Call(ctx, req)

			outcome := "ok"
			if err != nil {
				outcome = web.KindOf(err).String()
			}
			r.HandlerDuration.WithLabelValues(methodLabel(req.Method), outcome).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}
