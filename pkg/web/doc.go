// Package web defines the request/response transaction model shared by the
// router, the middleware layers and the connection runtime.
//
// Everything that takes part in serving a request implements Handler:
//
//	type Handler interface {
//		Call(ctx context.Context, req *Request) (*Response, error)
//	}
//
// Layers wrap handlers. Chain(h, a, b) builds a stack in which a runs first
// and decides whether b, and then h, run at all:
//
//	h := web.Chain(router, middleware.Log(logger), middleware.RequestID())
//
// Handlers that need the body take it through an extractor:
//
//	web.WithBody(func(ctx context.Context, in web.JSON[Point]) (*web.Response, error) {
//		return web.JSONResponse(in.Value)
//	})
//
// A failed extraction is reported as KindExtract. The runtime answers every
// handler failure, whatever its kind, with 404 "Not Found".
package web
