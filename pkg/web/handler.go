package web

import "context"

// Handler is the single transaction contract: given a request, produce a
// response or a typed failure. Routers, layers and user code all implement it.
type Handler interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc is an adapter that allows using an ordinary function as a Handler.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Call calls f(ctx, req).
func (f HandlerFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// NoArg adapts a function that ignores the request entirely.
func NoArg(fn func(ctx context.Context) (*Response, error)) Handler {
	return HandlerFunc(func(ctx context.Context, _ *Request) (*Response, error) {
		return fn(ctx)
	})
}

// WithBody adapts a function taking one argument extracted from the request
// body. The request is split, its head discarded, and T decoded from the
// body before fn runs. Extraction failures are returned as KindExtract.
//
//	router.Post("/echo", web.WithBody(func(ctx context.Context, s web.String) (*web.Response, error) {
//		return web.Text(string(s)), nil
//	}))
func WithBody[T any, PT interface {
	*T
	FromBody
}](fn func(ctx context.Context, arg T) (*Response, error)) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		_, body, err := req.IntoParts()
		if err != nil {
			return nil, err
		}
		defer body.Close()

		var arg T
		if err := PT(&arg).FromBody(ctx, body); err != nil {
			return nil, asExtractError(err)
		}
		return fn(ctx, arg)
	})
}
