package web

import "context"

// Layer wraps a handler and returns a new one.
type Layer func(next Handler) Handler

// Stack pairs a layer with the handler it wraps. Every Call applies the
// layer to the inner handler again and invokes the result, so work done
// while wrapping is repeated per request. Layers that are expensive to
// build should be applied once and installed with Shared.
type Stack struct {
	layer Layer
	inner Handler
}

// NewStack returns the composition of layer around inner.
func NewStack(layer Layer, inner Handler) *Stack {
	return &Stack{layer: layer, inner: inner}
}

// Call implements Handler.
func (s *Stack) Call(ctx context.Context, req *Request) (*Response, error) {
	return s.layer(s.inner).Call(ctx, req)
}

// Layer wraps the stack in another layer, which becomes the outermost.
func (s *Stack) Layer(l Layer) *Stack {
	return NewStack(l, s)
}

// Chain composes layers around h. Chain(h, a, b) runs a, then b, then h.
func Chain(h Handler, layers ...Layer) Handler {
	for i := len(layers) - 1; i >= 0; i-- {
		h = NewStack(layers[i], h)
	}
	return h
}

// Shared returns a layer that ignores the handler it is given and always
// yields h. It lets an already built, shared handler sit in a stack without
// being rebuilt on every call.
func Shared(h Handler) Layer {
	return func(Handler) Handler {
		return h
	}
}
