package web

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Request is an inbound HTTP request.
//
// The body is not exposed directly: IntoParts splits the request into its
// head and body exactly once, after which the body belongs to the caller.
type Request struct {
	Method        string
	URL           *url.URL
	RequestURI    string
	Proto         string
	Header        http.Header
	Host          string
	RemoteAddr    string
	ContentLength int64

	ctx     context.Context
	mu      sync.Mutex
	body    io.ReadCloser
	taken   bool
	upgrade *PendingUpgrade
}

// Parts is the head of a request, separated from its body.
type Parts struct {
	Method     string
	URL        *url.URL
	RequestURI string
	Proto      string
	Header     http.Header
	Host       string
	RemoteAddr string
}

// NewRequest builds a request for method and target with the given body.
// target may be an origin-form path ("/a?b=c") or an absolute URL.
func NewRequest(method, target string, body io.Reader) (*Request, error) {
	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, NewError(KindProtocol, "invalid request target").Wrap(err)
	}
	rc, ok := body.(io.ReadCloser)
	if !ok {
		if body == nil {
			body = strings.NewReader("")
		}
		rc = io.NopCloser(body)
	}
	cl := int64(-1)
	if b, ok := body.(interface{ Len() int }); ok {
		cl = int64(b.Len())
	}
	return &Request{
		Method:        strings.ToUpper(method),
		URL:           u,
		RequestURI:    target,
		Proto:         "HTTP/1.1",
		Header:        make(http.Header),
		Host:          u.Host,
		ContentLength: cl,
		body:          rc,
	}, nil
}

// FromHTTP converts a parsed net/http request into a Request. The body of r
// is taken over by the returned value.
func FromHTTP(r *http.Request) *Request {
	body := r.Body
	if body == nil {
		body = http.NoBody
	}
	header := r.Header
	if header == nil {
		header = make(http.Header)
	}
	return &Request{
		Method:        r.Method,
		URL:           r.URL,
		RequestURI:    r.RequestURI,
		Proto:         r.Proto,
		Header:        header,
		Host:          r.Host,
		RemoteAddr:    r.RemoteAddr,
		ContentLength: r.ContentLength,
		ctx:           r.Context(),
		body:          body,
	}
}

// Path returns the request path, without query.
func (r *Request) Path() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}

// Context returns the request's context. If nil, returns Background.
func (r *Request) Context() context.Context {
	if r == nil || r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext sets the request context and returns r.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// WithUpgrade attaches the slot the runtime resolves after a 101 response.
func (r *Request) WithUpgrade(p *PendingUpgrade) *Request {
	r.upgrade = p
	return r
}

// OnUpgrade claims the connection for a protocol upgrade. The returned
// slot resolves after the response has been written. Requests that were not
// read from a live connection yield a slot that has already failed.
func (r *Request) OnUpgrade() *PendingUpgrade {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upgrade == nil {
		r.upgrade = NewPendingUpgrade()
		r.upgrade.Fail(ErrUpgradeUnavailable)
	}
	r.upgrade.requested.Store(true)
	return r.upgrade
}

// IntoParts splits the request into its head and its body. It succeeds once;
// later calls return ErrBodyConsumed.
func (r *Request) IntoParts() (Parts, io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken {
		return Parts{}, nil, ErrBodyConsumed
	}
	r.taken = true
	body := r.body
	r.body = nil
	if body == nil {
		body = http.NoBody
	}
	return Parts{
		Method:     r.Method,
		URL:        r.URL,
		RequestURI: r.RequestURI,
		Proto:      r.Proto,
		Header:     r.Header,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
	}, body, nil
}

// BodyBytes consumes the body and returns it in full.
func (r *Request) BodyBytes() ([]byte, error) {
	_, body, err := r.IntoParts()
	if err != nil {
		return nil, err
	}
	defer body.Close()
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, NewError(KindIO, "read request body").Wrap(err)
	}
	return b, nil
}

// Close releases the body if nobody took it.
func (r *Request) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken || r.body == nil {
		return nil
	}
	r.taken = true
	err := r.body.Close()
	r.body = nil
	return err
}
