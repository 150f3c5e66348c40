package web

import (
	"bytes"
	"context"
	"net/http"
)

// WrapHTTP adapts a net/http handler. The handler writes into a buffer and
// the buffered result becomes the Response; streaming is not supported.
func WrapHTTP(h http.Handler) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		parts, body, err := req.IntoParts()
		if err != nil {
			return nil, err
		}
		defer body.Close()

		proto := parts.Proto
		major, minor, ok := http.ParseHTTPVersion(proto)
		if !ok {
			proto, major, minor = "HTTP/1.1", 1, 1
		}
		hr := &http.Request{
			Method:     parts.Method,
			URL:        parts.URL,
			RequestURI: parts.RequestURI,
			Proto:      proto,
			ProtoMajor: major,
			ProtoMinor: minor,
			Header:     parts.Header,
			Host:       parts.Host,
			RemoteAddr: parts.RemoteAddr,
			Body:       body,
		}
		w := &responseBuffer{}
		h.ServeHTTP(w, hr.WithContext(ctx))
		return &Response{
			Status: w.statusCode(),
			Header: w.Header(),
			Body:   w.body.Bytes(),
		}, nil
	})
}

type responseBuffer struct {
	h      http.Header
	status int
	body   bytes.Buffer
}

func (w *responseBuffer) Header() http.Header {
	if w.h == nil {
		w.h = make(http.Header)
	}
	return w.h
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	w.status = status
}

func (w *responseBuffer) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(p)
}

func (w *responseBuffer) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
