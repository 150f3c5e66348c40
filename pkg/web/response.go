package web

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Response is a fully buffered HTTP response. Treat it as immutable once it
// has been returned to the runtime.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse returns a 200 response carrying body.
func NewResponse(body []byte) *Response {
	return &Response{
		Status: http.StatusOK,
		Header: make(http.Header),
		Body:   body,
	}
}

// Text returns a 200 response with a plain-text body.
func Text(s string) *Response {
	return NewResponse([]byte(s)).WithHeader("Content-Type", "text/plain; charset=utf-8")
}

// JSONResponse encodes v and returns it as a 200 application/json response.
func JSONResponse(v any) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, NewError(KindInternal, "encode json response").Wrap(err)
	}
	return NewResponse(b).WithHeader("Content-Type", "application/json"), nil
}

// NotFound is the response the runtime substitutes for any handler failure.
func NotFound() *Response {
	return &Response{
		Status: http.StatusNotFound,
		Header: make(http.Header),
		Body:   []byte("Not Found"),
	}
}

// WithStatus sets the status code and returns r.
func (r *Response) WithStatus(status int) *Response {
	r.Status = status
	return r
}

// WithHeader sets a header and returns r.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	r.Header.Set(key, value)
	return r
}

// StatusCode returns the status, treating zero as 200.
func (r *Response) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

// String is a short description used in logs.
func (r *Response) String() string {
	return strconv.Itoa(r.StatusCode()) + " " + http.StatusText(r.StatusCode())
}
