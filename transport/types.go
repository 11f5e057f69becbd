package transport

import (
	"context"
	"net/http"
	"net/url"
)

// Transport issues a single request.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Request is the wire-level description of one call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response is a fully-read reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Func adapts a function to [Transport].
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
