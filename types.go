package goGateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goGateway/transport"
)

// Request describes one logical API call. It is passed by value and never
// mutated by the client; each attempt sends a fresh copy of its headers and
// re-reads Body.
type Request struct {
	Method string
	// Path is resolved against Transport.BaseURL.
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
	// RequiresAuth attaches the stored access token and enables renewal coordination.
	RequiresAuth bool
}

// Response is the raw response returned on success.
type Response = transport.Response

// NewJSONRequest encodes v as the request body. A nil v sends no body.
func NewJSONRequest(method, path string, v any, requiresAuth bool) (Request, error) {
	req := Request{Method: method, Path: path, RequiresAuth: requiresAuth}
	if v == nil {
		return req, nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return Request{}, fmt.Errorf("%w: encode body: %w", ErrInvalidRequest, err)
	}
	req.Body = body
	return req, nil
}

// DecodeJSON unmarshals a response body into v.
func DecodeJSON(resp *Response, v any) error {
	if resp == nil {
		return fmt.Errorf("%w: nil response", ErrServer)
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidRequest)
	}
	if r.Method != "" && strings.ContainsAny(r.Method, " \t\r\n") {
		return fmt.Errorf("%w: malformed method %q", ErrInvalidRequest, r.Method)
	}
	return nil
}

// wire builds the transport request for one attempt. access is empty for
// unauthenticated requests.
func (r Request) wire(access, requestID string) *transport.Request {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Del("Authorization")
	if access != "" {
		header.Set("Authorization", "Bearer "+access)
	}
	if requestID != "" {
		header.Set(transport.RequestIDHeader, requestID)
	}

	var query url.Values
	if r.Query != nil {
		query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			query[k] = append([]string(nil), v...)
		}
	}

	return &transport.Request{
		Method: method,
		Path:   r.Path,
		Query:  query,
		Header: header,
		Body:   r.Body,
	}
}
