package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent    = "gogateway/0.1"
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 << 20

	// RequestIDHeader carries the per-call correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// ErrBodyTooLarge is returned when a response body exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body too large")

// HTTPConfig configures [NewHTTP].
type HTTPConfig struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// RateLimit is the sustained sends per second; zero disables pacing.
	RateLimit float64
	RateBurst int
	// MaxInFlight caps concurrent sends; zero means unlimited.
	MaxInFlight int
	// Client overrides the underlying http.Client. Its Timeout is left untouched.
	Client *http.Client
}

// HTTP talks to the backend over net/http.
type HTTP struct {
	baseURL      *url.URL
	http         *http.Client
	userAgent    string
	maxBodyBytes int64
	limiter      *rate.Limiter
	slots        chan struct{}
}

var _ Transport = (*HTTP)(nil)

// NewHTTP builds an [HTTP] transport.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	base, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.RateLimit < 0 || cfg.RateBurst < 0 || cfg.MaxInFlight < 0 {
		return nil, errors.New("transport limits must be >= 0")
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	t := &HTTP{
		baseURL:      base,
		http:         client,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.MaxInFlight > 0 {
		t.slots = make(chan struct{}, cfg.MaxInFlight)
	}
	return t, nil
}

// Send issues req and reads the whole body.
func (t *HTTP) Send(ctx context.Context, req *Request) (*Response, error) {
	if t == nil {
		return nil, fmt.Errorf("transport is nil")
	}
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}

	release, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > t.maxBodyBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, t.maxBodyBytes)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

func (t *HTTP) acquire(ctx context.Context) (func(), error) {
	if t.slots == nil {
		return func() {}, nil
	}
	select {
	case t.slots <- struct{}{}:
		return func() { <-t.slots }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire send slot: %w", ctx.Err())
	}
}

func (t *HTTP) newRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rel, err := url.Parse(strings.TrimLeft(req.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", req.Path, err)
	}
	if rel.IsAbs() || rel.Host != "" {
		return nil, fmt.Errorf("path %q must be relative to the base url", req.Path)
	}
	reqURL := t.baseURL.ResolveReference(rel)
	if len(req.Query) > 0 {
		q := reqURL.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		reqURL.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get(RequestIDHeader) == "" {
		httpReq.Header.Set(RequestIDHeader, uuid.NewString())
	}
	httpReq.Header.Set("User-Agent", t.userAgent)

	return httpReq, nil
}

// ParseBaseURL normalizes a base URL, defaulting the scheme to https and keeping any
// path prefix so that relative request paths resolve beneath it.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
