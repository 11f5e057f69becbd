package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseBaseURLDefaultsAndNormalizes(t *testing.T) {
	u, err := ParseBaseURL("api.example.com")
	if err != nil {
		t.Fatalf("ParseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Host != "api.example.com" || u.Path != "/" {
		t.Fatalf("unexpected url %q", u.String())
	}

	u, err = ParseBaseURL("http://example.com:1234/v1?x=1#frag")
	if err != nil {
		t.Fatalf("ParseBaseURL returned error: %v", err)
	}
	if u.Path != "/v1/" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := ParseBaseURL("  "); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestHTTPSendSetsHeadersBodyAndQuery(t *testing.T) {
	t.Parallel()

	var (
		gotPath   string
		gotQuery  string
		gotBody   string
		gotHeader http.Header
		gotMethod string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	tr, err := NewHTTP(HTTPConfig{BaseURL: server.URL + "/v1", UserAgent: "test-agent/1"})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}

	resp, err := tr.Send(context.Background(), &Request{
		Method: "post",
		Path:   "/posts/",
		Query:  map[string][]string{"page": {"2"}},
		Header: http.Header{"Authorization": {"Bearer A1"}},
		Body:   []byte(`{"title":"hi"}`),
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if resp.Status != http.StatusCreated || !resp.OK() {
		t.Fatalf("status = %d, want 201", resp.Status)
	}
	if string(resp.Body) != `{"ok":true}` || resp.Header.Get("X-Reply") != "yes" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/posts/" || gotQuery != "page=2" {
		t.Fatalf("request line = %s %s?%s", gotMethod, gotPath, gotQuery)
	}
	if gotBody != `{"title":"hi"}` {
		t.Fatalf("body = %q", gotBody)
	}
	if gotHeader.Get("Authorization") != "Bearer A1" ||
		gotHeader.Get("Accept") != "application/json" ||
		gotHeader.Get("Content-Type") != "application/json" ||
		gotHeader.Get("User-Agent") != "test-agent/1" ||
		gotHeader.Get(RequestIDHeader) == "" {
		t.Fatalf("headers = %v", gotHeader)
	}
}

func TestHTTPSendKeepsCallerRequestID(t *testing.T) {
	t.Parallel()

	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(RequestIDHeader)
	}))
	t.Cleanup(server.Close)

	tr, err := NewHTTP(HTTPConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	_, err = tr.Send(context.Background(), &Request{
		Path:   "/x",
		Header: http.Header{RequestIDHeader: {"req-1"}},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got != "req-1" {
		t.Fatalf("request id = %q, want req-1", got)
	}
}

func TestHTTPSendNon2xxIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"token_not_valid"}`))
	}))
	t.Cleanup(server.Close)

	tr, err := NewHTTP(HTTPConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	resp, err := tr.Send(context.Background(), &Request{Path: "/x"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp.OK() || resp.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHTTPSendNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := server.URL
	server.Close()

	tr, err := NewHTTP(HTTPConfig{BaseURL: addr, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	if _, err := tr.Send(context.Background(), &Request{Path: "/x"}); err == nil {
		t.Fatalf("expected network error")
	}
}

func TestHTTPSendBodyLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	t.Cleanup(server.Close)

	tr, err := NewHTTP(HTTPConfig{BaseURL: server.URL, MaxBodyBytes: 16})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	if _, err := tr.Send(context.Background(), &Request{Path: "/x"}); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestHTTPSendRejectsAbsolutePath(t *testing.T) {
	tr, err := NewHTTP(HTTPConfig{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	if _, err := tr.Send(context.Background(), &Request{Path: "https://evil.example/x"}); err == nil {
		t.Fatalf("expected error for absolute path")
	}
}

func TestHTTPMaxInFlightCapsConcurrency(t *testing.T) {
	t.Parallel()

	var (
		current atomic.Int32
		peak    atomic.Int32
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
	}))
	t.Cleanup(server.Close)

	tr, err := NewHTTP(HTTPConfig{BaseURL: server.URL, MaxInFlight: 2})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Send(context.Background(), &Request{Path: "/x"}); err != nil {
				t.Errorf("send: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", got)
	}
}

func TestHTTPRateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(server.Close)

	tr, err := NewHTTP(HTTPConfig{BaseURL: server.URL, RateLimit: 0.01, RateBurst: 1})
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	if _, err := tr.Send(context.Background(), &Request{Path: "/x"}); err != nil {
		t.Fatalf("first send should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := tr.Send(ctx, &Request{Path: "/x"}); err == nil {
		t.Fatalf("expected rate limit wait to fail within deadline")
	}
}
