package goGateway

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGateway/credential"
	"github.com/MrEthical07/goGateway/internal/fakeapi"
	"github.com/MrEthical07/goGateway/transport"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Renewal.Timeout = 5 * time.Second
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

// newGatewayTest starts a fake backend and a client pointed at it.
func newGatewayTest(t *testing.T, mutate func(*Config), opts ...fakeapi.Option) (*Client, *fakeapi.Server, func()) {
	t.Helper()

	fake := fakeapi.New(opts...)
	srv := httptest.NewServer(fake.Handler())

	cfg := testConfig()
	cfg.Transport.BaseURL = srv.URL
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := New().WithConfig(cfg).Build()
	if err != nil {
		srv.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return client, fake, func() {
		client.Close()
		srv.Close()
	}
}

// newTransportTest builds a client over an in-process transport function.
func newTransportTest(t *testing.T, mutate func(*Config), fn transport.Func) *Client {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := New().WithConfig(cfg).WithTransport(fn).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func mustSetCredentials(t *testing.T, c *Client, access, refresh string) {
	t.Helper()
	if err := c.SetCredentials(context.Background(), credential.Pair{AccessToken: access, RefreshToken: refresh}); err != nil {
		t.Fatalf("SetCredentials failed: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func expiredResponse() *transport.Response {
	return &transport.Response{
		Status: 401,
		Body:   []byte(`{"detail":"Given token not valid for any token type","code":"token_not_valid"}`),
	}
}

func jsonResponse(status int, body string) *transport.Response {
	return &transport.Response{Status: status, Body: []byte(body)}
}

func bearer(req *transport.Request) string {
	const prefix = "Bearer "
	h := req.Header.Get("Authorization")
	if len(h) <= len(prefix) {
		return ""
	}
	return h[len(prefix):]
}
