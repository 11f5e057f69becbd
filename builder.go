package goGateway

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goGateway/credential"
	internalaudit "github.com/MrEthical07/goGateway/internal/audit"
	"github.com/MrEthical07/goGateway/internal/expiry"
	internalflows "github.com/MrEthical07/goGateway/internal/flows"
	"github.com/MrEthical07/goGateway/internal/renewal"
	"github.com/MrEthical07/goGateway/jwt"
	"github.com/MrEthical07/goGateway/transport"
)

// Builder assembles a [Client]. A Builder is single-use.
type Builder struct {
	config Config

	transport  transport.Transport
	httpClient *http.Client
	backend    credential.Backend
	redis      redis.UniversalClient

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithTransport overrides the HTTP transport built from Config.Transport.
func (b *Builder) WithTransport(t transport.Transport) *Builder {
	b.transport = t
	return b
}

// WithHTTPClient sets the http.Client used by the default transport.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithCredentialBackend overrides the backend selected by Config.Credentials.Backend.
func (b *Builder) WithCredentialBackend(backend credential.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRedis supplies the client used when Config.Credentials.Backend is "redis".
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- TRANSPORT --------
	tr := b.transport
	if tr == nil {
		if cfg.Transport.BaseURL == "" {
			return nil, fmt.Errorf("%w: Transport BaseURL is required without a custom transport", ErrInvalidConfig)
		}
		httpTransport, err := transport.NewHTTP(transport.HTTPConfig{
			BaseURL:      cfg.Transport.BaseURL,
			Timeout:      cfg.Transport.Timeout,
			UserAgent:    cfg.Transport.UserAgent,
			MaxBodyBytes: cfg.Transport.MaxBodyBytes,
			RateLimit:    cfg.Transport.RateLimit,
			RateBurst:    cfg.Transport.RateBurst,
			MaxInFlight:  cfg.Transport.MaxInFlight,
			Client:       b.httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		tr = httpTransport
	}

	// -------- CREDENTIAL STORE --------
	backend, err := b.credentialBackend(cfg.Credentials)
	if err != nil {
		return nil, err
	}
	store := credential.NewStore(backend, credential.WithKey(cfg.Credentials.Key))

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client := &Client{
		config:    cloneConfig(cfg),
		transport: tr,
		store:     store,
		inspector: jwt.NewInspector(nil),
		expiry: expiry.New(expiry.Rule{
			Statuses:  cfg.Expiry.Statuses,
			CodeField: cfg.Expiry.CodeField,
			Codes:     cfg.Expiry.Codes,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger.With("component", "gogateway"),
	}
	client.renewals = renewal.New(client.renew, cfg.Renewal.Timeout)

	fields := internalflows.TokenFields{
		Access:  cfg.Renewal.AccessField,
		Refresh: cfg.Renewal.RefreshField,
	}
	client.flows = internalflows.Deps{
		Renewal: internalflows.RenewalDeps{
			Path:   cfg.Renewal.Path,
			Fields: fields,
			Load:   store.Get,
			Send:   tr.Send,
			Save:   store.Set,
			Clear:  store.Clear,
			Warn:   client.logger.Warn,
		},
		Login: internalflows.LoginDeps{
			Path:   cfg.Login.Path,
			Fields: fields,
			Send:   tr.Send,
			Save:   store.Set,
		},
	}

	b.built = true

	return client, nil
}

func (b *Builder) credentialBackend(cfg CredentialsConfig) (credential.Backend, error) {
	if b.backend != nil {
		return b.backend, nil
	}

	switch cfg.Backend {
	case BackendFile:
		backend, err := credential.NewFileBackend(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		return backend, nil
	case BackendRedis:
		if b.redis == nil {
			return nil, fmt.Errorf("%w: redis backend requires a redis client", ErrInvalidConfig)
		}
		return credential.NewRedisBackend(b.redis, cfg.RedisPrefix, cfg.RedisTTL), nil
	default:
		return credential.NewMemoryBackend(), nil
	}
}
