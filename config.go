package goGateway

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is the full client configuration. Obtain defaults through [New] or
// [LoadConfigFile] and override fields; a zero Config is not valid.
type Config struct {
	Transport   TransportConfig
	Renewal     RenewalConfig
	Login       LoginConfig
	Expiry      ExpiryConfig
	Credentials CredentialsConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig configures the default HTTP transport. It is ignored when a
// transport is supplied through [Builder.WithTransport].
type TransportConfig struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// RateLimit is sustained sends per second; zero disables pacing.
	RateLimit float64
	RateBurst int
	// MaxInFlight caps concurrent sends; zero means unlimited.
	MaxInFlight int
}

/*
====================================
RENEWAL CONFIG
====================================
*/

// RenewalConfig describes the renewal endpoint contract.
type RenewalConfig struct {
	Path         string
	AccessField  string
	RefreshField string
	// Timeout bounds one renewal attempt, independent of any caller's context.
	Timeout time.Duration
	// ProactiveWindow renews before sending when a JWT access token expires
	// within the window. Zero disables proactive renewal.
	ProactiveWindow time.Duration
}

// LoginConfig describes the login endpoint. Its token fields follow Renewal.
type LoginConfig struct {
	Path string
}

/*
====================================
EXPIRY CONFIG
====================================
*/

// ExpiryConfig decides which failure responses mean "credential expired".
// When Codes is empty the status alone decides.
type ExpiryConfig struct {
	Statuses  []int
	CodeField string
	Codes     []string
}

/*
====================================
CREDENTIALS CONFIG
====================================
*/

// CredentialBackendKind selects the durable credential backend built by [Builder.Build].
type CredentialBackendKind string

const (
	BackendMemory CredentialBackendKind = "memory"
	BackendFile   CredentialBackendKind = "file"
	BackendRedis  CredentialBackendKind = "redis"
)

// CredentialsConfig configures the credential store.
type CredentialsConfig struct {
	Backend CredentialBackendKind
	// Key names the stored pair within the backend.
	Key string
	// Dir is the FileBackend directory.
	Dir string
	// RedisPrefix and RedisTTL configure RedisBackend.
	RedisPrefix string
	RedisTTL    time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "gogateway/0.1",
			MaxBodyBytes: 10 << 20,
		},
		Renewal: RenewalConfig{
			Path:         "/api/token/refresh/",
			AccessField:  "access",
			RefreshField: "refresh",
			Timeout:      15 * time.Second,
		},
		Login: LoginConfig{
			Path: "/api/token/",
		},
		Expiry: ExpiryConfig{
			Statuses:  []int{401},
			CodeField: "code",
			Codes:     []string{"token_not_valid"},
		},
		Credentials: CredentialsConfig{
			Backend:     BackendMemory,
			Key:         "session",
			Dir:         "~/.config/gogateway/credentials",
			RedisPrefix: "gwc",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns a copy of the defaults used by [New].
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Expiry.Statuses = slices.Clone(cfg.Expiry.Statuses)
	out.Expiry.Codes = slices.Clone(cfg.Expiry.Codes)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field. Errors wrap [ErrInvalidConfig].
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	// Transport
	if c.Transport.Timeout < 0 {
		return errors.New("Transport Timeout must be >= 0")
	}
	if c.Transport.MaxBodyBytes < 0 {
		return errors.New("Transport MaxBodyBytes must be >= 0")
	}
	if c.Transport.RateLimit < 0 {
		return errors.New("Transport RateLimit must be >= 0")
	}
	if c.Transport.RateLimit > 0 && c.Transport.RateBurst < 0 {
		return errors.New("Transport RateBurst must be >= 0")
	}
	if c.Transport.MaxInFlight < 0 {
		return errors.New("Transport MaxInFlight must be >= 0")
	}

	// Renewal
	if strings.TrimSpace(c.Renewal.Path) == "" {
		return errors.New("Renewal Path is required")
	}
	if c.Renewal.AccessField == "" || c.Renewal.RefreshField == "" {
		return errors.New("Renewal AccessField and RefreshField are required")
	}
	if c.Renewal.AccessField == c.Renewal.RefreshField {
		return errors.New("Renewal AccessField and RefreshField must differ")
	}
	if c.Renewal.Timeout < 0 {
		return errors.New("Renewal Timeout must be >= 0")
	}
	if c.Renewal.ProactiveWindow < 0 {
		return errors.New("Renewal ProactiveWindow must be >= 0")
	}

	if strings.TrimSpace(c.Login.Path) == "" {
		return errors.New("Login Path is required")
	}

	// Expiry
	if len(c.Expiry.Statuses) == 0 {
		return errors.New("Expiry Statuses must not be empty")
	}
	for _, status := range c.Expiry.Statuses {
		if status < 400 || status > 599 {
			return fmt.Errorf("Expiry status %d is not a failure status", status)
		}
	}
	if len(c.Expiry.Codes) > 0 && c.Expiry.CodeField == "" {
		return errors.New("Expiry CodeField is required when Codes are set")
	}

	// Credentials
	switch c.Credentials.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if strings.TrimSpace(c.Credentials.Dir) == "" {
			return errors.New("Credentials Dir is required for the file backend")
		}
	default:
		return fmt.Errorf("unsupported Credentials Backend %q", c.Credentials.Backend)
	}
	if strings.TrimSpace(c.Credentials.Key) == "" {
		return errors.New("Credentials Key is required")
	}
	if c.Credentials.RedisTTL < 0 {
		return errors.New("Credentials RedisTTL must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
