package goGateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape. Durations are strings ("15s", "2m") and every
// field is optional; absent fields keep their defaults.
type fileConfig struct {
	Transport struct {
		BaseURL      *string  `toml:"base_url" yaml:"base_url"`
		Timeout      *string  `toml:"timeout" yaml:"timeout"`
		UserAgent    *string  `toml:"user_agent" yaml:"user_agent"`
		MaxBodyBytes *int64   `toml:"max_body_bytes" yaml:"max_body_bytes"`
		RateLimit    *float64 `toml:"rate_limit" yaml:"rate_limit"`
		RateBurst    *int     `toml:"rate_burst" yaml:"rate_burst"`
		MaxInFlight  *int     `toml:"max_in_flight" yaml:"max_in_flight"`
	} `toml:"transport" yaml:"transport"`
	Renewal struct {
		Path            *string `toml:"path" yaml:"path"`
		AccessField     *string `toml:"access_field" yaml:"access_field"`
		RefreshField    *string `toml:"refresh_field" yaml:"refresh_field"`
		Timeout         *string `toml:"timeout" yaml:"timeout"`
		ProactiveWindow *string `toml:"proactive_window" yaml:"proactive_window"`
	} `toml:"renewal" yaml:"renewal"`
	Login struct {
		Path *string `toml:"path" yaml:"path"`
	} `toml:"login" yaml:"login"`
	Expiry struct {
		Statuses  []int    `toml:"statuses" yaml:"statuses"`
		CodeField *string  `toml:"code_field" yaml:"code_field"`
		Codes     []string `toml:"codes" yaml:"codes"`
	} `toml:"expiry" yaml:"expiry"`
	Credentials struct {
		Backend     *string `toml:"backend" yaml:"backend"`
		Key         *string `toml:"key" yaml:"key"`
		Dir         *string `toml:"dir" yaml:"dir"`
		RedisPrefix *string `toml:"redis_prefix" yaml:"redis_prefix"`
		RedisTTL    *string `toml:"redis_ttl" yaml:"redis_ttl"`
	} `toml:"credentials" yaml:"credentials"`
	Audit struct {
		Enabled    *bool `toml:"enabled" yaml:"enabled"`
		BufferSize *int  `toml:"buffer_size" yaml:"buffer_size"`
		DropIfFull *bool `toml:"drop_if_full" yaml:"drop_if_full"`
	} `toml:"audit" yaml:"audit"`
	Metrics struct {
		Enabled                 *bool `toml:"enabled" yaml:"enabled"`
		EnableLatencyHistograms *bool `toml:"latency_histograms" yaml:"latency_histograms"`
	} `toml:"metrics" yaml:"metrics"`
}

// LoadConfigFile reads a TOML (.toml) or YAML (.yaml, .yml) file over the
// defaults and validates the result.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := defaultConfig()
	if err := raw.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (f *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Transport.BaseURL, f.Transport.BaseURL)
	setString(&cfg.Transport.UserAgent, f.Transport.UserAgent)
	setValue(&cfg.Transport.MaxBodyBytes, f.Transport.MaxBodyBytes)
	setValue(&cfg.Transport.RateLimit, f.Transport.RateLimit)
	setValue(&cfg.Transport.RateBurst, f.Transport.RateBurst)
	setValue(&cfg.Transport.MaxInFlight, f.Transport.MaxInFlight)
	if err := setDuration(&cfg.Transport.Timeout, f.Transport.Timeout, "transport.timeout"); err != nil {
		return err
	}

	setString(&cfg.Renewal.Path, f.Renewal.Path)
	setString(&cfg.Renewal.AccessField, f.Renewal.AccessField)
	setString(&cfg.Renewal.RefreshField, f.Renewal.RefreshField)
	if err := setDuration(&cfg.Renewal.Timeout, f.Renewal.Timeout, "renewal.timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Renewal.ProactiveWindow, f.Renewal.ProactiveWindow, "renewal.proactive_window"); err != nil {
		return err
	}

	setString(&cfg.Login.Path, f.Login.Path)

	if f.Expiry.Statuses != nil {
		cfg.Expiry.Statuses = f.Expiry.Statuses
	}
	if f.Expiry.Codes != nil {
		cfg.Expiry.Codes = f.Expiry.Codes
	}
	if f.Expiry.CodeField != nil {
		cfg.Expiry.CodeField = strings.TrimSpace(*f.Expiry.CodeField)
	}

	if f.Credentials.Backend != nil {
		cfg.Credentials.Backend = CredentialBackendKind(strings.ToLower(strings.TrimSpace(*f.Credentials.Backend)))
	}
	setString(&cfg.Credentials.Key, f.Credentials.Key)
	setString(&cfg.Credentials.Dir, f.Credentials.Dir)
	setString(&cfg.Credentials.RedisPrefix, f.Credentials.RedisPrefix)
	if err := setDuration(&cfg.Credentials.RedisTTL, f.Credentials.RedisTTL, "credentials.redis_ttl"); err != nil {
		return err
	}

	setValue(&cfg.Audit.Enabled, f.Audit.Enabled)
	setValue(&cfg.Audit.BufferSize, f.Audit.BufferSize)
	setValue(&cfg.Audit.DropIfFull, f.Audit.DropIfFull)
	setValue(&cfg.Metrics.Enabled, f.Metrics.Enabled)
	setValue(&cfg.Metrics.EnableLatencyHistograms, f.Metrics.EnableLatencyHistograms)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, field string) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*src))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
