package appconf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// JSONConfig is the on-disk configuration. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON. Durations use time.ParseDuration
// syntax ("90s", "720h").
type JSONConfig struct {
	Port            int      `json:"port" yaml:"port"`
	Env             string   `json:"env" yaml:"env"`
	Verbose         bool     `json:"verbose" yaml:"verbose"`
	RateLimit       int      `json:"rate-limit" yaml:"rate-limit"`
	RateLimitExempt []string `json:"rate-limit-exempt" yaml:"rate-limit-exempt"`
	Timezone        string   `json:"timezone" yaml:"timezone"`
	AdminKeys       []string `json:"admin-keys" yaml:"admin-keys"`

	UpstreamURL     string  `json:"upstream-url" yaml:"upstream-url"`
	UpstreamRPS     float64 `json:"upstream-rps" yaml:"upstream-rps"`
	UpstreamTimeout string  `json:"upstream-timeout" yaml:"upstream-timeout"`
	CachePath       string  `json:"cache-path" yaml:"cache-path"`
	StaticCacheTTL  string  `json:"static-cache-ttl" yaml:"static-cache-ttl"`
	DynamicCacheTTL string  `json:"dynamic-cache-ttl" yaml:"dynamic-cache-ttl"`
	CatalogRefresh  string  `json:"catalog-refresh" yaml:"catalog-refresh"`
}

// LoadFromFile reads, defaults and validates a config file.
func LoadFromFile(path string) (*JSONConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg JSONConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *JSONConfig) setDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Env == "" {
		c.Env = Development.String()
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.UpstreamURL == "" {
		c.UpstreamURL = DefaultUpstreamURL
	}
	if c.UpstreamRPS == 0 {
		c.UpstreamRPS = DefaultUpstreamRPS
	}
	if c.UpstreamTimeout == "" {
		c.UpstreamTimeout = DefaultUpstreamTimeout.String()
	}
	if c.CachePath == "" {
		c.CachePath = DefaultCachePath
	}
	if c.StaticCacheTTL == "" {
		c.StaticCacheTTL = DefaultStaticCacheTTL.String()
	}
	if c.DynamicCacheTTL == "" {
		c.DynamicCacheTTL = DefaultDynamicCacheTTL.String()
	}
	if c.CatalogRefresh == "" {
		c.CatalogRefresh = DefaultCatalogRefresh.String()
	}
}

func (c *JSONConfig) validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	switch strings.ToLower(c.Env) {
	case "development", "test", "production", "prod":
	default:
		errs = append(errs, fmt.Errorf("env must be development, test or production, got %q", c.Env))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate-limit must not be negative, got %d", c.RateLimit))
	}
	if c.UpstreamRPS < 0 {
		errs = append(errs, fmt.Errorf("upstream-rps must not be negative, got %g", c.UpstreamRPS))
	}
	for i, key := range c.AdminKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Errorf("admin-keys[%d] must not be empty", i))
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("upstream-url: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("upstream-url must be an absolute http(s) URL, got %q", c.UpstreamURL))
	}

	durations := []struct {
		name  string
		value string
	}{
		{"upstream-timeout", c.UpstreamTimeout},
		{"static-cache-ttl", c.StaticCacheTTL},
		{"dynamic-cache-ttl", c.DynamicCacheTTL},
		{"catalog-refresh", c.CatalogRefresh},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
			continue
		}
		if parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}

	return errors.Join(errs...)
}

// ToAppConfig converts a validated file into server settings.
func (c *JSONConfig) ToAppConfig() Config {
	return Config{
		Port:            c.Port,
		Env:             EnvFlagToEnvironment(c.Env),
		Verbose:         c.Verbose,
		RateLimit:       c.RateLimit,
		RateLimitExempt: c.RateLimitExempt,
		Timezone:        c.Timezone,
		AdminKeys:       c.AdminKeys,
	}
}

// ToUpstreamConfigData converts a validated file into client, cache and
// catalog settings.
func (c *JSONConfig) ToUpstreamConfigData() UpstreamConfigData {
	return UpstreamConfigData{
		BaseURL:           c.UpstreamURL,
		RequestsPerSecond: c.UpstreamRPS,
		Timeout:           mustDuration(c.UpstreamTimeout, DefaultUpstreamTimeout),
		CachePath:         c.CachePath,
		StaticTTL:         mustDuration(c.StaticCacheTTL, DefaultStaticCacheTTL),
		DynamicTTL:        mustDuration(c.DynamicCacheTTL, DefaultDynamicCacheTTL),
		CatalogRefresh:    mustDuration(c.CatalogRefresh, DefaultCatalogRefresh),
		Env:               EnvFlagToEnvironment(c.Env),
		Verbose:           c.Verbose,
	}
}

func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
