// Package appconf holds process configuration: the settings of the HTTP
// server and the environment it runs in.
package appconf

import (
	"strings"
	"time"
	_ "time/tzdata"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps a flag or config value to an Environment.
// Unrecognized values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

const (
	DefaultPort            = 4000
	DefaultRateLimit       = 100
	DefaultUpstreamURL     = "https://db-iris.it-solutions-mayer.de/v1"
	DefaultUpstreamRPS     = 5.0
	DefaultUpstreamTimeout = 10 * time.Second
	DefaultCachePath       = "irisboard-cache.db"
	// Station lists and status codes are kept for a month.
	DefaultStaticCacheTTL  = 30 * 24 * time.Hour
	DefaultDynamicCacheTTL = time.Minute
	DefaultCatalogRefresh  = 24 * time.Hour
	DefaultTimezone        = "Europe/Berlin"
)

// Config holds the settings of the HTTP server.
type Config struct {
	Port    int
	Env     Environment
	Verbose bool
	// RateLimit is the number of requests per second allowed per client.
	RateLimit int
	// RateLimitExempt lists client addresses that are never throttled.
	RateLimitExempt []string
	Timezone        string
	// AdminKeys unlock the catalog refresh endpoint and the debug page.
	AdminKeys []string
}

// Location resolves Timezone, defaulting to Europe/Berlin.
func (c Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return time.LoadLocation(tz)
}

// UpstreamConfigData carries the settings of the IRIS client, the response
// cache and the station catalog.
type UpstreamConfigData struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	CachePath         string
	StaticTTL         time.Duration
	DynamicTTL        time.Duration
	CatalogRefresh    time.Duration
	Env               Environment
	Verbose           bool
}

// DefaultUpstreamConfigData returns the settings used when no config file is
// given.
func DefaultUpstreamConfigData() UpstreamConfigData {
	return UpstreamConfigData{
		BaseURL:           DefaultUpstreamURL,
		RequestsPerSecond: DefaultUpstreamRPS,
		Timeout:           DefaultUpstreamTimeout,
		CachePath:         DefaultCachePath,
		StaticTTL:         DefaultStaticCacheTTL,
		DynamicTTL:        DefaultDynamicCacheTTL,
		CatalogRefresh:    DefaultCatalogRefresh,
	}
}
