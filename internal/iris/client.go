// Package iris is the client for the IRIS wrapper API, which serves stations,
// trains, stops, messages and status codes as JSON.
package iris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/cache"
	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/metrics"
	"irisboard.dev/internal/models"
	"irisboard.dev/internal/timeparse"
)

const (
	maxBodySize      = 32 * 1024 * 1024
	defaultUserAgent = "irisboard/1.0"
)

type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	StaticTTL         time.Duration
	DynamicTTL        time.Duration
	UserAgent         string
}

// ConfigFromUpstream takes the client settings out of the upstream config.
func ConfigFromUpstream(u appconf.UpstreamConfigData) Config {
	return Config{
		BaseURL:           u.BaseURL,
		RequestsPerSecond: u.RequestsPerSecond,
		Timeout:           u.Timeout,
		StaticTTL:         u.StaticTTL,
		DynamicTTL:        u.DynamicTTL,
	}
}

// Client talks to the IRIS API. Responses are cached in store when one is
// given, and requests that miss the cache are throttled.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	store      *cache.Store
	metrics    *metrics.Metrics
	config     Config
	logger     *slog.Logger
}

// NewClient builds a client. store and m may be nil.
func NewClient(config Config, store *cache.Store, m *metrics.Metrics) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = appconf.DefaultUpstreamURL
	}
	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL %q: %w", config.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid upstream URL %q: scheme must be http or https", config.BaseURL)
	}
	if config.Timeout <= 0 {
		config.Timeout = appconf.DefaultUpstreamTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	limit := rate.Inf
	burst := 1
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
		burst = max(1, int(config.RequestsPerSecond))
	}

	return &Client{
		baseURL:    base,
		httpClient: newHTTPClient(config.Timeout),
		limiter:    rate.NewLimiter(limit, burst),
		store:      store,
		metrics:    m,
		config:     config,
		logger:     slog.Default().With(slog.String("component", "iris_client")),
	}, nil
}

// newHTTPClient clones http.DefaultTransport so proxy and HTTP/2 defaults are
// kept, and bounds every request by timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 50
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Stations returns every station known to IRIS.
func (c *Client) Stations(ctx context.Context) ([]models.Station, error) {
	var stations []models.Station
	err := c.fetch(ctx, "stations", cache.TierStatic, nil, &stations, "stations", "")
	return stations, err
}

// Station returns the station with the given DS100 code.
func (c *Client) Station(ctx context.Context, ds100 string) (models.Station, error) {
	var station models.Station
	err := c.fetch(ctx, "station", cache.TierStatic, nil, &station, "stations", ds100)
	return station, err
}

// TrainsForStation returns the trains calling at a station on a service date.
// The trains carry no stops.
func (c *Client) TrainsForStation(ctx context.Context, ds100 string, date time.Time) ([]models.Train, error) {
	var trains []models.Train
	err := c.fetch(ctx, "trains_for_station", cache.TierDynamic, nil, &trains,
		"stations", ds100, "trains", timeparse.FormatDateCode(date))
	return trains, err
}

// StopsForStation returns the stops made at a station on a service date, one
// or more per train.
func (c *Client) StopsForStation(ctx context.Context, ds100 string, date time.Time) ([]models.Stop, error) {
	var stops []models.Stop
	err := c.fetch(ctx, "stops_for_station", cache.TierDynamic, nil, &stops,
		"stations", ds100, "stops", timeparse.FormatDateCode(date))
	return stops, err
}

// Train returns a train by its id, with its stops when includeStops is set.
func (c *Client) Train(ctx context.Context, id string, includeStops bool) (models.Train, error) {
	var query url.Values
	if includeStops {
		query = url.Values{"include_stops": {"true"}}
	}
	var train models.Train
	err := c.fetch(ctx, "train", cache.TierDynamic, query, &train, "trains", id)
	return train, err
}

// TrainsOn returns all trains running on a service date.
func (c *Client) TrainsOn(ctx context.Context, date time.Time) ([]models.Train, error) {
	var trains []models.Train
	err := c.fetch(ctx, "trains_on", cache.TierDynamic, nil, &trains,
		"trains", "on", timeparse.FormatDateCode(date))
	return trains, err
}

// MessagesForTrain returns the messages attached to a train.
func (c *Client) MessagesForTrain(ctx context.Context, trainID string) ([]models.Message, error) {
	var messages []models.Message
	err := c.fetch(ctx, "messages_for_train", cache.TierDynamic, nil, &messages,
		"messages", "train", trainID)
	return messages, err
}

// MessagesForDateAndCode returns the messages with a status code on a date.
func (c *Client) MessagesForDateAndCode(ctx context.Context, date time.Time, code int) ([]models.Message, error) {
	var messages []models.Message
	err := c.fetch(ctx, "messages_for_date_and_code", cache.TierDynamic, nil, &messages,
		"messages", timeparse.FormatDateCode(date), strconv.Itoa(code))
	return messages, err
}

// StatusCodes returns the table of message status codes.
func (c *Client) StatusCodes(ctx context.Context) ([]models.StatusCode, error) {
	var codes []models.StatusCode
	err := c.fetch(ctx, "status_codes", cache.TierStatic, nil, &codes, "status_codes", "")
	return codes, err
}

func (c *Client) ttl(tier cache.Tier) time.Duration {
	if tier == cache.TierStatic {
		return c.config.StaticTTL
	}
	return c.config.DynamicTTL
}

// endpointURL joins escaped path segments onto the base URL. An empty last
// segment produces a trailing slash.
func (c *Client) endpointURL(query url.Values, segments ...string) string {
	u := *c.baseURL
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u.Path = c.baseURL.Path + "/" + strings.Join(segments, "/")
	u.RawPath = c.baseURL.EscapedPath() + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type refreshKey struct{}

// WithRefresh marks ctx so that fetches skip cached responses and go
// upstream. The cached copy is still used when upstream fails.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func isRefresh(ctx context.Context) bool {
	refresh, _ := ctx.Value(refreshKey{}).(bool)
	return refresh
}

// RefreshSource loads the station catalog from upstream on every call.
type RefreshSource struct {
	Client *Client
}

func (s RefreshSource) Stations(ctx context.Context) ([]models.Station, error) {
	return s.Client.Stations(WithRefresh(ctx))
}

func (s RefreshSource) StatusCodes(ctx context.Context) ([]models.StatusCode, error) {
	return s.Client.StatusCodes(WithRefresh(ctx))
}

func (c *Client) fetch(ctx context.Context, endpoint string, tier cache.Tier, query url.Values, out any, segments ...string) error {
	target := c.endpointURL(query, segments...)
	refresh := isRefresh(ctx)

	if !refresh && c.fromCache(ctx, tier, target, out) {
		return nil
	}

	body, err := c.get(ctx, endpoint, target)
	if err != nil {
		if refresh && c.fromCache(ctx, tier, target, out) {
			c.logger.Warn("upstream refresh failed, using cached copy",
				slog.String("url", target), slog.String("error", err.Error()))
			return nil
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.ObserveUpstream(endpoint, metrics.OutcomeDecode, 0)
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}

	if c.store != nil {
		if err := c.store.Put(ctx, target, tier, body, c.ttl(tier)); err != nil {
			logging.LogError(c.logger, "cache write failed", err, slog.String("url", target))
		}
	}
	return nil
}

// fromCache decodes the cached response for target into out. Entries that
// no longer decode are dropped.
func (c *Client) fromCache(ctx context.Context, tier cache.Tier, target string, out any) bool {
	if c.store == nil {
		return false
	}
	body, ok, err := c.store.Get(ctx, target)
	if err != nil {
		logging.LogError(c.logger, "cache read failed", err, slog.String("url", target))
	}
	c.metrics.ObserveCache(string(tier), ok)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn("discarding undecodable cache entry", slog.String("url", target))
		_ = c.store.Delete(ctx, target)
		return false
	}
	return true
}

func (c *Client) get(ctx context.Context, endpoint, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.ObserveUpstream(endpoint, metrics.OutcomeThrottle, 0)
		return nil, fmt.Errorf("waiting for upstream rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, metrics.OutcomeNetwork, time.Since(start))
		return nil, fmt.Errorf("failed to execute IRIS request: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveUpstream(endpoint, metrics.OutcomeHTTP, time.Since(start))
		return nil, &HTTPError{URL: target, Status: resp.Status, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		c.metrics.ObserveUpstream(endpoint, metrics.OutcomeNetwork, time.Since(start))
		return nil, fmt.Errorf("reading IRIS response: %w", err)
	}
	if len(body) > maxBodySize {
		c.metrics.ObserveUpstream(endpoint, metrics.OutcomeDecode, time.Since(start))
		return nil, fmt.Errorf("IRIS response from %s exceeds %d bytes", target, maxBodySize)
	}

	c.metrics.ObserveUpstream(endpoint, metrics.OutcomeOK, time.Since(start))
	c.logger.Debug("fetched from IRIS",
		slog.String("endpoint", endpoint),
		slog.Int("bytes", len(body)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return body, nil
}

// HTTPError is returned when IRIS answers with a non-2xx status.
type HTTPError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("IRIS request %s returned %s", e.URL, e.Status)
}

// IsNotFound reports whether err is an IRIS 404.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
