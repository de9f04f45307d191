// Package catalog keeps the IRIS station list and status code table in memory
// and refreshes them in the background.
package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/rtree"

	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/metrics"
	"irisboard.dev/internal/models"
)

const (
	defaultLoadTimeout   = time.Minute
	defaultRetryInterval = time.Minute
)

// Source provides the reference data held by the catalog.
type Source interface {
	Stations(ctx context.Context) ([]models.Station, error)
	StatusCodes(ctx context.Context) ([]models.StatusCode, error)
}

type Config struct {
	// RefreshInterval between successful loads. Zero disables refreshing.
	RefreshInterval time.Duration
	// RetryInterval between attempts while the catalog is empty.
	RetryInterval time.Duration
	LoadTimeout   time.Duration
}

// NearbyStation is a search hit with its distance from the query point.
type NearbyStation struct {
	Station  models.Station `json:"station"`
	Distance float64        `json:"distance"`
}

// Summary describes the loaded catalog.
type Summary struct {
	Ready       bool      `json:"ready"`
	Healthy     bool      `json:"healthy"`
	Stations    int       `json:"stations"`
	Located     int       `json:"located"`
	StatusCodes int       `json:"statusCodes"`
	LastUpdated time.Time `json:"lastUpdated"`
	LastError   string    `json:"lastError,omitempty"`
}

type snapshot struct {
	stations    []models.Station
	byDS100     map[string]int
	byID        map[int]int
	statusCodes map[int]models.StatusCode
	spatial     *rtree.RTreeG[int]
	located     int
}

// Manager is safe for concurrent use.
type Manager struct {
	source  Source
	config  Config
	metrics *metrics.Metrics
	clock   clock.Clock
	logger  *slog.Logger

	mu          sync.RWMutex
	data        *snapshot
	lastUpdated time.Time
	lastError   error
	isHealthy   bool

	updateMu     sync.Mutex
	runCtx       context.Context
	cancelRun    context.CancelFunc
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	startOnce    sync.Once
	wg           sync.WaitGroup
}

// NewManager creates an empty catalog. Call Start to load it.
func NewManager(source Source, config Config, m *metrics.Metrics, c clock.Clock) *Manager {
	if c == nil {
		c = clock.RealClock{}
	}
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = defaultLoadTimeout
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaultRetryInterval
	}
	runCtx, cancelRun := context.WithCancel(context.Background())
	return &Manager{
		source:       source,
		config:       config,
		metrics:      m,
		clock:        c,
		logger:       slog.Default().With(slog.String("component", "station_catalog")),
		runCtx:       runCtx,
		cancelRun:    cancelRun,
		shutdownChan: make(chan struct{}),
	}
}

// Start loads the catalog once and then keeps it fresh in the background.
// A failed initial load is returned, but the background loop still starts
// and retries until the catalog is populated.
func (m *Manager) Start(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, m.config.LoadTimeout)
	err := m.ForceUpdate(loadCtx)
	cancel()

	m.startOnce.Do(func() {
		if m.config.RefreshInterval <= 0 && err == nil {
			return
		}
		m.wg.Add(1)
		go m.updatePeriodically()
	})
	return err
}

func (m *Manager) updatePeriodically() {
	defer m.wg.Done()

	for {
		interval := m.config.RefreshInterval
		if !m.IsReady() || interval <= 0 {
			interval = m.config.RetryInterval
		}
		timer := time.NewTimer(interval)

		select {
		case <-timer.C:
			ctx, cancel := context.WithTimeout(m.runCtx, m.config.LoadTimeout)
			err := m.ForceUpdate(ctx)
			cancel()
			if err != nil {
				continue
			}
			if m.config.RefreshInterval <= 0 {
				return
			}
		case <-m.shutdownChan:
			timer.Stop()
			logging.LogOperation(m.logger, "shutting_down_catalog_updates")
			return
		}
	}
}

// ForceUpdate reloads stations and status codes and swaps them in. On error
// the previous data stays in place and the catalog is marked unhealthy.
func (m *Manager) ForceUpdate(ctx context.Context) error {
	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	stations, err := m.source.Stations(ctx)
	if err != nil {
		return m.recordFailure(fmt.Errorf("loading stations: %w", err))
	}
	codes, err := m.source.StatusCodes(ctx)
	if err != nil {
		return m.recordFailure(fmt.Errorf("loading status codes: %w", err))
	}
	if len(stations) == 0 {
		return m.recordFailure(errors.New("upstream returned no stations"))
	}

	data := buildSnapshot(stations, codes)
	now := m.clock.Now()

	m.mu.Lock()
	m.data = data
	m.lastUpdated = now
	m.lastError = nil
	m.isHealthy = true
	m.mu.Unlock()

	m.metrics.ObserveCatalog(len(data.stations), len(data.statusCodes), now)
	logging.LogOperation(m.logger, "catalog_updated",
		slog.Int("stations", len(data.stations)),
		slog.Int("located", data.located),
		slog.Int("status_codes", len(data.statusCodes)))
	return nil
}

func (m *Manager) recordFailure(err error) error {
	m.mu.Lock()
	m.lastError = err
	m.isHealthy = false
	m.mu.Unlock()

	logging.LogError(m.logger, "catalog update failed", err)
	return err
}

func buildSnapshot(stations []models.Station, codes []models.StatusCode) *snapshot {
	sorted := slices.Clone(stations)
	slices.SortStableFunc(sorted, func(a, b models.Station) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})

	data := &snapshot{
		stations:    sorted,
		byDS100:     make(map[string]int, len(sorted)),
		byID:        make(map[int]int, len(sorted)),
		statusCodes: make(map[int]models.StatusCode, len(codes)),
		spatial:     &rtree.RTreeG[int]{},
	}
	for i, s := range sorted {
		if s.DS100 != "" {
			data.byDS100[strings.ToUpper(s.DS100)] = i
		}
		data.byID[s.ID] = i
		if s.HasCoordinates() && ValidCoordinates(*s.Lat, *s.Lon) {
			point := [2]float64{*s.Lon, *s.Lat}
			data.spatial.Insert(point, point, i)
			data.located++
		}
	}
	for _, c := range codes {
		data.statusCodes[c.Code] = c
	}
	return data
}

func (m *Manager) snapshot() *snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// IsReady reports whether the catalog has been loaded at least once.
func (m *Manager) IsReady() bool {
	return m.snapshot() != nil
}

// IsHealthy reports whether the most recent load succeeded.
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isHealthy
}

func (m *Manager) LastUpdated() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUpdated
}

func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{
		Ready:       m.data != nil,
		Healthy:     m.isHealthy,
		LastUpdated: m.lastUpdated,
	}
	if m.lastError != nil {
		s.LastError = m.lastError.Error()
	}
	if m.data != nil {
		s.Stations = len(m.data.stations)
		s.Located = m.data.located
		s.StatusCodes = len(m.data.statusCodes)
	}
	return s
}

// Stations returns all stations ordered by name.
func (m *Manager) Stations() []models.Station {
	data := m.snapshot()
	if data == nil {
		return nil
	}
	return slices.Clone(data.stations)
}

// FindStation looks a station up by DS100 code, ignoring case.
func (m *Manager) FindStation(ds100 string) (models.Station, bool) {
	data := m.snapshot()
	if data == nil {
		return models.Station{}, false
	}
	i, ok := data.byDS100[strings.ToUpper(strings.TrimSpace(ds100))]
	if !ok {
		return models.Station{}, false
	}
	return data.stations[i], true
}

// StationByID looks a station up by its numeric IRIS id.
func (m *Manager) StationByID(id int) (models.Station, bool) {
	data := m.snapshot()
	if data == nil {
		return models.Station{}, false
	}
	i, ok := data.byID[id]
	if !ok {
		return models.Station{}, false
	}
	return data.stations[i], true
}

// Search matches query against station names and DS100 codes, ignoring
// case. An exact DS100 match comes first, then names starting with the
// query, then names containing it. An empty query matches every station.
// limit <= 0 means no limit.
func (m *Manager) Search(query string, limit int) []models.Station {
	data := m.snapshot()
	if data == nil {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		if limit > 0 && limit < len(data.stations) {
			return slices.Clone(data.stations[:limit])
		}
		return slices.Clone(data.stations)
	}

	var exact, prefix, contains []models.Station
	for _, s := range data.stations {
		name := strings.ToLower(s.Name)
		switch {
		case strings.ToLower(s.DS100) == q:
			exact = append(exact, s)
		case strings.HasPrefix(name, q):
			prefix = append(prefix, s)
		case strings.Contains(name, q):
			contains = append(contains, s)
		}
	}

	results := slices.Concat(exact, prefix, contains)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// StationsNear returns stations within radius meters of lat/lon, nearest
// first.
func (m *Manager) StationsNear(lat, lon, radius float64) []NearbyStation {
	data := m.snapshot()
	if data == nil || radius <= 0 || !ValidCoordinates(lat, lon) {
		return nil
	}

	bounds := CalculateBounds(lat, lon, radius)
	var results []NearbyStation
	data.spatial.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(_, _ [2]float64, i int) bool {
			s := data.stations[i]
			d := Distance(lat, lon, *s.Lat, *s.Lon)
			if d <= radius {
				results = append(results, NearbyStation{Station: s, Distance: d})
			}
			return true
		},
	)

	slices.SortFunc(results, func(a, b NearbyStation) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.Station.ID, b.Station.ID))
	})
	return results
}

// StatusCode returns the explanation of a message code.
func (m *Manager) StatusCode(code int) (models.StatusCode, bool) {
	data := m.snapshot()
	if data == nil {
		return models.StatusCode{}, false
	}
	c, ok := data.statusCodes[code]
	return c, ok
}

// StatusCodes returns the status code table ordered by code.
func (m *Manager) StatusCodes() []models.StatusCode {
	data := m.snapshot()
	if data == nil {
		return nil
	}
	codes := make([]models.StatusCode, 0, len(data.statusCodes))
	for _, c := range data.statusCodes {
		codes = append(codes, c)
	}
	slices.SortFunc(codes, func(a, b models.StatusCode) int { return cmp.Compare(a.Code, b.Code) })
	return codes
}

// Shutdown stops the background refresh, cancelling a load in flight, and
// waits for it to exit. It is safe to call more than once.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.shutdownChan)
		m.cancelRun()
	})
	m.wg.Wait()
}
