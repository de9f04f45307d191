// Package clock abstracts "now" so boards, caches and the current-train
// highlight can be pinned to a fixed moment in tests and demos.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"irisboard.dev/internal/timeparse"
)

// Clock provides an abstraction for time operations.
type Clock interface {
	Now() time.Time
	NowUnixMilli() int64
}

// RealClock reads the system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// MockClock is a controllable, thread-safe clock for tests.
type MockClock struct {
	currentTime time.Time
	mu          sync.Mutex
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *MockClock) NowUnixMilli() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime.UnixMilli()
}

// Set changes the mock clock's current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = t
}

// Advance moves the mock clock by d, which may be negative.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

// Today returns local midnight of the current day of c in loc.
func Today(c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = timeparse.Berlin
	}
	now := c.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// EnvironmentClock pins "now" from an environment variable or a file, in
// that order, and otherwise reads the system time. Sources are re-read on
// every call so a running instance can be moved through a day.
type EnvironmentClock struct {
	envVar   string
	filePath string
	location *time.Location
	logger   *slog.Logger
}

// NewEnvironmentClock creates an EnvironmentClock. location is used for
// inputs that carry no zone; without it only RFC 3339 input is accepted.
func NewEnvironmentClock(envVar string, filePath string, location *time.Location) *EnvironmentClock {
	return &EnvironmentClock{
		envVar:   envVar,
		filePath: filePath,
		location: location,
		logger:   slog.Default().With(slog.String("component", "clock")),
	}
}

func (e *EnvironmentClock) Now() time.Time {
	if t, err := e.syncFromEnvVar(); err == nil {
		return t
	}
	if t, err := e.syncFromFile(); err == nil {
		return t
	}
	if e.envVar != "" || e.filePath != "" {
		e.logger.Warn("no usable pinned time, falling back to system time",
			slog.String("envVar", e.envVar), slog.String("filePath", e.filePath))
	}
	return time.Now()
}

func (e *EnvironmentClock) NowUnixMilli() int64 {
	return e.Now().UnixMilli()
}

func (e *EnvironmentClock) syncFromEnvVar() (time.Time, error) {
	if e.envVar == "" {
		return time.Time{}, errors.New("environment variable name not configured")
	}
	value := os.Getenv(e.envVar)
	if value == "" {
		return time.Time{}, errors.New("environment variable is empty: " + e.envVar)
	}
	return e.parseTime(value)
}

func (e *EnvironmentClock) syncFromFile() (time.Time, error) {
	if e.filePath == "" {
		return time.Time{}, errors.New("file path not configured")
	}
	data, err := os.ReadFile(e.filePath)
	if err != nil {
		return time.Time{}, err
	}
	return e.parseTime(string(data))
}

// parseTime accepts RFC 3339, zone-less ISO date-times, and the YYMMDD and
// YYMMDDHHMM codes used in dashboard URLs.
func (e *EnvironmentClock) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	if e.location == nil {
		return time.Time{}, errors.New("timezone not configured")
	}

	if len(s) == 6 {
		return timeparse.ParseDateCode(s, e.location)
	}

	formats := []string{
		"0601021504",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, e.location); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time %q: expected RFC3339, YYYY-MM-DD[ HH:MM:SS], YYMMDD or YYMMDDHHMM", s)
}
