// Package cache is a SQLite-backed store for upstream API responses.
// Bodies are kept zstd-compressed and expire after a per-entry TTL.
package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/logging"
)

//go:embed schema.sql
var ddl string

// Tier groups entries by how quickly their content goes stale.
type Tier string

const (
	TierStatic  Tier = "static"
	TierDynamic Tier = "dynamic"
)

const defaultHotEntries = 512

type Config struct {
	DBPath  string
	Env     appconf.Environment
	Verbose bool
	// HotEntries bounds the in-memory LRU kept in front of the database.
	// Zero uses the default, a negative value disables it.
	HotEntries int
}

// Store is safe for concurrent use.
type Store struct {
	DB     *sql.DB
	config Config
	clock  clock.Clock
	logger *slog.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder
	// hot holds decompressed bodies of recently used entries.
	hot gcache.Cache

	janitorOnce sync.Once
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Stats summarizes the store contents.
type Stats struct {
	Entries     int64 `json:"entries"`
	Expired     int64 `json:"expired"`
	StoredBytes int64 `json:"storedBytes"`
	RawBytes    int64 `json:"rawBytes"`
}

// Open creates or opens the cache database and applies the schema. The test
// environment only accepts in-memory databases.
func Open(config Config, c clock.Clock) (*Store, error) {
	if c == nil {
		c = clock.RealClock{}
	}
	db, err := createDB(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create cache DB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		logging.SafeCloseWithLogging(db, nil, "cache_db")
		return nil, fmt.Errorf("unable to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		logging.SafeCloseWithLogging(encoder, nil, "zstd_encoder")
		logging.SafeCloseWithLogging(db, nil, "cache_db")
		return nil, fmt.Errorf("unable to create zstd decoder: %w", err)
	}

	store := &Store{
		DB:      db,
		config:  config,
		clock:   c,
		logger:  slog.Default().With(slog.String("component", "response_cache")),
		encoder: encoder,
		decoder: decoder,
	}
	if config.HotEntries >= 0 {
		size := config.HotEntries
		if size == 0 {
			size = defaultHotEntries
		}
		store.hot = gcache.New(size).LRU().Clock(c).Build()
	}
	return store, nil
}

// remember puts body in the hot tier until expiresAt. Hot entries expire a
// millisecond early so they never outlive the row.
func (s *Store) remember(key string, body []byte, expiresAt int64) {
	if s.hot == nil {
		return
	}
	remaining := expiresAt - s.clock.NowUnixMilli() - 1
	if remaining <= 0 {
		return
	}
	_ = s.hot.SetWithExpire(key, body, time.Duration(remaining)*time.Millisecond)
}

func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got path: %s", config.DBPath)
	}

	db, err := sql.Open("sqlite3", config.DBPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := configureSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error configuring SQLite: %w", err)
	}
	configureConnectionPool(db, config)

	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return db, nil
}

func configureSQLite(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-16000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

// configureConnectionPool limits :memory: databases to one connection, since
// every connection to :memory: opens a separate database.
func configureConnectionPool(db *sql.DB, config Config) {
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmed); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmed, err)
		}
	}
	return nil
}

// Get returns the body stored under key if it has not expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.hot != nil {
		if v, err := s.hot.Get(key); err == nil {
			if body, ok := v.([]byte); ok {
				return body, true, nil
			}
		}
	}

	var compressed []byte
	var expiresAt int64
	err := s.DB.QueryRowContext(ctx,
		`SELECT body, expires_at FROM responses WHERE cache_key = ?`, key,
	).Scan(&compressed, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %q: %w", key, err)
	}
	if expiresAt <= s.clock.NowUnixMilli() {
		return nil, false, nil
	}

	body, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompressing cache entry %q: %w", key, err)
	}
	s.remember(key, body, expiresAt)
	return body, true, nil
}

// Put stores body under key for ttl, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, tier Tier, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := s.clock.NowUnixMilli()
	compressed := s.encoder.EncodeAll(body, nil)

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO responses (cache_key, tier, body, raw_size, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			tier = excluded.tier,
			body = excluded.body,
			raw_size = excluded.raw_size,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at`,
		key, string(tier), compressed, len(body), now, now+ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}
	s.remember(key, body, now+ttl.Milliseconds())
	return nil
}

// Delete removes the entry stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.hot != nil {
		s.hot.Remove(key)
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM responses WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry %q: %w", key, err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM responses WHERE expires_at <= ?`, s.clock.NowUnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging expired cache entries: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts entries and their sizes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(LENGTH(body)), 0),
			COALESCE(SUM(raw_size), 0)
		FROM responses`, s.clock.NowUnixMilli(),
	).Scan(&stats.Entries, &stats.Expired, &stats.StoredBytes, &stats.RawBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("reading cache stats: %w", err)
	}
	return stats, nil
}

// StartJanitor purges expired entries every interval until Close. Calling it
// more than once has no effect.
func (s *Store) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.janitorOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.wg.Add(1)

		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					removed, err := s.Purge(ctx)
					if err != nil {
						logging.LogError(s.logger, "cache purge failed", err)
						continue
					}
					if removed > 0 {
						logging.LogOperation(s.logger, "cache_purged", slog.Int64("removed", removed))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	})
}

// Close stops the janitor and releases the database.
func (s *Store) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if s.hot != nil {
		s.hot.Purge()
	}
	s.decoder.Close()
	_ = s.encoder.Close()
	return s.DB.Close()
}
