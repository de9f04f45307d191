package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"irisboard.dev/internal/app"
	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/cache"
	"irisboard.dev/internal/catalog"
	"irisboard.dev/internal/clock"
	"irisboard.dev/internal/iris"
	"irisboard.dev/internal/logging"
	"irisboard.dev/internal/metrics"
	"irisboard.dev/internal/restapi"
	"irisboard.dev/internal/webui"
)

const (
	// nowEnvVar pins the clock, e.g. IRISBOARD_NOW=2406151005.
	nowEnvVar = "IRISBOARD_NOW"

	cacheJanitorInterval = 10 * time.Minute
	dbStatsInterval      = 15 * time.Second
	shutdownTimeout      = 30 * time.Second
)

// ParseAdminKeys splits a comma separated key list and trims each key.
func ParseAdminKeys(keys string) []string {
	if strings.TrimSpace(keys) == "" {
		return []string{}
	}
	parts := strings.Split(keys, ",")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

// BuildApplication wires the cache, the IRIS client and the station catalog.
// A catalog that fails its first load is logged and retried in the
// background, so the server can start while IRIS is down.
func BuildApplication(cfg appconf.Config, upstreamCfg appconf.UpstreamConfigData) (*app.Application, error) {
	logger := logging.NewLogger(os.Stdout, cfg.Env == appconf.Production, cfg.Verbose)
	slog.SetDefault(logger)

	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	var c clock.Clock = clock.RealClock{}
	if os.Getenv(nowEnvVar) != "" {
		c = clock.NewEnvironmentClock(nowEnvVar, "", location)
	}

	store, err := cache.Open(cache.Config{DBPath: upstreamCfg.CachePath, Env: upstreamCfg.Env, Verbose: upstreamCfg.Verbose}, c)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize response cache: %w", err)
	}

	m := metrics.NewWithLogger(logger)

	client, err := iris.NewClient(iris.ConfigFromUpstream(upstreamCfg), store, m)
	if err != nil {
		logging.SafeCloseWithLogging(store, logger, "response_cache")
		return nil, fmt.Errorf("failed to initialize IRIS client: %w", err)
	}

	store.StartJanitor(cacheJanitorInterval)
	m.StartDBStatsCollector(store.DB, dbStatsInterval)

	manager := catalog.NewManager(iris.RefreshSource{Client: client}, catalog.Config{RefreshInterval: upstreamCfg.CatalogRefresh}, m, c)
	if err := manager.Start(context.Background()); err != nil {
		logger.Warn("station catalog not loaded, retrying in background", slog.Any("error", err))
	}

	return &app.Application{
		Config:         cfg,
		UpstreamConfig: upstreamCfg,
		Logger:         logger,
		Clock:          c,
		Metrics:        m,
		Cache:          store,
		Iris:           client,
		Catalog:        manager,
		Location:       location,
	}, nil
}

// CreateServer mounts the JSON API and the dashboard on one server.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI, error) {
	webUI, err := webui.NewWebUI(coreApp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize dashboard: %w", err)
	}

	api := restapi.NewRestAPI(coreApp)
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	return srv, api, nil
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	logger := coreApp.Logger

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", coreApp.Config.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			shutdownApplication(coreApp, api)
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	shutdownApplication(coreApp, api)
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func shutdownApplication(coreApp *app.Application, api *restapi.RestAPI) {
	if api != nil {
		api.Shutdown()
	}
	if coreApp.Catalog != nil {
		coreApp.Catalog.Shutdown()
	}
	if coreApp.Metrics != nil {
		coreApp.Metrics.Shutdown()
	}
	if coreApp.Cache != nil {
		logging.SafeCloseWithLogging(coreApp.Cache, coreApp.Logger, "response_cache")
	}
}
