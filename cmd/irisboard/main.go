// Command irisboard serves the IRIS dashboard and its JSON API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"irisboard.dev/internal/appconf"
	"irisboard.dev/internal/buildinfo"
)

func main() {
	var (
		cfg         appconf.Config
		upstreamCfg = appconf.DefaultUpstreamConfigData()
		configPath  string
		env         string
		adminKeys   string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to a JSON or YAML config file (other flags are ignored)")
	flag.IntVar(&cfg.Port, "port", appconf.DefaultPort, "API server port")
	flag.StringVar(&env, "env", "development", "Environment (development|test|production)")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Enable debug logging")
	flag.IntVar(&cfg.RateLimit, "rate-limit", appconf.DefaultRateLimit, "Requests per second allowed per client")
	flag.StringVar(&cfg.Timezone, "timezone", appconf.DefaultTimezone, "Display timezone")
	flag.StringVar(&adminKeys, "admin-keys", os.Getenv("IRISBOARD_ADMIN_KEYS"), "Comma separated admin keys")
	flag.StringVar(&upstreamCfg.BaseURL, "upstream-url", appconf.DefaultUpstreamURL, "Base URL of the IRIS API")
	flag.Float64Var(&upstreamCfg.RequestsPerSecond, "upstream-rps", appconf.DefaultUpstreamRPS, "Upstream requests per second")
	flag.StringVar(&upstreamCfg.CachePath, "cache-path", appconf.DefaultCachePath, "Path of the SQLite response cache")
	flag.BoolVar(&showVersion, "version", false, "Print the build revision and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(buildinfo.ShortHash())
		return
	}

	if configPath != "" {
		fileCfg, err := appconf.LoadFromFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = fileCfg.ToAppConfig()
		upstreamCfg = fileCfg.ToUpstreamConfigData()
	} else {
		cfg.Env = appconf.EnvFlagToEnvironment(env)
		cfg.AdminKeys = ParseAdminKeys(adminKeys)
		upstreamCfg.Env = cfg.Env
		upstreamCfg.Verbose = cfg.Verbose
	}

	coreApp, err := BuildApplication(cfg, upstreamCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build application: %v\n", err)
		os.Exit(1)
	}

	srv, api, err := CreateServer(coreApp, cfg)
	if err != nil {
		shutdownApplication(coreApp, nil)
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, srv, coreApp, api); err != nil {
		coreApp.Logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
