// @title           Hookline API
// @version         0.1.0
// @description     Short-form video script generator: accounts, AI-assisted script generation with curated fallbacks, saved scripts, analytics and a public community feed.
// @contact.name    Support
// @contact.email   support@example.com
// @basePath        /
// @schemes         http https
// @securityDefinitions.apiKey  Bearer
// @in                          header
// @name                         Authorization
// @description                  "Session token: 'Bearer {token}'"
//
// @tag.name         System
// @tag.description  Health, readiness and version endpoints.
//
// @tag.name         Observability
// @tag.description  Prometheus metrics and profiling are served on a dedicated side-channel port (default: 9090) separate from the API listener. Configure it with HOOKLINE_TELEMETRY_METRICS_PROMETHEUS_PORT; the path is always GET /metrics. pprof (HOOKLINE_TELEMETRY_PROFILING_ENABLED=true) is served on HOOKLINE_TELEMETRY_PROFILING_PORT (default: 6060) at /debug/pprof/.

// Package main is the entry point for the Hookline server binary. It
// dispatches four subcommands (serve, migrate, promote, version) via a
// switch on os.Args so the whole CLI surface is readable in one place.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108 -- served only on the dedicated profiling port, never on the API listener.
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hookline/hookline/internal/api"
	"github.com/hookline/hookline/internal/auth"
	"github.com/hookline/hookline/internal/config"
	"github.com/hookline/hookline/internal/db"
	"github.com/hookline/hookline/internal/generation"
	"github.com/hookline/hookline/internal/middleware"
	"github.com/hookline/hookline/internal/safego"
	"github.com/hookline/hookline/internal/services"
	"github.com/hookline/hookline/internal/store"
	"github.com/hookline/hookline/internal/telemetry"

	// Register store backends
	_ "github.com/hookline/hookline/internal/db/repositories"
	_ "github.com/hookline/hookline/internal/store/memory"
)

const usage = `usage: server [command]

commands:
  serve                          run the HTTP API (default)
  migrate <up|down>              apply or roll back PostgreSQL migrations
  promote <script-id> <name>     publish a script to the community feed
  version                        print the build version`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run(args []string) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	if command == "version" {
		fmt.Printf("Hookline v%s\n", api.Version)
		return nil
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(args) < 2 {
			return errors.New("usage: server migrate <up|down>")
		}
		return runMigrations(cfg, args[1])
	case "promote":
		if len(args) < 3 {
			return errors.New("usage: server promote <script-id> <anonymous-username>")
		}
		return promote(cfg, args[1], args[2])
	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}
}

func serve(cfg *config.Config) error {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.Watch(cfg, telemetry.SetLevel); err != nil {
		if errors.Is(err, config.ErrNoConfigFile) {
			slog.Debug("no config file in use; log level is fixed for this run")
		} else {
			slog.Warn("config file watch disabled", "error", err)
		}
	}

	secret, err := auth.ResolveSecret(cfg.Auth.JWTSecret, cfg.Server.DevMode)
	if err != nil {
		return fmt.Errorf("security configuration error: %w", err)
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	st, err := store.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	defer st.Close()
	if cfg.Storage.Backend == config.BackendMemory {
		slog.Warn("using the in-memory store; all data is lost on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Begin exporting pool and store statistics to Prometheus.
	if pg, ok := st.(interface{ DB() *sql.DB }); ok {
		telemetry.StartDBStatsCollector(ctx, pg.DB())
	}
	telemetry.StartStoreStatsCollector(ctx, st, cfg.Storage.StatsInterval)

	provider, err := generation.NewProvider(ctx, cfg.Generation)
	if err != nil {
		return fmt.Errorf("failed to initialise generation provider: %w", err)
	}
	generator := generation.NewService(provider, cfg.Generation)
	slog.Info("script generation configured", "provider", generator.ProviderName())

	authLimiter, generateLimiter, releaseLimiters := newRateLimiters(ctx, cfg.RateLimit)
	defer releaseLimiters()

	if cfg.Telemetry.Metrics.Enabled {
		startMetricsServer(cfg.Telemetry.Metrics.PrometheusPort)
	}
	if cfg.Telemetry.Profiling.Enabled {
		startPprofServer(cfg.Telemetry.Profiling.Port)
	}

	router := api.NewRouter(cfg, api.Dependencies{
		Store:     st,
		Tokens:    tokens,
		Generator: generator,
		Provider:  generator.ProviderName(),

		AuthLimiter:     authLimiter,
		GenerateLimiter: generateLimiter,
	})

	server := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", cfg.Server.GetAddress(),
			"base_url", cfg.Server.BaseURL,
			"storage_backend", cfg.Storage.Backend,
			"tls", cfg.Security.TLS.Enabled,
		)
		var err error
		if cfg.Security.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newRateLimiters builds the auth and generate limiters for the configured
// backend. Both are nil when rate limiting is disabled. release frees the
// cleanup goroutines or the Redis client.
func newRateLimiters(ctx context.Context, cfg config.RateLimitConfig) (authL, generateL middleware.Limiter, release func()) {
	if !cfg.Enabled {
		slog.Warn("rate limiting disabled")
		return nil, nil, func() {}
	}

	if cfg.Backend == config.RateLimitBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis rate limiter unreachable; requests are allowed until it recovers",
				"addr", cfg.Redis.Addr,
				"error", err,
			)
		}
		slog.Info("rate limiting enabled", "backend", cfg.Backend, "addr", cfg.Redis.Addr)
		return middleware.NewRedisLimiter(rdb, "hookline:ratelimit:auth:", cfg.Auth),
			middleware.NewRedisLimiter(rdb, "hookline:ratelimit:generate:", cfg.Generate),
			func() { _ = rdb.Close() }
	}

	a := middleware.NewRateLimiter(middleware.RateLimitFromConfig(cfg.Auth))
	g := middleware.NewRateLimiter(middleware.RateLimitFromConfig(cfg.Generate))
	slog.Info("rate limiting enabled", "backend", cfg.Backend)
	return a, g, func() {
		a.Stop()
		g.Stop()
	}
}

// startMetricsServer serves /metrics on its own port so the scrape path is
// not reachable through the public API ingress.
func startMetricsServer(port int) {
	addr := fmt.Sprintf(":%d", port)
	safego.Go("metrics-server", func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		slog.Info("starting Prometheus metrics server", "addr", addr)
		srv := &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	})
}

// startPprofServer exposes net/http/pprof, which registers on
// http.DefaultServeMux at init time.
func startPprofServer(port int) {
	addr := fmt.Sprintf(":%d", port)
	safego.Go("pprof-server", func() {
		slog.Info("starting pprof server", "addr", addr)
		srv := &http.Server{ // #nosec G112 -- internal-only pprof port
			Addr:         addr,
			Handler:      http.DefaultServeMux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("pprof server error", "error", err)
		}
	})
}

func runMigrations(cfg *config.Config, direction string) error {
	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate requires storage.backend=%s (current: %s)", config.BackendPostgres, cfg.Storage.Backend)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	slog.Info("running migrations", "direction", direction)
	if err := db.RunMigrations(database, direction); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	slog.Info("migration completed", "version", version, "dirty", dirty)
	return nil
}

// promote publishes a saved script to the community feed. The in-memory
// backend keeps nothing between processes, so this only makes sense against
// PostgreSQL.
func promote(cfg *config.Config, scriptID, anonymousUsername string) error {
	if cfg.Storage.Backend == config.BackendMemory {
		return errors.New("promote needs a persistent store; set storage.backend=postgres")
	}

	st, err := store.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entry, err := services.NewScriptService(st, st, nil).Promote(ctx, scriptID, anonymousUsername)
	if err != nil {
		return fmt.Errorf("failed to promote script %s: %w", scriptID, err)
	}
	fmt.Printf("Promoted script %s as entry %s (likes=%d, shares=%d)\n", scriptID, entry.ID, entry.Likes, entry.Shares)
	return nil
}
