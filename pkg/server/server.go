// Package server wires the proxy services into a fiber application.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/api"
	geminiapi "github.com/Egham-7/consizen-proxy/internal/api/gemini"
	"github.com/Egham-7/consizen-proxy/internal/config"
	"github.com/Egham-7/consizen-proxy/internal/services/cache"
	"github.com/Egham-7/consizen-proxy/internal/services/circuitbreaker"
	"github.com/Egham-7/consizen-proxy/internal/services/fallback"
	"github.com/Egham-7/consizen-proxy/internal/services/generate"
	"github.com/Egham-7/consizen-proxy/internal/services/metrics"
	"github.com/Egham-7/consizen-proxy/internal/services/policy"
	"github.com/Egham-7/consizen-proxy/internal/services/prompts"
	"github.com/Egham-7/consizen-proxy/internal/services/providers"
	"github.com/Egham-7/consizen-proxy/pkg/builder"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 30 * time.Second

// Server is a ConsizeN proxy instance.
type Server struct {
	config      *config.Config
	app         *fiber.App
	redis       *redis.Client
	cache       cache.ResponseCache
	exporter    *metrics.Exporter
	generateSvc *generate.Service
	middlewares []fiber.Handler
}

// New creates a Server for cfg, which must not be nil.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		panic("config cannot be nil - use config.LoadFromFile() or the config builder to create config")
	}
	return &Server{config: cfg}
}

// NewWithBuilder creates a Server from a builder, including its custom middleware.
func NewWithBuilder(b *builder.Builder) *Server {
	return &Server{
		config:      b.Build(),
		middlewares: b.GetMiddlewares(),
	}
}

// App returns the fiber application. It is nil until Setup succeeds.
func (s *Server) App() *fiber.App {
	return s.app
}

// Setup validates the configuration and builds every service, middleware and
// route. It does not start listening.
func (s *Server) Setup() error {
	table, err := policy.NewTable(s.config.Policy)
	if err != nil {
		return fmt.Errorf("invalid model policy: %w", err)
	}
	if err := s.config.Validate(table.Models()); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogLevel(s.config)

	// === Infrastructure Setup ===
	if url := s.config.RedisURL(); url != "" {
		s.redis, err = createRedisClient(url)
		if err != nil {
			return err
		}
	}

	s.cache, err = cache.New(s.config.Cache, s.redis)
	if err != nil {
		s.Close()
		return fmt.Errorf("failed to create response cache: %w", err)
	}

	recorder := metrics.Noop()
	if s.config.Metrics.Enabled {
		s.exporter, err = metrics.NewPrometheusExporter()
		if err != nil {
			s.Close()
			return err
		}
		recorder = s.exporter
	}

	// === Services Initialization ===
	s.generateSvc, err = s.buildGenerateService(table, recorder)
	if err != nil {
		s.Close()
		return err
	}

	s.app = createFiberApp(s.config)
	setupMiddleware(s.app, s.config, s.middlewares)
	s.setupRoutes()

	return nil
}

func (s *Server) buildGenerateService(table *policy.Table, recorder metrics.Recorder) (*generate.Service, error) {
	opts := []fallback.Option{fallback.WithObserver(recorder)}
	if s.config.BreakerEnabled() {
		breaker := circuitbreaker.New(s.redis, s.config.Cache.Namespace, *s.config.Fallback.CircuitBreaker)
		opts = append(opts, fallback.WithGate(breaker))
		fiberlog.Info("Circuit breaker enabled for upstream models")
	}

	renderer, err := prompts.NewRenderer(s.config.Prompts)
	if err != nil {
		return nil, err
	}

	return generate.NewService(generate.Options{
		Cache:     s.cache,
		Keys:      cache.NewKeyBuilder(s.config.Cache),
		Policy:    table,
		Providers: providers.NewRegistryFromConfig(s.config.Providers, s.config.Generation),
		Executor:  fallback.NewExecutor(s.config.Fallback.AttemptTimeout(), opts...),
		Prompts:   renderer,
		Metrics:   recorder,
	})
}

func (s *Server) setupRoutes() {
	generateHandler := geminiapi.NewGenerateHandler(s.generateSvc)
	s.app.Post("/api/gemini", generateHandler.Generate)
	s.app.Get("/api/gemini", generateHandler.Ready)

	healthHandler := api.NewHealthHandler(s.cache)
	s.app.Get("/health", healthHandler.HealthCheck)

	if s.exporter != nil {
		s.app.Get(s.config.Metrics.Path, metricsHandler(s.exporter))
	}

	s.app.Get("/", welcomeHandler(s.config))
}

// Run sets the server up, listens, and blocks until SIGINT or SIGTERM.
func (s *Server) Run() error {
	if err := s.Setup(); err != nil {
		return err
	}
	defer s.Close()

	listenAddr := ":" + s.config.Server.Port

	fmt.Printf("🚀 ConsizeN proxy starting on %s\n", listenAddr)
	fmt.Printf("   Environment: %s\n", s.config.Server.Environment)
	fmt.Printf("   Cache: %s (capacity %d, ttl %s)\n", s.config.Cache.Backend, s.config.Cache.Capacity, s.config.Cache.TTL)
	fmt.Printf("   Go version: %s\n", runtime.Version())
	fmt.Printf("   GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(listenAddr); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		fiberlog.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	}

	fiberlog.Info("Server shutting down gracefully...")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fiberlog.Info("Server shutdown completed successfully")
	return nil
}

// Close releases the cache, metrics provider and Redis connection. It is safe
// to call on a partially set up server.
func (s *Server) Close() error {
	var errs []error

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if s.exporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.exporter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics: %w", err))
		}
		cancel()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		fiberlog.Errorf("Failed to release server resources: %v", err)
	}
	return err
}

func setupLogLevel(cfg *config.Config) {
	logLevel := cfg.GetNormalizedLogLevel()

	switch logLevel {
	case "trace":
		fiberlog.SetLevel(fiberlog.LevelTrace)
	case "debug":
		fiberlog.SetLevel(fiberlog.LevelDebug)
	case "info":
		fiberlog.SetLevel(fiberlog.LevelInfo)
	case "warn", "warning":
		fiberlog.SetLevel(fiberlog.LevelWarn)
	case "error":
		fiberlog.SetLevel(fiberlog.LevelError)
	case "fatal":
		fiberlog.SetLevel(fiberlog.LevelFatal)
	case "panic":
		fiberlog.SetLevel(fiberlog.LevelPanic)
	default:
		fiberlog.SetLevel(fiberlog.LevelInfo)
		fiberlog.Warnf("Unknown log level '%s', defaulting to 'info'", logLevel)
	}

	fiberlog.Infof("Log level set to: %s", logLevel)
}

func createRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.DialTimeout = 10 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.MaxRetries = 3

	client := redis.NewClient(opt)
	return testRedisConnectionWithRetry(client)
}

func testRedisConnectionWithRetry(client *redis.Client) (*redis.Client, error) {
	const maxAttempts = 3
	const baseDelay = 1 * time.Second

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()

		if err == nil {
			fiberlog.Infof("Redis connection established successfully (attempt %d/%d)", attempt, maxAttempts)
			return client, nil
		}

		fiberlog.Warnf("Redis connection failed (attempt %d/%d): %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(time.Duration(attempt) * baseDelay)
		}
	}

	if err := client.Close(); err != nil {
		fiberlog.Errorf("Failed to close Redis client after connection failures: %v", err)
	}
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts", maxAttempts)
}

func welcomeHandler(cfg *config.Config) fiber.Handler {
	endpoints := fiber.Map{
		"generate": "/api/gemini",
		"health":   "/health",
	}
	if cfg.Metrics.Enabled {
		endpoints["metrics"] = cfg.Metrics.Path
	}

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":    "ConsizeN AI request proxy",
			"version":    "1.0.0",
			"go_version": runtime.Version(),
			"status":     "running",
			"endpoints":  endpoints,
		})
	}
}
