package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/mojito-booking/internal/api/router"
	"github.com/wolfman30/mojito-booking/internal/app/bootstrap"
	appconfig "github.com/wolfman30/mojito-booking/internal/config"
	"github.com/wolfman30/mojito-booking/internal/http/handlers"
	"github.com/wolfman30/mojito-booking/internal/observability/metrics"
	"github.com/wolfman30/mojito-booking/internal/render"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

const sessionSweepInterval = time.Minute

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting mojito booking server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metricsHandler, bookingMetrics := setupMetrics()

	app, err := setupApp(context.Background(), cfg, bookingMetrics, metricsHandler, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.WebhookTimeout),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		app.close()
		os.Exit(1)
	}

	logger.Info("server stopped")
}

type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}

func setupApp(ctx context.Context, cfg *appconfig.Config, m *metrics.BookingMetrics, metricsHandler http.Handler, logger *logging.Logger) (*app, error) {
	a := &app{}

	client, err := bootstrap.BuildWebhookClient(cfg, m, logger)
	if err != nil {
		return nil, err
	}

	store := bootstrap.BuildSessionStore(cfg, client, m, logger)
	store.Start(sessionSweepInterval)
	a.closers = append(a.closers, store.Close)

	renderer, err := render.NewRenderer()
	if err != nil {
		a.close()
		return nil, err
	}

	routerCfg := &router.Config{
		Logger: logger,
		BookingHandler: handlers.NewBookingHandler(handlers.BookingHandlerConfig{
			Store:        store,
			Renderer:     renderer,
			Logger:       logger.Component("http"),
			Changes:      m,
			CookieName:   cfg.SessionCookie,
			SecureCookie: cfg.IsProduction(),
		}),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if limiter := bootstrap.BuildSubmitLimiter(cfg, redisClient, logger); limiter != nil {
		routerCfg.SubmitLimiter = limiter.Limiter
		a.closers = append(a.closers, limiter.Close)
	} else if redisClient != nil {
		_ = redisClient.Close()
	}

	a.handler = router.New(routerCfg)
	logger.Info("booking webhook configured", "endpoint", client.Endpoint(), "timeout", cfg.WebhookTimeout)
	return a, nil
}

// writeTimeout leaves room for a full webhook round trip on submit. With no
// webhook timeout the write deadline is disabled so a slow webhook still
// completes.
func writeTimeout(webhook time.Duration) time.Duration {
	if webhook <= 0 {
		return 0
	}
	return webhook + 15*time.Second
}
