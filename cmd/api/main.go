package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/garanley/claims-intake/cmd/mainconfig"
	"github.com/garanley/claims-intake/internal/api/router"
	"github.com/garanley/claims-intake/internal/app/bootstrap"
	appconfig "github.com/garanley/claims-intake/internal/config"
	"github.com/garanley/claims-intake/internal/content"
	"github.com/garanley/claims-intake/internal/conversation"
	httpmiddleware "github.com/garanley/claims-intake/internal/http/middleware"
	"github.com/garanley/claims-intake/internal/leads"
	"github.com/garanley/claims-intake/internal/observability/metrics"
	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/internal/webchat"
	"github.com/garanley/claims-intake/internal/wizard"
	"github.com/garanley/claims-intake/pkg/logging"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting claims-intake API server", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	reg := prometheus.NewRegistry()
	metricsHandler, m := setupMetrics(reg)
	loadAWS := mainconfig.Loader(cfg)

	// Lead delivery.
	pool, err := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	email, err := bootstrap.BuildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		return err
	}
	sinks, err := bootstrap.BuildLeadSinks(ctx, cfg, pool, email, logger)
	if err != nil {
		return err
	}
	var sink leads.Sink
	if sinks.Sink.Len() > 0 {
		sink = sinks.Sink
	}
	recorder := leads.NewRecorder(sink, logger,
		leads.WithLocation(bootstrap.LeadTimeZone(cfg, logger)),
		leads.WithMetrics(m.leads))

	// Inference.
	llm, models, err := bootstrap.BuildLLMClient(ctx, cfg, loadAWS, logger)
	if err != nil {
		return err
	}
	inference := conversation.NewService(llm, models, logger, conversation.WithInferenceMetrics(m.inference))

	// Sessions.
	var redisClient *redis.Client
	if cfg.SessionBackend == bootstrap.SessionBackendRedis {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}
	store, err := bootstrap.BuildSessionStore(cfg, redisClient, logger)
	if err != nil {
		return err
	}
	if mem, ok := store.(*sessions.MemoryStore); ok {
		go mem.RunSweeper(ctx, sweepInterval)
	}

	// Features.
	wizardSvc := wizard.NewService(store, recorder, inference, wizard.Config{
		ScanDuration:  cfg.ScanDuration,
		ScheduleURL:   cfg.ScheduleURL,
		SubmitTimeout: cfg.InFlightTimeout,
	}, logger, wizard.WithMetrics(m.wizard))

	detector, err := webchat.NewDetector(cfg.ChatEmailPattern, cfg.ChatPhonePattern)
	if err != nil {
		return err
	}
	chatSvc := webchat.NewService(store, recorder, inference, webchat.Config{
		Greeting:      cfg.ChatGreeting,
		MinReplyDelay: cfg.ChatMinReplyDelay,
		ReadDelay:     cfg.ChatReadDelay,
		ReplyTimeout:  cfg.InFlightTimeout,
		DedupeLeads:   cfg.ChatDedupeLeads,
		ScheduleURL:   cfg.ScheduleURL,
	}, logger, webchat.WithDetector(detector), webchat.WithMetrics(m.chat))

	catalogue, err := content.Load()
	if err != nil {
		return err
	}

	var archive leads.Lister
	if sinks.Archive != nil {
		archive = sinks.Archive
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	handler := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(recorder, archive, logger),
		WizardHandler:      wizard.NewHandler(wizardSvc, logger),
		ChatHandler:        webchat.NewHandler(chatSvc, logger),
		ContentHandler:     content.NewHandler(catalogue, inference, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		RateLimiter:        limiter,
		ReadinessChecks:    readinessChecks(pool, redisClient),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return serve(ctx, srv, logger)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
// No write timeout: wizard and chat requests wait on the model.
func serve(ctx context.Context, srv *http.Server, logger *logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type appMetrics struct {
	leads     *metrics.LeadMetrics
	inference *metrics.InferenceMetrics
	chat      *metrics.ChatMetrics
	wizard    *metrics.WizardMetrics
}

func setupMetrics(reg *prometheus.Registry) (http.Handler, appMetrics) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := appMetrics{
		leads:     metrics.NewLeadMetrics(reg),
		inference: metrics.NewInferenceMetrics(reg),
		chat:      metrics.NewChatMetrics(reg),
		wizard:    metrics.NewWizardMetrics(reg),
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), m
}
