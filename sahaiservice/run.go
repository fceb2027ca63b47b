// Package sahaiservice wires configuration, storage, the hosted model and
// the HTTP surface into the running service.
package sahaiservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/krishisahai/sahai/internal/api"
	"github.com/krishisahai/sahai/internal/assist"
	"github.com/krishisahai/sahai/internal/auth"
	"github.com/krishisahai/sahai/internal/config"
	"github.com/krishisahai/sahai/internal/events"
	"github.com/krishisahai/sahai/internal/factory"
	"github.com/krishisahai/sahai/internal/forum"
	"github.com/krishisahai/sahai/internal/health"
	"github.com/krishisahai/sahai/internal/logger"
	"github.com/krishisahai/sahai/internal/notify"
	"github.com/krishisahai/sahai/internal/services"
	"github.com/krishisahai/sahai/internal/store"
	"github.com/krishisahai/sahai/internal/weather"
)

// Run starts the Krishi SahAI HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("sahai-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	bus := events.NewBus(cfg.EventBufferSize)

	st, err := factory.NewStore(cfg, log, bus)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	modelProvider, err := factory.NewAssistModel(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("assist model unavailable")
		return err
	}

	deps, hub := buildDeps(cfg, log, st, bus, modelProvider)

	// Health checkers; the model checker only runs when a provider exists.
	svcHealth := startHealthCheckers(ctx, cfg, log, st, modelProvider)
	deps.IsHealthy = svcHealth.IsHealthy

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	go hub.Run(ctx)

	server := newHTTPServer(ctx, cfg, api.NewRouter(deps))
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildDeps assembles every service behind the router. All dependencies are
// injected; nothing here is process-global.
func buildDeps(cfg *config.Config, log zerolog.Logger, st store.Store, bus *events.Bus, modelProvider *assist.GenAIModel) (api.Deps, *forum.Hub) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var model assist.Model = assist.Unavailable{}
	if modelProvider != nil {
		model = modelProvider
	}
	assistSvc := assist.NewService(model)

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SMTPHost != "" {
		notifier = notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, log)
	}

	hub := forum.NewHub(st.Discussions(), bus, log)
	community := forum.NewCommunityService(st.Discussions(), assistSvc, notifier, log, registry)

	var assistHandler *api.AssistHandler
	if modelProvider != nil {
		assistHandler = api.NewAssistHandler(assistSvc, weather.New(cfg.WeatherBaseURL, cfg.WeatherGeoURL))
	}

	var advisor services.Advisor
	if modelProvider != nil {
		advisor = assistSvc
	}

	authorizer := auth.Chain{auth.NewStoreAuthorizer(st.Users())}
	if cfg.DevAPIKey != "" {
		authorizer = append(auth.Chain{auth.NewDevAuthorizer(cfg.DevAPIKey)}, authorizer...)
	}

	return api.Deps{
		Authorizer: authorizer,
		Users:      services.NewUserService(st),
		FarmLogs:   services.NewFarmLogService(st.FarmLogs(), advisor, log),
		Community:  community,
		Hub:        hub,
		Store:      st,
		Assist:     assistHandler,
		Metrics:    registry,
	}, hub
}

// startHealthCheckers starts component checkers and the service aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, modelProvider *assist.GenAIModel) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	var checkers []health.HealthChecker
	if pinger, ok := st.(health.HealthPinger); ok {
		c := health.NewPingChecker("store", pinger, log, probeTimeout)
		go c.Start(ctx, interval)
		checkers = append(checkers, c)
	}
	if modelProvider != nil {
		c := health.NewPingChecker("assist-model", modelProvider, log, probeTimeout)
		go c.Start(ctx, interval)
		checkers = append(checkers, c)
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

// newHTTPServer builds the server. No WriteTimeout: the discussion stream
// endpoint holds its connection open indefinitely.
func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns interval*2 with a 60 second floor.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
