package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/db"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/services"
	"storefront/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply schema migrations on startup")
	return cmd
}

/*
LEARNING: GRACEFUL SHUTDOWN PATTERN WITH OBSERVABILITY

serve wires everything in dependency order:
1. Tracing first so startup work is traced
2. Database, repositories, then the hub every service publishes through
3. Background workers (analytics pool, monitor, optional Redis relay)
4. HTTP server in a goroutine, then wait for SIGINT/SIGTERM

Shutdown runs in reverse: stop accepting requests, stop producers,
drain workers, close sockets, flush traces.
*/
func (a *app) serve(ctx context.Context, migrate bool) error {
	cfg, log := a.cfg, a.log
	log.Info("🚀 Starting GENWEAR storefront...")

	// Initialize Jaeger tracing
	// Learning: Do this FIRST so all operations are traced
	jaegerShutdown := telemetry.Shutdown(telemetry.Noop)
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitJaeger(telemetry.Options{
			ServiceName:    "storefront",
			ServiceVersion: version,
			Environment:    cfg.Env,
			Endpoint:       cfg.JaegerEndpoint,
			SampleRatio:    cfg.TraceSampleRatio,
		}, log)
		if err != nil {
			log.Warn("⚠️  Failed to initialize Jaeger (continuing without tracing)", zap.Error(err))
		} else {
			jaegerShutdown = shutdown
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Warn("⚠️  Failed to shutdown Jaeger", zap.Error(err))
		}
	}()

	database, err := db.NewGorm(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close()

	if migrate {
		if err := db.Migrate(database.DB); err != nil {
			return err
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	productRepo := repository.NewProductRepository(database.DB)
	cartRepo := repository.NewCartRepository(database.DB)
	orderRepo := repository.NewOrderRepository(database.DB)
	analyticsRepo := repository.NewAnalyticsRepository(database.DB)

	// The hub is the single publisher for every real-time event
	hub := realtime.NewHub(log)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	var relay *realtime.Relay
	if cfg.UseRedisRelay() {
		relay, err = realtime.NewRedisRelay(ctx, cfg.RedisURL, hub, log)
		if err != nil {
			return err
		}
		relay.Run(relayCtx)
	}

	// Initialize services with dependency injection
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := services.NewAuthService(userRepo, tokens, log)
	catalogService := services.NewCatalogService(productRepo, hub, log)
	cartService := services.NewCartService(cartRepo, productRepo, hub, log)
	orderService := services.NewOrderService(orderRepo, productRepo, hub, log)
	dashboardService := services.NewDashboardService(productRepo, userRepo, orderRepo, hub)

	// Start the analytics worker pool
	// Learning: tracking never blocks a websocket read loop; a full queue drops
	analyticsService := services.NewAnalyticsService(analyticsRepo, hub, cfg.AnalyticsWorkers, cfg.AnalyticsQueueSize, log)
	analyticsService.Start()

	monitor := realtime.NewMonitor(hub, dashboardService, productRepo, analyticsRepo, realtime.MonitorOptions{
		Interval:          cfg.BroadcastInterval,
		LowStockThreshold: cfg.LowStockThreshold,
		RepeatAlerts:      cfg.LowStockRepeatAlerts,
		Retention:         cfg.AnalyticsRetention,
	}, log)
	if err := monitor.Start(); err != nil {
		return err
	}

	wsHandler := realtime.NewWebSocketHandler(hub, authService, analyticsService, realtime.HandlerOptions{
		AllowedOrigin:     cfg.ClientURL,
		MessagesPerSecond: cfg.WSMessagesPerSecond,
		Burst:             cfg.WSBurst,
	}, log)

	handler := api.NewHandler(api.Deps{
		Auth:      authService,
		Catalog:   catalogService,
		Cart:      cartService,
		Orders:    orderService,
		Dashboard: dashboardService,
		WebSocket: wsHandler,

		APIBaseURL: cfg.APIBaseURL,
	}, log)
	router := api.SetupRoutes(handler, api.RouterOptions{AllowedOrigin: cfg.ClientURL}, log)

	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	// Learning: This allows us to handle shutdown signals concurrently
	serverErr := make(chan error, 1)
	go func() {
		log.Info("🌐 Server listening",
			zap.String("addr", "http://"+cfg.ServerAddr()),
			zap.String("api_base_url", cfg.APIBaseURL),
			zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("🛑 Shutting down server...")
	case err := <-serverErr:
		log.Error("❌ Server error", zap.Error(err))
		return err
	}

	// Learning: Give the server 30 seconds to finish existing requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("⚠️  Server forced to shutdown", zap.Error(err))
	}

	monitor.Stop(shutdownCtx)

	// Learning: This waits for workers to finish their current events
	analyticsService.Shutdown()

	if relay != nil {
		stopRelay()
		if err := relay.Close(); err != nil {
			log.Warn("⚠️  Failed to close Redis relay", zap.Error(err))
		}
	}

	// Closes every websocket still attached to the hub
	hub.Shutdown()

	log.Info("✓ Server shutdown complete")
	return nil
}
