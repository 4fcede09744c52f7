// Package app wires configuration, storage, domain services, and the HTTP
// server into a running process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/noortjevm/forno/internal/domain/delivery"
	"github.com/noortjevm/forno/internal/domain/order"
	"github.com/noortjevm/forno/internal/handler"
	"github.com/noortjevm/forno/internal/repository"
	"github.com/noortjevm/forno/pkg/health"
	"github.com/noortjevm/forno/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	menuRepo := repository.NewMenuRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	codeRepo := repository.NewDiscountCodeRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	orderStore := repository.NewOrderStore(pool)
	reportRepo := repository.NewReportRepository(pool, loc)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	scheduler := delivery.NewScheduler(agentRepo)
	orderService := order.NewService(menuRepo, customerRepo, codeRepo, scheduler, orderStore, loc)

	// HTTP handlers.
	h := handler.NewHandler(menuRepo, orderService, agentRepo, reportRepo, loc)
	security := handler.NewSecurityHandler(apikeyRepo, []byte(cfg.APIKeyPepper))
	secured := security.RequireAPIKey

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	mux.HandleFunc("GET /api/menu", h.ListMenu)
	mux.HandleFunc("GET /api/delivery/postal-codes", h.ListPostalCodes)
	mux.HandleFunc("POST /api/orders/preview", h.PreviewOrder)
	mux.Handle("POST /api/orders", secured(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /api/orders", secured(http.HandlerFunc(h.ListOrders)))
	mux.Handle("GET /api/reports/earnings", secured(http.HandlerFunc(h.Earnings)))
	mux.Handle("GET /api/reports/undelivered", secured(http.HandlerFunc(h.UndeliveredOrders)))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "forno-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", handler.APIKeyHeader},
				MaxAge:       86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: flip readiness, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
