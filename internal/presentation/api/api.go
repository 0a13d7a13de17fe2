package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/roastparty/server/internal/infrastructure/configs"
	"github.com/roastparty/server/internal/infrastructure/json"
	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/ratelimiter"
	"github.com/roastparty/server/internal/infrastructure/ws"
	"github.com/roastparty/server/internal/presentation/handler/health"
	"github.com/roastparty/server/internal/presentation/handler/rooms"
	"github.com/roastparty/server/internal/service"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg    *configs.Config
	logger logging.Logger

	rooms     *rooms.Handler
	health    *health.Handler
	core      *ws.Core
	limiter   *ratelimiter.RateLimiter
	scheduler *service.CleanupScheduler
}

func NewApplication(
	cfg *configs.Config,
	logger logging.Logger,
	roomsHandler *rooms.Handler,
	healthHandler *health.Handler,
	core *ws.Core,
	limiter *ratelimiter.RateLimiter,
	scheduler *service.CleanupScheduler,
) *Application {
	return &Application{
		cfg:       cfg,
		logger:    logger,
		rooms:     roomsHandler,
		health:    healthHandler,
		core:      core,
		limiter:   limiter,
		scheduler: scheduler,
	}
}

func (a *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.cfg.HTTP.WriteTimeout))
	r.Use(a.cors)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.limiter.Middleware)
		a.rooms.RegisterRoutes(r)
		r.Post("/admin/cleanup", a.runCleanup)
	})

	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(a.core, w, r)
	})

	r.Get("/health/live", a.health.Live)
	r.Get("/health/ready", a.health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	return otelhttp.NewHandler(r, "http.server")
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *Application) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.cfg.HTTP.Host, a.cfg.HTTP.Port),
		Handler:      a.Routes(),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info(logging.General, logging.Startup, "http server listening", map[logging.ExtraKey]any{
			"addr": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info(logging.General, logging.Shutdown, "shutting down http server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runCleanup triggers both sweeps immediately. Operator escape hatch; the
// scheduler covers the steady state.
func (a *Application) runCleanup(w http.ResponseWriter, r *http.Request) {
	if err := a.scheduler.RunNow(r.Context()); err != nil {
		a.logger.Error(logging.Rooms, logging.Cleanup, "manual cleanup failed", map[logging.ExtraKey]any{
			"errorMessage": err.Error(),
		})
		json.WriteInternalError(w)
		return
	}
	json.Write(w, http.StatusOK, map[string]string{"status": "completed"})
}
