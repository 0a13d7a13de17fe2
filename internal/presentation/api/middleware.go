package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roastparty/server/internal/infrastructure/logging"
	"github.com/roastparty/server/internal/infrastructure/metrics"
)

func (a *Application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			elapsed := time.Since(start)
			pattern := routePattern(r)

			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).
				Observe(elapsed.Seconds())

			a.logger.Info(logging.RequestResponse, logging.Lifecycle, "request handled", map[logging.ExtraKey]any{
				logging.Method:     r.Method,
				logging.Path:       r.URL.Path,
				logging.StatusCode: ww.Status(),
				logging.BodySize:   ww.BytesWritten(),
				logging.Latency:    elapsed.String(),
				logging.ClientIp:   r.RemoteAddr,
			})
		}()

		next.ServeHTTP(ww, r)
	})
}

// routePattern resolves the chi route template so metrics stay low
// cardinality regardless of path parameters.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

func (a *Application) cors(next http.Handler) http.Handler {
	allowedOrigins := a.cfg.HTTP.AllowedOrigins
	allowedHeaders := strings.Join(a.cfg.HTTP.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(allowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}
