// Package http assembles the read and admin API from the per-module
// handlers.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gavel/pkg/requestcontext"
)

// Registrar is anything that mounts routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the readiness of one dependency.
type HealthChecker func() error

// NewRouter wires middleware, the operational endpoints, and every module
// handler.
func NewRouter(health map[string]HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Get("/healthz", healthz(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

// requestID threads a request identifier through the context for log
// correlation, honoring one supplied by an upstream proxy.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), rid)))
	})
}

func healthz(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(); err != nil {
				http.Error(w, name+" unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
