package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger asigna request id (respeta el entrante), deja un logger con
// ese id en el contexto y registra una línea + métricas al terminar.
func RequestLogger(base logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	if base == nil {
		base = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			l := base.With(map[string]any{"request_id": reqID})
			ctx := logger.WithContext(r.Context(), l)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, status, elapsed)

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"remote":      r.RemoteAddr,
			}
			if status >= http.StatusInternalServerError {
				l.Error("request completed", fields)
				return
			}
			l.Info("request completed", fields)
		})
	}
}
