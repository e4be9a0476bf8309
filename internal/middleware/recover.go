package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/respond"
)

// Recover reemplaza chimw.Recoverer: mismo efecto pero responde con el
// envelope JSON y loguea con el logger del request.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context(), nil).Error("panic recovered", map[string]any{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
				"path":  r.URL.Path,
			})
			respond.Error(w, r, apperr.New(apperr.Internal))
		}()
		next.ServeHTTP(w, r)
	})
}
