// Package respond concentra el envelope JSON de la API.
// Antes writeJSON estaba duplicado por módulo; con records/medications/users
// ya se repetía en demasiados lugares y se extrajo acá.
package respond

import (
	"encoding/json"
	"net/http"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Success escribe {"success": true, "message"?: msg, ...payload}.
func Success(w http.ResponseWriter, status int, message string, payload map[string]any) {
	body := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	if message != "" {
		body["message"] = message
	}
	JSON(w, status, body)
}

// Error mapea err al taxonomy y escribe {"success": false, "error", "code"}.
// Los errores internos se loguean con detalle y se devuelven genéricos.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.Normalize(err)

	if e.Kind() == apperr.KindInternal {
		logger.FromContext(r.Context(), nil).Error("request failed", map[string]any{
			"err":    err,
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	JSON(w, e.Status(), map[string]any{
		"success": false,
		"error":   e.Public(),
		"code":    e.Code(),
	})
}

// Decode lee el body JSON; body inválido => BadRequest (400).
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.New(apperr.BadRequest, "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.New(apperr.BadRequest, "invalid json")
	}
	return nil
}
