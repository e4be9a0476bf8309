package export

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/respond"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/export/{kind}/{format}", exportHandler(svc))
}

// exportHandler godoc
// @Summary     Exportar registros de una mascota
// @Tags        export
// @Produce     text/csv,text/html,text/markdown
// @Param       kind    path  string true "Tipo de registro (asthma, weight, ...)"
// @Param       format  path  string true "csv | tsv | html | md"
// @Param       pet_id  query string true "ID de la mascota"
// @Success     200
// @Router      /export/{kind}/{format} [get]
func exportHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := middleware.CurrentUser(r.Context())
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		doc, err := svc.Export(r.Context(),
			chi.URLParam(r, "kind"),
			chi.URLParam(r, "format"),
			r.URL.Query().Get("pet_id"),
			username,
		)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		logger.FromContext(r.Context(), nil).Debug("export generated", map[string]any{
			"file": doc.Filename,
			"rows": doc.Rows,
		})

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc.Body)
	}
}
