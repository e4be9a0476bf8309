package paging

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"pet-health-tracker/internal/platform/apperr"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Params es la ventana pedida por el cliente. Los límites se validan antes
// de llegar acá (FromQuery / validate); Window no recorta nada.
type Params struct {
	Page     int `json:"page" validate:"min=1"`
	PageSize int `json:"page_size" validate:"min=1,max=1000"`
}

func Default() Params {
	return Params{Page: 1, PageSize: DefaultPageSize}
}

// Window devuelve skip/limit: skip = (page-1)*page_size. Si el producto no
// entra en int64 satura en MaxInt64 (ventana vacía).
func (p Params) Window() (skip, limit int64) {
	limit = int64(p.PageSize)
	pages := int64(p.Page) - 1
	if pages <= 0 || limit <= 0 {
		return 0, limit
	}
	if pages > math.MaxInt64/limit {
		return math.MaxInt64, limit
	}
	return pages * limit, limit
}

// Apply recorta un slice ya ordenado. Página fuera de rango => vacío.
func Apply[T any](items []T, p Params) []T {
	skip, limit := p.Window()
	n := int64(len(items))
	if skip < 0 || skip >= n || limit <= 0 {
		return []T{}
	}
	end := skip + limit
	if end > n {
		end = n
	}
	out := make([]T, end-skip)
	copy(out, items[skip:end])
	return out
}

// FromQuery lee page/page_size con defaults. Valores fuera de rango => 422.
func FromQuery(r *http.Request) (Params, error) {
	p := Default()
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Params{}, apperr.New(apperr.ValidationError, "page must be an integer >= 1")
		}
		p.Page = n
	}
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxPageSize {
			return Params{}, apperr.New(apperr.ValidationError, "page_size must be an integer between 1 and 1000")
		}
		p.PageSize = n
	}
	return p, nil
}

// Meta son los campos de paginación que acompañan a cada listado.
func (p Params) Meta(total int64) map[string]any {
	return map[string]any{
		"page":      p.Page,
		"page_size": p.PageSize,
		"total":     total,
	}
}
