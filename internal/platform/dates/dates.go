// Package dates valida y acota fechas de entrada de la API.
// Formatos aceptados: exactamente YYYY-MM-DD o YYYY-MM-DD HH:MM (UTC).
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"pet-health-tracker/internal/platform/apperr"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var (
	dateOnlyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)
)

const day = 24 * time.Hour

// Bounds define la ventana permitida alrededor de now.
type Bounds struct {
	AllowFuture   bool
	MaxFutureDays int
	MaxPastYears  int
}

// DefaultBounds: hasta 1 día a futuro, 50 años al pasado.
func DefaultBounds() Bounds {
	return Bounds{AllowFuture: true, MaxFutureDays: 1, MaxPastYears: 50}
}

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserWithClock permite fijar el reloj (tests).
func NewParserWithClock(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{now: now}
}

func (p *Parser) Now() time.Time {
	return p.now().UTC()
}

// ParseDateTime combina date + time opcional y valida formato y rango.
func (p *Parser) ParseDateTime(dateStr, timeStr string, b Bounds) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)
	if dateStr == "" {
		return time.Time{}, apperr.New(apperr.MissingDate)
	}

	combined := dateStr
	if timeStr != "" {
		combined = dateStr + " " + timeStr
	}

	var layout string
	switch {
	case dateTimeRe.MatchString(combined):
		layout = DateTimeLayout
	case dateOnlyRe.MatchString(combined):
		layout = DateLayout
	default:
		return time.Time{}, apperr.New(apperr.MalformedDateTime)
	}

	ts, err := time.ParseInLocation(layout, combined, time.UTC)
	if err != nil {
		// ej: 2024-02-30 pasa el regex pero no es fecha real
		return time.Time{}, apperr.New(apperr.MalformedDateTime)
	}

	if err := p.checkRange(ts, b); err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

func (p *Parser) checkRange(ts time.Time, b Bounds) error {
	now := p.Now()

	upper := now
	if b.AllowFuture {
		upper = now.Add(time.Duration(b.MaxFutureDays) * day)
	}
	if ts.After(upper) {
		if !b.AllowFuture || b.MaxFutureDays <= 0 {
			return apperr.New(apperr.OutOfRange, "date cannot be in the future")
		}
		return apperr.New(apperr.OutOfRange, fmt.Sprintf("date cannot be more than %d day(s) in the future", b.MaxFutureDays))
	}

	lower := now.Add(-time.Duration(b.MaxPastYears*365) * day)
	if ts.Before(lower) {
		return apperr.New(apperr.OutOfRange, fmt.Sprintf("date cannot be more than %d years in the past", b.MaxPastYears))
	}
	return nil
}

// ParseDate es para fechas de nacimiento: vacío => nil (sin valor).
// El límite a futuro siempre es 0 días: con allowFuture=true o false la cota
// superior termina siendo now.
func (p *Parser) ParseDate(s string, allowFuture bool) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := p.ParseDateTime(s, "", Bounds{
		AllowFuture:   allowFuture,
		MaxFutureDays: 0,
		MaxPastYears:  50,
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseEventDateTimeSafe se usa en los create/update de eventos.
// Con date y time presentes valida (1 día a futuro) y convierte cualquier falla
// en ValidationError. Si falta alguno de los dos, usa la hora actual.
func (p *Parser) ParseEventDateTimeSafe(dateStr, timeStr string) (time.Time, error) {
	if strings.TrimSpace(dateStr) == "" || strings.TrimSpace(timeStr) == "" {
		return p.Now(), nil
	}
	t, err := p.ParseDateTime(dateStr, timeStr, DefaultBounds())
	if err != nil {
		msg := err.Error()
		if e, ok := apperr.As(err); ok {
			msg = e.Public()
		}
		return time.Time{}, apperr.New(apperr.ValidationError, msg)
	}
	return t, nil
}

func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}

func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// DayBounds devuelve [inicio, fin) del día calendario UTC de t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(day)
}
