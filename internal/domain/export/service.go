package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
)

// RecordSource es lo que export necesita de records: todos los registros de
// una mascota con el control de acceso ya aplicado.
type RecordSource interface {
	ListAll(ctx context.Context, k records.Kind, petID, username string) ([]records.Record, error)
}

// Document es el archivo listo para descargar.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

type Service struct {
	source RecordSource
	now    func() time.Time
}

func NewService(source RecordSource) *Service {
	return &Service{source: source, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Export arma el archivo de un tipo de registro. El nombre lleva la marca de
// tiempo a minuto: <kind>_<YYYYMMDD_HHMM>.<ext>.
func (s *Service) Export(ctx context.Context, kindName, format, petID, username string) (Document, error) {
	k, ok := records.ByName(kindName)
	if !ok {
		return Document{}, apperr.New(apperr.NotFound, "unknown record type")
	}
	f, ok := ParseFormat(format)
	if !ok {
		return Document{}, apperr.New(apperr.ValidationError, "format must be one of csv, tsv, html, md")
	}

	items, err := s.source.ListAll(ctx, k, strings.TrimSpace(petID), username)
	if err != nil {
		return Document{}, err
	}

	body, err := render(f, buildTable(k, items))
	if err != nil {
		return Document{}, apperr.Wrap(apperr.Internal, err)
	}

	return Document{
		Filename:    fmt.Sprintf("%s_%s.%s", k.Name, s.now().UTC().Format("20060102_1504"), f),
		ContentType: f.ContentType(),
		Body:        body,
		Rows:        len(items),
	}, nil
}

func buildTable(k records.Kind, items []records.Record) Table {
	cols := make([]string, 0, len(k.Fields)+3)
	cols = append(cols, "date_time", "username")
	cols = append(cols, k.Fields...)
	cols = append(cols, "comment")

	rows := make([][]string, 0, len(items))
	for _, rec := range items {
		row := make([]string, 0, len(cols))
		row = append(row, dates.Format(rec.DateTime), rec.Username)
		for _, f := range k.Fields {
			row = append(row, formatValue(rec.Fields[f]))
		}
		row = append(row, rec.Comment)
		rows = append(rows, row)
	}
	return Table{Title: k.Title, Columns: cols, Rows: rows}
}
