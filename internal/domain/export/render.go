package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"strconv"
	"strings"
)

type Format string

const (
	FormatCSV      Format = "csv"
	FormatTSV      Format = "tsv"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
)

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatTSV, FormatHTML, FormatMarkdown:
		return f, true
	}
	return "", false
}

// Table es el resultado ya aplanado: una fila por registro, columnas en orden.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func render(f Format, t Table) ([]byte, error) {
	switch f {
	case FormatCSV:
		return renderDelimited(t, ',')
	case FormatTSV:
		return renderDelimited(t, '\t')
	case FormatHTML:
		return renderHTML(t), nil
	case FormatMarkdown:
		return renderMarkdown(t), nil
	}
	return nil, fmt.Errorf("unsupported export format %s", f)
}

func renderDelimited(t Table, sep rune) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	w.Comma = sep
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHTML(t Table) []byte {
	buf := &strings.Builder{}
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>")
	buf.WriteString(html.EscapeString(t.Title))
	buf.WriteString("</title></head><body><h1>")
	buf.WriteString(html.EscapeString(t.Title))
	buf.WriteString("</h1><table><thead><tr>")
	for _, c := range t.Columns {
		buf.WriteString("<th>")
		buf.WriteString(html.EscapeString(c))
		buf.WriteString("</th>")
	}
	buf.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		buf.WriteString("<tr>")
		for _, v := range row {
			buf.WriteString("<td>")
			buf.WriteString(html.EscapeString(v))
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</tbody></table></body></html>")
	return []byte(buf.String())
}

func renderMarkdown(t Table) []byte {
	buf := &strings.Builder{}
	buf.WriteString("# ")
	buf.WriteString(t.Title)
	buf.WriteString("\n\n")
	writeMDRow(buf, t.Columns)
	buf.WriteString("|")
	for range t.Columns {
		buf.WriteString(" --- |")
	}
	buf.WriteString("\n")
	for _, row := range t.Rows {
		writeMDRow(buf, row)
	}
	return []byte(buf.String())
}

var mdEscaper = strings.NewReplacer("|", "\\|", "\r\n", " ", "\n", " ")

func writeMDRow(buf *strings.Builder, cells []string) {
	buf.WriteString("|")
	for _, c := range cells {
		buf.WriteString(" ")
		buf.WriteString(mdEscaper.Replace(c))
		buf.WriteString(" |")
	}
	buf.WriteString("\n")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}
