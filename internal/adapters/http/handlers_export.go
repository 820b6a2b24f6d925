package web

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"otterpoint/internal/adapters/export"
	"otterpoint/internal/application/listutil"
	"otterpoint/internal/application/orchestrators"
	"otterpoint/internal/domain/session"
)

// writeExport streams the filtered rows of a list as a spreadsheet. Cells
// come from the same column formatters as the HTML table.
// PRE: rows is View.Filtered of a view derived with spec
// POST: The response is a complete .xlsx attachment, or a 500
func writeExport[T any](w http.ResponseWriter, r *http.Request, c session.Class, resource string, spec listutil.Spec[T], rows []T) {
	t := export.Table{Sheet: spec.Title, Headers: spec.Headers(), Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		t.Rows = append(t.Rows, spec.Cells(row))
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, t); err != nil {
		internalError(w, err)
		return
	}

	orchestrators.ExecuteRecordExport(r.Context(), orchestrators.RecordExportInput{
		Resource: resource,
		Rows:     len(rows),
		Actor:    actorFrom(r, c),
	}, recording())

	name := export.Filename(spec.Title, timeNow())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
