// Package templates renders the HTMX fragments returned by the web layer.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/scanmaster/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders a dismissable error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="alert-code">Code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}

// ScanResult renders the outcome of one scan for the scanning screen.
func ScanResult(res core.ScanResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !res.Matched() || res.Reading == nil {
			_, err := fmt.Fprintf(w,
				`<div class="scan scan-unmatched" data-ean="%s"><strong>%s</strong> no existe en el maestro</div>`,
				templ.EscapeString(res.EAN), templ.EscapeString(res.EAN))
			return err
		}
		r := res.Reading
		_, err := fmt.Fprintf(w,
			`<div class="scan scan-matched" data-ean="%s"><strong>%s</strong> %s <time>%s</time></div>`,
			templ.EscapeString(r.EAN),
			templ.EscapeString(r.InternalCode),
			templ.EscapeString(r.Description),
			r.ReadAt.Format("02/01/2006 15:04:05"))
		return err
	})
}

// ImportReport renders the import summary followed by the rejected rows.
func ImportReport(report *core.ImportReport) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}

		ew.printf(`<section class="import-report" id="import-%s">`, templ.EscapeString(report.ID))
		if report.FileName != "" {
			ew.printf(`<h3>%s</h3>`, templ.EscapeString(report.FileName))
		}
		ew.printf(`<dl class="import-summary">`)
		for _, stat := range []struct {
			label string
			value int
		}{
			{"Filas", report.TotalRows},
			{"Insertadas", report.Inserted},
			{"Actualizadas", report.Updated},
			{"Rechazadas", report.Rejected},
		} {
			ew.printf(`<dt>%s</dt><dd>%s</dd>`, stat.label, strconv.Itoa(stat.value))
		}
		ew.printf(`</dl>`)
		if report.Aborted {
			ew.printf(`<p class="import-aborted">La importación se interrumpió; las filas anteriores quedaron aplicadas.</p>`)
		}

		rejected := report.RejectedRows()
		if len(rejected) > 0 {
			ew.printf(`<table class="import-rejected"><thead><tr><th>Fila</th><th>Codigo Articulo</th><th>EAN</th><th>Motivo</th></tr></thead><tbody>`)
			for _, o := range rejected {
				ew.printf(`<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					o.Row,
					templ.EscapeString(o.InternalCode),
					templ.EscapeString(o.EAN),
					templ.EscapeString(o.Reason))
			}
			ew.printf(`</tbody></table>`)
		}
		ew.printf(`</section>`)
		return ew.err
	})
}

// errWriter keeps the first write error so long fragments read linearly.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
