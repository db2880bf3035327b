// Package templates renders the HTMX fragments and the upload page.
//
// Components are written with templ.ComponentFunc so they render without a
// templ generate step.
package templates

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/catalog-import/internal/core"
)

// writer collects the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) rawf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// ErrorAlert renders an operator-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert alert-error" role="alert"><p class="alert-message">`)
		w.text(message)
		w.raw(`</p>`)
		if action != "" {
			w.raw(`<p class="alert-action">`)
			w.text(action)
			w.raw(`</p>`)
		}
		w.raw(`<p class="alert-code">Code: `)
		w.text(code)
		w.raw(`</p></div>`)
		return w.err
	})
}

// AnalysisTable shows the detected headers, the proposed mapping and sample rows.
// Each header gets a select so the operator can override its target.
func AnalysisTable(a *core.Analysis) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<section class="analysis"><h2>`)
		w.text(a.FileName)
		w.rawf(`</h2><p>%d rows`, a.RowCount)
		if a.Truncated {
			w.raw(`, truncated at the row limit`)
		}
		w.raw(`</p><table class="mapping"><thead><tr><th>Column</th><th>Field</th></tr></thead><tbody>`)
		for _, e := range a.Mapping.Entries() {
			w.raw(`<tr><td>`)
			w.text(e.Header)
			w.raw(`</td><td><select data-header="`)
			w.text(e.Header)
			w.raw(`">`)
			for _, t := range core.AllTargets {
				selected := ""
				if t == e.Target {
					selected = " selected"
				}
				w.rawf(`<option value="%s"%s>`, templ.EscapeString(t.String()), selected)
				w.text(t.String())
				w.raw(`</option>`)
			}
			w.raw(`</select></td></tr>`)
		}
		w.raw(`</tbody></table>`)

		if len(a.SharedTargets) > 0 {
			targets := make([]string, 0, len(a.SharedTargets))
			for t := range a.SharedTargets {
				targets = append(targets, string(t))
			}
			sort.Strings(targets)
			w.raw(`<p class="warning">Several columns map to `)
			for i, t := range targets {
				if i > 0 {
					w.raw(", ")
				}
				w.text(t)
			}
			w.raw(`; the last column wins.</p>`)
		}

		if len(a.Samples) > 0 {
			w.raw(`<table class="samples"><thead><tr><th>Line</th>`)
			for _, h := range a.Headers {
				w.raw(`<th>`)
				w.text(h)
				w.raw(`</th>`)
			}
			w.raw(`</tr></thead><tbody>`)
			for _, row := range a.Samples {
				w.rawf(`<tr><td>%d</td>`, row.Line)
				for _, c := range row.Cells() {
					w.raw(`<td>`)
					w.text(c)
					w.raw(`</td>`)
				}
				w.raw(`</tr>`)
			}
			w.raw(`</tbody></table>`)
		}
		w.raw(`</section>`)
		return w.err
	})
}

// ImportSummary renders the outcome of a preview or an import.
func ImportSummary(res *core.Result, dryRun bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		title := "Import finished"
		if dryRun {
			title = "Preview"
		}
		w.raw(`<section class="summary"><h2>`)
		w.text(title)
		w.rawf(`</h2><p><strong class="accepted">%d</strong> accepted, <strong class="rejected">%d</strong> rejected</p>`,
			res.Accepted, res.Rejected)
		if res.Truncated {
			w.raw(`<p class="warning">The file had more rows than the import limit; the rest were not read.</p>`)
		}

		if len(res.CategoryCounts) > 0 {
			names := make([]string, 0, len(res.CategoryCounts))
			for name := range res.CategoryCounts {
				names = append(names, name)
			}
			sort.Strings(names)
			w.raw(`<ul class="categories">`)
			for _, name := range names {
				w.raw(`<li>`)
				w.text(name)
				w.rawf(`: %d</li>`, res.CategoryCounts[name])
			}
			w.raw(`</ul>`)
		}

		if len(res.Rejections) > 0 {
			w.raw(`<table class="rejections"><thead><tr><th>Line</th><th>Name</th><th>Code</th><th>Reason</th></tr></thead><tbody>`)
			for _, rej := range res.Rejections {
				w.rawf(`<tr><td>%d</td><td>`, rej.Line)
				w.text(rej.Name)
				w.raw(`</td><td>`)
				w.text(rej.Code)
				w.raw(`</td><td>`)
				w.text(string(rej.Reason))
				w.raw(`</td></tr>`)
			}
			w.raw(`</tbody></table>`)
		}
		w.raw(`</section>`)
		return w.err
	})
}

// ImportPage is the upload form. The mapping field is filled from the
// analysis selects before preview or import is posted.
func ImportPage(maxFileSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>Catalog import</title>`)
		w.raw(`<script src="https://unpkg.com/htmx.org@1.9.12"></script></head><body>`)
		w.raw(`<h1>Catalog import</h1>`)
		w.rawf(`<p>CSV or XLSX, up to %d MB.</p>`, maxFileSize/(1<<20))
		w.raw(`<form id="import-form" hx-encoding="multipart/form-data" hx-target="#result">`)
		w.raw(`<input type="file" name="file" accept=".csv,.txt,.xlsx" required>`)
		w.raw(`<input type="hidden" name="mapping" id="mapping">`)
		w.raw(`<button hx-post="/api/import/analyze">Analyze</button>`)
		w.raw(`<button hx-post="/api/import/preview">Preview</button>`)
		w.raw(`<button hx-post="/api/import">Import</button>`)
		w.raw(`</form><div id="result"></div>`)
		w.raw(`<script>
document.body.addEventListener("htmx:configRequest", function (e) {
  var entries = [];
  document.querySelectorAll("select[data-header]").forEach(function (s) {
    entries.push({header: s.dataset.header, target: s.value});
  });
  e.detail.parameters.mapping = entries.length ? JSON.stringify(entries) : "";
});
</script></body></html>`)
		return w.err
	})
}
