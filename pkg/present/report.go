package present

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
)

// Render writes a complete, self-contained HTML report for root to w.
// In directory mode (pages != nil) large diff tables rotate some of
// their rows into companion pages written through pages instead of w;
// see rowsink.go. title becomes the document's <title> (and, per §4.6,
// diffoscope derives it from the invocation's arguments — here, from
// the two uploaded file names, see pkg/http).
func Render(w io.Writer, root *Difference, cfg Config, pages PageWriter, title string) ([]DiffResult, error) {
	doc := &Doc{cfg: cfg, primary: w, pages: pages}

	err := renderDocument(doc, root, title)
	switch {
	case errors.Is(err, ErrPrintLimit):
		if werr := doc.writePrimary(`<div class="error">Max output size reached.</div>`, true); werr != nil {
			return doc.results, werr
		}
	case err != nil:
		return doc.results, err
	}

	if pages != nil && scriptEnabled(cfg) {
		tag := fmt.Sprintf(`<script src="%s"></script>`+"\n", html.EscapeString(cfg.JqueryURL))
		if err := doc.writePrimary(tag+onDemandScript, true); err != nil {
			return doc.results, err
		}
	}
	return doc.results, doc.writePrimary(footerHTML(cfg), true)
}

func scriptEnabled(cfg Config) bool {
	return cfg.JqueryURL != "" && cfg.JqueryURL != "disable"
}

func renderDocument(doc *Doc, root *Difference, title string) error {
	if err := doc.writePrimary(headerHTML(doc.cfg, title), false); err != nil {
		return err
	}
	return renderDifference(doc, root, nil)
}

// renderDifference is the DFS walk of §4.6: open a framed container,
// emit the header/comments/diff table, recurse into Details in order,
// then close the container with a forced write so framing stays
// balanced even when an error unwinds through here.
func renderDifference(doc *Doc, d *Difference, parents []string) error {
	sources := append(append([]string{}, parents...), d.Source1)
	anchor := strings.Join(sources[1:], "/")

	if err := doc.writePrimary(`<div class="difference">`, false); err != nil {
		return err
	}

	renderErr := func() error {
		if err := doc.writePrimary(`<div class="diffheader">`, false); err != nil {
			return err
		}
		if d.Source1 == d.Source2 {
			if err := doc.writePrimary(fmt.Sprintf(
				`<div><span class="source">%s</span>`, html.EscapeString(d.Source1),
			), false); err != nil {
				return err
			}
		} else {
			if err := doc.writePrimary(fmt.Sprintf(
				`<div><span class="source">%s</span> vs.</div>`, html.EscapeString(d.Source1),
			), false); err != nil {
				return err
			}
			if err := doc.writePrimary(fmt.Sprintf(
				`<div><span class="source">%s</span>`, html.EscapeString(d.Source2),
			), false); err != nil {
				return err
			}
		}
		if err := doc.writePrimary(fmt.Sprintf(
			` <a class="anchor" href="#%s" name="%s">&para;</a></div>`,
			html.EscapeString(anchor), html.EscapeString(anchor),
		), false); err != nil {
			return err
		}

		if len(d.Comments) > 0 {
			escaped := make([]string, len(d.Comments))
			for i, c := range d.Comments {
				escaped[i] = html.EscapeString(c)
			}
			if err := doc.writePrimary(fmt.Sprintf(
				`<div class="comment">%s</div>`, strings.Join(escaped, "<br />"),
			), false); err != nil {
				return err
			}
		}
		if err := doc.writePrimary(`</div>`, false); err != nil {
			return err
		}

		if d.UnifiedDiff != "" {
			if err := renderUnifiedDiff(doc, d.UnifiedDiff, d.HasInternalLinenos); err != nil {
				return err
			}
		}

		for _, detail := range d.Details {
			if err := renderDifference(doc, detail, sources); err != nil {
				return err
			}
		}
		return nil
	}()

	closeErr := doc.writePrimary(`</div>`, true)
	if renderErr != nil {
		return renderErr
	}
	return closeErr
}
