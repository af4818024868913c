package present

import (
	"errors"
	"fmt"
)

// renderUnifiedDiff renders one Difference node's unified-diff body as
// a <table>, handling BlockLimit locally (§7: write an error row, stop
// this diff, let the caller continue with siblings) and propagating
// PrintLimit and any other error after making sure the table is closed.
func renderUnifiedDiff(doc *Doc, body string, hasInternalLinenos bool) error {
	t := &tableSink{doc: doc, mainname: md5Hex(body)}
	dr := &diffRender{sink: t, hasInternalLinenos: hasInternalLinenos}

	if err := t.write(udTableHeader, false); err != nil {
		_ = t.write("</table>", true)
		return err
	}

	truncated := false
	switch err := dr.scan(body); {
	case err == nil:
		// fully scanned

	case errors.Is(err, ErrBlockLimit):
		total := len(body)
		bytesLeft := total - dr.bytesProcessed
		frac := 0.0
		if total > 0 {
			frac = float64(bytesLeft) / float64(total) * 100
		}
		row := fmt.Sprintf(
			`<tr class="error"><td colspan="4">Max diff block lines reached; `+
				`%d/%d bytes (%.2f%%) of diff not shown.</td></tr>`+"\n",
			bytesLeft, total, frac,
		)
		if werr := t.write(row, true); werr != nil {
			_ = t.write("</table>", true)
			return werr
		}
		truncated = true

	case errors.Is(err, ErrPrintLimit):
		_ = t.write(`<tr class="error"><td colspan="4">Max output size reached.</td></tr>`+"\n", true)
		_ = t.write("</table>", true)
		return ErrPrintLimit

	default:
		_ = t.write("</table>", true)
		return err
	}

	if err := t.finish(truncated); err != nil {
		return err
	}

	doc.results = append(doc.results, DiffResult{
		Mainname:  t.mainname,
		Pages:     t.currentPage,
		Truncated: truncated,
	})
	return nil
}
