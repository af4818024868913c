package present

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

// maxLineSize is the truncation threshold applied to each side of a row
// before HTML conversion; the original, untruncated value is kept
// separately for line-number advancement and equality comparisons.
const maxLineSize = 1024

// reLinesRemoved matches a placeholder line, on either side, once the
// leading "+"/"-" has already been stripped by the scanner.
var reLinesRemoved = regexp.MustCompile(`^\[ (\d+) lines removed \]$`)

// bufLine is one pending (left?, right?) pair accumulated by the
// scanner since the last flush. A nil side means "absent" (pure
// addition or pure deletion); see emptyBuffer for how that differs from
// an explicit empty string.
type bufLine struct {
	left, right *string
}

// emptyBuffer flushes the pending buffer accumulated since the last
// flush point, per §4.4: pure add-or-delete runs are emitted as-is, a
// mixed run is compressed by pairing left/right sides positionally with
// a missing side becoming an explicit empty string rather than an
// absent one.
func (d *diffRender) emptyBuffer() error {
	buf := d.buf
	d.buf = nil
	addCpt, delCpt := d.addCpt, d.delCpt
	d.addCpt, d.delCpt = 0, 0

	if len(buf) == 0 {
		return nil
	}

	if delCpt == 0 || addCpt == 0 {
		for _, l := range buf {
			if err := d.outputLine(l.left, l.right); err != nil {
				return err
			}
		}
		return nil
	}

	var lefts, rights []*string
	for _, l := range buf {
		if l.left != nil {
			lefts = append(lefts, l.left)
		}
		if l.right != nil {
			rights = append(rights, l.right)
		}
	}
	count := len(lefts)
	if len(rights) > count {
		count = len(rights)
	}
	for i := 0; i < count; i++ {
		var s0, s1 string
		if i < len(lefts) {
			s0 = *lefts[i]
		}
		if i < len(rights) {
			s1 = *rights[i]
		}
		if err := d.outputLine(&s0, &s1); err != nil {
			return err
		}
	}
	return nil
}

// truncate returns a copy of *s capped to maxLineSize runes, with a
// scissors sigil appended when truncation happened. A nil side stays nil.
func truncate(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	r := []rune(v)
	if len(r) > maxLineSize {
		v = string(r[:maxLineSize]) + " ✂"
	}
	return &v
}

// classify assigns one of the row classes of §4.4. orig1/orig2 are the
// untruncated sides (used for the byte-equality check); ts1/ts2 are the
// already-truncated sides used for presence/suffix checks.
func classify(orig1, orig2, ts1, ts2 *string) string {
	switch {
	case ts1 == nil && ts2 == nil:
		return "unmodified"
	case ts1 != nil && ts2 != nil && *ts1 == "" && *ts2 == "":
		return "unmodified"
	case ts1 == nil || *ts1 == "":
		return "added"
	case ts2 == nil || *ts2 == "":
		return "deleted"
	case *orig1 == *orig2 && !strings.HasSuffix(*ts1, "lines removed ]") && !strings.HasSuffix(*ts2, "lines removed ]"):
		return "unmodified"
	default:
		return "changed"
	}
}

// outputLine renders one row. s1/s2 may be nil (absent side) or point
// to an explicit string (possibly empty, from the compressed-pairing
// path). The cells are written first and the closing </tr> is always
// written (forced) so the row stays well-formed; line-number advancement
// happens only when the cell writes, the closing tag and the row-budget
// check all succeeded. The row-budget error takes precedence over a
// closing-tag error, which takes precedence over a cell-write error.
func (d *diffRender) outputLine(s1, s2 *string) error {
	orig1, orig2 := s1, s2
	ts1, ts2 := truncate(s1), truncate(s2)
	typeName := classify(orig1, orig2, ts1, ts2)

	var left, right string
	switch {
	case typeName == "changed":
		left, right = Align(Sane(*ts1), Sane(*ts2))
	default:
		if ts1 != nil {
			left = Sane(*ts1)
		}
		if ts2 != nil {
			right = Sane(*ts2)
		}
	}

	rowErr := d.writeRowCells(typeName, ts1, ts2, left, right)

	closeErr := d.sink.write("</tr>\n", true)
	budgetErr := d.sink.rowWasOutput()

	switch {
	case budgetErr != nil:
		return budgetErr
	case closeErr != nil:
		return closeErr
	case rowErr != nil:
		return rowErr
	}

	d.advance(orig1, orig2)
	return nil
}

func (d *diffRender) writeRowCells(typeName string, ts1, ts2 *string, left, right string) error {
	if err := d.sink.write(fmt.Sprintf(`<tr class="diff%s">`, typeName), false); err != nil {
		return err
	}
	if err := d.writeSide(ts1, d.line1, left, "del"); err != nil {
		return err
	}
	if err := d.writeSide(ts2, d.line2, right, "ins"); err != nil {
		return err
	}
	return nil
}

func (d *diffRender) writeSide(ts *string, lineno int, converted, tag string) error {
	if ts == nil || *ts == "" {
		return d.sink.write(`<td colspan="2">&nbsp;</td>`, false)
	}
	if d.hasInternalLinenos {
		if err := d.sink.write(`<td colspan="2" class="diffpresent">`, false); err != nil {
			return err
		}
	} else {
		if err := d.sink.write(fmt.Sprintf(`<td class="diffline">%d </td>`, lineno), false); err != nil {
			return err
		}
		if err := d.sink.write(`<td class="diffpresent">`, false); err != nil {
			return err
		}
	}
	if err := d.sink.write(Convert(converted, true, tag), false); err != nil {
		return err
	}
	return d.sink.write(`</td>`, false)
}

// advance moves line1/line2 forward for a committed row. A side counts
// only if it's a non-empty string (matching the scanner's own truthiness
// check); a placeholder side advances by its captured count instead of 1.
func (d *diffRender) advance(orig1, orig2 *string) {
	if orig1 != nil && *orig1 != "" {
		if m := reLinesRemoved.FindStringSubmatch(*orig1); m != nil {
			n, _ := strconv.Atoi(m[1])
			d.line1 += n
		} else {
			d.line1++
		}
	}
	if orig2 != nil && *orig2 != "" {
		if m := reLinesRemoved.FindStringSubmatch(*orig2); m != nil {
			n, _ := strconv.Atoi(m[1])
			d.line2 += n
		} else {
			d.line2++
		}
	}
}

// outputHunk renders a HunkHeader row at the top of a hunk.
func (d *diffRender) outputHunk() error {
	if err := d.sink.write(fmt.Sprintf(
		`<tr class="diffhunk"><td colspan="2">Offset %d, %d lines modified</td>`,
		d.hunk.Off1, d.hunk.Size1,
	), false); err != nil {
		return err
	}
	if err := d.sink.write(fmt.Sprintf(
		`<td colspan="2">Offset %d, %d lines modified</td></tr>`+"\n",
		d.hunk.Off2, d.hunk.Size2,
	), false); err != nil {
		return err
	}
	return d.sink.rowWasOutput()
}

// outputBracketLine renders a tool-synthesized "[...]" annotation line
// as a single well-formed row. The reference implementation emits an
// unterminated <td> for this case (see DESIGN.md); this is a deliberate
// divergence toward well-formed HTML.
func (d *diffRender) outputBracketLine(l string) error {
	if err := d.sink.write(`<tr><td colspan="4">`, false); err != nil {
		return err
	}
	if err := d.sink.write(html.EscapeString(l), false); err != nil {
		return err
	}
	if err := d.sink.write(`</td></tr>`, true); err != nil {
		return err
	}
	return d.sink.rowWasOutput()
}
