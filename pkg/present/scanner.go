package present

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reFileMarker   = regexp.MustCompile(`^(?:---|\+\+\+) `)
	reHunkHeader   = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
	reBracketLine  = regexp.MustCompile(`^\[`)
	reNoNewline    = regexp.MustCompile(`^\\ No newline`)
	reAddPlacehold = regexp.MustCompile(`^\+\[ (\d+) lines removed \]$`)
	reDelPlacehold = regexp.MustCompile(`^-\[ (\d+) lines removed \]$`)
)

// diffRender holds the scanner/pairing state for exactly one top-level
// unified-diff invocation (§3's "Rendering state"). It is created fresh
// by renderUnifiedDiff and discarded on return — nothing here is
// process-wide or shared across calls, which is what lets the same
// *Doc render many diffs, possibly nested, without cross-talk.
type diffRender struct {
	sink               *tableSink
	hasInternalLinenos bool

	line1, line2 int
	hunk         HunkHeader

	addCpt, delCpt int
	buf            []bufLine

	bytesProcessed int
}

// splitLines mimics Python's str.splitlines(): it splits on "\n" but
// never yields a trailing empty element for a string that ends in "\n".
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// scan drives the line-by-line state machine of §4.3 over body,
// dispatching each recognized line shape and flushing the pairing
// buffer at the boundaries the spec names. It returns ErrBlockLimit
// (caller handles locally) or ErrPrintLimit/another error (caller
// propagates), exactly as emitted by the sink.
func (d *diffRender) scan(body string) error {
	for _, l := range splitLines(body) {
		d.bytesProcessed += len(l) + 1

		if reFileMarker.MatchString(l) {
			if err := d.emptyBuffer(); err != nil {
				return err
			}
			continue
		}

		if m := reHunkHeader.FindStringSubmatch(l); m != nil {
			if err := d.emptyBuffer(); err != nil {
				return err
			}
			d.hunk = HunkHeader{
				Off1:  atoiOr(m[1], 1),
				Size1: atoiOr(m[2], 1),
				Off2:  atoiOr(m[3], 1),
				Size2: atoiOr(m[4], 1),
			}
			d.line1, d.line2 = d.hunk.Off1, d.hunk.Off2
			if err := d.outputHunk(); err != nil {
				return err
			}
			continue
		}

		if reBracketLine.MatchString(l) {
			if err := d.emptyBuffer(); err != nil {
				return err
			}
			if err := d.outputBracketLine(l); err != nil {
				return err
			}
			continue
		}

		if reNoNewline.MatchString(l) {
			d.attachNoNewline(l)
			continue
		}

		if d.hunk.Size1 <= 0 && d.hunk.Size2 <= 0 {
			if err := d.emptyBuffer(); err != nil {
				return err
			}
			continue
		}

		if m := reAddPlacehold.FindStringSubmatch(l); m != nil {
			n, _ := strconv.Atoi(m[1])
			d.addCpt += n
			d.hunk.Size2 -= n
			rest := l[1:]
			d.buf = append(d.buf, bufLine{right: &rest})
			continue
		}
		if strings.HasPrefix(l, "+") {
			d.addCpt++
			d.hunk.Size2--
			rest := l[1:]
			d.buf = append(d.buf, bufLine{right: &rest})
			continue
		}

		if m := reDelPlacehold.FindStringSubmatch(l); m != nil {
			n, _ := strconv.Atoi(m[1])
			d.delCpt += n
			d.hunk.Size1 -= n
			rest := l[1:]
			d.buf = append(d.buf, bufLine{left: &rest})
			continue
		}
		if strings.HasPrefix(l, "-") {
			d.delCpt++
			d.hunk.Size1--
			rest := l[1:]
			d.buf = append(d.buf, bufLine{left: &rest})
			continue
		}

		if strings.HasPrefix(l, " ") && d.hunk.Size1 > 0 && d.hunk.Size2 > 0 {
			if err := d.emptyBuffer(); err != nil {
				return err
			}
			d.hunk.Size1--
			d.hunk.Size2--
			left := l[1:]
			right := l[1:]
			d.buf = append(d.buf, bufLine{left: &left, right: &right})
			continue
		}

		// Malformed or unexpected line, or a context line with an
		// exhausted counter: flush and ignore, per §4.3's last bullet.
		if err := d.emptyBuffer(); err != nil {
			return err
		}
	}

	return d.emptyBuffer()
}

// attachNoNewline implements the "^\\ No newline" handler of §4.3: the
// message is appended to the most recently buffered line on whichever
// side was just completed (hunk_size2 == 0 means the right/added side
// just finished). An empty buffer is silently ignored — §9's second
// Open Question.
func (d *diffRender) attachNoNewline(l string) {
	if len(d.buf) == 0 {
		return
	}
	msg := strings.TrimPrefix(l, `\ `)
	last := &d.buf[len(d.buf)-1]
	if d.hunk.Size2 == 0 {
		if last.right != nil {
			*last.right += "\n" + msg
		}
	} else {
		if last.left != nil {
			*last.left += "\n" + msg
		}
	}
}

// atoiOr parses s as an integer, returning def for an empty or
// malformed string. Used for the hunk header's offset and optional
// ",size" groups, the latter defaulting to 1 when the source omitted it.
func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
