package present

import (
	"fmt"
	"html"
	"strings"
)

// diffOn and diffOff are the alignment sentinel code points. Both sit in
// the C0 control range, which Sane already strips from ordinary input,
// so by construction they never collide with user text by the time
// Align emits them.
const (
	diffOn  = '\x01'
	diffOff = '\x02'
)

// wordBreak is the set of characters after which Convert inserts a
// zero-width space, giving the browser somewhere to wrap a long line
// with no natural whitespace.
const wordBreak = " \t;.,/):-"

const (
	tabWidth    = 8
	lineWrapCol = 20
)

// Sane replaces every code point below 32 other than tab and newline
// with ".". It runs ahead of Align so the aligner never has to worry
// about a raw byte in the input colliding with the DIFFON/DIFFOFF
// sentinels it injects.
func Sane(s string) string {
	if !strings.ContainsFunc(s, isRawControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isRawControl(r) {
			b.WriteByte('.')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isRawControl(r rune) bool {
	return r < 32 && r != '\t' && r != '\n'
}

// Convert turns a (already-Sane, possibly Align-marked) string into an
// HTML-safe fragment. DIFFON/DIFFOFF become <tag>/</tag>; punct, when
// true, additionally renders tabs/spaces/newlines as visible glyphs
// instead of leaving them to the browser. A running column counter
// tracks line-wrap opportunities, reset at each word-break character and
// whenever it exceeds lineWrapCol.
func Convert(s string, punct bool, tag string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	col := 0

	for _, c := range s {
		switch {
		case c == diffOn:
			b.WriteByte('<')
			b.WriteString(tag)
			b.WriteByte('>')
		case c == diffOff:
			b.WriteString("</")
			b.WriteString(tag)
			b.WriteByte('>')
		case punct && c == '\t':
			pad := tabWidth - col%tabWidth
			if pad == 0 {
				pad = tabWidth
			}
			b.WriteString(`<span class="diffponct">»</span>`)
			b.WriteString(strings.Repeat(" ", pad-1))
		case punct && c == ' ':
			b.WriteString(`<span class="diffponct">·</span>`)
		case punct && c == '\n':
			b.WriteString(`<br/><span class="diffponct">\</span>`)
		case c < 32:
			esc := fmt.Sprintf(`\x%02x`, c)
			b.WriteString("<em>")
			b.WriteString(esc)
			b.WriteString("</em>")
			col += len(esc)
		default:
			b.WriteString(html.EscapeString(string(c)))
			col++
		}

		if strings.ContainsRune(wordBreak, c) {
			b.WriteString("​")
			col = 0
		}
		if col > lineWrapCol {
			b.WriteString("​")
			col = 0
		}
	}
	return b.String()
}
