// Package present renders a tree of textual differences into a
// navigable, paginated HTML report.
//
// The hard part isn't the HTML — it's that a single unified-diff body
// can be arbitrarily large, and the report as a whole can be arbitrarily
// deep. Rather than building the full document in memory (as
// html/template effectively forces you to) this package streams: it
// walks the Difference tree depth-first, writing <tr> rows as it scans
// each unified diff line by line, and rotates overflow rows into
// numbered companion pages instead of buffering them. That's why this
// isn't expressed as one html/template: there's no single value to
// execute a template against, only a sequence of writes under a byte
// budget.
package present

// Difference is one node of the tree of textual differences to render.
// It mirrors diffoscope's own Difference object, stripped to the fields
// the HTML presenter actually reads.
type Difference struct {
	// Source1 and Source2 label the two things being compared. When
	// they're equal the report shows a single heading instead of "a vs. b".
	Source1, Source2 string

	// Comments are free-form notes shown under the header, joined by
	// <br/>.
	Comments []string

	// UnifiedDiff is the unified-diff body to render as a table. Empty
	// means this node carries no diff of its own (it's a pure grouping
	// node for Details).
	UnifiedDiff string

	// HasInternalLinenos suppresses the line-number column because the
	// diff text already carries line numbers inline (e.g. disassembly
	// listings).
	HasInternalLinenos bool

	Details []*Difference
}

// Config carries the presenter's size governors and optional overrides.
// The zero value is not usable directly; use DefaultConfig.
type Config struct {
	// MaxReportSize is the byte cap on the primary output stream.
	MaxReportSize int
	// MaxReportChildSize is the byte cap on a single child page.
	MaxReportChildSize int
	// MaxDiffBlockLines is the hard row cap for a diff table in
	// single-file mode, and the hard ceiling (as a multiple, see
	// MaxDiffBlockLinesHTMLDirRatio) in directory mode.
	MaxDiffBlockLines int
	// MaxDiffBlockLinesParent is the soft row cap on the parent page in
	// directory mode that triggers the first rotation.
	MaxDiffBlockLinesParent int
	// MaxDiffBlockLinesHTMLDirRatio multiplied by MaxDiffBlockLines gives
	// the hard row ceiling in directory mode.
	MaxDiffBlockLinesHTMLDirRatio float64

	// CSSURL, if set, is linked in the document <head> in addition to the
	// embedded <style> block.
	CSSURL string
	// JqueryURL is the <script src> used by the on-demand loader in
	// directory mode. Empty triggers filesystem discovery (see
	// ResolveJqueryURL); the literal "disable" omits the script entirely.
	JqueryURL string
}

// DefaultConfig returns the governor values diffy ships with. They are
// not named anywhere in upstream diffoscope's own defaults file (not
// part of this retrieval), so these are this reimplementation's own
// reasonable choices, documented in DESIGN.md.
func DefaultConfig() Config {
	return Config{
		MaxReportSize:                 2_000_000,
		MaxReportChildSize:            500_000,
		MaxDiffBlockLines:             50_000,
		MaxDiffBlockLinesParent:       25,
		MaxDiffBlockLinesHTMLDirRatio: 20,
	}
}

// HunkHeader is the four-integer header of one unified-diff hunk.
type HunkHeader struct {
	Off1, Size1, Off2, Size2 int
}
