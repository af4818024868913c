package present

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"html"
	"io"
)

// PageWriter opens the stream a rotated child page is written to. It is
// implemented once for local directories (DirWriter, the shape
// diffoscope's own --html-dir output takes) and once backed by a
// content store (StorageWriter, used by pkg/http's web service, which
// has no local "output directory" of its own).
type PageWriter interface {
	// Create opens the stream for page number `page` (1-based) of the
	// diff named mainname. The caller closes it before asking for the
	// next page.
	Create(mainname string, page int) (io.WriteCloser, error)
}

// Doc is the state shared across an entire report: the primary stream
// and its cumulative byte budget (Config.MaxReportSize), which persists
// across every difference node and every rotation, plus the page writer
// factory used whenever a diff table needs to rotate. Exactly one Doc
// exists per call to Render.
type Doc struct {
	cfg     Config
	primary io.Writer
	pages   PageWriter // nil disables rotation (single-file mode)

	chars   int
	results []DiffResult
}

// DiffResult summarizes how one top-level unified-diff node rendered:
// its child-page name prefix (mainname), how many child pages it
// produced (0 if it never rotated), and whether BlockLimit truncated
// it. pkg/http persists this alongside the upload with db.PutPageInfo;
// the child pages themselves are served out of storage, where the
// PageWriter put them.
type DiffResult struct {
	Mainname  string
	Pages     int
	Truncated bool
}

// writePrimary writes directly to the document's primary stream,
// counting against the total report budget. force bypasses the budget
// check (but still counts), used for closing tags and the footer so the
// document stays well-formed even once the budget is blown.
func (doc *Doc) writePrimary(s string, force bool) error {
	if _, err := io.WriteString(doc.primary, s); err != nil {
		return err
	}
	doc.chars += len(s)
	if !force && doc.chars >= doc.cfg.MaxReportSize {
		return ErrPrintLimit
	}
	return nil
}

// tableSink is the per-diff-table view of the row budget and rotation
// state (§3's "rows emitted so far; current page index; bytes written
// on current child stream"). A fresh one backs every call to
// renderUnifiedDiff.
type tableSink struct {
	doc      *Doc
	mainname string

	rows        int
	currentPage int
	childW      io.WriteCloser
	childBytes  int
}

func (t *tableSink) write(s string, force bool) error {
	if t.currentPage == 0 {
		return t.doc.writePrimary(s, force)
	}
	if _, err := io.WriteString(t.childW, s); err != nil {
		return err
	}
	t.childBytes += len(s)
	return nil
}

// rowWasOutput is consulted after each completed row, implementing the
// independent single-file / directory-mode row caps of §4.5.
func (t *tableSink) rowWasOutput() error {
	t.rows++
	cfg := t.doc.cfg

	if t.doc.pages == nil {
		if t.rows >= cfg.MaxDiffBlockLines {
			return ErrBlockLimit
		}
		return nil
	}

	if float64(t.rows) >= cfg.MaxDiffBlockLinesHTMLDirRatio*float64(cfg.MaxDiffBlockLines) {
		return ErrBlockLimit
	}
	if t.currentPage == 0 {
		if t.rows < cfg.MaxDiffBlockLinesParent {
			return nil
		}
	} else if t.childBytes < cfg.MaxReportChildSize {
		return nil
	}
	return t.rotate()
}

// rotate implements the rotation protocol of §4.5: close the previous
// child (if any) with a table footer linking to the new page, open the
// new page, and emit its header plus a fresh table header.
func (t *tableSink) rotate() error {
	t.currentPage++
	filename := fmt.Sprintf("%s-%d.html", t.mainname, t.currentPage)

	if t.currentPage > 1 {
		if err := t.write(fmt.Sprintf(udTableFooter, html.EscapeString(filename), "load diff"), true); err != nil {
			return err
		}
		if err := t.write(footerHTML(t.doc.cfg), true); err != nil {
			return err
		}
		if err := t.childW.Close(); err != nil {
			return err
		}
	}

	w, err := t.doc.pages.Create(t.mainname, t.currentPage)
	if err != nil {
		return err
	}
	t.childW = w
	t.childBytes = 0

	if err := t.write(headerHTML(t.doc.cfg, childPageTitle(t.mainname, t.currentPage)), true); err != nil {
		return err
	}
	return t.write(udTableHeader, true)
}

// finish closes out this diff table on exit from renderUnifiedDiff. If
// rotation never happened it just closes the still-open parent table;
// otherwise it closes out the last child document and appends the
// deferred on-demand row to the parent, which has held its initial
// table open this whole time (§3's "the parent page never contains more
// than one unclosed table at a time").
func (t *tableSink) finish(truncated bool) error {
	if t.currentPage == 0 {
		return t.write("</table>", true)
	}

	if err := t.write("</table>", true); err != nil {
		return err
	}
	if err := t.write(footerHTML(t.doc.cfg), true); err != nil {
		return err
	}
	if err := t.childW.Close(); err != nil {
		return err
	}

	noun := "piece"
	if t.currentPage > 1 {
		noun = "pieces"
	}
	suffix := ""
	if truncated {
		suffix = ", truncated"
	}
	text := fmt.Sprintf("load diff (%d %s%s)", t.currentPage, noun, suffix)
	link := html.EscapeString(fmt.Sprintf("%s-1.html", t.mainname))
	return t.doc.writePrimary(fmt.Sprintf(udTableFooter, link, text), true)
}

// md5Hex is the "mainname" used to name a diff's child pages, per
// §4.5/E5: the hex MD5 of the exact unified-diff string.
func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

const udTableHeader = `<table class="diff">` + "\n"

// udTableFooter closes a table with the on-demand placeholder row; %s
// verbs are the link href and its visible text, both already escaped by
// the caller.
const udTableFooter = `<tr class="ondemand"><td colspan="4">` +
	`<a href="%s">%s</a></td></tr>` + "\n</table>\n"

func childPageTitle(mainname string, page int) string {
	return fmt.Sprintf("%s (page %d)", mainname, page)
}
