package present

import "errors"

// ErrPrintLimit signals that the primary stream's total byte budget
// (Config.MaxReportSize) has been exhausted. It propagates out of
// renderDifference all the way to Render, which catches it once at the
// top and appends a single error block.
var ErrPrintLimit = errors.New("present: max report size reached")

// ErrBlockLimit signals that the current diff table's row budget has
// been exhausted. It is always handled inside renderUnifiedDiff: an
// error row is appended and rendering of that one diff stops, but the
// rest of the document continues.
var ErrBlockLimit = errors.New("present: max diff block lines reached")
