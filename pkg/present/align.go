package present

import "strings"

// move identifies which predecessor cell an edit-distance DP cell was
// filled from.
type move uint8

const (
	moveDiag move = iota // substitution or match
	moveUp               // deletion from s
	moveLeft             // insertion into t
)

// Align runs a classic edit-distance dynamic-program over the runes of
// s and t and walks the back-pointers to produce a pair of strings in
// which every differing run is wrapped in DIFFON/DIFFOFF markers.
// Matching runs are emitted unmarked on both sides; a pure insertion or
// deletion leaves an unmarked empty slot on the other side.
//
// Among equal-cost predecessors the diagonal move wins over the
// vertical (deletion) move, which in turn wins over the horizontal
// (insertion) move — this tie-break is what makes the output match the
// reference implementation's; a different order produces a
// well-formed but differently-highlighted alignment.
func Align(s, t string) (string, string) {
	rs := []rune(s)
	rt := []rune(t)
	m, n := len(rs), len(rt)

	cost := make([][]int, m+1)
	back := make([][]move, m+1)
	for i := range cost {
		cost[i] = make([]int, n+1)
		back[i] = make([]move, n+1)
	}
	for i := 1; i <= m; i++ {
		cost[i][0] = i
		back[i][0] = moveUp
	}
	for j := 1; j <= n; j++ {
		cost[0][j] = j
		back[0][j] = moveLeft
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			sub := 1
			if rs[i-1] == rt[j-1] {
				sub = 0
			}
			diag := cost[i-1][j-1] + sub
			up := cost[i-1][j] + 1
			left := cost[i][j-1] + 1

			best, bestMove := diag, moveDiag
			if up < best {
				best, bestMove = up, moveUp
			}
			if left < best {
				best, bestMove = left, moveLeft
			}
			cost[i][j] = best
			back[i][j] = bestMove
		}
	}

	type op struct {
		mv     move
		si, ti int // -1 when that side isn't consumed
	}
	ops := make([]op, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch back[i][j] {
		case moveDiag:
			ops = append(ops, op{moveDiag, i - 1, j - 1})
			i--
			j--
		case moveUp:
			ops = append(ops, op{moveUp, i - 1, -1})
			i--
		case moveLeft:
			ops = append(ops, op{moveLeft, -1, j - 1})
			j--
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	var outS, outT strings.Builder
	for _, o := range ops {
		switch o.mv {
		case moveDiag:
			if rs[o.si] == rt[o.ti] {
				outS.WriteRune(rs[o.si])
				outT.WriteRune(rt[o.ti])
			} else {
				outS.WriteRune(diffOn)
				outS.WriteRune(rs[o.si])
				outS.WriteRune(diffOff)
				outT.WriteRune(diffOn)
				outT.WriteRune(rt[o.ti])
				outT.WriteRune(diffOff)
			}
		case moveUp:
			outS.WriteRune(diffOn)
			outS.WriteRune(rs[o.si])
			outS.WriteRune(diffOff)
		case moveLeft:
			outT.WriteRune(diffOn)
			outT.WriteRune(rt[o.ti])
			outT.WriteRune(diffOff)
		}
	}

	return collapseMarkers(outS.String()), collapseMarkers(outT.String())
}

// collapseMarkers merges adjacent marked runs: a DIFFOFF immediately
// followed by a DIFFON is an artifact of walking the DP one op at a
// time, not an actual gap in the highlighted span.
func collapseMarkers(s string) string {
	return strings.ReplaceAll(s, string(diffOff)+string(diffOn), "")
}
