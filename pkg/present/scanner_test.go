package present

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a"}, splitLines("a"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "b", ""}, splitLines("a\nb\n\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb"))
}

func TestAtoiOr(t *testing.T) {
	assert.Equal(t, 1, atoiOr("", 1))
	assert.Equal(t, 7, atoiOr("7", 1))
	assert.Equal(t, 1, atoiOr("not a number", 1))
}

func strptr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tt := []struct {
		name         string
		orig1, orig2 *string
		ts1, ts2     *string
		want         string
	}{
		{"both nil is unmodified", nil, nil, nil, nil, "unmodified"},
		{"both empty is unmodified", strptr(""), strptr(""), strptr(""), strptr(""), "unmodified"},
		{"nil left is added", nil, strptr("x"), nil, strptr("x"), "added"},
		{"empty left is added", strptr(""), strptr("x"), strptr(""), strptr("x"), "added"},
		{"nil right is deleted", strptr("x"), nil, strptr("x"), nil, "deleted"},
		{"empty right is deleted", strptr("x"), strptr(""), strptr("x"), strptr(""), "deleted"},
		{"equal content is unmodified", strptr("same"), strptr("same"), strptr("same"), strptr("same"), "unmodified"},
		{"different content is changed", strptr("a"), strptr("b"), strptr("a"), strptr("b"), "changed"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.orig1, tc.orig2, tc.ts1, tc.ts2))
		})
	}
}

func TestClassifyLinesRemovedNeverUnmodified(t *testing.T) {
	// Equal-content placeholders ("[ N lines removed ]" on both sides)
	// must still classify as changed, not unmodified, per §4.4.
	s := "[ 3 lines removed ]"
	got := classify(strptr(s), strptr(s), strptr(s), strptr(s))
	assert.Equal(t, "changed", got)
}

func TestTruncate(t *testing.T) {
	assert.Nil(t, truncate(nil))

	short := "hello"
	got := truncate(&short)
	assert.Equal(t, "hello", *got)

	long := strings.Repeat("x", maxLineSize+10)
	got = truncate(&long)
	assert.True(t, strings.HasSuffix(*got, " ✂"))
	assert.Equal(t, maxLineSize+len([]rune(" ✂")), len([]rune(*got)))
}
