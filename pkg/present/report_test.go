package present

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `--- a/hello.go
+++ b/hello.go
@@ -1,4 +1,4 @@
 package main
-func greet() string {
+func greet(name string) string {
 	return "hi"
 }
`

func TestRenderSimpleDiff(t *testing.T) {
	root := &Difference{
		Source1:     "hello.go",
		Source2:     "hello.go",
		UnifiedDiff: sampleDiff,
	}

	var buf bytes.Buffer
	results, err := Render(&buf, root, DefaultConfig(), nil, "hello.go")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, `<span class="source">hello.go</span>`)
	assert.Contains(t, out, `<table class="diff">`)
	assert.Contains(t, out, `class="diffhunk"`)
	assert.Contains(t, out, `class="diffchanged"`)
	assert.Contains(t, out, `<div class="footer">Generated by`)
	assert.NotContains(t, out, "vs.", "equal source names should show one heading, not \"a vs. b\"")

	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Pages)
	assert.False(t, results[0].Truncated)
}

func TestRenderDifferingSourceNames(t *testing.T) {
	root := &Difference{
		Source1:     "a/hello.go",
		Source2:     "b/hello.go",
		UnifiedDiff: sampleDiff,
	}
	var buf bytes.Buffer
	_, err := Render(&buf, root, DefaultConfig(), nil, "diff")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "vs.")
}

func TestRenderComments(t *testing.T) {
	root := &Difference{
		Source1:  "hello.go",
		Source2:  "hello.go",
		Comments: []string{"first note", "second note"},
	}
	var buf bytes.Buffer
	_, err := Render(&buf, root, DefaultConfig(), nil, "hello.go")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<div class="comment">first note<br />second note</div>`)
}

func TestRenderNestedDifferences(t *testing.T) {
	root := &Difference{
		Source1: "archive.tar",
		Source2: "archive.tar",
		Details: []*Difference{
			{Source1: "archive.tar/hello.go", Source2: "archive.tar/hello.go", UnifiedDiff: sampleDiff},
		},
	}
	var buf bytes.Buffer
	results, err := Render(&buf, root, DefaultConfig(), nil, "archive.tar")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `name="archive.tar/hello.go"`)
	assert.Len(t, results, 1)
}

func TestRenderBlockLimitTruncatesOneTableButContinues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDiffBlockLines = 2 // one hunk-header row plus one content row

	root := &Difference{
		Source1:     "hello.go",
		Source2:     "hello.go",
		UnifiedDiff: sampleDiff,
		Details: []*Difference{
			{Source1: "other.go", Source2: "other.go", UnifiedDiff: sampleDiff},
		},
	}

	var buf bytes.Buffer
	results, err := Render(&buf, root, cfg, nil, "hello.go")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Max diff block lines reached")
	// both nodes rendered: the sibling detail wasn't abandoned.
	assert.Contains(t, out, `name="other.go"`)
	require.Len(t, results, 2)
	assert.True(t, results[0].Truncated)
}

func TestRenderPrintLimitStopsWholeDocument(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxReportSize = 10 // blown on the very first write

	root := &Difference{
		Source1:     "hello.go",
		Source2:     "hello.go",
		UnifiedDiff: sampleDiff,
	}

	var buf bytes.Buffer
	_, err := Render(&buf, root, cfg, nil, "hello.go")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `<div class="error">Max output size reached.</div>`)
}

func TestRenderDirectoryModeRotatesPages(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.MaxDiffBlockLinesParent = 1
	cfg.MaxDiffBlockLines = 1
	cfg.MaxDiffBlockLinesHTMLDirRatio = 100
	cfg.MaxReportChildSize = 1 << 20
	cfg.JqueryURL = "disable"

	root := &Difference{
		Source1:     "hello.go",
		Source2:     "hello.go",
		UnifiedDiff: sampleDiff,
	}

	var buf bytes.Buffer
	results, err := Render(&buf, root, cfg, DirWriter{Dir: dir}, "hello.go")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Greater(t, results[0].Pages, 0)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	firstChild := filepath.Join(dir, results[0].Mainname+"-1.html")
	data, err := os.ReadFile(firstChild)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")

	assert.Contains(t, buf.String(), "load diff")
}
