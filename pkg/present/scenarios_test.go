package present

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// scenarioConfig holds the handful of knobs a golden scenario can
// override, read from a "config.txt" section of key=value lines.
type scenarioConfig struct {
	cfg                Config
	hasInternalLinenos bool
}

func parseScenarioConfig(data []byte) scenarioConfig {
	sc := scenarioConfig{cfg: DefaultConfig()}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch k {
		case "max_diff_block_lines":
			sc.cfg.MaxDiffBlockLines, _ = strconv.Atoi(v)
		case "max_diff_block_lines_parent":
			sc.cfg.MaxDiffBlockLinesParent, _ = strconv.Atoi(v)
		case "has_internal_linenos":
			sc.hasInternalLinenos = v == "true"
		}
	}
	return sc
}

// checkAssertion applies one line of a "contains.txt" section: a bare
// line must appear in out; a line prefixed "!" must not appear; a line
// prefixed "N:" must appear exactly N times.
func checkAssertion(t *testing.T, out, line string) {
	t.Helper()
	switch {
	case strings.HasPrefix(line, "!"):
		assert.NotContains(t, out, line[1:])
	default:
		if n, rest, ok := strings.Cut(line, ":"); ok {
			if count, err := strconv.Atoi(n); err == nil {
				assert.Equal(t, count, strings.Count(out, rest), "count of %q", rest)
				return
			}
		}
		assert.Contains(t, out, line)
	}
}

// runScenario renders the archive's diff.txt as the sole unified diff of
// a single Difference node and checks every non-empty line of
// contains.txt against the output, per spec.md §8's E1-E6 scenarios.
func runScenario(t *testing.T, path string) {
	t.Helper()
	ar, err := txtar.ParseFile(path)
	require.NoError(t, err)

	files := map[string][]byte{}
	for _, f := range ar.Files {
		files[f.Name] = f.Data
	}

	diffBody, ok := files["diff.txt"]
	require.True(t, ok, "scenario archive missing diff.txt")

	sc := scenarioConfig{cfg: DefaultConfig()}
	if cfgData, ok := files["config.txt"]; ok {
		sc = parseScenarioConfig(cfgData)
	}

	root := &Difference{
		Source1:     "a",
		Source2:     "b",
		UnifiedDiff: string(diffBody),
		HasInternalLinenos: sc.hasInternalLinenos,
	}

	var buf bytes.Buffer
	_, err = Render(&buf, root, sc.cfg, nil, "scenario")
	require.NoError(t, err)
	out := buf.String()

	wantLines, ok := files["contains.txt"]
	require.True(t, ok, "scenario archive missing contains.txt")
	for _, line := range strings.Split(string(wantLines), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		checkAssertion(t, out, line)
	}
}

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), ".txtar")
		t.Run(name, func(t *testing.T) {
			runScenario(t, p)
		})
	}
}

// TestScenarioE5Rotation covers spec.md §8's E5 separately from the
// generic contains.txt runner: it needs to inspect the rotated child
// file's content and its MD5-derived name, not just the parent page's
// text.
func TestScenarioE5Rotation(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/e5_rotation.txtar")
	require.NoError(t, err)

	var diffBody []byte
	for _, f := range ar.Files {
		if f.Name == "diff.txt" {
			diffBody = f.Data
		}
	}
	require.NotNil(t, diffBody)

	cfg := DefaultConfig()
	cfg.MaxDiffBlockLinesParent = 1
	cfg.MaxDiffBlockLines = 1
	cfg.MaxDiffBlockLinesHTMLDirRatio = 100
	cfg.JqueryURL = "disable"

	dir := t.TempDir()
	root := &Difference{Source1: "a", Source2: "b", UnifiedDiff: string(diffBody)}

	var buf bytes.Buffer
	results, err := Render(&buf, root, cfg, DirWriter{Dir: dir}, "scenario")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Greater(t, results[0].Pages, 0)

	wantMainname := md5Hex(string(diffBody))
	assert.Equal(t, wantMainname, results[0].Mainname)

	childPath := filepath.Join(dir, wantMainname+"-1.html")
	data, err := os.ReadFile(childPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")

	assert.Contains(t, buf.String(), wantMainname+"-1.html")
}
