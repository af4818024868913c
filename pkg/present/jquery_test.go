package present

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveJqueryURLRequestedWins(t *testing.T) {
	got := ResolveJqueryURL("https://cdn.example/jquery.js", nil, "")
	assert.Equal(t, "https://cdn.example/jquery.js", got)
}

func TestResolveJqueryURLDisablePassesThrough(t *testing.T) {
	got := ResolveJqueryURL("disable", nil, "")
	assert.Equal(t, "disable", got)
}

func TestResolveJqueryURLNoCandidateSymlinkDir(t *testing.T) {
	dir := t.TempDir()
	jq := filepath.Join(dir, "system-jquery.js")
	require.NoError(t, os.WriteFile(jq, []byte("/* jquery */"), 0o644))

	got := ResolveJqueryURL("", []string{jq}, "")
	assert.Equal(t, jq, got)
}

func TestResolveJqueryURLSymlinks(t *testing.T) {
	systemDir := t.TempDir()
	jq := filepath.Join(systemDir, "system-jquery.js")
	require.NoError(t, os.WriteFile(jq, []byte("/* jquery */"), 0o644))

	staticDir := t.TempDir()
	got := ResolveJqueryURL("", []string{jq}, staticDir)
	assert.Equal(t, "/static/jquery.js", got)

	link := filepath.Join(staticDir, "jquery.js")
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, jq, target)
}

func TestResolveJqueryURLNothingFound(t *testing.T) {
	got := ResolveJqueryURL("", []string{filepath.Join(t.TempDir(), "nope.js")}, "")
	assert.Equal(t, "", got)
}
