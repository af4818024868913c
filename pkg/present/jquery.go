package present

import (
	"log"
	"os"
	"path/filepath"
)

// defaultJqueryCandidates mirrors the fixed list of system locations
// the reference presenter searches when -jquery-url is left unset.
// Debian/Ubuntu's libjs-jquery package installs to the first entry.
var defaultJqueryCandidates = []string{
	"/usr/share/javascript/jquery/jquery.js",
	"/usr/share/javascript/jquery/jquery.min.js",
}

// ResolveJqueryURL implements §6's jQuery discovery fallback: when
// requested is empty, it searches candidates (defaultJqueryCandidates
// if nil) for the first file that exists, symlinks it into symlinkDir
// under "jquery.js" and returns the URL the client script should load
// it from; when nothing is found, the on-demand script is disabled (an
// empty string is returned, with a warning logged, exactly as the
// reference silently disables the feature rather than failing the
// render). The literal "disable" is passed through unchanged so callers
// can tell the feature was explicitly turned off rather than merely
// unresolved.
func ResolveJqueryURL(requested string, candidates []string, symlinkDir string) string {
	if requested != "" {
		return requested
	}
	if candidates == nil {
		candidates = defaultJqueryCandidates
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err != nil {
			continue
		}
		if symlinkDir == "" {
			return c
		}
		dst := filepath.Join(symlinkDir, "jquery.js")
		_ = os.Remove(dst)
		if err := os.Symlink(c, dst); err != nil {
			log.Printf("present: could not symlink jquery from %s: %v", c, err)
			continue
		}
		return "/static/jquery.js"
	}

	log.Printf("present: no jquery found among %v, disabling on-demand loading", candidates)
	return ""
}
