// Package templates holds the one html/template view that sits outside
// the unified-diff presenter: the upload form shown to browsers hitting
// "/". The diff report itself is emitted incrementally by pkg/present,
// which does not use html/template (see that package's doc comment for
// why a streaming presenter can't be expressed as one template).
package templates

import (
	"embed"
	"html/template"
)

var (
	Templates = template.Must(
		template.New("").ParseFS(templateFS, "*.tmpl"),
	)
	//go:embed *.tmpl
	templateFS embed.FS
)

// IndexData is passed to index.tmpl.
type IndexData struct {
	PublicURL string
}
