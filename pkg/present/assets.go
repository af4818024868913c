package present

import (
	_ "embed"
	"fmt"
	"html"
	"strings"
)

// rawFaviconBase64 is a 1x1 opaque black PNG, embedded the same way the
// reference presenter ships a fixed favicon: as a base64 data URI in
// the <head>, no separate request required.
//
//go:embed assets/favicon.b64
var rawFaviconBase64 string

var faviconBase64 = strings.TrimSpace(rawFaviconBase64)

const version = "diffy-present/1"

const stylesheet = `
body { font-family: sans-serif; font-size: 0.8em; }
.difference { border: 1px solid #888; margin: 1em 0; padding: 0 0.5em; }
.diffheader { background: #eee; padding: 0.3em 0.5em; }
.diffheader .source { font-weight: bold; font-family: monospace; }
.diffheader .anchor { float: right; text-decoration: none; visibility: hidden; }
.diffheader:hover .anchor { visibility: visible; }
.comment { font-style: italic; padding: 0.2em 0.5em; }
table.diff { border-collapse: collapse; width: 100%; table-layout: fixed; }
table.diff td { vertical-align: top; font-family: monospace; white-space: pre-wrap;
  word-wrap: break-word; padding: 0 0.3em; }
td.diffline { width: 3em; text-align: right; color: #888; user-select: none; }
tr.diffhunk td { background: #e4e4ff; font-weight: bold; }
tr.diffunmodified td.diffpresent { background: #fff; }
tr.diffadded td.diffpresent { background: #cfc; }
tr.diffdeleted td.diffpresent { background: #fcc; }
tr.diffchanged td.diffpresent { background: #ffc; }
tr.diffchanged del { background: #faa; text-decoration: none; }
tr.diffchanged ins { background: #afa; text-decoration: none; }
tr.ondemand td { text-align: center; background: #eef; }
tr.error td { background: #fcc; font-weight: bold; }
span.diffponct { color: #888; }
div.error { border: 2px solid red; background: #fcc; padding: 0.5em; margin: 1em 0; font-weight: bold; }
div.footer { color: #888; font-size: 0.9em; margin-top: 1em; }
`

// headerHTML emits the fixed HTML5 preamble shared by the parent
// document and every rotated child page (§4.5: each child page opens
// with "the report header (same CSS link)").
func headerHTML(cfg Config, title string) string {
	cssLink := ""
	if cfg.CSSURL != "" {
		cssLink = fmt.Sprintf(`<link rel="stylesheet" href="%s" />`+"\n", html.EscapeString(cfg.CSSURL))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>%s</title>
<link rel="icon" href="data:image/png;base64,%s" />
%s<style type="text/css">%s</style>
</head>
<body>
`, html.EscapeString(title), faviconBase64, cssLink, stylesheet)
}

// footerHTML closes the document body/html and whatever child page is
// currently open, in both cases leaving a trailing version string.
func footerHTML(cfg Config) string {
	return fmt.Sprintf(`<div class="footer">Generated by %s</div>
</body>
</html>
`, html.EscapeString(version))
}

// onDemandScript is the client-side loader appended once, in directory
// mode, after the whole difference tree has rendered. It binds a click
// handler to every ".ondemand" row: clicking fetches the linked child
// file, splices its <tr> elements in place of the placeholder row, and
// rebinds the same handler to the new trailing on-demand row (if any),
// decrementing the displayed piece count — see §4.6.
const onDemandScript = `<script type="text/javascript">
(function($) {
  function bind(row) {
    row.find("a").on("click", function(ev) {
      ev.preventDefault();
      var href = $(this).attr("href");
      var text = $(this).text();
      $.get(href, function(html) {
        var doc = $("<div>").html(html);
        var rows = doc.find("table.diff tr");
        row.replaceWith(rows);
        var next = rows.filter(".ondemand");
        if (next.length) {
          bind(next);
          var m = text.match(/\((\d+) (piece|pieces)/);
          if (m) {
            next.find("a").text(text.replace(/\d+ (piece|pieces)/,
              (m[1] - 1) + " " + (m[1] - 1 == 1 ? "piece" : "pieces")));
          }
        }
      });
    });
  }
  $(document).ready(function() {
    $("tr.ondemand").each(function() { bind($(this)); });
  });
})(jQuery);
</script>
`
