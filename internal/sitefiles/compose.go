package sitefiles

import (
	"strings"

	"canvas_ai_server/internal/types"
)

const (
	headClose = "</head>"
	bodyClose = "</body>"
)

// Compose merges the markup, style and script files into one renderable
// document. Without an index.html it returns fallback unchanged.
func Compose(files types.FileSet, fallback string) string {
	markup, ok := files.Get(types.IndexFile)
	if !ok {
		return fallback
	}
	html := markup.Content

	if css, ok := files.Get(types.StyleFile); ok && strings.TrimSpace(css.Content) != "" {
		tag := "<style>\n" + css.Content + "\n</style>"
		if strings.Contains(html, headClose) {
			html = strings.Replace(html, headClose, tag+"\n"+headClose, 1)
		} else {
			html = tag + "\n" + html
		}
	}

	if js, ok := files.Get(types.ScriptFile); ok && strings.TrimSpace(js.Content) != "" {
		tag := "<script>\n" + js.Content + "\n</script>"
		if strings.Contains(html, bodyClose) {
			html = strings.Replace(html, bodyClose, tag+"\n"+bodyClose, 1)
		} else {
			html = html + "\n" + tag
		}
	}

	return html
}
