package sitefiles

import "canvas_ai_server/internal/types"

const initialHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Canvas</title>
</head>
<body>
  <p>Waiting for the first build to start...</p>
</body>
</html>`

const initialCSS = `* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  min-height: 100vh;
  font-family: system-ui, sans-serif;
  background: #ffffff;
  display: flex;
  align-items: center;
  justify-content: center;
  color: #999;
}`

const initialJS = `// JavaScript will appear here`

// InitialFiles is the synthetic version-0 FileSet. A fresh slice is returned
// on every call so callers may modify it.
func InitialFiles() types.FileSet {
	return types.FileSet{
		{Name: types.IndexFile, Type: types.KindMarkup, Content: initialHTML},
		{Name: types.StyleFile, Type: types.KindStyle, Content: initialCSS},
		{Name: types.ScriptFile, Type: types.KindScript, Content: initialJS},
	}
}

// InitialPreview is the composed document for InitialFiles. It is also the
// fallback rendered when a build produced no markup file.
func InitialPreview() string {
	return Compose(InitialFiles(), initialHTML)
}
