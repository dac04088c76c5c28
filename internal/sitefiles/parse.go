// Package sitefiles converts between the delimited multi-file text produced by
// the model, the structured FileSet, and the single composed preview document.
package sitefiles

import (
	"regexp"
	"strings"

	"canvas_ai_server/internal/types"
	"canvas_ai_server/internal/utils"
)

const (
	fileOpenPrefix = "===FILE:"
	fileOpenSuffix = "==="
	fileClose      = "===ENDFILE==="
	docMarker      = "<!DOCTYPE"
)

var completeFileRe = regexp.MustCompile(`(?s)===FILE:([^=]+)===(.*?)===ENDFILE===`)

// ParseFiles extracts every complete FILE/ENDFILE region from raw.
// A trailing region whose end marker has not arrived yet is left out.
// When no region is found and raw is a bare HTML document, it becomes index.html.
// When a name repeats, the last content wins and keeps the first position.
func ParseFiles(raw string) types.FileSet {
	files := scan(raw)
	if len(files) == 0 {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, docMarker) {
			files = append(files, types.ParsedFile{
				Name:    types.IndexFile,
				Type:    types.KindMarkup,
				Content: trimmed,
			})
		}
	}
	return files
}

func scan(raw string) types.FileSet {
	files := types.FileSet{}
	if raw == "" {
		return files
	}
	index := make(map[string]int)
	for _, m := range completeFileRe.FindAllStringSubmatch(raw, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		f := types.ParsedFile{
			Name:    name,
			Type:    utils.KindForFilename(name),
			Content: strings.TrimSpace(m[2]),
		}
		if i, ok := index[name]; ok {
			files[i] = f
			continue
		}
		index[name] = len(files)
		files = append(files, f)
	}
	return files
}

// Format renders files back into the delimited wire format.
func Format(files types.FileSet) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fileOpenPrefix+f.Name+fileOpenSuffix+"\n"+f.Content+"\n"+fileClose)
	}
	return strings.Join(parts, "\n\n")
}
