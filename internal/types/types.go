package types

import "time"

// FileKind classifies a generated file by what the preview does with it.
type FileKind string

const (
	KindMarkup FileKind = "html"
	KindStyle  FileKind = "css"
	KindScript FileKind = "js"
)

// Canonical file names every completed build is expected to contain.
const (
	IndexFile  = "index.html"
	StyleFile  = "styles.css"
	ScriptFile = "script.js"
)

// ParsedFile is one named file extracted from a model response.
type ParsedFile struct {
	Name    string   `json:"name"`
	Type    FileKind `json:"type"`
	Content string   `json:"content"`
}

// FileSet is an ordered collection of files, at most one per name.
type FileSet []ParsedFile

// Get returns the file with the given name.
func (fs FileSet) Get(name string) (ParsedFile, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return ParsedFile{}, false
}

func (fs FileSet) Names() []string {
	names := make([]string, 0, len(fs))
	for _, f := range fs {
		names = append(names, f.Name)
	}
	return names
}

// PageVersion is one immutable persisted build result.
// Version 0 is the synthetic state returned when nothing has been built yet.
type PageVersion struct {
	Version     int       `json:"version"`
	Content     string    `json:"content"` // composed preview HTML
	Files       FileSet   `json:"files"`
	Instruction string    `json:"instruction"`
	CreatedAt   time.Time `json:"created_at"`
}
