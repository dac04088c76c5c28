package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"canvas_ai_server/internal/ai/prompts"
	"canvas_ai_server/internal/sitefiles"
	"canvas_ai_server/internal/types"
)

// BuildUserMessage serializes the current files in the wire format and
// appends the instruction, producing the user turn of a generation call.
func BuildUserMessage(files types.FileSet, instruction string) string {
	return prompts.GetUserMessage(sitefiles.Format(files), instruction)
}

// SaveFilesDisk writes every file under dir. Names that would escape dir are skipped.
func SaveFilesDisk(dir string, files types.FileSet) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve output dir: %w", err)
	}

	filesCount := 0
	for _, f := range files {
		filePath := filepath.Join(root, filepath.Clean("/"+f.Name))
		if !strings.HasPrefix(filePath, root+string(filepath.Separator)) {
			log.Printf("WARN: skipping file with unsafe name %q", f.Name)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
			return filesCount, fmt.Errorf("failed to create directory for %s: %w", f.Name, err)
		}
		if err := os.WriteFile(filePath, []byte(f.Content), 0o644); err != nil {
			return filesCount, fmt.Errorf("failed to write file %s: %w", f.Name, err)
		}
		filesCount++
	}
	return filesCount, nil
}
