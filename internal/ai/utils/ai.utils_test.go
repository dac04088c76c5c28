package utils

import (
	"os"
	"path/filepath"
	"testing"

	"canvas_ai_server/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserMessage(t *testing.T) {
	files := types.FileSet{{Name: "index.html", Type: types.KindMarkup, Content: "<p>x</p>"}}
	msg := BuildUserMessage(files, "add a footer")
	assert.Equal(t, "Current files:\n\n===FILE:index.html===\n<p>x</p>\n===ENDFILE===\n\nInstruction: add a footer", msg)
}

func TestSaveFilesDisk(t *testing.T) {
	dir := t.TempDir()
	files := types.FileSet{
		{Name: "index.html", Content: "<p>x</p>"},
		{Name: "assets/app.js", Content: "go()"},
		{Name: "../escape.txt", Content: "nope"},
	}
	n, err := SaveFilesDisk(dir, files)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "assets", "app.js"))
	require.NoError(t, err)
	assert.Equal(t, "go()", string(data))

	// "../escape.txt" is cleaned to a path inside dir.
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
