package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("curls.JPG"))
	assert.True(t, IsImageFile("/tmp/a/b.webp"))
	assert.False(t, IsImageFile("notes.txt"))
	assert.False(t, IsImageFile("jpeg"))
}

func TestFindImageFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"b.png",
		"a.jpeg",
		"readme.md",
		"nested/c.gif",
		".cache/d.jpg",
	} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	files, err := FindImageFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.jpeg"),
		filepath.Join(root, "b.png"),
		filepath.Join(root, "nested", "c.gif"),
	}, files)

	_, err = FindImageFiles(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
