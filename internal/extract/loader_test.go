package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDirReadsTextFilesInPathOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second document")
	writeFile(t, dir, "a.md", "first document")
	writeFile(t, dir, "ignored.bin", "binary junk")

	docs, err := NewLoader(nil).LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "first document", docs[0].Content)
	assert.Equal(t, "second document", docs[1].Content)
	assert.Equal(t, filepath.Join(dir, "a.md"), docs[0].Path)
	assert.NotEmpty(t, docs[0].ID)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
}

func TestLoadDirStableIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "content")

	first, err := NewLoader(nil).LoadDir(dir)
	require.NoError(t, err)
	second, err := NewLoader(nil).LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID, "document ids are stable across runs")
}

func TestLoadDirEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ignored.bin", "binary junk")

	_, err := NewLoader(nil).LoadDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	_, err := NewLoader(nil).LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
