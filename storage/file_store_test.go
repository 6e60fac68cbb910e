package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal JPEG header so media type detection sees a real image.
var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestSavePDFAndRemove(t *testing.T) {
	store, err := NewFlipbookFileStore(t.TempDir())
	require.NoError(t, err)

	pdfPath, err := store.SavePDF("doc-1", []byte("%PDF-1.7 content"))
	require.NoError(t, err)

	content, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 content", string(content))

	store.RemoveFlipbookFiles("doc-1", pdfPath)
	_, err = os.Stat(pdfPath)
	assert.True(t, os.IsNotExist(err))
}

func TestPageImageRoundTrip(t *testing.T) {
	store, err := NewFlipbookFileStore(t.TempDir())
	require.NoError(t, err)

	pagesDir, err := store.CreatePagesDir("doc-2")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pagesDir, "page_1.jpg"), jpegBytes, 0o644))

	content, mediaType, err := store.PageImage("doc-2", "page_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, jpegBytes, content)
	assert.Equal(t, "image/jpeg", mediaType)
}

func TestPageImageMissingSurfacesNotExist(t *testing.T) {
	store, err := NewFlipbookFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.PageImage("no-such-doc", "page_1.jpg")
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveFlipbookFilesIsIdempotent(t *testing.T) {
	store, err := NewFlipbookFileStore(t.TempDir())
	require.NoError(t, err)

	pdfPath, err := store.SavePDF("doc-3", []byte("%PDF"))
	require.NoError(t, err)
	pagesDir, err := store.CreatePagesDir("doc-3")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(pagesDir, "page_1.jpg"), jpegBytes, 0o644))

	// Removing twice must not panic or error; absent paths are fine.
	store.RemoveFlipbookFiles("doc-3", pdfPath)
	store.RemoveFlipbookFiles("doc-3", pdfPath)

	_, err = os.Stat(pagesDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(pdfPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveFlipbookFilesDefaultsPDFPath(t *testing.T) {
	store, err := NewFlipbookFileStore(t.TempDir())
	require.NoError(t, err)

	pdfPath, err := store.SavePDF("doc-4", []byte("%PDF"))
	require.NoError(t, err)

	// Empty pdfPath falls back to the deterministic uploads path.
	store.RemoveFlipbookFiles("doc-4", "")
	_, err = os.Stat(pdfPath)
	assert.True(t, os.IsNotExist(err))
}
