package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

const (
	uploadsSubdir = "uploads"
	pagesSubdir   = "pages"
)

// FlipbookFileStore lays out durable state on the local file system: one
// source PDF per document under the uploads area and one directory of
// sequentially numbered page images per document under the pages area. All
// paths are keyed by the document id, so cross-document writes never collide.
type FlipbookFileStore struct {
	uploadsDir string
	pagesDir   string
}

// NewFlipbookFileStore creates the uploads and pages areas under baseDir.
func NewFlipbookFileStore(baseDir string) (*FlipbookFileStore, error) {
	s := &FlipbookFileStore{
		uploadsDir: filepath.Join(baseDir, uploadsSubdir),
		pagesDir:   filepath.Join(baseDir, pagesSubdir),
	}
	for _, dir := range []string{s.uploadsDir, s.pagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// SavePDF writes the raw upload to uploads/<docID>.pdf and returns the path.
func (s *FlipbookFileStore) SavePDF(docID string, content []byte) (string, error) {
	pdfPath := filepath.Join(s.uploadsDir, docID+".pdf")
	if err := os.WriteFile(pdfPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write PDF %s: %w", pdfPath, err)
	}
	return pdfPath, nil
}

// CreatePagesDir creates the per-document directory for rendered page images.
func (s *FlipbookFileStore) CreatePagesDir(docID string) (string, error) {
	dir := filepath.Join(s.pagesDir, docID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create pages directory %s: %w", dir, err)
	}
	return dir, nil
}

// PageImage reads a stored page image and detects its media type from the
// bytes, so legacy images with other encodings still serve correctly.
// A missing file surfaces as os.ErrNotExist.
func (s *FlipbookFileStore) PageImage(docID string, imageName string) ([]byte, string, error) {
	path := filepath.Join(s.pagesDir, docID, imageName)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return content, mimetype.Detect(content).String(), nil
}

// RemoveFlipbookFiles removes the per-document page directory and the source
// PDF. It is idempotent (absent paths are not errors) and best-effort:
// failures are logged, never returned, so they cannot mask the error that
// triggered cleanup.
func (s *FlipbookFileStore) RemoveFlipbookFiles(docID, pdfPath string) {
	pagesDir := filepath.Join(s.pagesDir, docID)
	if err := os.RemoveAll(pagesDir); err != nil {
		log.Printf("WARN (FlipbookFileStore): Failed to remove pages directory %s: %v", pagesDir, err)
	}

	if pdfPath == "" {
		pdfPath = filepath.Join(s.uploadsDir, docID+".pdf")
	}
	if err := os.Remove(pdfPath); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN (FlipbookFileStore): Failed to remove PDF %s: %v", pdfPath, err)
	}
}
