package conversion

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"

	fitz "github.com/gen2brain/go-fitz"
)

const (
	// DefaultDPI is the rendering resolution. PDF's native unit is 72 points
	// per inch, so the renderer scales by DPI/72.
	DefaultDPI = 150

	// DefaultQuality is the JPEG compression quality on a 0-100 scale.
	DefaultQuality = 85

	// PageImageExt is the extension of rendered page images.
	PageImageExt = ".jpg"
)

// Document is the subset of go-fitz's document used by the renderer.
// It exists so tests can substitute a fake without real PDF input.
type Document interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (image.Image, error)
	Close() error
}

// fitzDocument adapts *fitz.Document to the Document interface: go-fitz's
// ImageDPI returns the concrete *image.RGBA rather than image.Image.
type fitzDocument struct {
	*fitz.Document
}

func (d fitzDocument) ImageDPI(pageNumber int, dpi float64) (image.Image, error) {
	return d.Document.ImageDPI(pageNumber, dpi)
}

// openDocument opens a PDF for rasterization. Swappable in tests.
var openDocument = func(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDocument{doc}, nil
}

// Renderer rasterizes single PDF pages to compressed JPEG files.
type Renderer struct {
	dpi     int
	quality int
}

// NewRenderer constructs a Renderer. Non-positive dpi or quality fall back to
// the defaults.
func NewRenderer(dpi, quality int) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	return &Renderer{dpi: dpi, quality: quality}
}

// PageImageName returns the deterministic file name for a rendered page.
func PageImageName(pageNum int) string {
	return fmt.Sprintf("page_%d%s", pageNum, PageImageExt)
}

// RenderPage rasterizes one page (0-based index into doc) at the configured
// DPI, encodes it as JPEG at the configured quality and writes it to outPath.
// It returns the pixel dimensions actually produced. Any failure propagates;
// there is no retry.
func (r *Renderer) RenderPage(doc Document, pageIdx int, outPath string) (width, height int, err error) {
	img, err := doc.ImageDPI(pageIdx, float64(r.dpi))
	if err != nil {
		return 0, 0, fmt.Errorf("rasterize page %d: %w", pageIdx+1, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, 0, fmt.Errorf("create page image %s: %w", outPath, err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return 0, 0, fmt.Errorf("encode page image %s: %w", outPath, err)
	}

	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}
