package conversion

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
)

// PageResult holds the output of rendering and link extraction for one page.
type PageResult struct {
	PageNum   int
	ImagePath string // relative: <docID>/page_<n>.jpg
	Width     int
	Height    int
	Links     []Link
}

// Result is the structured output of converting an entire PDF.
type Result struct {
	DocID     string
	PageCount int
	Pages     []PageResult
}

// Converter turns a stored PDF into per-page JPEG images plus extracted
// hyperlink annotations. It is safe for concurrent use; each call opens its
// own document handles.
type Converter struct {
	renderer *Renderer
}

func NewConverter(renderer *Renderer) *Converter {
	return &Converter{renderer: renderer}
}

// Convert renders every page of the PDF at pdfPath into pagesDir and extracts
// its link annotations. Page numbering is 1-based and contiguous. A failure
// to open the document or any per-page failure is terminal: no partial
// document is reported, and the returned error is always a *Error so callers
// can classify it.
func (c *Converter) Convert(ctx context.Context, pdfPath, docID, pagesDir string) (*Result, error) {
	doc, err := openDocument(pdfPath)
	if err != nil {
		return nil, NewError("unable to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, NewError("PDF has no pages", nil)
	}

	index, err := openLinkIndex(pdfPath)
	if err != nil {
		return nil, NewError("unable to read PDF annotations", err)
	}
	defer index.Close()

	pages := make([]PageResult, 0, pageCount)
	for idx := 0; idx < pageCount; idx++ {
		select {
		case <-ctx.Done():
			return nil, NewError("conversion aborted", ctx.Err())
		default:
		}

		pageNum := idx + 1
		imageName := PageImageName(pageNum)

		width, height, err := c.renderer.RenderPage(doc, idx, filepath.Join(pagesDir, imageName))
		if err != nil {
			return nil, NewError(fmt.Sprintf("failed to render page %d", pageNum), err)
		}

		links, err := index.PageLinks(pageNum)
		if err != nil {
			return nil, NewError(fmt.Sprintf("failed to extract links from page %d", pageNum), err)
		}

		pages = append(pages, PageResult{
			PageNum:   pageNum,
			ImagePath: docID + "/" + imageName,
			Width:     width,
			Height:    height,
			Links:     links,
		})
	}

	log.Printf("INFO (Converter): Converted document %s: %d pages rendered.", docID, pageCount)
	return &Result{DocID: docID, PageCount: pageCount, Pages: pages}, nil
}
