package conversion

import (
	"fmt"
	"math"
	"os"

	"github.com/ledongthuc/pdf"
)

// Link is one hyperlink annotation extracted from a page, with its bounding
// rectangle normalized to top-left-origin page coordinates (PDF points) and
// rounded to 2 decimal places.
type Link struct {
	URL     string  `json:"url"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	PageNum int     `json:"page_number"`
}

// linkIndex enumerates link annotations per page. Swappable in tests.
type linkIndex interface {
	PageLinks(pageNum int) ([]Link, error)
	Close() error
}

var openLinkIndex = func(path string) (ix linkIndex, err error) {
	// The pdf library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			ix = nil
			err = fmt.Errorf("malformed PDF structure: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &pdfLinkIndex{file: f, reader: reader}, nil
}

// pdfLinkIndex walks the Annots array of each page dictionary.
type pdfLinkIndex struct {
	file   *os.File
	reader *pdf.Reader
}

func (ix *pdfLinkIndex) Close() error {
	return ix.file.Close()
}

// PageLinks returns the page's Link annotations that carry a URI action, in
// source order. Annotations without a URI (internal page jumps etc.) are
// silently skipped. An empty result is valid and common.
func (ix *pdfLinkIndex) PageLinks(pageNum int) (links []Link, err error) {
	// Malformed annotation streams can panic inside the pdf library.
	defer func() {
		if r := recover(); r != nil {
			links = nil
			err = fmt.Errorf("malformed annotations on page %d: %v", pageNum, r)
		}
	}()

	page := ix.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found in document", pageNum)
	}

	annots := page.V.Key("Annots")
	if annots.IsNull() || annots.Kind() != pdf.Array {
		return links, nil
	}

	mediaBox, ok := pageMediaBox(page.V)
	if !ok {
		return nil, fmt.Errorf("page %d has no resolvable MediaBox", pageNum)
	}

	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.IsNull() || annot.Key("Subtype").Name() != "Link" {
			continue
		}

		uri := annot.Key("A").Key("URI")
		if uri.IsNull() || uri.Kind() != pdf.String || uri.RawString() == "" {
			continue
		}

		rect, ok := rectValues(annot.Key("Rect"))
		if !ok {
			continue
		}

		x, y, w, h := normalizeLinkRect(mediaBox, rect)
		links = append(links, Link{
			URL:     uri.RawString(),
			X:       x,
			Y:       y,
			Width:   w,
			Height:  h,
			PageNum: pageNum,
		})
	}
	return links, nil
}

// pageMediaBox resolves the page's MediaBox, walking the Parent chain since
// the attribute is inheritable in the page tree.
func pageMediaBox(pageDict pdf.Value) ([4]float64, bool) {
	node := pageDict
	for depth := 0; depth < 32 && !node.IsNull(); depth++ {
		if box, ok := rectValues(node.Key("MediaBox")); ok {
			return box, true
		}
		node = node.Key("Parent")
	}
	return [4]float64{}, false
}

func rectValues(v pdf.Value) ([4]float64, bool) {
	if v.IsNull() || v.Kind() != pdf.Array || v.Len() < 4 {
		return [4]float64{}, false
	}
	var rect [4]float64
	for i := 0; i < 4; i++ {
		rect[i] = v.Index(i).Float64()
	}
	return rect, true
}

// normalizeLinkRect converts a PDF rectangle (bottom-left origin, arbitrary
// corner order) into top-left-origin page coordinates relative to the
// MediaBox, rounded to 2 decimal places.
func normalizeLinkRect(mediaBox, rect [4]float64) (x, y, w, h float64) {
	x0 := math.Min(rect[0], rect[2])
	x1 := math.Max(rect[0], rect[2])
	y0 := math.Min(rect[1], rect[3])
	y1 := math.Max(rect[1], rect[3])

	left := math.Min(mediaBox[0], mediaBox[2])
	top := math.Max(mediaBox[1], mediaBox[3])

	return round2(x0 - left), round2(top - y1), round2(x1 - x0), round2(y1 - y0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
