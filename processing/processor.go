package processing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/openflip/openflip/conversion"
	"github.com/openflip/openflip/models"
)

// PDFConverter converts a stored PDF into page images and extracted links.
type PDFConverter interface {
	Convert(ctx context.Context, pdfPath, docID, pagesDir string) (*conversion.Result, error)
}

// FileStore is the durable storage surface the processor needs: saving the
// raw PDF, preparing the per-document page directory, and best-effort removal
// of everything written for a document.
type FileStore interface {
	SavePDF(docID string, content []byte) (string, error)
	CreatePagesDir(docID string) (string, error)
	RemoveFlipbookFiles(docID, pdfPath string)
}

// FlipbookStore persists and deletes the flipbook graph.
type FlipbookStore interface {
	CreateFlipbookGraph(ctx context.Context, flipbook *models.Flipbook, pages []models.Page) error
	GetFlipbook(ctx context.Context, id string) (*models.Flipbook, error)
	DeleteFlipbook(ctx context.Context, id string) error
}

// FlipbookProcessor orchestrates the conversion pipeline: persist the upload,
// render on the worker pool, map the result into the relational store, and
// clean up partial state on any failure past the initial save.
type FlipbookProcessor struct {
	Files     FileStore
	Converter PDFConverter
	Store     FlipbookStore
	Pool      *Pool
}

func NewFlipbookProcessor(files FileStore, converter PDFConverter, store FlipbookStore, pool *Pool) *FlipbookProcessor {
	return &FlipbookProcessor{
		Files:     files,
		Converter: converter,
		Store:     store,
		Pool:      pool,
	}
}

// ProcessUpload converts raw PDF bytes into a persisted flipbook. The source
// PDF is written before any parsing so cleanup can locate it by deterministic
// path even when conversion later fails. Conversion runs on the bounded
// worker pool; pool saturation surfaces as ErrQueueFull. Every failure after
// the PDF is saved triggers cleanup before the error is returned, and errors
// that are not already conversion errors are wrapped as such with the cause
// preserved.
func (p *FlipbookProcessor) ProcessUpload(ctx context.Context, content []byte, filename, customTitle string) (*models.FlipbookSummary, error) {
	docID := uuid.NewString()

	pdfPath, err := p.Files.SavePDF(docID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save uploaded PDF: %w", err)
	}

	summary, err := p.convertAndPersist(ctx, docID, pdfPath, filename, customTitle)
	if err != nil {
		p.Files.RemoveFlipbookFiles(docID, pdfPath)
		return nil, err
	}
	return summary, nil
}

func (p *FlipbookProcessor) convertAndPersist(ctx context.Context, docID, pdfPath, filename, customTitle string) (*models.FlipbookSummary, error) {
	pagesDir, err := p.Files.CreatePagesDir(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pages directory for %s: %w", docID, err)
	}

	var result *conversion.Result
	err = p.Pool.Submit(ctx, func(taskCtx context.Context) error {
		converted, convErr := p.Converter.Convert(taskCtx, pdfPath, docID, pagesDir)
		if convErr != nil {
			return convErr
		}
		result = converted
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			return nil, err
		}
		if _, ok := conversion.AsError(err); ok {
			return nil, err
		}
		return nil, conversion.NewError("unexpected conversion failure", err)
	}

	now := time.Now().UTC()
	flipbook := &models.Flipbook{
		ID:         docID,
		Title:      conversion.DeriveTitle(customTitle, filename),
		PDFPath:    pdfPath,
		Style:      map[string]any{},
		ShareToken: uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	pages := buildPageGraph(flipbook.ID, result)
	if err := p.Store.CreateFlipbookGraph(ctx, flipbook, pages); err != nil {
		return nil, conversion.NewError("failed to persist converted document", err)
	}

	log.Printf("INFO (FlipbookProcessor): Created flipbook %s (%q, %d pages)", flipbook.ID, flipbook.Title, result.PageCount)
	return &models.FlipbookSummary{
		ID:        flipbook.ID,
		Title:     flipbook.Title,
		Pages:     result.PageCount,
		Thumbnail: ThumbnailPath(flipbook.ID),
		CreatedAt: flipbook.CreatedAt,
		UpdatedAt: flipbook.UpdatedAt,
	}, nil
}

// buildPageGraph maps the conversion result into Page rows with link-type
// widgets: props {url, target: "_blank"}, geometry from the extracted
// rectangle, z-index 0.
func buildPageGraph(flipbookID string, result *conversion.Result) []models.Page {
	pages := make([]models.Page, 0, len(result.Pages))
	for _, pr := range result.Pages {
		page := models.Page{
			ID:         uuid.NewString(),
			FlipbookID: flipbookID,
			PageNum:    pr.PageNum,
			ImagePath:  pr.ImagePath,
			Width:      pr.Width,
			Height:     pr.Height,
		}
		for _, link := range pr.Links {
			page.Widgets = append(page.Widgets, models.Widget{
				ID:     uuid.NewString(),
				PageID: page.ID,
				Type:   models.WidgetTypeLink,
				Props: map[string]any{
					"url":    link.URL,
					"target": "_blank",
				},
				Geometry: map[string]float64{
					models.GeometryX:      link.X,
					models.GeometryY:      link.Y,
					models.GeometryWidth:  link.Width,
					models.GeometryHeight: link.Height,
				},
				ZIndex: 0,
			})
		}
		pages = append(pages, page)
	}
	return pages
}

// DeleteFlipbook removes the document's database rows (cascading to pages and
// widgets) and then its files. Deleting an unknown id reports sql.ErrNoRows.
func (p *FlipbookProcessor) DeleteFlipbook(ctx context.Context, id string) error {
	flipbook, err := p.Store.GetFlipbook(ctx, id)
	if err != nil {
		return err
	}
	if err := p.Store.DeleteFlipbook(ctx, id); err != nil {
		return err
	}
	p.Files.RemoveFlipbookFiles(id, flipbook.PDFPath)
	return nil
}

// ThumbnailPath is the API path of a flipbook's first page image.
func ThumbnailPath(flipbookID string) string {
	return fmt.Sprintf("/api/flipbooks/%s/pages/1/image", flipbookID)
}
