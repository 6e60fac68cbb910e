package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/openflip/openflip/models"
)

// FlipbookRepository handles database operations for flipbooks and their
// owned pages and widgets.
type FlipbookRepository struct {
	db *sql.DB
}

// NewFlipbookRepository creates a new FlipbookRepository.
func NewFlipbookRepository(db *sql.DB) *FlipbookRepository {
	return &FlipbookRepository{db: db}
}

// CreateFlipbookGraph inserts one flipbook row, one page row per rendered
// page and one widget row per page widget, all in a single transaction.
// Either all rows commit or none do.
func (r *FlipbookRepository) CreateFlipbookGraph(ctx context.Context, flipbook *models.Flipbook, pages []models.Page) error {
	if _, err := uuid.Parse(flipbook.ID); err != nil {
		return fmt.Errorf("invalid flipbook ID format: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO flipbooks (id, title, pdf_path, style_json, share_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, flipbook.ID, flipbook.Title, flipbook.PDFPath, models.EncodeJSONMap(flipbook.Style),
		flipbook.ShareToken, flipbook.CreatedAt, flipbook.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert flipbook %s: %w", flipbook.ID, err)
	}

	for i := range pages {
		page := &pages[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pages (id, flipbook_id, page_num, image_path, width, height)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, page.ID, flipbook.ID, page.PageNum, page.ImagePath, page.Width, page.Height)
		if err != nil {
			return fmt.Errorf("failed to insert page %d of flipbook %s: %w", page.PageNum, flipbook.ID, err)
		}

		for j := range page.Widgets {
			if err := insertWidget(ctx, tx, &page.Widgets[j]); err != nil {
				return fmt.Errorf("failed to insert widget on page %d of flipbook %s: %w", page.PageNum, flipbook.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flipbook graph for %s: %w", flipbook.ID, err)
	}
	return nil
}

func insertWidget(ctx context.Context, tx *sql.Tx, w *models.Widget) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO widgets (id, page_id, type, props_json, geometry_json, z_index)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, w.ID, w.PageID, string(w.Type), models.EncodeJSONMap(w.Props), models.EncodeJSONMap(w.Geometry), w.ZIndex)
	return err
}

// GetFlipbook retrieves a flipbook row by ID. A missing row surfaces as
// sql.ErrNoRows so callers can map it to not-found.
func (r *FlipbookRepository) GetFlipbook(ctx context.Context, id string) (*models.Flipbook, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid flipbook ID format: %w", err)
	}
	return r.scanFlipbook(r.db.QueryRowContext(ctx, `
		SELECT id, title, pdf_path, style_json, share_token, created_at, updated_at
		FROM flipbooks
		WHERE id = $1
	`, id))
}

// GetFlipbookByShareToken retrieves a flipbook by its public share token.
func (r *FlipbookRepository) GetFlipbookByShareToken(ctx context.Context, token string) (*models.Flipbook, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, fmt.Errorf("invalid share token format: %w", err)
	}
	return r.scanFlipbook(r.db.QueryRowContext(ctx, `
		SELECT id, title, pdf_path, style_json, share_token, created_at, updated_at
		FROM flipbooks
		WHERE share_token = $1
	`, token))
}

func (r *FlipbookRepository) scanFlipbook(row *sql.Row) (*models.Flipbook, error) {
	var fb models.Flipbook
	var styleJSON string
	err := row.Scan(&fb.ID, &fb.Title, &fb.PDFPath, &styleJSON, &fb.ShareToken, &fb.CreatedAt, &fb.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan flipbook row: %w", err)
	}
	fb.Style = models.DecodePropsJSON(styleJSON)
	return &fb, nil
}

// GetSummary returns the flipbook summary shape: title, page count and
// thumbnail path.
func (r *FlipbookRepository) GetSummary(ctx context.Context, id string) (*models.FlipbookSummary, error) {
	fb, err := r.GetFlipbook(ctx, id)
	if err != nil {
		return nil, err
	}

	var pageCount int
	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE flipbook_id = $1`, id).Scan(&pageCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages for flipbook %s: %w", id, err)
	}

	return &models.FlipbookSummary{
		ID:        fb.ID,
		Title:     fb.Title,
		Pages:     pageCount,
		Thumbnail: fmt.Sprintf("/api/flipbooks/%s/pages/1/image", fb.ID),
		CreatedAt: fb.CreatedAt,
		UpdatedAt: fb.UpdatedAt,
	}, nil
}

// ListRecent returns the most recently updated flipbooks.
func (r *FlipbookRepository) ListRecent(ctx context.Context, limit int) ([]models.FlipbookSummary, error) {
	if limit <= 0 {
		limit = 6
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.id, f.title, COUNT(p.id), f.created_at, f.updated_at
		FROM flipbooks f
		LEFT JOIN pages p ON p.flipbook_id = f.id
		GROUP BY f.id, f.title, f.created_at, f.updated_at
		ORDER BY f.updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent flipbooks: %w", err)
	}
	defer rows.Close()

	summaries := []models.FlipbookSummary{}
	for rows.Next() {
		var s models.FlipbookSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Pages, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flipbook summary row: %w", err)
		}
		s.Thumbnail = fmt.Sprintf("/api/flipbooks/%s/pages/1/image", s.ID)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flipbook summary rows: %w", err)
	}
	return summaries, nil
}

// GetEditorGraph loads the full page+widget graph for the editor and reader.
// Widgets are ordered by z-index, ties broken by insertion order.
func (r *FlipbookRepository) GetEditorGraph(ctx context.Context, id string) (*models.EditorData, error) {
	fb, err := r.GetFlipbook(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, flipbook_id, page_num, image_path, width, height
		FROM pages
		WHERE flipbook_id = $1
		ORDER BY page_num ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages for flipbook %s: %w", id, err)
	}
	defer rows.Close()

	var pages []models.Page
	pageIndex := map[string]int{}
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.ID, &page.FlipbookID, &page.PageNum, &page.ImagePath, &page.Width, &page.Height); err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		page.Widgets = []models.Widget{}
		pageIndex[page.ID] = len(pages)
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page rows: %w", err)
	}

	widgetRows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.page_id, w.type, w.props_json, w.geometry_json, w.z_index
		FROM widgets w
		JOIN pages p ON p.id = w.page_id
		WHERE p.flipbook_id = $1
		ORDER BY w.z_index ASC, w.seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query widgets for flipbook %s: %w", id, err)
	}
	defer widgetRows.Close()

	for widgetRows.Next() {
		widget, err := scanWidget(widgetRows)
		if err != nil {
			return nil, err
		}
		if idx, ok := pageIndex[widget.PageID]; ok {
			pages[idx].Widgets = append(pages[idx].Widgets, *widget)
		}
	}
	if err := widgetRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating widget rows: %w", err)
	}

	if pages == nil {
		pages = []models.Page{}
	}
	return &models.EditorData{
		ID:        fb.ID,
		Title:     fb.Title,
		Style:     fb.Style,
		PageCount: len(pages),
		Pages:     pages,
	}, nil
}

// DeleteFlipbook removes the flipbook row; pages and widgets cascade. A
// missing row surfaces as sql.ErrNoRows.
func (r *FlipbookRepository) DeleteFlipbook(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid flipbook ID format: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM flipbooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flipbook %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result for flipbook %s: %w", id, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type widgetScanner interface {
	Scan(dest ...any) error
}

func scanWidget(row widgetScanner) (*models.Widget, error) {
	var w models.Widget
	var typeStr, propsJSON, geometryJSON string
	if err := row.Scan(&w.ID, &w.PageID, &typeStr, &propsJSON, &geometryJSON, &w.ZIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan widget row: %w", err)
	}
	w.Type = models.WidgetType(typeStr)
	w.Props = models.DecodePropsJSON(propsJSON)
	w.Geometry = models.DecodeGeometryJSON(geometryJSON)
	return &w, nil
}
