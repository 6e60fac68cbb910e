package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/openflip/openflip/models"
)

// WidgetRepository handles widget CRUD and the editor's full-save replacement
// of per-page widget sets.
type WidgetRepository struct {
	db *sql.DB
}

// NewWidgetRepository creates a new WidgetRepository.
func NewWidgetRepository(db *sql.DB) *WidgetRepository {
	return &WidgetRepository{db: db}
}

// GetPage retrieves a page by (flipbook id, 1-based page number).
func (r *WidgetRepository) GetPage(ctx context.Context, flipbookID string, pageNum int) (*models.Page, error) {
	if _, err := uuid.Parse(flipbookID); err != nil {
		return nil, fmt.Errorf("invalid flipbook ID format: %w", err)
	}
	var page models.Page
	err := r.db.QueryRowContext(ctx, `
		SELECT id, flipbook_id, page_num, image_path, width, height
		FROM pages
		WHERE flipbook_id = $1 AND page_num = $2
	`, flipbookID, pageNum).Scan(&page.ID, &page.FlipbookID, &page.PageNum, &page.ImagePath, &page.Width, &page.Height)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get page %d of flipbook %s: %w", pageNum, flipbookID, err)
	}
	return &page, nil
}

// ReplaceWidgets performs the editor's full-save: within one transaction it
// deletes all widgets on each named page and inserts the provided
// replacements, leaving unnamed pages untouched, then bumps the flipbook's
// update timestamp (and title, when provided). Last writer wins; the single
// transaction guarantees a losing save never interleaves partially.
func (r *WidgetRepository) ReplaceWidgets(ctx context.Context, flipbookID string, title *string, pageWidgets map[int][]models.Widget) error {
	if _, err := uuid.Parse(flipbookID); err != nil {
		return fmt.Errorf("invalid flipbook ID format: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM flipbooks WHERE id = $1)`, flipbookID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check flipbook %s: %w", flipbookID, err)
	}
	if !exists {
		return sql.ErrNoRows
	}

	for pageNum, widgets := range pageWidgets {
		var pageID string
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM pages WHERE flipbook_id = $1 AND page_num = $2
		`, flipbookID, pageNum).Scan(&pageID)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("page %d of flipbook %s: %w", pageNum, flipbookID, err)
			}
			return fmt.Errorf("failed to resolve page %d of flipbook %s: %w", pageNum, flipbookID, err)
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM widgets WHERE page_id = $1`, pageID); err != nil {
			return fmt.Errorf("failed to clear widgets on page %d of flipbook %s: %w", pageNum, flipbookID, err)
		}

		for i := range widgets {
			widgets[i].PageID = pageID
			if widgets[i].ID == "" {
				widgets[i].ID = uuid.NewString()
			}
			if err := insertWidget(ctx, tx, &widgets[i]); err != nil {
				return fmt.Errorf("failed to insert widget on page %d of flipbook %s: %w", pageNum, flipbookID, err)
			}
		}
	}

	if title != nil {
		_, err = tx.ExecContext(ctx, `UPDATE flipbooks SET title = $1, updated_at = $2 WHERE id = $3`,
			*title, time.Now().UTC(), flipbookID)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE flipbooks SET updated_at = $1 WHERE id = $2`,
			time.Now().UTC(), flipbookID)
	}
	if err != nil {
		return fmt.Errorf("failed to touch flipbook %s: %w", flipbookID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit widget replacement for flipbook %s: %w", flipbookID, err)
	}
	return nil
}

// CreateWidget inserts a single widget on the given page of the flipbook.
func (r *WidgetRepository) CreateWidget(ctx context.Context, flipbookID string, pageNum int, w *models.Widget) error {
	page, err := r.GetPage(ctx, flipbookID, pageNum)
	if err != nil {
		return err
	}
	w.PageID = page.ID
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertWidget(ctx, tx, w); err != nil {
		return fmt.Errorf("failed to insert widget on page %d of flipbook %s: %w", pageNum, flipbookID, err)
	}
	if err := touchFlipbook(ctx, tx, flipbookID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit widget creation: %w", err)
	}
	return nil
}

// GetWidget retrieves a widget and verifies it belongs to the claimed
// flipbook. A widget on another document surfaces as sql.ErrNoRows.
func (r *WidgetRepository) GetWidget(ctx context.Context, flipbookID, widgetID string) (*models.Widget, error) {
	if _, err := uuid.Parse(widgetID); err != nil {
		return nil, fmt.Errorf("invalid widget ID format: %w", err)
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT w.id, w.page_id, w.type, w.props_json, w.geometry_json, w.z_index
		FROM widgets w
		JOIN pages p ON p.id = w.page_id
		WHERE w.id = $1 AND p.flipbook_id = $2
	`, widgetID, flipbookID)

	var w models.Widget
	var typeStr, propsJSON, geometryJSON string
	err := row.Scan(&w.ID, &w.PageID, &typeStr, &propsJSON, &geometryJSON, &w.ZIndex)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get widget %s: %w", widgetID, err)
	}
	w.Type = models.WidgetType(typeStr)
	w.Props = models.DecodePropsJSON(propsJSON)
	w.Geometry = models.DecodeGeometryJSON(geometryJSON)
	return &w, nil
}

// UpdateWidget overwrites a widget's type, props, geometry and z-index after
// verifying ownership.
func (r *WidgetRepository) UpdateWidget(ctx context.Context, flipbookID string, w *models.Widget) error {
	existing, err := r.GetWidget(ctx, flipbookID, w.ID)
	if err != nil {
		return err
	}
	w.PageID = existing.PageID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE widgets SET type = $1, props_json = $2, geometry_json = $3, z_index = $4
		WHERE id = $5
	`, string(w.Type), models.EncodeJSONMap(w.Props), models.EncodeJSONMap(w.Geometry), w.ZIndex, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update widget %s: %w", w.ID, err)
	}
	if err := touchFlipbook(ctx, tx, flipbookID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit widget update: %w", err)
	}
	return nil
}

// DeleteWidget removes a widget after verifying ownership.
func (r *WidgetRepository) DeleteWidget(ctx context.Context, flipbookID, widgetID string) error {
	if _, err := uuid.Parse(widgetID); err != nil {
		return fmt.Errorf("invalid widget ID format: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM widgets w
		USING pages p
		WHERE w.id = $1 AND w.page_id = p.id AND p.flipbook_id = $2
	`, widgetID, flipbookID)
	if err != nil {
		return fmt.Errorf("failed to delete widget %s: %w", widgetID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result for widget %s: %w", widgetID, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := touchFlipbook(ctx, tx, flipbookID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit widget deletion: %w", err)
	}
	return nil
}

func touchFlipbook(ctx context.Context, tx *sql.Tx, flipbookID string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE flipbooks SET updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), flipbookID); err != nil {
		return fmt.Errorf("failed to touch flipbook %s: %w", flipbookID, err)
	}
	return nil
}
