package routehandlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/openflip/openflip/models"
	"github.com/openflip/openflip/webutil"
)

// EditorGraphReader loads the full page+widget graph of a flipbook.
type EditorGraphReader interface {
	GetEditorGraph(ctx context.Context, id string) (*models.EditorData, error)
}

// WidgetReplacer performs the editor's full-save widget replacement.
type WidgetReplacer interface {
	ReplaceWidgets(ctx context.Context, flipbookID string, title *string, pageWidgets map[int][]models.Widget) error
}

// Holds dependencies for editor route handlers.
type EditorHandler struct {
	Repo    EditorGraphReader
	Widgets WidgetReplacer
}

// Creates a new EditorHandler.
func NewEditorHandler(repo EditorGraphReader, widgets WidgetReplacer) *EditorHandler {
	return &EditorHandler{Repo: repo, Widgets: widgets}
}

func (h *EditorHandler) HandleGetEditor(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}

	graph, err := h.Repo.GetEditorGraph(r.Context(), flipbookID)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, graph)
	return nil
}

type editorWidgetPayload struct {
	Type     string             `json:"type"`
	Props    map[string]any     `json:"props"`
	Geometry map[string]float64 `json:"geometry"`
	ZIndex   int                `json:"z_index"`
}

type editorPagePayload struct {
	PageNum int                   `json:"page_num"`
	Widgets []editorWidgetPayload `json:"widgets"`
}

type editorSaveRequest struct {
	Title *string             `json:"title"`
	Pages []editorPagePayload `json:"pages"`
}

// HandleSaveEditor replaces the stored widgets of every page named in the
// request with the submitted set, atomically; pages not named keep their
// widgets. This is a last-writer-wins overwrite, not a merge.
func (h *EditorHandler) HandleSaveEditor(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}

	var req editorSaveRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	pageWidgets := make(map[int][]models.Widget, len(req.Pages))
	for _, page := range req.Pages {
		if page.PageNum < 1 {
			return webutil.ErrBadRequest("Page numbers are 1-based")
		}
		widgets := make([]models.Widget, 0, len(page.Widgets))
		for _, payload := range page.Widgets {
			widget := models.Widget{
				ID:       uuid.NewString(),
				Type:     models.WidgetType(payload.Type),
				Props:    payload.Props,
				Geometry: payload.Geometry,
				ZIndex:   payload.ZIndex,
			}
			if err := widget.Validate(); err != nil {
				return webutil.ErrBadRequest("Invalid widget: " + err.Error())
			}
			widgets = append(widgets, widget)
		}
		pageWidgets[page.PageNum] = widgets
	}

	if err := h.Widgets.ReplaceWidgets(r.Context(), flipbookID, req.Title, pageWidgets); err != nil {
		return err
	}

	graph, err := h.Repo.GetEditorGraph(r.Context(), flipbookID)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, graph)
	return nil
}
