package routehandlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/openflip/openflip/datastore"
	"github.com/openflip/openflip/models"
	"github.com/openflip/openflip/webutil"
)

// Holds dependencies for individual widget route handlers.
type WidgetHandler struct {
	Repo *datastore.WidgetRepository
}

// Creates a new WidgetHandler.
func NewWidgetHandler(repo *datastore.WidgetRepository) *WidgetHandler {
	return &WidgetHandler{Repo: repo}
}

type widgetPayload struct {
	Type     string             `json:"type"`
	Props    map[string]any     `json:"props"`
	Geometry map[string]float64 `json:"geometry"`
	ZIndex   int                `json:"z_index"`
}

func decodeWidgetPayload(r *http.Request) (*models.Widget, error) {
	var payload widgetPayload
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return nil, webutil.ErrBadRequest("Invalid request payload: " + err.Error())
	}
	defer r.Body.Close()

	widget := &models.Widget{
		Type:     models.WidgetType(payload.Type),
		Props:    payload.Props,
		Geometry: payload.Geometry,
		ZIndex:   payload.ZIndex,
	}
	if err := widget.Validate(); err != nil {
		return nil, webutil.ErrBadRequest("Invalid widget: " + err.Error())
	}
	return widget, nil
}

// HandleCreateWidget adds one widget to a page of the flipbook.
func (h *WidgetHandler) HandleCreateWidget(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}
	pageNum, err := strconv.Atoi(chi.URLParam(r, "pageNum"))
	if err != nil || pageNum < 1 {
		return webutil.ErrBadRequest("Invalid page number")
	}

	widget, err := decodeWidgetPayload(r)
	if err != nil {
		return err
	}
	widget.ID = uuid.NewString()

	if err := h.Repo.CreateWidget(r.Context(), flipbookID, pageNum, widget); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusCreated, widget)
	return nil
}

// HandleUpdateWidget overwrites a widget after verifying it belongs to the
// claimed flipbook.
func (h *WidgetHandler) HandleUpdateWidget(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}
	widgetID := chi.URLParam(r, "widgetID")
	if _, err := uuid.Parse(widgetID); err != nil {
		return webutil.ErrBadRequest("Invalid widget ID format")
	}

	widget, err := decodeWidgetPayload(r)
	if err != nil {
		return err
	}
	widget.ID = widgetID

	if err := h.Repo.UpdateWidget(r.Context(), flipbookID, widget); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, widget)
	return nil
}

// HandleDeleteWidget removes a widget after verifying it belongs to the
// claimed flipbook.
func (h *WidgetHandler) HandleDeleteWidget(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}
	widgetID := chi.URLParam(r, "widgetID")
	if _, err := uuid.Parse(widgetID); err != nil {
		return webutil.ErrBadRequest("Invalid widget ID format")
	}

	if err := h.Repo.DeleteWidget(r.Context(), flipbookID, widgetID); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": widgetID})
	return nil
}
