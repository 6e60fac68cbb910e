package routehandlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openflip/openflip/models"
	"github.com/openflip/openflip/webutil"
)

// fakeEditorStore keeps the page+widget graph in memory with the same
// replacement semantics as the widget repository: named pages get their
// widget set overwritten, unnamed pages keep theirs.
type fakeEditorStore struct {
	graphs       map[string]*models.EditorData
	replaceCalls int
}

func newFakeEditorStore(graphs ...*models.EditorData) *fakeEditorStore {
	store := &fakeEditorStore{graphs: map[string]*models.EditorData{}}
	for _, g := range graphs {
		store.graphs[g.ID] = g
	}
	return store
}

func (f *fakeEditorStore) GetEditorGraph(ctx context.Context, id string) (*models.EditorData, error) {
	graph, ok := f.graphs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	fresh := *graph
	fresh.Pages = append([]models.Page(nil), graph.Pages...)
	fresh.PageCount = len(fresh.Pages)
	return &fresh, nil
}

func (f *fakeEditorStore) ReplaceWidgets(ctx context.Context, flipbookID string, title *string, pageWidgets map[int][]models.Widget) error {
	f.replaceCalls++
	graph, ok := f.graphs[flipbookID]
	if !ok {
		return sql.ErrNoRows
	}
	if title != nil {
		graph.Title = *title
	}
	for pageNum, widgets := range pageWidgets {
		replaced := false
		for i := range graph.Pages {
			if graph.Pages[i].PageNum != pageNum {
				continue
			}
			for j := range widgets {
				widgets[j].PageID = graph.Pages[i].ID
			}
			graph.Pages[i].Widgets = widgets
			replaced = true
		}
		if !replaced {
			return fmt.Errorf("page %d of flipbook %s: %w", pageNum, flipbookID, sql.ErrNoRows)
		}
	}
	return nil
}

const editorFlipbookID = "5f0c2f6e-7e41-4b17-9a6c-2f9d14c7a001"

func twoPageGraph() *models.EditorData {
	return &models.EditorData{
		ID:    editorFlipbookID,
		Title: "Spring Catalog",
		Style: map[string]any{},
		Pages: []models.Page{
			{ID: "page-1", FlipbookID: editorFlipbookID, PageNum: 1, ImagePath: "d/page_1.jpg", Width: 1275, Height: 1650, Widgets: []models.Widget{}},
			{ID: "page-2", FlipbookID: editorFlipbookID, PageNum: 2, ImagePath: "d/page_2.jpg", Width: 1275, Height: 1650, Widgets: []models.Widget{
				{ID: "w-keep", PageID: "page-2", Type: models.WidgetTypeLink, Props: map[string]any{"url": "https://example.com", "target": "_blank"}, Geometry: map[string]float64{models.GeometryX: 72}, ZIndex: 0},
			}},
		},
		PageCount: 2,
	}
}

func editorRequest(method, id string, body []byte) *http.Request {
	req := httptest.NewRequest(method, "/api/flipbooks/"+id+"/editor", bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func performEditorSave(handler *EditorHandler, id string, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleSaveEditor).ServeHTTP(rec, editorRequest(http.MethodPut, id, body))
	return rec
}

func TestHandleGetEditor(t *testing.T) {
	handler := NewEditorHandler(newFakeEditorStore(twoPageGraph()), newFakeEditorStore())

	rec := httptest.NewRecorder()
	webutil.MakeHandler(handler.HandleGetEditor).ServeHTTP(rec, editorRequest(http.MethodGet, editorFlipbookID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.EditorData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Spring Catalog", got.Title)
	assert.Equal(t, 2, got.PageCount)
}

func TestHandleSaveEditorRoundTrip(t *testing.T) {
	store := newFakeEditorStore(twoPageGraph())
	handler := NewEditorHandler(store, store)

	body := []byte(`{
		"title": "Renamed Catalog",
		"pages": [
			{"page_num": 1, "widgets": [
				{"type": "link", "props": {"url": "https://shop.example.com"}, "geometry": {"x": 10, "y": 20, "width": 100, "height": 40}, "z_index": 2},
				{"type": "hotspot", "geometry": {"x": 5, "y": 5, "width": 50, "height": 50}}
			]}
		]
	}`)
	rec := performEditorSave(handler, editorFlipbookID, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.EditorData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Renamed Catalog", got.Title)
	require.Len(t, got.Pages, 2)

	// The named page reads back exactly the submitted set.
	saved := got.Pages[0].Widgets
	require.Len(t, saved, 2)
	assert.Equal(t, models.WidgetTypeLink, saved[0].Type)
	assert.Equal(t, "https://shop.example.com", saved[0].Props["url"])
	assert.Equal(t, 2, saved[0].ZIndex)
	assert.Equal(t, 100.0, saved[0].Geometry[models.GeometryWidth])
	assert.Equal(t, models.WidgetTypeHotspot, saved[1].Type)
	assert.Equal(t, "page-1", saved[0].PageID)

	// The page the save did not name keeps its widgets.
	require.Len(t, got.Pages[1].Widgets, 1)
	assert.Equal(t, "w-keep", got.Pages[1].Widgets[0].ID)

	// Saving the read-back set again is a no-op round trip.
	again := performEditorSave(handler, editorFlipbookID, body)
	require.Equal(t, http.StatusOK, again.Code)
	var rereads models.EditorData
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &rereads))
	assert.Equal(t, got.Pages[0].Widgets[0].Props, rereads.Pages[0].Widgets[0].Props)
	assert.Equal(t, got.Pages[1].Widgets, rereads.Pages[1].Widgets)
}

func TestHandleSaveEditorRejectsInvalidWidget(t *testing.T) {
	store := newFakeEditorStore(twoPageGraph())
	handler := NewEditorHandler(store, store)

	body := []byte(`{"pages": [{"page_num": 1, "widgets": [{"type": "link", "props": {}}]}]}`)
	rec := performEditorSave(handler, editorFlipbookID, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.replaceCalls, "validation failures must reject before any write")
}

func TestHandleSaveEditorRejectsBadPageNumber(t *testing.T) {
	store := newFakeEditorStore(twoPageGraph())
	handler := NewEditorHandler(store, store)

	rec := performEditorSave(handler, editorFlipbookID, []byte(`{"pages": [{"page_num": 0, "widgets": []}]}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.replaceCalls)
}

func TestHandleSaveEditorRejectsUnknownFields(t *testing.T) {
	store := newFakeEditorStore(twoPageGraph())
	handler := NewEditorHandler(store, store)

	rec := performEditorSave(handler, editorFlipbookID, []byte(`{"pages": [], "surprise": true}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSaveEditorUnknownFlipbookIs404(t *testing.T) {
	store := newFakeEditorStore()
	handler := NewEditorHandler(store, store)

	rec := performEditorSave(handler, "2d7b3a90-6a59-4f5e-8f30-0f8a33b10002", []byte(`{"pages": []}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSaveEditorRejectsMalformedID(t *testing.T) {
	store := newFakeEditorStore(twoPageGraph())
	handler := NewEditorHandler(store, store)

	rec := performEditorSave(handler, "not-a-uuid", []byte(`{"pages": []}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
