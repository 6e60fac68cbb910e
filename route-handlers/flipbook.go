package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/openflip/openflip/conversion"
	"github.com/openflip/openflip/datastore"
	"github.com/openflip/openflip/storage"
	"github.com/openflip/openflip/webutil"
)

// FlipbookDeleter removes a flipbook's rows and files.
type FlipbookDeleter interface {
	DeleteFlipbook(ctx context.Context, id string) error
}

// Holds dependencies for flipbook route handlers.
type FlipbookHandler struct {
	Repo    *datastore.FlipbookRepository
	Files   *storage.FlipbookFileStore
	Deleter FlipbookDeleter
}

// Creates a new FlipbookHandler.
func NewFlipbookHandler(repo *datastore.FlipbookRepository, files *storage.FlipbookFileStore, deleter FlipbookDeleter) *FlipbookHandler {
	return &FlipbookHandler{Repo: repo, Files: files, Deleter: deleter}
}

func (h *FlipbookHandler) HandleListFlipbooks(w http.ResponseWriter, r *http.Request) error {
	summaries, err := h.Repo.ListRecent(r.Context(), 6)
	if err != nil {
		return fmt.Errorf("failed to list flipbooks: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, summaries)
	return nil
}

func (h *FlipbookHandler) HandleGetFlipbook(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}

	summary, err := h.Repo.GetSummary(r.Context(), flipbookID)
	if err != nil {
		return err // sql.ErrNoRows maps to 404
	}
	webutil.RespondWithJSON(w, http.StatusOK, summary)
	return nil
}

func (h *FlipbookHandler) HandleDeleteFlipbook(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}

	if err := h.Deleter.DeleteFlipbook(r.Context(), flipbookID); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": flipbookID})
	return nil
}

// HandleGetPageImage serves the stored raster image for one page with the
// correct media type.
func (h *FlipbookHandler) HandleGetPageImage(w http.ResponseWriter, r *http.Request) error {
	flipbookID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(flipbookID); err != nil {
		return webutil.ErrBadRequest("Invalid flipbook ID format")
	}
	pageNum, err := strconv.Atoi(chi.URLParam(r, "pageNum"))
	if err != nil || pageNum < 1 {
		return webutil.ErrBadRequest("Invalid page number")
	}

	content, mediaType, err := h.Files.PageImage(flipbookID, conversion.PageImageName(pageNum))
	if err != nil {
		if os.IsNotExist(err) {
			return webutil.ErrNotFound("Page image not found")
		}
		return fmt.Errorf("failed to read page image: %w", err)
	}

	w.Header().Set(webutil.HeaderContentType, mediaType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
	return nil
}

// HandleGetReader serves the page+widget graph by public share token.
func (h *FlipbookHandler) HandleGetReader(w http.ResponseWriter, r *http.Request) error {
	token := chi.URLParam(r, "token")
	if _, err := uuid.Parse(token); err != nil {
		return webutil.ErrBadRequest("Invalid share token format")
	}

	flipbook, err := h.Repo.GetFlipbookByShareToken(r.Context(), token)
	if err != nil {
		return err
	}
	graph, err := h.Repo.GetEditorGraph(r.Context(), flipbook.ID)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, graph)
	return nil
}
