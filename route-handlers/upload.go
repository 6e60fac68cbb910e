package routehandlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/openflip/openflip/conversion"
	"github.com/openflip/openflip/models"
	"github.com/openflip/openflip/processing"
	"github.com/openflip/openflip/webutil"
)

// DefaultMaxUploadBytes caps uploaded PDFs at 50 MB.
const DefaultMaxUploadBytes = 50 << 20

// multipartOverheadBytes is headroom on top of the file cap for the multipart
// boundaries and the title field.
const multipartOverheadBytes = 4 << 10

// UploadService runs the PDF-to-flipbook pipeline.
type UploadService interface {
	ProcessUpload(ctx context.Context, content []byte, filename, customTitle string) (*models.FlipbookSummary, error)
}

// Holds dependencies for the upload route handler.
type UploadHandler struct {
	Service        UploadService
	MaxUploadBytes int64
}

// Creates a new UploadHandler.
func NewUploadHandler(service UploadService, maxUploadBytes int64) *UploadHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{Service: service, MaxUploadBytes: maxUploadBytes}
}

// HandleUpload accepts a multipart PDF upload with an optional title field.
// Validation failures (wrong extension, oversized file) are rejected before
// any processing. Conversion failures map to 422 with an actionable message;
// a saturated conversion queue maps to 503.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) error {
	// Cut oversized uploads off at the socket instead of spooling the whole
	// body before the size check.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverheadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return webutil.ErrBadRequestWrap(fmt.Sprintf("File too large (max %d MB)", h.MaxUploadBytes>>20), err)
		}
		return webutil.ErrBadRequest("Missing file field in multipart form")
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
		return webutil.ErrBadRequest("Only PDF files are allowed")
	}

	content, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(content)) > h.MaxUploadBytes {
		return webutil.ErrBadRequest(fmt.Sprintf("File too large (max %d MB)", h.MaxUploadBytes>>20))
	}
	if len(content) == 0 {
		return webutil.ErrBadRequest("Uploaded file is empty")
	}

	summary, err := h.Service.ProcessUpload(r.Context(), content, header.Filename, r.FormValue("title"))
	if err != nil {
		if errors.Is(err, processing.ErrQueueFull) {
			return webutil.ErrServiceUnavailableWrap("Server is busy converting other documents, try again shortly", err)
		}
		if convErr, ok := conversion.AsError(err); ok {
			return webutil.ErrUnprocessableEntityWrap("Conversion failed: "+convErr.Message(), err)
		}
		return fmt.Errorf("upload processing failed: %w", err)
	}

	webutil.RespondWithJSON(w, http.StatusCreated, summary)
	return nil
}
