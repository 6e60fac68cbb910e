package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rh "github.com/openflip/openflip/route-handlers"
	"github.com/openflip/openflip/webutil"
)

const (
	apiBasePath       = "/api"
	uploadBasePath    = "/upload"
	flipbooksBasePath = "/flipbooks"
	readerBasePath    = "/reader"
)

const (
	editorSubPath  = "/editor"
	pagesSubPath   = "/pages"
	widgetsSubPath = "/widgets"
)

const (
	paramID       = "id"
	paramPageNum  = "pageNum"
	paramWidgetID = "widgetID"
	paramToken    = "token"
)

func SetupRoutes(
	uploadHandler *rh.UploadHandler,
	flipbookHandler *rh.FlipbookHandler,
	editorHandler *rh.EditorHandler,
	widgetHandler *rh.WidgetHandler,
) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute)) // Uploads wait for the conversion pool
	r.Use(SetHeader(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Post(uploadBasePath, webutil.MakeHandler(uploadHandler.HandleUpload))
		configureFlipbookRoutes(r, flipbookHandler, editorHandler, widgetHandler)
		r.Get(readerBasePath+pathWithParam("", paramToken), webutil.MakeHandler(flipbookHandler.HandleGetReader))
	})

	// Health check endpoint
	r.Get("/healthz", handleHealthCheck)

	return r
}

// Helper for constructing paths with a parameter
func pathWithParam(basePath string, paramName string) string {
	if basePath == "" {
		return "/{" + paramName + "}"
	}
	return basePath + "/{" + paramName + "}"
}

func configureFlipbookRoutes(r chi.Router, flipbookHandler *rh.FlipbookHandler, editorHandler *rh.EditorHandler, widgetHandler *rh.WidgetHandler) {
	specificFlipbookPath := pathWithParam("", paramID)

	r.Route(flipbooksBasePath, func(r chi.Router) {
		r.Get("/", webutil.MakeHandler(flipbookHandler.HandleListFlipbooks))
		r.Route(specificFlipbookPath, func(r chi.Router) {
			r.Get("/", webutil.MakeHandler(flipbookHandler.HandleGetFlipbook))
			r.Delete("/", webutil.MakeHandler(flipbookHandler.HandleDeleteFlipbook))

			r.Get(editorSubPath, webutil.MakeHandler(editorHandler.HandleGetEditor))
			r.Put(editorSubPath, webutil.MakeHandler(editorHandler.HandleSaveEditor))

			pagePath := pagesSubPath + pathWithParam("", paramPageNum)
			r.Get(pagePath+"/image", webutil.MakeHandler(flipbookHandler.HandleGetPageImage))
			r.Post(pagePath+widgetsSubPath, webutil.MakeHandler(widgetHandler.HandleCreateWidget))

			widgetPath := widgetsSubPath + pathWithParam("", paramWidgetID)
			r.Put(widgetPath, webutil.MakeHandler(widgetHandler.HandleUpdateWidget))
			r.Delete(widgetPath, webutil.MakeHandler(widgetHandler.HandleDeleteWidget))
		})
	})
}

// --- Utility Functions ---

// handleHealthCheck responds to a health check request.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(webutil.HeaderContentType, webutil.ContentTypeTextPlainUTF8)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// SetHeader is a middleware to set a response header.
func SetHeader(key, value string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(key, value)
			next.ServeHTTP(w, r)
		})
	}
}
