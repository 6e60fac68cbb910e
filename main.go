package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/openflip/openflip/api"
	"github.com/openflip/openflip/conversion"
	"github.com/openflip/openflip/datastore"
	"github.com/openflip/openflip/processing"
	rh "github.com/openflip/openflip/route-handlers"
	"github.com/openflip/openflip/storage"
)

const (
	defaultPort        = "8080"
	defaultDatabaseURL = "user=postgres password=password dbname=openflip host=localhost port=5432 sslmode=disable"
	defaultStorageDir  = "storage"
	dbPingTimeout      = 5 * time.Second
	shutdownTimeout    = 15 * time.Second
	dbMaxOpenConns     = 25
	dbMaxIdleConns     = 25
	dbConnMaxLifetime  = 5 * time.Minute
	schemaTimeout      = 10 * time.Second
)

type config struct {
	port           string
	databaseURL    string
	storageDir     string
	maxUploadBytes int64
	renderDPI      int
	renderQuality  int
	poolWorkers    int
	poolQueueSize  int
	convertTimeout time.Duration
}

func main() {
	cfg := loadConfig()

	db, err := setupDatabase(cfg.databaseURL)
	if err != nil {
		log.Fatalf("Database setup failed: %v", err)
	}
	defer db.Close()

	// An existing but incompatible schema needs a manual migration, so a
	// bootstrap failure is a warning, not a startup abort.
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), schemaTimeout)
	if err := datastore.EnsureSchema(schemaCtx, db); err != nil {
		log.Printf("WARNING: Schema bootstrap failed, continuing with existing schema: %v", err)
	}
	cancelSchema()

	fileStore, err := storage.NewFlipbookFileStore(cfg.storageDir)
	if err != nil {
		log.Fatalf("Storage setup failed: %v", err)
	}

	flipbookRepo := datastore.NewFlipbookRepository(db)
	widgetRepo := datastore.NewWidgetRepository(db)

	converter := conversion.NewConverter(conversion.NewRenderer(cfg.renderDPI, cfg.renderQuality))
	pool := processing.NewPool(cfg.poolWorkers, cfg.poolQueueSize, cfg.convertTimeout)
	defer pool.Close()

	processor := processing.NewFlipbookProcessor(fileStore, converter, flipbookRepo, pool)

	uploadHandler := rh.NewUploadHandler(processor, cfg.maxUploadBytes)
	flipbookHandler := rh.NewFlipbookHandler(flipbookRepo, fileStore, processor)
	editorHandler := rh.NewEditorHandler(flipbookRepo, widgetRepo)
	widgetHandler := rh.NewWidgetHandler(widgetRepo)

	router := api.SetupRoutes(uploadHandler, flipbookHandler, editorHandler, widgetHandler)

	startServer(cfg.port, router)
}

func loadConfig() config {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, reading configuration from environment.")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	dbURL := os.Getenv("DB_CONNECTION_STRING")
	if dbURL == "" {
		dbURL = defaultDatabaseURL
		log.Println("WARNING: DB_CONNECTION_STRING not set, using default local connection string.")
	}

	storageDir := os.Getenv("STORAGE_DIR")
	if storageDir == "" {
		storageDir = defaultStorageDir
	}

	return config{
		port:           port,
		databaseURL:    dbURL,
		storageDir:     storageDir,
		maxUploadBytes: envInt64("MAX_UPLOAD_BYTES", rh.DefaultMaxUploadBytes),
		renderDPI:      envInt("RENDER_DPI", conversion.DefaultDPI),
		renderQuality:  envInt("RENDER_QUALITY", conversion.DefaultQuality),
		poolWorkers:    envInt("CONVERT_WORKERS", 4),
		poolQueueSize:  envInt("CONVERT_QUEUE_SIZE", 8),
		convertTimeout: envDuration("CONVERT_TIMEOUT", 2*time.Minute),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return val
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return val
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return val
}

func setupDatabase(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection successful")
	return db, nil
}

func startServer(port string, router http.Handler) {
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownSignal // Block until signal received
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
