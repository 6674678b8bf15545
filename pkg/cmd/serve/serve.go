// Package serve runs the web UI: upload a song, poll the analysis state,
// read the result.
package serve

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	iofs "io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/browser"
	"github.com/sjokstudio/sjok-2025/pkg/assetstore"
	"github.com/sjokstudio/sjok-2025/pkg/audioai"
	"github.com/sjokstudio/sjok-2025/pkg/encode"
	"github.com/sjokstudio/sjok-2025/pkg/session"
)

type Config struct {
	Debug bool
	Key   string
	Model string
	Host  string

	Addr        string
	Open        bool
	Credentials map[string]string
}

//go:embed static/*
var staticContent embed.FS

// Serve starts the analysis web service.
func Serve(ctx context.Context, cfg *Config) error {
	log.Println("serve: server started")
	defer log.Println("serve: server ended")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Key == "" {
		return fmt.Errorf("serve: missing analyzer key")
	}
	analyzer := audioai.New(&audioai.Config{
		Debug: cfg.Debug,
		Token: cfg.Key,
		Model: cfg.Model,
		Host:  cfg.Host,
	})
	store, err := assetstore.New("")
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer store.Close()

	sess, err := session.New(&session.Config{
		Debug:    cfg.Debug,
		Analyzer: analyzer,
		Store:    store,
	})
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	defer sess.Close()

	// Create static content
	staticFS, err := iofs.Sub(staticContent, "static")
	if err != nil {
		return fmt.Errorf("serve: couldn't load static content: %w", err)
	}

	// Create router
	mux := chi.NewRouter()

	// Add middleware
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.Timeout(3 * time.Minute))

	// Add BasicAuth middleware
	if len(cfg.Credentials) > 0 {
		mux.Use(middleware.BasicAuth("private", cfg.Credentials))
	}

	if cfg.Debug {
		mux.Use(middleware.Logger)
	}

	mux.Handle("/*", http.FileServer(http.FS(staticFS)))
	mux.Post("/api/analysis", handleUpload(ctx, sess))
	mux.Get("/api/analysis", handleSnapshot(sess))

	// Create server
	split := strings.Split(cfg.Addr, ":")
	if len(split) != 2 {
		return fmt.Errorf("serve: invalid address: %s", cfg.Addr)
	}
	host := split[0]
	port, err := strconv.Atoi(split[1])
	if err != nil {
		return fmt.Errorf("serve: invalid port: %s", split[1])
	}
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}
	go func() {
		note := fmt.Sprintf("http://%s:%d", host, port)
		if host == "" {
			note = fmt.Sprintf("all interfaces http://localhost:%d", port)
		}
		log.Printf("Starting server on %s", note)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v\n", err)
			cancel()
		}
	}()

	if cfg.Open {
		if err := browser.OpenURL(fmt.Sprintf("http://localhost:%d", port)); err != nil {
			log.Println("serve: couldn't open browser:", err)
		}
	}

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// handleUpload receives a multipart file, feeds it to the session and
// replies with the snapshot after the pipeline has been triggered. The
// analysis call outlives the request, so it runs on the server context.
func handleUpload(ctx context.Context, sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(encode.MaxSize + 1<<20); err != nil {
			http.Error(w, "couldn't parse upload", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()

		mediaType := header.Header.Get("Content-Type")
		if err := sess.Select(ctx, header.Filename, header.Size, mediaType, file); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, sess.Snapshot())
			return
		}
		writeJSON(w, http.StatusAccepted, sess.Snapshot())
	}
}

// handleSnapshot serves the session state for polling.
func handleSnapshot(sess *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("serve: couldn't write response:", err)
	}
}
