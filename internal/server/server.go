// Package server exposes the duplicate engine over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"shelfkeeper/internal/report"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"

	"github.com/gorilla/mux"
)

// Config holds server configuration
type Config struct {
	Addr        string
	IndexDir    string
	LibraryRoot string
	SourcesRoot string
}

// Server serves the catalog and duplicate endpoints
type Server struct {
	store  *store.Store
	cfg    Config
	logger *report.EventLogger
}

// New creates a new Server
func New(s *store.Store, cfg Config, logger *report.EventLogger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	return &Server{
		store:  s,
		cfg:    cfg,
		logger: logger,
	}
}

// Router builds the HTTP route table
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/books", s.ListBooksHandler).Methods("GET")
	api.HandleFunc("/books/{id:[0-9]+}", s.GetBookHandler).Methods("GET")

	api.HandleFunc("/duplicates", s.HashDuplicatesHandler).Methods("GET")
	api.HandleFunc("/duplicates/titles", s.TitleDuplicatesHandler).Methods("GET")
	api.HandleFunc("/duplicates/files", s.ChecksumDuplicatesHandler).Methods("GET")
	api.HandleFunc("/duplicates/verify", s.VerifyHandler).Methods("POST")
	api.HandleFunc("/duplicates/delete", s.DeleteDuplicatesHandler).Methods("POST")
	api.HandleFunc("/duplicates/delete-files", s.DeleteFilesHandler).Methods("POST")

	return router
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // deletion batches can be slow on spinning disks
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		util.InfoLog("Listening on %s", s.cfg.Addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// corsMiddleware allows browser frontends on other origins
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
