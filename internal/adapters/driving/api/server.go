package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// maxBodyBytes caps request bodies.
const maxBodyBytes = 32 << 20

// Ports aggregates the driving ports used by the HTTP API.
type Ports struct {
	// Download serves paged pack reads (required).
	Download driving.DownloadService

	// Catalog exposes registry entries (required).
	Catalog driving.CatalogService

	// Ingestor stores pre-chunked documents. Optional.
	Ingestor driving.Ingestor

	// Search runs similarity queries. Optional.
	Search driving.SearchService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Download == nil || p.Catalog == nil {
		return ErrMissingService
	}
	return nil
}

// Server is the HTTP API.
type Server struct {
	ports   *Ports
	metrics *Metrics
	router  *mux.Router
}

// NewServer creates the API server and registers its routes.
func NewServer(ports *Ports, metrics *Metrics) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		ports:   ports,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(loggingMiddleware)
	r.Use(s.metrics.middleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/packs", s.handleListPacks).Methods(http.MethodGet)
	r.HandleFunc("/packs/{pack_id}", s.handleGetPack).Methods(http.MethodGet)
	r.HandleFunc("/packs/{pack_id}/download", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/packs/{pack_id}/documents", s.handleDocuments).Methods(http.MethodPost)
	r.HandleFunc("/packs/{pack_id}/search", s.handleSearch).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Detail: "Method Not Allowed"})
	})
}

// Mount serves h for every path under prefix.
func (s *Server) Mount(prefix string, h http.Handler) {
	s.router.PathPrefix(prefix).Handler(h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves the API on addr.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           http.MaxBytesHandler(s, maxBodyBytes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown: %v", err)
		}
	}()

	logger.Info("serving packs on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// loggingMiddleware logs request details and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
