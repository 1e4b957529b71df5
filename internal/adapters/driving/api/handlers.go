package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// documentsRequest is the body of POST /packs/{pack_id}/documents.
type documentsRequest struct {
	Documents []domain.DocumentInput `json:"documents"`
}

// documentsResponse reports how many documents were stored.
type documentsResponse struct {
	Stored int `json:"stored"`
}

// searchRequest is the body of POST /packs/{pack_id}/search.
type searchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ports.Catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetPack(w http.ResponseWriter, r *http.Request) {
	entry, err := s.ports.Catalog.Get(r.Context(), mux.Vars(r)["pack_id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	packID := mux.Vars(r)["pack_id"]
	q := r.URL.Query()

	limit := domain.DefaultDownloadLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "limit must be an integer"})
			return
		}
		limit = n
	}

	var cursor *string
	if q.Has("offset") {
		offset := q.Get("offset")
		cursor = &offset
	}

	page, err := s.ports.Download.Download(r.Context(), packID, cursor, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.metrics.downloadItems.WithLabelValues(packID).Add(float64(len(page.Items)))
	if page.Done() {
		s.metrics.downloadDone.WithLabelValues(packID).Inc()
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ports.Ingestor == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Detail: "document ingest is disabled"})
		return
	}
	packID := mux.Vars(r)["pack_id"]

	var req documentsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	stored, err := s.ports.Ingestor.StoreDocuments(r.Context(), packID, req.Documents)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.metrics.documentsStored.WithLabelValues(packID).Add(float64(stored))
	writeJSON(w, http.StatusOK, documentsResponse{Stored: stored})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.ports.Search == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Detail: "search is disabled"})
		return
	}
	packID := mux.Vars(r)["pack_id"]

	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	topK := 0
	if req.TopK != nil {
		// An explicit zero is out of range, not a request for the default
		if *req.TopK == 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "top_k must be between 1 and 50"})
			return
		}
		topK = *req.TopK
	}

	results, err := s.ports.Search.Search(r.Context(), packID, req.Query, topK)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.metrics.searches.WithLabelValues(packID).Inc()
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// decodeBody parses a JSON body, writing a 400 response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Detail: detailFor(status, err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response: %v", err)
	}
}
