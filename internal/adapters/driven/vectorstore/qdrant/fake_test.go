package qdrant

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// fakeQdrant is a minimal in-memory Qdrant REST server.
type fakeQdrant struct {
	mu          sync.Mutex
	apiKey      string
	collections map[string]map[string]point
	failStatus  int
	requests    int
}

func newFakeQdrant(t *testing.T, apiKey string) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{apiKey: apiKey, collections: make(map[string]map[string]point)}

	r := mux.NewRouter()
	r.Use(f.middleware)
	r.HandleFunc("/collections/{name}", f.getCollection).Methods(http.MethodGet)
	r.HandleFunc("/collections/{name}", f.createCollection).Methods(http.MethodPut)
	r.HandleFunc("/collections/{name}", f.deleteCollection).Methods(http.MethodDelete)
	r.HandleFunc("/collections/{name}/points", f.upsert).Methods(http.MethodPut)
	r.HandleFunc("/collections/{name}/points/scroll", f.scroll).Methods(http.MethodPost)
	r.HandleFunc("/collections/{name}/points/search", f.search).Methods(http.MethodPost)
	r.HandleFunc("/collections/{name}/points/delete", f.deletePoints).Methods(http.MethodPost)
	r.HandleFunc("/collections/{name}/points/{id}", f.getPoint).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeQdrant) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		status := f.failStatus
		f.mu.Unlock()
		if f.apiKey != "" && r.Header.Get("api-key") != f.apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeQdrant) reply(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok"})
}

func (f *fakeQdrant) collection(w http.ResponseWriter, r *http.Request) (map[string]point, bool) {
	c, ok := f.collections[mux.Vars(r)["name"]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
	}
	return c, ok
}

func (f *fakeQdrant) getCollection(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collection(w, r); ok {
		f.reply(w, map[string]any{"status": "green"})
	}
}

func (f *fakeQdrant) createCollection(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[mux.Vars(r)["name"]] = make(map[string]point)
	f.reply(w, true)
}

func (f *fakeQdrant) deleteCollection(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.collections, mux.Vars(r)["name"])
	f.reply(w, true)
}

func (f *fakeQdrant) upsert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points []point `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collection(w, r)
	if !ok {
		return
	}
	for _, p := range body.Points {
		c[p.ID] = p
	}
	f.reply(w, map[string]any{"status": "completed"})
}

func (f *fakeQdrant) sortedIDs(c map[string]point) []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (f *fakeQdrant) scroll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Limit      int    `json:"limit"`
		Offset     string `json:"offset"`
		WithVector bool   `json:"with_vector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collection(w, r)
	if !ok {
		return
	}

	var pts []point
	var next any
	for _, id := range f.sortedIDs(c) {
		if id < body.Offset {
			continue
		}
		if len(pts) == body.Limit {
			next = id
			break
		}
		p := c[id]
		if !body.WithVector {
			p.Vector = nil
		}
		pts = append(pts, p)
	}
	if pts == nil {
		pts = []point{}
	}
	f.reply(w, map[string]any{"points": pts, "next_page_offset": next})
}

func (f *fakeQdrant) search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Vector []float32 `json:"vector"`
		Limit  int       `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collection(w, r)
	if !ok {
		return
	}
	hits := make([]point, 0, len(c))
	for _, p := range c {
		hits = append(hits, point{ID: p.ID, Payload: p.Payload, Score: domain.CosineSimilarity(body.Vector, p.Vector)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > body.Limit {
		hits = hits[:body.Limit]
	}
	f.reply(w, hits)
}

func (f *fakeQdrant) deletePoints(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Points []string `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collection(w, r)
	if !ok {
		return
	}
	for _, id := range body.Points {
		delete(c, id)
	}
	f.reply(w, map[string]any{"status": "completed"})
}

func (f *fakeQdrant) getPoint(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collection(w, r)
	if !ok {
		return
	}
	p, ok := c[mux.Vars(r)["id"]]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	f.reply(w, p)
}

func (f *fakeQdrant) setFailStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
}

func (f *fakeQdrant) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeQdrant) hasCollection(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.collections[name]
	return ok
}
