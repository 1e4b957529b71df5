package packclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "packs.example.org", "ftp://x", "http://"} {
		_, err := New(Config{BaseURL: raw})
		assert.ErrorIs(t, err, domain.ErrConfig, raw)
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/packs/water safety/download", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		offset := r.URL.Query().Get("offset")
		next := "water-00-0001"
		page := domain.DownloadPage{PackID: "water safety", Limit: 2, NextOffset: &next,
			Items: []domain.DownloadItem{{DocumentID: "water-00-0000", Text: "a", Embedding: []float32{0.5}}}}
		if offset != "" {
			assert.Equal(t, "water-00-0001", offset)
			page.Offset = &offset
			page.NextOffset = nil
		}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	page, err := c.Download(t.Context(), "water safety", "", 2)
	require.NoError(t, err)
	assert.False(t, page.Done())
	require.Len(t, page.Items, 1)
	assert.Equal(t, []float32{0.5}, page.Items[0].Embedding)

	page, err = c.Download(t.Context(), "water safety", *page.NextOffset, 2)
	require.NoError(t, err)
	assert.True(t, page.Done())
}

func TestGetPack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/packs":
			_, _ = w.Write([]byte(`[{"pack_id":"p","total_documents":3}]`))
		case "/packs/p":
			_, _ = w.Write([]byte(`{"pack_id":"p","total_documents":3,"last_ingested_at":"2026-01-02T03:04:05Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Context pack not found"}`))
		}
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	entry, err := c.GetPack(t.Context(), "p")
	require.NoError(t, err)
	assert.Equal(t, 3, entry.TotalDocuments)
	assert.Equal(t, 2026, entry.LastIngestedAt.Year())

	entries, err := c.ListPacks(t.Context())
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = c.GetPack(t.Context(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "Context pack not found")
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusBadRequest, domain.ErrInvalidInput},
		{http.StatusUnprocessableEntity, domain.ErrInvalidInput},
		{http.StatusUnauthorized, domain.ErrStoreAuth},
		{http.StatusTooManyRequests, domain.ErrStoreUnavailable},
		{http.StatusBadGateway, domain.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		err := statusError(tt.status, []byte("x"))
		assert.ErrorIs(t, err, tt.want, tt.status)
	}
	assert.False(t, domain.IsRetryable(statusError(http.StatusTeapot, nil)))
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: base})
	require.NoError(t, err)
	_, err = c.Download(t.Context(), "p", "", 10)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.True(t, domain.IsRetryable(err))
}
