package ollama

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// embedServer answers /api/embed with [i, 0.5] for input i of each request
// and records the batch sizes it saw.
func embedServer(t *testing.T, batches *[]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.True(t, req.Truncate)
		if batches != nil {
			*batches = append(*batches, len(req.Input))
		}

		var resp embedResponse
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(i), 0.5})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedBatch(t *testing.T) {
	srv := embedServer(t, nil)

	svc := NewEmbeddingService(Config{BaseURL: srv.URL + "/", Model: "all-minilm", Dimensions: 2})
	vecs, err := svc.EmbedBatch(t.Context(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, []float32{2, 0.5}, vecs[2])

	vec, err := svc.Embed(t.Context(), "single")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0.5}, vec)
	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "all-minilm", svc.ModelName())
}

func TestEmbedBatch_Splits(t *testing.T) {
	var batches []int
	srv := embedServer(t, &batches)

	texts := make([]string, MaxInputsPerRequest+6)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk %d", i)
	}

	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm", Dimensions: 2})
	vecs, err := svc.EmbedBatch(t.Context(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	assert.Equal(t, []int{MaxInputsPerRequest, 6}, batches)
	assert.Equal(t, float32(5), vecs[MaxInputsPerRequest+5][0])
}

func TestEmbedBatch_DimensionMismatch(t *testing.T) {
	srv := embedServer(t, nil)

	svc := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "all-minilm", Dimensions: 384})
	_, err := svc.EmbedBatch(t.Context(), []string{"x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.False(t, domain.IsRetryable(err))
}

func TestEmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, true},
		{"unknown model", http.StatusNotFound, `{"error":"model not found"}`, false},
		{"count mismatch", http.StatusOK, `{"embeddings":[]}`, true},
		{"error field", http.StatusOK, `{"error":"out of memory"}`, true},
		{"garbage", http.StatusOK, `not json`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewEmbeddingService(Config{BaseURL: srv.URL}).EmbedBatch(t.Context(), []string{"x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmbeddingFailure)
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
		})
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})

	vecs, err := svc.EmbedBatch(t.Context(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)

	_, err = svc.EmbedBatch(t.Context(), []string{"ok", " \n"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"nomic-embed-text:latest"},{"name":"llama3.2:3b"}]}`))
	}))
	defer srv.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: srv.URL}).Ping(t.Context()))

	err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "mxbai-embed-large"}).Ping(t.Context())
	assert.ErrorIs(t, err, domain.ErrConfig)
	assert.Contains(t, err.Error(), "ollama pull mxbai-embed-large")
}
