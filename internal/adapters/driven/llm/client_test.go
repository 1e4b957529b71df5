package llm

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/run", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"reply":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL+"/", time.Second, http.Header{"X-Key": {"secret"}})
	defer c.Close()

	var out struct{ Reply string }
	require.NoError(t, c.PostJSON(t.Context(), "/v1/run", map[string]string{"q": "x"}, &out))
	assert.Equal(t, "ok", out.Reply)
}

func TestClient_PostJSONFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, "upstream"},
		{"rejected key", http.StatusUnauthorized, "{}"},
		{"bad json", http.StatusOK, "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out map[string]any
			err := NewClient("test", srv.URL, time.Second, nil).PostJSON(t.Context(), "/", nil, &out)
			assert.ErrorIs(t, err, domain.ErrSummarisationFailure)
		})
	}
}

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient("test", srv.URL, time.Second, nil)
	assert.NoError(t, c.Ping(t.Context(), "/models"))

	err := c.Ping(t.Context(), "/tags")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Contains(t, err.Error(), "status 404")
}
