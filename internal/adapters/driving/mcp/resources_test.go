package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

func TestExtractPackID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		suffix   string
		expected string
	}{
		{name: "pack URI", uri: "zerosignal://packs/water", expected: "water"},
		{name: "text URI", uri: "zerosignal://packs/water/text", suffix: "/text", expected: "water"},
		{name: "nested path without suffix", uri: "zerosignal://packs/water/text", expected: ""},
		{name: "invalid prefix", uri: "file://packs/water", expected: ""},
		{name: "missing suffix", uri: "zerosignal://packs/water", suffix: "/text", expected: ""},
		{name: "empty id", uri: "zerosignal://packs/", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPackID(tt.uri, tt.suffix))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handlePacksResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty catalog", func(t *testing.T) {
		server := newToolServer(t, &mockCatalogService{}, &mockDownloadService{}, nil)

		result, err := server.handlePacksResource(ctx, makeReadResourceRequest("zerosignal://packs"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("lists entries", func(t *testing.T) {
		catalog := &mockCatalogService{entries: []domain.RegistryEntry{{PackID: "water", TotalDocuments: 2}}}
		server := newToolServer(t, catalog, &mockDownloadService{}, nil)

		result, err := server.handlePacksResource(ctx, makeReadResourceRequest("zerosignal://packs"))
		require.NoError(t, err)

		var entries []domain.RegistryEntry
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "water", entries[0].PackID)
	})

	t.Run("propagates errors", func(t *testing.T) {
		server := newToolServer(t, &mockCatalogService{err: errors.New("boom")}, &mockDownloadService{}, nil)

		_, err := server.handlePacksResource(ctx, makeReadResourceRequest("zerosignal://packs"))
		assert.ErrorContains(t, err, "listing packs")
	})
}

func TestServer_handlePackResource(t *testing.T) {
	ctx := context.Background()
	catalog := &mockCatalogService{entries: []domain.RegistryEntry{{PackID: "water", TotalDocuments: 2}}}
	server := newToolServer(t, catalog, &mockDownloadService{}, nil)

	result, err := server.handlePackResource(ctx, makeReadResourceRequest("zerosignal://packs/water"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"total_documents": 2`)

	_, err = server.handlePackResource(ctx, makeReadResourceRequest("zerosignal://packs/fire"))
	assert.Error(t, err)

	_, err = server.handlePackResource(ctx, makeReadResourceRequest("zerosignal://packs/"))
	assert.Error(t, err)
}

func TestServer_handlePackTextResource(t *testing.T) {
	ctx := context.Background()

	t.Run("renders chunks", func(t *testing.T) {
		download := &mockDownloadService{page: &domain.DownloadPage{
			PackID: "water",
			Items: []domain.DownloadItem{
				{DocumentID: "water-00-0000", Text: "Boil water."},
				{DocumentID: "water-00-0001", Text: "Let it cool."},
			},
		}}
		server := newToolServer(t, &mockCatalogService{}, download, nil)

		result, err := server.handlePackTextResource(ctx, makeReadResourceRequest("zerosignal://packs/water/text"))
		require.NoError(t, err)
		assert.Equal(t, "## water-00-0000\nBoil water.\n\n## water-00-0001\nLet it cool.", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Nil(t, download.cursor)
	})

	t.Run("unknown pack", func(t *testing.T) {
		server := newToolServer(t, &mockCatalogService{}, &mockDownloadService{err: domain.ErrNotFound}, nil)

		_, err := server.handlePackTextResource(ctx, makeReadResourceRequest("zerosignal://packs/fire/text"))
		assert.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		server := newToolServer(t, &mockCatalogService{}, &mockDownloadService{err: domain.ErrStoreUnavailable}, nil)

		_, err := server.handlePackTextResource(ctx, makeReadResourceRequest("zerosignal://packs/water/text"))
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}
