package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// mockCatalog implements driving.CatalogService.
type mockCatalog struct {
	entries []domain.RegistryEntry
	err     error
	removed []string
}

func (m *mockCatalog) List(context.Context) ([]domain.RegistryEntry, error) {
	return m.entries, m.err
}

func (m *mockCatalog) Get(_ context.Context, packID string) (*domain.RegistryEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.entries {
		if m.entries[i].PackID == packID {
			return &m.entries[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalog) Refresh(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	return m.Get(ctx, packID)
}

func (m *mockCatalog) Remove(_ context.Context, packID string) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, packID)
	return nil
}

// mockDownload serves items in pages of the requested limit using the
// item index as cursor.
type mockDownload struct {
	items []domain.DownloadItem
	err   error
	calls []*string
}

func (m *mockDownload) Download(_ context.Context, packID string, cursor *string, limit int) (*domain.DownloadPage, error) {
	m.calls = append(m.calls, cursor)
	if m.err != nil {
		return nil, m.err
	}
	if err := domain.ValidateDownloadLimit(limit); err != nil {
		return nil, err
	}
	start := 0
	if cursor != nil {
		for i := range m.items {
			if m.items[i].DocumentID == *cursor {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(m.items))
	page := &domain.DownloadPage{PackID: packID, Limit: limit, Items: m.items[start:end]}
	if end < len(m.items) {
		next := m.items[end-1].DocumentID
		page.NextOffset = &next
	}
	return page, nil
}

// mockSearch implements driving.SearchService.
type mockSearch struct {
	results []domain.SearchResult
	err     error
	packID  string
	query   string
	topK    int
}

func (m *mockSearch) Search(_ context.Context, packID, query string, topK int) ([]domain.SearchResult, error) {
	m.packID, m.query, m.topK = packID, query, topK
	return m.results, m.err
}

// mockIngestor implements driving.Ingestor.
type mockIngestor struct {
	report *domain.IngestReport
	err    error
	opts   []domain.IngestOptions
	runs   []domain.IngestRun
}

func (m *mockIngestor) Ingest(_ context.Context, _ domain.PackConfig, opts domain.IngestOptions) (*domain.IngestReport, error) {
	m.opts = append(m.opts, opts)
	return m.report, m.err
}

func (m *mockIngestor) StoreDocuments(_ context.Context, _ string, docs []domain.DocumentInput) (int, error) {
	return len(docs), nil
}

func (m *mockIngestor) Status(_ context.Context, packID string) (*driving.IngestStatus, error) {
	return &driving.IngestStatus{PackID: packID}, nil
}

func (m *mockIngestor) Runs(_ context.Context, _ string, limit int) ([]domain.IngestRun, error) {
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

// mockLoader implements driven.PackLoader.
type mockLoader struct {
	pack  *domain.PackConfig
	err   error
	paths []string
}

func (m *mockLoader) Load(path string) (*domain.PackConfig, error) {
	m.paths = append(m.paths, path)
	if m.err != nil {
		return nil, m.err
	}
	p := *m.pack
	return &p, nil
}

// mockScheduler implements driving.Scheduler.
type mockScheduler struct {
	tasks      []domain.ScheduledTask
	registered []domain.PackConfig
}

func (m *mockScheduler) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) Register(_ context.Context, _ string, pack domain.PackConfig) error {
	m.registered = append(m.registered, pack)
	return nil
}

func (m *mockScheduler) Tasks(context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, nil
}

// mockPackSync implements driving.PackSync.
type mockPackSync struct {
	result *driving.PullResult
	err    error
	state  *domain.SyncState
	resets []string
	limit  int
}

func (m *mockPackSync) Pull(_ context.Context, _ string, limit int) (*driving.PullResult, error) {
	m.limit = limit
	return m.result, m.err
}

func (m *mockPackSync) State(context.Context, string) (*domain.SyncState, error) {
	return m.state, nil
}

func (m *mockPackSync) Reset(_ context.Context, packID string) error {
	m.resets = append(m.resets, packID)
	return nil
}

// testMocks gives tests access to the installed mocks.
type testMocks struct {
	catalog   *mockCatalog
	download  *mockDownload
	search    *mockSearch
	ingestor  *mockIngestor
	loader    *mockLoader
	scheduler *mockScheduler
	sync      *mockPackSync
	servers   []string
}

func samplePack() *domain.PackConfig {
	return &domain.PackConfig{
		PackID:    "water",
		Sources:   []domain.SourceConfig{{URL: "https://example.org/water"}},
		ChunkSize: domain.DefaultChunkSize,
		BatchSize: domain.DefaultBatchSize,
	}
}

func sampleEntries() []domain.RegistryEntry {
	return []domain.RegistryEntry{
		{
			PackID:         "water",
			TotalDocuments: 12,
			Topics:         []domain.TopicStat{{Name: "irrigation", DocumentCount: 8}, {Name: "rights", DocumentCount: 4}},
			SourceURLs:     []string{"https://example.org/water"},
			LastIngestedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func sampleItems(n int) []domain.DownloadItem {
	items := make([]domain.DownloadItem, n)
	for i := range items {
		items[i] = domain.DownloadItem{
			DocumentID: domain.MakeDocumentID("water", 0, i),
			Text:       "chunk text",
		}
	}
	return items
}

// setupTestServices installs mocks for every service and returns them with a
// cleanup that restores the package state, including flag values that
// persist between Execute calls.
func setupTestServices() (*testMocks, func()) {
	m := &testMocks{
		catalog:  &mockCatalog{entries: sampleEntries()},
		download: &mockDownload{items: sampleItems(5)},
		search: &mockSearch{results: []domain.SearchResult{
			{
				DocumentID: "water-00-0003",
				Text:       "Senior rights are served first.",
				Score:      0.8123,
				Metadata:   map[string]any{domain.MetaSourceTitle: "Water law"},
			},
		}},
		ingestor: &mockIngestor{report: &domain.IngestReport{Run: domain.IngestRun{
			PackID: "water", Status: domain.IngestStatusSucceeded, Chunks: 12, Stored: 12, Batches: 1,
		}}},
		loader:    &mockLoader{pack: samplePack()},
		scheduler: &mockScheduler{},
		sync:      &mockPackSync{result: &driving.PullResult{PackID: "water", Pages: 2, Stored: 60, Complete: true}},
	}

	SetServices(&Services{
		Catalog:   m.catalog,
		Download:  m.download,
		Ingestor:  m.ingestor,
		Search:    m.search,
		Scheduler: m.scheduler,
		Loader:    m.loader,
		NewPackSync: func(server string) (driving.PackSync, error) {
			m.servers = append(m.servers, server)
			return m.sync, nil
		},
	})

	return m, func() {
		SetServices(&Services{})
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

// resetFlags restores every flag to its default value.
func resetFlags() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		restore := func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue) //nolint:errcheck // defaults always parse
			f.Changed = false
		}
		c.Flags().VisitAll(restore)
		c.PersistentFlags().VisitAll(restore)
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
