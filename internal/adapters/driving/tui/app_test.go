package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

func catalogWith(entries ...domain.RegistryEntry) *MockCatalogService {
	return &MockCatalogService{
		ListFunc: func(context.Context) ([]domain.RegistryEntry, error) {
			return entries, nil
		},
	}
}

func aiBasics() domain.RegistryEntry {
	return domain.RegistryEntry{
		PackID:         "ai-basics",
		TotalDocuments: 2,
		Topics:         []domain.TopicStat{{Name: "rag", DocumentCount: 2}},
		LastIngestedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(120, 40)
	return app
}

// pump runs cmd, feeds the message back into the app and follows the
// resulting commands until none remain. Batches are expanded.
func pump(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "command loop did not settle")
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := runCmd(next)
		switch m := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		}
		if !isAppMessage(msg) {
			continue
		}
		_, c := app.Update(msg)
		queue = append(queue, c)
	}
}

// runCmd executes cmd, giving up on commands that block such as cursor blinks.
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// isAppMessage filters out terminal and cursor-blink messages.
func isAppMessage(msg tea.Msg) bool {
	switch msg.(type) {
	case messages.ViewChanged, messages.PacksLoaded, messages.PackSelected, messages.PackRefreshed,
		messages.PackRemoved, messages.BrowseRequested, messages.SearchRequested, messages.PageLoaded,
		messages.SearchCompleted, messages.ChunkSelected, messages.SettingsLoaded, messages.ErrorOccurred:
		return true
	}
	return false
}

func press(t *testing.T, app *App, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		_, cmd := app.Update(k)
		pump(t, app, cmd)
	}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewApp_InvalidPorts(t *testing.T) {
	_, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingCatalogService)
}

func TestApp_InitialState(t *testing.T) {
	app, err := NewApp(testPorts())
	require.NoError(t, err)

	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(testPorts())
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "ZeroSignal")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, testPorts())

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, testPorts())

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_HelpView(t *testing.T) {
	app := newTestApp(t, testPorts())

	press(t, app, runes("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "next page")

	press(t, app, keyEsc)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_BrowsePackFlow(t *testing.T) {
	ports := testPorts()
	ports.Catalog = catalogWith(aiBasics())
	var gotCursor *string
	ports.Download = &MockDownloadService{
		DownloadFunc: func(_ context.Context, packID string, cursor *string, limit int) (*domain.DownloadPage, error) {
			gotCursor = cursor
			return &domain.DownloadPage{
				PackID: packID,
				Limit:  limit,
				Items: []domain.DownloadItem{
					{DocumentID: "ai-basics-00-0000", Text: "RAG grounds answers."},
					{DocumentID: "ai-basics-00-0001", Text: "Chunks overlap."},
				},
			}, nil
		},
	}
	app := newTestApp(t, ports)

	// Menu -> Packs
	press(t, app, keyEnter)
	require.Equal(t, messages.ViewPacks, app.CurrentView())
	assert.Contains(t, app.View(), "ai-basics")

	// Packs -> detail
	press(t, app, keyEnter)
	require.Equal(t, messages.ViewPackDetail, app.CurrentView())
	assert.Contains(t, app.View(), "rag")

	// Detail -> chunk browser
	press(t, app, keyEnter)
	require.Equal(t, messages.ViewChunks, app.CurrentView())
	assert.Nil(t, gotCursor)
	assert.Contains(t, app.View(), "ai-basics-00-0001")
	assert.Contains(t, app.View(), "End of pack.")

	// Browser -> chunk viewer and back
	press(t, app, keyDown, keyEnter)
	require.Equal(t, messages.ViewChunk, app.CurrentView())
	assert.Contains(t, app.View(), "Chunks overlap.")

	press(t, app, keyEsc)
	assert.Equal(t, messages.ViewChunks, app.CurrentView())

	press(t, app, keyEsc)
	assert.Equal(t, messages.ViewPackDetail, app.CurrentView())
}

func TestApp_SearchFlow(t *testing.T) {
	ports := testPorts()
	ports.Catalog = catalogWith(aiBasics())
	var gotPack, gotQuery string
	ports.Search = &MockSearchService{
		SearchFunc: func(_ context.Context, packID, query string, _ int) ([]domain.SearchResult, error) {
			gotPack, gotQuery = packID, query
			return []domain.SearchResult{
				{DocumentID: "ai-basics-00-0000", Text: "RAG grounds answers.", Score: 0.93},
			}, nil
		},
	}
	app := newTestApp(t, ports)

	// Menu -> Search; the pack list populates the scope.
	press(t, app, keyDown, keyEnter)
	require.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "Search ai-basics")

	press(t, app, runes("what is rag"), keyEnter)
	assert.Equal(t, "ai-basics", gotPack)
	assert.Equal(t, "what is rag", gotQuery)
	assert.Contains(t, app.View(), "0.930")

	press(t, app, keyEnter)
	require.Equal(t, messages.ViewChunk, app.CurrentView())

	press(t, app, keyEsc)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_SearchFromDetail(t *testing.T) {
	second := aiBasics()
	second.PackID = "water-rights"
	ports := testPorts()
	ports.Catalog = catalogWith(aiBasics(), second)
	app := newTestApp(t, ports)

	pump(t, app, func() tea.Msg { return messages.SearchRequested{PackID: "water-rights"} })

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "Search water-rights")
}

func TestApp_SearchErrorRecorded(t *testing.T) {
	ports := testPorts()
	ports.Catalog = catalogWith(aiBasics())
	ports.Search = &MockSearchService{
		SearchFunc: func(context.Context, string, string, int) ([]domain.SearchResult, error) {
			return nil, domain.ErrSearchUnavailable
		},
	}
	app := newTestApp(t, ports)

	press(t, app, keyDown, keyEnter, runes("q"), keyEnter)

	assert.ErrorIs(t, app.Err(), domain.ErrSearchUnavailable)
}

func TestApp_SearchWithoutService(t *testing.T) {
	ports := testPorts()
	ports.Catalog = catalogWith(aiBasics())
	ports.Search = nil
	app := newTestApp(t, ports)

	press(t, app, keyDown, keyEnter, runes("q"), keyEnter)

	assert.Contains(t, app.View(), "search service is not configured")
}

func TestApp_RemovePack(t *testing.T) {
	entries := []domain.RegistryEntry{aiBasics()}
	var removed []string
	ports := testPorts()
	ports.Catalog = &MockCatalogService{
		ListFunc: func(context.Context) ([]domain.RegistryEntry, error) { return entries, nil },
		RemoveFunc: func(_ context.Context, packID string) error {
			removed = append(removed, packID)
			entries = nil
			return nil
		},
	}
	app := newTestApp(t, ports)

	press(t, app, keyEnter, runes("x"), runes("y"))

	assert.Equal(t, []string{"ai-basics"}, removed)
	assert.Contains(t, app.View(), "No packs ingested yet")
}

func TestApp_CatalogError(t *testing.T) {
	ports := testPorts()
	ports.Catalog = &MockCatalogService{
		ListFunc: func(context.Context) ([]domain.RegistryEntry, error) {
			return nil, domain.ErrStoreUnavailable
		},
	}
	app := newTestApp(t, ports)

	press(t, app, keyEnter)

	assert.ErrorIs(t, app.Err(), domain.ErrStoreUnavailable)
	assert.Contains(t, app.View(), "store unavailable")
}

func TestApp_SettingsView(t *testing.T) {
	app := newTestApp(t, testPorts())

	press(t, app, keyDown, keyDown, keyEnter)

	require.Equal(t, messages.ViewSettings, app.CurrentView())
	assert.Contains(t, app.View(), "Embedding")

	press(t, app, keyEsc)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, testPorts())

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_WithContext(t *testing.T) {
	app, err := NewApp(testPorts())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}
