package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/keymap"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/chunk"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/chunks"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/menu"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/packdetail"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/packs"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/search"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/settings"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView       *menu.View
	packsView      *packs.View
	packDetailView *packdetail.View
	chunksView     *chunks.View
	chunkView      *chunk.View
	searchView     *search.View
	settingsView   *settings.View

	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keymap:         km,
		menuView:       menu.NewView(s),
		packsView:      packs.NewView(s, ports.Catalog),
		packDetailView: packdetail.NewView(s, ports.Catalog),
		chunksView:     chunks.NewView(s, ports.Download),
		chunkView:      chunk.NewView(s),
		searchView:     search.NewView(s, km, ports.Search),
		settingsView:   settings.NewView(s, ports.Settings),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context used by service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.packsView.WithContext(ctx)
	a.packDetailView.WithContext(ctx)
	a.chunksView.WithContext(ctx)
	a.searchView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("zerosignal - Context Packs"),
		packs.LoadPacks(a.ctx, a.ports.Catalog),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo,funlen // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.routeKey(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.PacksLoaded:
		if msg.Err == nil {
			ids := make([]string, 0, len(msg.Packs))
			for i := range msg.Packs {
				ids = append(ids, msg.Packs[i].PackID)
			}
			a.searchView.SetPacks(ids)
			a.menuView.SetCatalog(msg.Packs)
		} else {
			a.err = msg.Err
		}
		a.packsView, cmd = a.packsView.Update(msg)
		return a, cmd

	case messages.PackRemoved:
		a.packsView, cmd = a.packsView.Update(msg)
		return a, cmd

	case messages.PackSelected:
		a.packDetailView.SetPack(msg.Pack)
		a.currentView = messages.ViewPackDetail
		return a, a.packDetailView.Init()

	case messages.PackRefreshed:
		a.packDetailView, cmd = a.packDetailView.Update(msg)
		return a, cmd

	case messages.BrowseRequested:
		a.currentView = messages.ViewChunks
		return a, a.chunksView.SetPack(msg.PackID)

	case messages.PageLoaded:
		a.chunksView, cmd = a.chunksView.Update(msg)
		return a, cmd

	case messages.SearchRequested:
		a.currentView = messages.ViewSearch
		a.searchView.Reset()
		a.searchView.SetPack(msg.PackID)
		return a, tea.Batch(a.searchView.Init(), packs.LoadPacks(a.ctx, a.ports.Catalog))

	case messages.SearchCompleted:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.searchView, cmd = a.searchView.Update(msg)
		return a, cmd

	case messages.ChunkSelected:
		a.chunkView.SetChunk(msg)
		a.currentView = messages.ViewChunk
		return a, nil

	case messages.SettingsLoaded:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// routeKey sends a key press to the active view.
func (a *App) routeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.currentView == messages.ViewHelp {
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = messages.ViewMenu
		}
		return a, nil
	}
	if a.currentView == messages.ViewMenu && keymap.Matches(msg.String(), a.keymap.Help) {
		a.currentView = messages.ViewHelp
		return a, nil
	}
	return a, a.forward(msg)
}

// forward delivers msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewPacks:
		a.packsView, cmd = a.packsView.Update(msg)
	case messages.ViewPackDetail:
		a.packDetailView, cmd = a.packDetailView.Update(msg)
	case messages.ViewChunks:
		a.chunksView, cmd = a.chunksView.Update(msg)
	case messages.ViewChunk:
		a.chunkView, cmd = a.chunkView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// switchTo activates a view and returns its initial command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	prev := a.currentView
	a.currentView = view
	switch view {
	case messages.ViewPacks:
		if prev == messages.ViewPackDetail {
			return nil
		}
		return a.packsView.Init()
	case messages.ViewSearch:
		if prev == messages.ViewChunk {
			return nil
		}
		a.searchView.Reset()
		return tea.Batch(a.searchView.Init(), packs.LoadPacks(a.ctx, a.ports.Catalog))
	case messages.ViewSettings:
		return a.settingsView.Init()
	case messages.ViewMenu, messages.ViewHelp, messages.ViewPackDetail,
		messages.ViewChunks, messages.ViewChunk:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewPacks:
		return a.packsView.View()
	case messages.ViewPackDetail:
		return a.packDetailView.View()
	case messages.ViewChunks:
		return a.chunksView.View()
	case messages.ViewChunk:
		return a.chunkView.View()
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(a.styles.Field("  "+h.Key, h.Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Muted.Render("Packs are built with 'zerosignal ingest' and served with 'zerosignal serve'."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.packsView.SetDimensions(width, height)
	a.packDetailView.SetDimensions(width, height)
	a.chunksView.SetDimensions(width, height)
	a.chunkView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
