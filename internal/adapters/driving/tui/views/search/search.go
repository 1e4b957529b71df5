// Package search provides the pack search view for the TUI.
package search

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/components/input"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/components/list"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/components/status"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/keymap"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

var (
	// ErrNoSearchService indicates that no search service was provided.
	ErrNoSearchService = errors.New("search service is not configured")

	// ErrNoPack indicates a search was submitted without a pack in scope.
	ErrNoPack = errors.New("no pack selected; press tab to choose one")
)

// View is the search input, result list and status bar for one pack.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	ctx           context.Context

	packs      []string
	packID     string
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
	searching  bool
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// SetPacks sets the pack ids tab cycles through. The current scope is kept
// when still present, otherwise the first pack is chosen.
func (v *View) SetPacks(packIDs []string) {
	v.packs = packIDs
	if v.packID != "" && slices.Contains(packIDs, v.packID) {
		return
	}
	if len(packIDs) > 0 {
		v.SetPack(packIDs[0])
	} else {
		v.SetPack("")
	}
}

// SetPack scopes the search to one pack and clears previous results.
func (v *View) SetPack(packID string) {
	v.packID = packID
	v.statusbar.SetScope(packID)
	if packID == "" {
		v.input.SetLabel("Search")
	} else {
		v.input.SetLabel("Search " + packID)
	}
	v.list.SetResults(nil)
	v.statusbar.Clear()
}

func (v *View) cyclePack() {
	if len(v.packs) == 0 {
		return
	}
	i := slices.Index(v.packs, v.packID)
	v.SetPack(v.packs[(i+1)%len(v.packs)])
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.searching = false
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if msg.Type == tea.KeyTab {
		if v.focusInput && !v.searching {
			v.cyclePack()
		}
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "enter":
		if r := v.list.SelectedResult(); r != nil {
			sel := messages.ChunkSelected{
				PackID:     v.packID,
				DocumentID: r.DocumentID,
				Text:       r.Text,
				Metadata:   r.Metadata,
				From:       messages.ViewSearch,
			}
			return v, func() tea.Msg { return sel }
		}
	case "/":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	return v, nil
}

func (v *View) submit() (*View, tea.Cmd) {
	query := strings.TrimSpace(v.input.Value())
	if query == "" || v.searching {
		return v, nil
	}
	if v.packID == "" {
		v.setError(ErrNoPack)
		return v, nil
	}

	v.input.Remember(query)
	v.err = nil
	v.searching = true
	v.statusbar.SetState(status.StateSearching)
	return v, v.performSearch(v.packID, query)
}

func (v *View) performSearch(packID, query string) tea.Cmd {
	svc := v.searchService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.SearchCompleted{PackID: packID, Query: query, Err: ErrNoSearchService}
		}
		start := time.Now()
		results, err := svc.Search(ctx, packID, query, 0)
		return messages.SearchCompleted{
			PackID:  packID,
			Query:   query,
			Results: results,
			Elapsed: time.Since(start),
			Err:     err,
		}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.PackID != v.packID {
		return
	}
	v.searching = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetResults(len(msg.Results), msg.Elapsed)

	if len(msg.Results) > 0 {
		v.focusInput = false
		v.input.Blur()
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("ZeroSignal Search"), "", v.input.View(), "")

	if v.packID == "" && len(v.packs) == 0 {
		sections = append(sections, v.styles.Muted.Render("No packs available to search."), "")
	}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// PackID returns the pack in scope.
func (v *View) PackID() string {
	return v.packID
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to input mode with an empty query. The scope is kept.
func (v *View) Reset() {
	v.focusInput = true
	v.searching = false
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
