// Package chunks provides a paged chunk browser backed by the download service.
package chunks

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/components/list"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// DefaultPageSize is the number of chunks requested per page.
const DefaultPageSize = 20

// View pages through the chunks of one pack.
type View struct {
	styles   *styles.Styles
	download driving.DownloadService
	ctx      context.Context
	pageSize int

	packID string
	// cursors[i] is the offset page i was requested with.
	cursors  []*string
	page     int
	items    []domain.DownloadItem
	next     *string
	selected int
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a new chunk browser.
func NewView(s *styles.Styles, download driving.DownloadService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		download: download,
		ctx:      context.Background(),
		pageSize: DefaultPageSize,
		width:    80,
		height:   24,
	}
}

// WithContext sets the context used for download calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetPageSize changes the page size. Values outside the download bounds are ignored.
func (v *View) SetPageSize(n int) {
	if domain.ValidateDownloadLimit(n) == nil {
		v.pageSize = n
	}
}

// SetPack starts browsing a pack from the first page.
func (v *View) SetPack(packID string) tea.Cmd {
	v.packID = packID
	v.cursors = []*string{nil}
	v.page = 0
	v.items = nil
	v.next = nil
	v.selected = 0
	v.err = nil
	return v.load(nil)
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) load(cursor *string) tea.Cmd {
	v.loading = true
	download := v.download
	ctx := v.ctx
	packID := v.packID
	limit := v.pageSize
	return func() tea.Msg {
		if download == nil {
			return messages.PageLoaded{PackID: packID, Cursor: cursor, Err: fmt.Errorf("download service not available")}
		}
		page, err := download.Download(ctx, packID, cursor, limit)
		return messages.PageLoaded{PackID: packID, Cursor: cursor, Page: page, Err: err}
	}
}

// Update handles messages for the chunk browser.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PageLoaded:
		if msg.PackID != v.packID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.items = msg.Page.Items
		v.next = msg.Page.NextOffset
		v.selected = 0
		return v, nil

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.items)-1 {
			v.selected++
		}
	case "n", "right":
		if v.loading || v.next == nil {
			return v, nil
		}
		next := *v.next
		v.cursors = append(v.cursors[:v.page+1], &next)
		v.page++
		return v, v.load(&next)
	case "p", "left":
		if v.loading || v.page == 0 {
			return v, nil
		}
		v.page--
		return v, v.load(v.cursors[v.page])
	case "r":
		if v.loading || v.packID == "" {
			return v, nil
		}
		return v, v.load(v.cursors[v.page])
	case "enter":
		if item := v.SelectedItem(); item != nil {
			sel := messages.ChunkSelected{
				PackID:     v.packID,
				DocumentID: item.DocumentID,
				Text:       item.Text,
				Metadata:   item.Metadata,
				From:       messages.ViewChunks,
			}
			return v, func() tea.Msg { return sel }
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewPackDetail}
		}
	}
	return v, nil
}

// View renders the current page.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Chunks - %s", v.packID)))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("page %d", v.page+1)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("No chunks on this page."))
	default:
		b.WriteString(v.renderItems())
	}
	b.WriteString("\n\n")

	var hints []string
	if v.page > 0 {
		hints = append(hints, "[p] prev")
	}
	if v.next != nil {
		hints = append(hints, "[n] next")
	} else if !v.loading && v.err == nil {
		b.WriteString(v.styles.Muted.Render("End of pack."))
		b.WriteString("\n")
	}
	hints = append(hints, "[enter] view", "[r] reload", "[esc] back")
	b.WriteString(v.styles.Help.Render(strings.Join(hints, "  ")))
	return b.String()
}

func (v *View) renderItems() string {
	idWidth := 0
	for i := range v.items {
		idWidth = max(idWidth, len(v.items[i].DocumentID))
	}
	previewWidth := max(v.width-idWidth-6, 20)

	visible := max(v.height-8, 1)
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := min(start+visible, len(v.items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		item := &v.items[i]
		preview := list.Truncate(list.Flatten(item.Text), previewWidth)
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", idWidth, item.DocumentID, preview)))
			continue
		}
		lines = append(lines, v.styles.Normal.Render(fmt.Sprintf("  %-*s  ", idWidth, item.DocumentID))+
			v.styles.Muted.Render(preview))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// PackID returns the pack being browsed.
func (v *View) PackID() string {
	return v.packID
}

// Page returns the zero-based page index.
func (v *View) Page() int {
	return v.page
}

// Items returns the chunks on the current page.
func (v *View) Items() []domain.DownloadItem {
	return v.items
}

// SelectedItem returns the highlighted chunk, or nil.
func (v *View) SelectedItem() *domain.DownloadItem {
	if v.selected < 0 || v.selected >= len(v.items) {
		return nil
	}
	return &v.items[v.selected]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
