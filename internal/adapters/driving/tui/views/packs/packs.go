// Package packs provides the pack list view for the TUI.
package packs

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/components/list"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// View lists the packs in the registry.
type View struct {
	styles  *styles.Styles
	catalog driving.CatalogService
	ctx     context.Context

	packs      []domain.RegistryEntry
	selected   int
	width      int
	height     int
	ready      bool
	loading    bool
	confirming bool
	notice     string
	err        error
}

// NewView creates a new pack list view.
func NewView(s *styles.Styles, catalog driving.CatalogService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		catalog: catalog,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for catalog calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the pack list.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirming = false
	return LoadPacks(v.ctx, v.catalog)
}

// LoadPacks returns a command that lists the catalog.
func LoadPacks(ctx context.Context, catalog driving.CatalogService) tea.Cmd {
	return func() tea.Msg {
		if catalog == nil {
			return messages.PacksLoaded{Err: fmt.Errorf("catalog service not available")}
		}
		entries, err := catalog.List(ctx)
		return messages.PacksLoaded{Packs: entries, Err: err}
	}
}

// Update handles messages for the pack list view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirming {
			return v.handleConfirmKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.PacksLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.packs = msg.Packs
		if v.selected >= len(v.packs) {
			v.selected = max(len(v.packs)-1, 0)
		}
		return v, nil

	case messages.PackRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Removed %s", msg.PackID)
		v.loading = true
		return v, LoadPacks(v.ctx, v.catalog)

	case messages.ErrorOccurred:
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
		if v.selected < len(v.packs)-1 {
			v.selected++
		}
	case "enter":
		if pack := v.SelectedPack(); pack != nil {
			selected := *pack
			return v, func() tea.Msg {
				return messages.PackSelected{Pack: selected}
			}
		}
	case "r":
		v.notice = ""
		return v, v.Init()
	case "x":
		if v.SelectedPack() != nil {
			v.confirming = true
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.confirming = false
	if msg.String() != "y" {
		return v, nil
	}
	pack := v.SelectedPack()
	if pack == nil {
		return v, nil
	}
	return v, RemovePack(v.ctx, v.catalog, pack.PackID)
}

// RemovePack returns a command that deletes a pack.
func RemovePack(ctx context.Context, catalog driving.CatalogService, packID string) tea.Cmd {
	return func() tea.Msg {
		if catalog == nil {
			return messages.PackRemoved{PackID: packID, Err: fmt.Errorf("catalog service not available")}
		}
		return messages.PackRemoved{PackID: packID, Err: catalog.Remove(ctx, packID)}
	}
}

// View renders the pack list.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Packs (%d)", len(v.packs))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading packs..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.packs) == 0:
		b.WriteString(v.styles.Muted.Render("No packs ingested yet. Run 'zerosignal ingest -c pack.yaml'."))
	default:
		b.WriteString(v.renderTable())
	}
	b.WriteString("\n\n")

	if v.confirming {
		if pack := v.SelectedPack(); pack != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Remove %s and all its chunks? [y/N]", pack.PackID)))
			b.WriteString("\n")
		}
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] open  [r] reload  [x] remove  [esc] back"))
	return b.String()
}

func (v *View) renderTable() string {
	idWidth := max(v.width/3, 12)
	lines := make([]string, 0, len(v.packs)+1)
	lines = append(lines, v.styles.Muted.Render(fmt.Sprintf("  %-*s  %8s  %6s  %s",
		idWidth, "PACK", "CHUNKS", "TOPICS", "LAST INGESTED")))

	visible := max(v.height-8, 1)
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	end := min(start+visible, len(v.packs))

	for i := start; i < end; i++ {
		p := &v.packs[i]
		row := fmt.Sprintf("%-*s  %8d  %6d  %s",
			idWidth, list.Truncate(p.PackID, idWidth), p.TotalDocuments, len(p.Topics), FormatTime(p.LastIngestedAt))
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+row))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+row))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatTime renders an ingestion time, or "never" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Packs returns the loaded entries.
func (v *View) Packs() []domain.RegistryEntry {
	return v.packs
}

// SelectedPack returns the highlighted entry, or nil when the list is empty.
func (v *View) SelectedPack() *domain.RegistryEntry {
	if v.selected < 0 || v.selected >= len(v.packs) {
		return nil
	}
	return &v.packs[v.selected]
}

// Confirming reports whether a removal is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
