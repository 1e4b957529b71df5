// Package packdetail provides the registry entry view for a single pack.
package packdetail

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/components/list"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/views/packs"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// maxSourceURLs limits how many source URLs are listed.
const maxSourceURLs = 8

// Option is an action in the detail menu.
type Option int

const (
	OptionBrowse Option = iota
	OptionSearch
	OptionRefresh
	OptionBack
)

var optionLabels = map[Option]string{
	OptionBrowse:  "Browse chunks",
	OptionSearch:  "Search this pack",
	OptionRefresh: "Recompute registry entry",
	OptionBack:    "Back",
}

// View shows one registry entry.
type View struct {
	styles  *styles.Styles
	catalog driving.CatalogService
	ctx     context.Context

	pack       *domain.RegistryEntry
	selected   Option
	width      int
	height     int
	ready      bool
	refreshing bool
	notice     string
	err        error
}

// NewView creates a new pack detail view.
func NewView(s *styles.Styles, catalog driving.CatalogService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		catalog: catalog,
		ctx:     context.Background(),
	}
}

// WithContext sets the context used for catalog calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetPack sets the entry to display and resets the menu.
func (v *View) SetPack(pack domain.RegistryEntry) {
	v.pack = &pack
	v.selected = OptionBrowse
	v.refreshing = false
	v.notice = ""
	v.err = nil
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PackRefreshed:
		v.refreshing = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		if msg.Pack != nil {
			v.pack = msg.Pack
		}
		v.notice = "Registry entry recomputed"
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.refreshing = false
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > OptionBrowse {
			v.selected--
		}
	case "down", "j":
		if v.selected < OptionBack {
			v.selected++
		}
	case "enter":
		return v.activate(v.selected)
	case "r":
		return v.activate(OptionRefresh)
	case "esc":
		return v.activate(OptionBack)
	}
	return v, nil
}

func (v *View) activate(opt Option) (*View, tea.Cmd) {
	if v.pack == nil {
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewPacks} }
	}
	packID := v.pack.PackID

	switch opt {
	case OptionBrowse:
		return v, func() tea.Msg { return messages.BrowseRequested{PackID: packID} }
	case OptionSearch:
		return v, func() tea.Msg { return messages.SearchRequested{PackID: packID} }
	case OptionRefresh:
		if v.refreshing {
			return v, nil
		}
		v.refreshing = true
		v.notice = ""
		return v, v.refresh(packID)
	case OptionBack:
	}
	return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewPacks} }
}

func (v *View) refresh(packID string) tea.Cmd {
	catalog := v.catalog
	ctx := v.ctx
	return func() tea.Msg {
		if catalog == nil {
			return messages.PackRefreshed{Err: fmt.Errorf("catalog service not available")}
		}
		entry, err := catalog.Refresh(ctx, packID)
		return messages.PackRefreshed{Pack: entry, Err: err}
	}
}

// View renders the registry entry and the action menu.
func (v *View) View() string {
	if v.pack == nil {
		return v.styles.Muted.Render("No pack selected")
	}
	p := v.pack

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(p.PackID))
	b.WriteString("\n\n")

	b.WriteString(v.styles.Field("Chunks", p.TotalDocuments))
	b.WriteString("\n")
	b.WriteString(v.styles.Field("Last ingested", packs.FormatTime(p.LastIngestedAt)))
	b.WriteString("\n")
	b.WriteString(v.styles.Field("Sources", len(p.SourceURLs)))
	b.WriteString("\n\n")

	if len(p.Topics) > 0 {
		b.WriteString(v.styles.Subtitle.Render("Topics"))
		b.WriteString("\n")
		for _, t := range p.Topics {
			b.WriteString(v.styles.Field("  "+t.Name, t.DocumentCount))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(p.SourceURLs) > 0 {
		b.WriteString(v.styles.Subtitle.Render("Source URLs"))
		b.WriteString("\n")
		for i, u := range p.SourceURLs {
			if i == maxSourceURLs {
				b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  ... and %d more", len(p.SourceURLs)-maxSourceURLs)))
				b.WriteString("\n")
				break
			}
			b.WriteString(v.styles.Normal.Render("  " + list.Truncate(u, max(v.width-4, 20))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(p.Metadata) > 0 {
		b.WriteString(v.styles.Subtitle.Render("Metadata"))
		b.WriteString("\n")
		keys := make([]string, 0, len(p.Metadata))
		for k := range p.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(v.styles.Field("  "+k, p.Metadata[k]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	for opt := OptionBrowse; opt <= OptionBack; opt++ {
		label := optionLabels[opt]
		if opt == OptionRefresh && v.refreshing {
			label += " (running)"
		}
		if opt == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.notice != "":
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [r] refresh  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Pack returns the displayed entry.
func (v *View) Pack() *domain.RegistryEntry {
	return v.pack
}

// Selected returns the highlighted option.
func (v *View) Selected() Option {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
