// Package chunk provides a scrollable viewer for a single chunk.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
)

// View shows the text and metadata of one chunk.
type View struct {
	styles *styles.Styles

	chunk        *messages.ChunkSelected
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new chunk viewer.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		width:  80,
		height: 24,
	}
}

// SetChunk displays a chunk from the top.
func (v *View) SetChunk(c messages.ChunkSelected) {
	v.chunk = &c
	v.scrollOffset = 0
	v.layout()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles scrolling and navigation.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		v.scroll(-1)
	case "down", "j":
		v.scroll(1)
	case "pgup", "ctrl+u":
		v.scroll(-v.visibleLines())
	case "pgdown", "ctrl+d", " ":
		v.scroll(v.visibleLines())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc", "q":
		back := messages.ViewMenu
		if v.chunk != nil {
			back = v.chunk.From
		}
		return v, func() tea.Msg { return messages.ViewChanged{View: back} }
	}
	return v, nil
}

func (v *View) scroll(delta int) {
	v.scrollOffset = max(min(v.scrollOffset+delta, v.maxScrollOffset()), 0)
}

// layout wraps the chunk text to the view width.
func (v *View) layout() {
	v.lines = nil
	if v.chunk == nil || v.chunk.Text == "" {
		return
	}
	width := max(v.width-4, 20)
	wrapped := lipgloss.NewStyle().Width(width).Render(v.chunk.Text)
	v.lines = strings.Split(wrapped, "\n")
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

func (v *View) headerLines() []string {
	if v.chunk == nil {
		return nil
	}
	keys := make([]string, 0, len(v.chunk.Metadata))
	for k := range v.chunk.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+1)
	lines = append(lines, v.styles.Field("pack", v.chunk.PackID))
	for _, k := range keys {
		lines = append(lines, v.styles.Field(k, v.chunk.Metadata[k]))
	}
	return lines
}

// visibleLines is the number of text lines that fit below the header.
func (v *View) visibleLines() int {
	reserved := 7 + len(v.headerLines())
	return max(v.height-reserved, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the chunk.
func (v *View) View() string {
	if v.chunk == nil {
		return v.styles.Muted.Render("No chunk selected")
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.chunk.DocumentID))
	b.WriteString("\n")
	for _, line := range v.headerLines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", min(max(v.width-4, 10), 60))))
	b.WriteString("\n\n")

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(empty chunk)"))
		b.WriteString("\n")
	}
	end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.styles.Normal.Render(v.lines[i]))
		b.WriteString("\n")
	}

	if len(v.lines) > v.visibleLines() {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d", v.scrollOffset+1, end, len(v.lines))))
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [pgup/pgdn] page  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and rewraps the text.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

// Chunk returns the displayed chunk, or nil.
func (v *View) Chunk() *messages.ChunkSelected {
	return v.chunk
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// LineCount returns the number of wrapped lines.
func (v *View) LineCount() int {
	return len(v.lines)
}
