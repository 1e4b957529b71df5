// Package input holds the query field used by the search view.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
)

const (
	// QueryLimit caps the length of a search query.
	QueryLimit = 512

	// HistoryLimit is how many submitted queries are kept for recall.
	HistoryLimit = 50

	minFieldWidth = 20
)

// SearchInput is a query field with a scope label and a recall history.
// Up and down walk the history while the field has focus; the line being
// typed is restored when walking past the newest entry.
type SearchInput struct {
	field   textinput.Model
	styles  *styles.Styles
	label   string
	width   int
	history []string
	cursor  int
	draft   string
}

func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask this pack..."
	ti.CharLimit = QueryLimit
	ti.Focus()

	in := &SearchInput{field: ti, styles: s, label: "Search"}
	in.SetWidth(50)
	return in
}

func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && s.field.Focused() {
		switch key.Type {
		case tea.KeyUp:
			s.recall(-1)
			return s, nil
		case tea.KeyDown:
			s.recall(1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

func (s *SearchInput) View() string {
	label := s.styles.Title.Render(s.label + ": ")
	field := s.styles.InputField.Render(s.field.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Remember appends a submitted query to the history. Blank queries and
// repeats of the newest entry are ignored.
func (s *SearchInput) Remember(query string) {
	query = strings.TrimSpace(query)
	if query != "" && (len(s.history) == 0 || s.history[len(s.history)-1] != query) {
		s.history = append(s.history, query)
		if over := len(s.history) - HistoryLimit; over > 0 {
			s.history = s.history[over:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
}

// History returns the remembered queries, oldest first.
func (s *SearchInput) History() []string {
	return s.history
}

func (s *SearchInput) recall(step int) {
	if len(s.history) == 0 {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.field.Value()
	}
	s.cursor = max(0, min(s.cursor+step, len(s.history)))
	if s.cursor == len(s.history) {
		s.field.SetValue(s.draft)
	} else {
		s.field.SetValue(s.history[s.cursor])
	}
	s.field.CursorEnd()
}

// SetLabel replaces the label, usually with the pack being searched.
func (s *SearchInput) SetLabel(label string) {
	s.label = label
	s.SetWidth(s.width)
}

func (s *SearchInput) Label() string { return s.label }
func (s *SearchInput) Value() string { return s.field.Value() }
func (s *SearchInput) Width() int    { return s.width }

func (s *SearchInput) SetValue(value string) { s.field.SetValue(value) }
func (s *SearchInput) Focus() tea.Cmd        { return s.field.Focus() }
func (s *SearchInput) Blur()                 { s.field.Blur() }
func (s *SearchInput) Focused() bool         { return s.field.Focused() }

// SetWidth sizes the field to what is left beside the label.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.field.Width = max(width-lipgloss.Width(s.label)-8, minFieldWidth)
}

// Reset clears the field and the history cursor but keeps the history.
func (s *SearchInput) Reset() {
	s.field.Reset()
	s.cursor = len(s.history)
	s.draft = ""
}
