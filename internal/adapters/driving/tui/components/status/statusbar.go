// Package status renders the one-line bar under the search view.
package status

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/keymap"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
)

// State is what the search view is doing.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateResults   State = "results"
)

// Bar shows the pack in scope and the search state on the left, and the
// key hints that apply to that state on the right.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	scope   string
	count   int
	elapsed time.Duration
	width   int
}

func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

func (s *Bar) Init() tea.Cmd { return nil }

// Update is a no-op; the search view drives the bar through its setters.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) { return s, nil }

func (s *Bar) View() string {
	left := s.status()
	if s.scope != "" {
		left = s.styles.Subtitle.Render("["+s.scope+"]") + " " + left
	}
	right := s.styles.Muted.Render(s.hints())

	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) status() string {
	switch s.state {
	case StateSearching:
		return s.styles.Muted.Render("Searching...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateResults:
		parts := []string{Plural(s.count, "result")}
		if s.elapsed > 0 {
			parts[0] += " in " + FormatElapsed(s.elapsed)
		}
		if s.message != "" {
			parts = append(parts, s.message)
		}
		return s.styles.Normal.Render(strings.Join(parts, " | "))
	}
	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) hints() string {
	bindings := s.keymap.ShortHelp()
	if s.state == StateResults && s.count > 0 {
		bindings = s.keymap.ResultsHelp()
	}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return strings.Join(hints, " | ")
}

// Plural formats a count with its noun, adding an s unless n is 1.
func Plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// FormatElapsed prints milliseconds under a second and tenths of a second
// above it.
func FormatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", max(d.Milliseconds(), 1))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func (s *Bar) SetState(state State)   { s.state = state }
func (s *Bar) State() State           { return s.state }
func (s *Bar) SetMessage(msg string)  { s.message = msg }
func (s *Bar) Message() string        { return s.message }
func (s *Bar) SetScope(packID string) { s.scope = packID }
func (s *Bar) Scope() string          { return s.scope }
func (s *Bar) SetWidth(width int)     { s.width = width }
func (s *Bar) ResultCount() int       { return s.count }
func (s *Bar) Elapsed() time.Duration { return s.elapsed }

// SetResults switches to the results state with the hit count and how long
// the search took.
func (s *Bar) SetResults(count int, elapsed time.Duration) {
	s.state = StateResults
	s.message = ""
	s.count = count
	s.elapsed = elapsed
}

// Clear returns to the ready state. The scope is kept.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.count = 0
	s.elapsed = 0
}
