// Package list renders similarity hits and holds the text helpers shared by
// the list views.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/styles"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

const (
	linesPerResult = 3
	scoreBarWidth  = 10
)

// ResultList shows search hits best first. Each hit takes three lines: the
// chunk id with its score, where the chunk came from, and a text preview.
type ResultList struct {
	results  []domain.SearchResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

func (r *ResultList) Init() tea.Cmd {
	return nil
}

func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch key.String() {
	case "up", "k":
		r.MoveUp()
	case "down", "j":
		r.MoveDown()
	case "pgup":
		r.SetSelected(max(r.selected-r.visible(), 0))
	case "pgdown":
		r.SetSelected(min(r.selected+r.visible(), len(r.results)-1))
	case "home", "g":
		r.SetSelected(0)
	case "end", "G":
		r.SetSelected(len(r.results) - 1)
	}
	return r, nil
}

func (r *ResultList) visible() int {
	return max((r.height-4)/linesPerResult, 1)
}

func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	header := fmt.Sprintf("Results (%d)", len(r.results))
	if len(r.results) > r.visible() {
		header += fmt.Sprintf("  %d/%d", r.selected+1, len(r.results))
	}
	lines := []string{r.styles.Subtitle.Render(header), ""}

	start := max(r.selected-r.visible()+1, 0)
	end := min(start+r.visible(), len(r.results))
	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderResult(index int, hit *domain.SearchResult) string {
	marker := "  "
	if index == r.selected {
		marker = "> "
	}

	idWidth := max(r.width-scoreBarWidth-16, 10)
	id := fmt.Sprintf("%s%-*s  ", marker, idWidth, Truncate(hit.DocumentID, idWidth))
	score := ScoreBar(hit.Score, scoreBarWidth) + fmt.Sprintf(" %.3f", hit.Score)

	var head string
	if index == r.selected {
		head = r.styles.Selected.Render(id + score)
	} else {
		head = r.styles.Normal.Render(id) + r.styles.Score.Render(score)
	}

	origin := r.styles.Subtitle.Render("    " + Truncate(Origin(hit.Metadata), max(r.width-6, 10)))
	preview := r.styles.Muted.Render("    " + Truncate(Flatten(hit.Text), max(r.width-6, 20)))
	return head + "\n" + origin + "\n" + preview
}

// Origin describes where a chunk came from: the source title, or its URL
// when untitled, followed by the chunk position within that source.
func Origin(meta map[string]any) string {
	origin, _ := meta[domain.MetaSourceTitle].(string)
	if origin == "" {
		origin, _ = meta[domain.MetaSourceURL].(string)
	}
	if origin == "" {
		origin = "unknown source"
	}
	if n, ok := chunkIndex(meta[domain.MetaChunkIndex]); ok {
		origin += fmt.Sprintf(" · chunk %d", n)
	}
	return origin
}

// chunkIndex accepts the numeric shapes metadata takes after a JSON or
// vector store round trip.
func chunkIndex(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// ScoreBar draws a similarity score in [0, 1] as a fixed width gauge.
func ScoreBar(score float64, width int) string {
	filled := int(score*float64(width) + 0.5)
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// SetResults replaces the hits and moves the selection to the top.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.selected = 0
}

func (r *ResultList) Results() []domain.SearchResult { return r.results }
func (r *ResultList) Selected() int                  { return r.selected }
func (r *ResultList) Count() int                     { return len(r.results) }

// SetSelected ignores indexes outside the list.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

func (r *ResultList) MoveUp()   { r.SetSelected(r.selected - 1) }
func (r *ResultList) MoveDown() { r.SetSelected(r.selected + 1) }

func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// Flatten collapses whitespace runs, including newlines, into single spaces.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
