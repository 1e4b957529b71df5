package chunks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/tui/messages"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// pagedDownload serves ids in order, strictly after the cursor.
type pagedDownload struct {
	ids     []string
	err     error
	cursors []*string
}

func (p *pagedDownload) Download(_ context.Context, packID string, cursor *string, limit int) (*domain.DownloadPage, error) {
	p.cursors = append(p.cursors, cursor)
	if p.err != nil {
		return nil, p.err
	}
	start := 0
	if cursor != nil {
		for start < len(p.ids) && p.ids[start] <= *cursor {
			start++
		}
	}
	end := min(start+limit, len(p.ids))

	page := &domain.DownloadPage{PackID: packID, Limit: limit, Offset: cursor}
	for _, id := range p.ids[start:end] {
		page.Items = append(page.Items, domain.DownloadItem{DocumentID: id, Text: "text of " + id})
	}
	if end < len(p.ids) {
		last := p.ids[end-1]
		page.NextOffset = &last
	}
	return page, nil
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("ai-basics-00-%04d", i)
	}
	return ids
}

// run executes cmd and feeds its message back into the view.
func run(v *View, cmd tea.Cmd) {
	if cmd != nil {
		v.Update(cmd())
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newBrowser(dl *pagedDownload, pageSize int) *View {
	v := NewView(nil, dl)
	v.SetDimensions(100, 40)
	v.SetPageSize(pageSize)
	run(v, v.SetPack("ai-basics"))
	return v
}

func TestView_FirstPage(t *testing.T) {
	dl := &pagedDownload{ids: makeIDs(5)}
	v := newBrowser(dl, 2)

	require.Len(t, v.Items(), 2)
	assert.Equal(t, "ai-basics-00-0000", v.SelectedItem().DocumentID)
	assert.Nil(t, dl.cursors[0])
	assert.Contains(t, v.View(), "[n] next")
	assert.NotContains(t, v.View(), "[p] prev")
}

func TestView_PagingForwardAndBack(t *testing.T) {
	dl := &pagedDownload{ids: makeIDs(5)}
	v := newBrowser(dl, 2)

	_, cmd := v.Update(key("n"))
	run(v, cmd)
	assert.Equal(t, 1, v.Page())
	assert.Equal(t, "ai-basics-00-0002", v.Items()[0].DocumentID)

	_, cmd = v.Update(key("n"))
	run(v, cmd)
	require.Len(t, v.Items(), 1)
	assert.Equal(t, "ai-basics-00-0004", v.Items()[0].DocumentID)
	assert.Contains(t, v.View(), "End of pack.")

	_, cmd = v.Update(key("n"))
	assert.Nil(t, cmd)

	_, cmd = v.Update(key("p"))
	run(v, cmd)
	assert.Equal(t, 1, v.Page())
	assert.Equal(t, "ai-basics-00-0002", v.Items()[0].DocumentID)

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyLeft})
	run(v, cmd)
	assert.Equal(t, 0, v.Page())
	assert.Equal(t, "ai-basics-00-0000", v.Items()[0].DocumentID)

	_, cmd = v.Update(key("p"))
	assert.Nil(t, cmd)
}

func TestView_PagesCoverEveryChunkOnce(t *testing.T) {
	dl := &pagedDownload{ids: makeIDs(7)}
	v := newBrowser(dl, 3)

	var seen []string
	for {
		for _, item := range v.Items() {
			seen = append(seen, item.DocumentID)
		}
		_, cmd := v.Update(key("n"))
		if cmd == nil {
			break
		}
		run(v, cmd)
	}

	assert.Equal(t, makeIDs(7), seen)
}

func TestView_EnterOpensChunk(t *testing.T) {
	v := newBrowser(&pagedDownload{ids: makeIDs(3)}, 10)

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	sel, ok := cmd().(messages.ChunkSelected)
	require.True(t, ok)
	assert.Equal(t, "ai-basics", sel.PackID)
	assert.Equal(t, "ai-basics-00-0001", sel.DocumentID)
	assert.Equal(t, messages.ViewChunks, sel.From)
}

func TestView_Error(t *testing.T) {
	v := newBrowser(&pagedDownload{err: errors.New("store offline")}, 10)

	require.Error(t, v.Err())
	assert.Contains(t, v.View(), "store offline")
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil)

	run(v, v.SetPack("ai-basics"))

	assert.Error(t, v.Err())
}

func TestView_IgnoresStalePages(t *testing.T) {
	v := newBrowser(&pagedDownload{ids: makeIDs(3)}, 10)

	v.Update(messages.PageLoaded{PackID: "other", Page: &domain.DownloadPage{}})

	assert.Len(t, v.Items(), 3)
}

func TestView_EmptyPack(t *testing.T) {
	v := newBrowser(&pagedDownload{}, 10)

	assert.Contains(t, v.View(), "No chunks on this page.")
	assert.Nil(t, v.SelectedItem())
}

func TestView_SetPageSizeBounds(t *testing.T) {
	v := NewView(nil, nil)

	v.SetPageSize(0)
	assert.Equal(t, DefaultPageSize, v.pageSize)

	v.SetPageSize(domain.MaxDownloadLimit + 1)
	assert.Equal(t, DefaultPageSize, v.pageSize)

	v.SetPageSize(5)
	assert.Equal(t, 5, v.pageSize)
}

func TestView_EscGoesToDetail(t *testing.T) {
	v := newBrowser(&pagedDownload{}, 10)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewPackDetail}, cmd())
}
