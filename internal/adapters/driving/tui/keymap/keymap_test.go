package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Quit.Keys(), "q")
	assert.Contains(t, km.Quit.Keys(), "ctrl+c")
	assert.Contains(t, km.Back.Keys(), "esc")
	assert.Contains(t, km.Up.Keys(), "k")
	assert.Contains(t, km.Down.Keys(), "j")
	assert.Contains(t, km.NextPack.Keys(), "tab")
}

func TestDefaultKeyMap_Paging(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, Matches("n", km.NextPage))
	assert.True(t, Matches("right", km.NextPage))
	assert.True(t, Matches("p", km.PrevPage))
	assert.True(t, Matches("left", km.PrevPage))
	assert.False(t, Matches("n", km.PrevPage))
}

func TestShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := km.ShortHelp()

	require.Len(t, bindings, 3)
	assert.Equal(t, km.NextPack, bindings[0])
	assert.Equal(t, km.Back, bindings[2])
}

func TestPagerHelp(t *testing.T) {
	km := DefaultKeyMap()

	assert.Contains(t, km.PagerHelp(), km.NextPage)
	assert.Contains(t, km.PagerHelp(), km.PrevPage)
}

func TestFullHelp(t *testing.T) {
	km := DefaultKeyMap()

	groups := km.FullHelp()

	assert.Len(t, groups, 4)
	assert.Len(t, groups[3], 2)
}

func TestMatches_False(t *testing.T) {
	km := DefaultKeyMap()

	assert.False(t, Matches("x", km.Quit))
	assert.False(t, Matches("down", km.Up))
}

func TestBindings_HaveHelp(t *testing.T) {
	km := DefaultKeyMap()

	bindings := map[string]key.Binding{
		"Quit":      km.Quit,
		"Help":      km.Help,
		"Back":      km.Back,
		"Select":    km.Select,
		"Search":    km.Search,
		"NewSearch": km.NewSearch,
		"NextPack":  km.NextPack,
		"NextPage":  km.NextPage,
		"PrevPage":  km.PrevPage,
		"Refresh":   km.Refresh,
		"Remove":    km.Remove,
	}

	for name, b := range bindings {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, b.Help().Key)
			assert.NotEmpty(t, b.Help().Desc)
		})
	}
}
