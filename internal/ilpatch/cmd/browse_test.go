package cmd

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ilpatch/internal/patch/patchtest"
	"ilpatch/internal/unpack"
)

func loaded(t *testing.T) model {
	t.Helper()
	next, cmd := newModel("patch.bytes", unpack.Options{}).Update(containerMsg{c: patchtest.Sample()})
	assert.Nil(t, cmd)
	m, ok := next.(model)
	require.True(t, ok)
	return m
}

func TestModel_Load(t *testing.T) {
	m := newModel("patch.bytes", unpack.Options{})
	assert.True(t, m.loading)
	assert.Contains(t, m.View(), "Q: quit")

	m = loaded(t)
	assert.False(t, m.loading)
	require.Len(t, m.methods.Items(), 2)
	assert.Equal(t, "Methods (2 total)", m.methods.Title)

	item := m.methods.Items()[1].(methodItem)
	assert.Equal(t, "Game.Player::Greet", item.target)
	assert.Equal(t, "5 slots, 1 handlers", item.stats())
	assert.Contains(t, m.View(), "M: methods")
}

func TestModel_LoadError(t *testing.T) {
	next, _ := newModel("patch.bytes", unpack.Options{}).Update(containerMsg{err: errors.New("boom")})
	m := next.(model)
	assert.EqualError(t, m.err, "boom")

	m.cycle(1)
	assert.Equal(t, viewSummary, m.mode, "nothing to browse")
}

func TestModel_Navigation(t *testing.T) {
	m := loaded(t)

	m.cycle(1)
	assert.Equal(t, viewMethods, m.mode)
	m.cycle(1)
	assert.Equal(t, viewSummary, m.mode, "no listing open yet")

	m.mode = viewMethods
	m.openSelected()
	assert.Equal(t, viewCode, m.mode)
	assert.Equal(t, 0, m.open)
	assert.Contains(t, m.View(), "Esc: methods")

	m.cycle(1)
	assert.Equal(t, viewSummary, m.mode)
	m.cycle(-1)
	assert.Equal(t, viewCode, m.mode)
}

func TestModel_Resize(t *testing.T) {
	next, _ := loaded(t).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := next.(model)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
