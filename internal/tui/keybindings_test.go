package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/markreview/internal/core/config"
)

func loadConfig(t *testing.T, bindings map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)
	for k, a := range bindings {
		if a == "" {
			delete(cfg.Keybindings, k)
			continue
		}
		cfg.Keybindings[k] = a
	}
	return cfg
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewKeyMap_Defaults(t *testing.T) {
	km := NewKeyMap(loadConfig(t, nil))

	assert.True(t, key.Matches(runeKey('r'), km.Reply))
	assert.True(t, key.Matches(runeKey('j'), km.NextComment))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyDown}, km.NextComment))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, km.Submit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyTab}, km.NextThread))
	assert.False(t, key.Matches(runeKey('x'), km.Reply))

	assert.Equal(t, "down/j", km.NextComment.Help().Key)
}

func TestNewKeyMap_Override(t *testing.T) {
	km := NewKeyMap(loadConfig(t, map[string]string{"r": "", "R": config.ActionReply}))

	assert.False(t, key.Matches(runeKey('r'), km.Reply))
	assert.True(t, key.Matches(runeKey('R'), km.Reply))
}

func TestNewKeyMap_UnboundActionDisabled(t *testing.T) {
	km := NewKeyMap(loadConfig(t, map[string]string{"u": ""}))

	assert.False(t, km.Unreview.Enabled())
	assert.False(t, key.Matches(runeKey('u'), km.Unreview))
}
