package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestConfirmModal(t *testing.T) {
	tests := []struct {
		name      string
		msg       tea.Msg
		confirmed bool
		cancelled bool
	}{
		{"yes", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}}, true, false},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, true, false},
		{"no", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}}, false, true},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, false, true},
		{"other key", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}, false, false},
		{"not a key", tea.WindowSizeMsg{Width: 10}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := NewConfirmModal("Delete comment?").Update(tt.msg)
			assert.Nil(t, cmd)
			assert.Equal(t, tt.confirmed, m.Confirmed())
			assert.Equal(t, tt.cancelled, m.Cancelled())
			assert.Equal(t, tt.confirmed || tt.cancelled, m.Done())
		})
	}
}

func TestConfirmModal_View(t *testing.T) {
	out := NewConfirmModal("Delete comment by alice?").View()
	assert.Contains(t, out, "Delete comment by alice?")
	assert.Contains(t, out, "(y/n)")
}
