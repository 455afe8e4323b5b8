package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func press(m OverwriteModel, msgs ...tea.KeyMsg) OverwriteModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(OverwriteModel)
	}
	return m
}

func TestOverwriteModel(t *testing.T) {
	enter := tea.KeyMsg{Type: tea.KeyEnter}
	left := tea.KeyMsg{Type: tea.KeyLeft}
	right := tea.KeyMsg{Type: tea.KeyRight}
	esc := tea.KeyMsg{Type: tea.KeyEsc}
	y := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}
	n := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"enter defaults to cancel", []tea.KeyMsg{enter}, false},
		{"toggle then enter", []tea.KeyMsg{left, enter}, true},
		{"toggle twice then enter", []tea.KeyMsg{left, right, enter}, false},
		{"quick yes", []tea.KeyMsg{y}, true},
		{"quick no", []tea.KeyMsg{left, n}, false},
		{"escape declines", []tea.KeyMsg{left, esc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewOverwritePrompt("demo", nil), tt.keys...)
			require.True(t, m.Answered())
			require.Equal(t, tt.want, m.Confirmed())
			require.Empty(t, m.View())
		})
	}
}

func TestOverwriteModel_View(t *testing.T) {
	m := NewOverwritePrompt("/workspace/demo", []string{"g", "f", "e", "d", "c", "b", "a"})
	view := m.View()

	require.Contains(t, view, "/workspace/demo is not empty")
	require.Contains(t, view, "  a\n")
	require.Contains(t, view, "  e\n")
	require.NotContains(t, view, "  f\n")
	require.Contains(t, view, "and 2 more")
	require.Contains(t, view, "> Cancel")
	require.False(t, m.Answered())
	require.False(t, m.Confirmed())
}
