package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glove/internal/domain"
)

type fakePort struct {
	calls []string
	res   domain.SimilarResult
	err   error
}

func (f *fakePort) Similar(word string, topK int) (domain.SimilarResult, error) {
	f.calls = append(f.calls, word)
	return f.res, f.err
}

func typeWord(t *testing.T, m Model, word string) Model {
	t.Helper()
	out, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(word)})
	out, _ = out.Update(tea.KeyMsg{Type: tea.KeyEnter})
	next, ok := out.(Model)
	require.True(t, ok)
	return next
}

func TestViewBeforeResize(t *testing.T) {
	m := New(&fakePort{}, "3 words", 5)
	assert.Equal(t, "Loading...", m.View())
}

func TestEnterQueriesNeighbors(t *testing.T) {
	port := &fakePort{res: domain.SimilarResult{
		Word: "king",
		Neighbors: []domain.Neighbor{
			{Entry: domain.Entry{ID: 2, Word: "queen"}, Score: 0.99},
			{Entry: domain.Entry{ID: 5, Word: "prince"}, Score: 0.8},
		},
	}}
	out, _ := New(port, "3 words", 5).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m := typeWord(t, out.(Model), "king")

	assert.Equal(t, []string{"king"}, port.calls)
	assert.Equal(t, `Neighbours of "king"`, m.status)
	view := m.View()
	assert.Contains(t, view, "queen")
	assert.Contains(t, view, "prince")
	assert.Contains(t, view, "3 words")

	out, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, out.(Model).cursor)
	out, _ = out.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, out.(Model).cursor)
	out, _ = out.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, out.(Model).cursor)
}

func TestOutOfVocabularyStatus(t *testing.T) {
	port := &fakePort{res: domain.SimilarResult{Word: "zzz", OutOfVocabulary: true}}
	m := typeWord(t, New(port, "", 0), "zzz")
	assert.Contains(t, m.status, "out of vocabulary")
	assert.Equal(t, 10, m.topK)
}

func TestErrorStatus(t *testing.T) {
	port := &fakePort{err: errors.New("not loaded")}
	m := typeWord(t, New(port, "", 3), "king")
	assert.Equal(t, "Error: not loaded", m.status)
	assert.Empty(t, m.result.Neighbors)
}

func TestBlankEnterDoesNotQuery(t *testing.T) {
	port := &fakePort{}
	out, _ := New(port, "", 3).Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, port.calls)
	_, cmd := out.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
