package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"glove/internal/domain"
)

// SimilarPort is the TUI-facing subset of the embedding service.
type SimilarPort interface {
	Similar(word string, topK int) (domain.SimilarResult, error)
}

// Model is the Bubble Tea model for the neighbour browser.
type Model struct {
	service  SimilarPort
	topK     int
	input    textinput.Model
	viewport viewport.Model
	result   domain.SimilarResult
	summary  string
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(service SimilarPort, summary string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a word and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if topK <= 0 {
		topK = 10
	}
	return Model{service: service, topK: topK, input: ti, viewport: vp, summary: summary, status: "Loaded. Type a word."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, summary, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderNeighbors())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			word := strings.TrimSpace(m.input.Value())
			if word == "" {
				return m, nil
			}
			res, err := m.service.Similar(word, m.topK)
			if err != nil {
				m.status = "Error: " + err.Error()
				m.result = domain.SimilarResult{}
			} else {
				m.result = res
				m.cursor = 0
				m.status = fmt.Sprintf("Neighbours of %q", word)
				if res.OutOfVocabulary {
					m.status += " (out of vocabulary, using <UNK>)"
				}
			}
			m.viewport.SetContent(m.renderNeighbors())
			return m, nil
		case "down":
			if n := len(m.result.Neighbors); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderNeighbors())
				return m, nil
			}
		case "up":
			if n := len(m.result.Neighbors); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderNeighbors())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and the current neighbour list.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("GloVe Neighbours")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderNeighbors() string {
	if len(m.result.Neighbors) == 0 {
		return "No results yet."
	}
	lines := make([]string, 0, len(m.result.Neighbors))
	for i, n := range m.result.Neighbors {
		line := fmt.Sprintf("%2d. %-24s id=%-8d score=%.4f", i+1, n.Entry.Word, n.Entry.ID, n.Score)
		if i == m.cursor {
			line = highlightStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
