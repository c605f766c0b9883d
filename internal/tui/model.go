// Package tui is the interactive query screen over the travel index.
package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"travelrag/internal/domain"
	"travelrag/internal/rag"
)

const indexPrefix = ":index "

// Port is the subset of the RAG service the screen needs.
type Port interface {
	IndexDestination(ctx context.Context, destination string) (rag.Indexed, error)
	Retrieve(ctx context.Context, query string, k int) (rag.Retrieval, error)
}

type retrievedMsg struct {
	query string
	res   rag.Retrieval
	err   error
}

type indexedMsg struct {
	out rag.Indexed
	err error
}

// Model is the Bubble Tea model for the query screen.
type Model struct {
	ctx       context.Context
	service   Port
	k         int
	input     textinput.Model
	viewport  viewport.Model
	hits      []domain.SearchHit
	digest    string
	status    string
	cursor    int
	busy      bool
	ready     bool
	lastQuery string
}

// New creates the screen. k is the number of documents fetched per query.
func New(ctx context.Context, service Port, k int, documents int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about a destination, or :index <destination>"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		service:  service,
		k:        k,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   fmt.Sprintf("%d documents indexed. Type to search.", documents),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) retrieve(q string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.service.Retrieve(m.ctx, q, m.k)
		return retrievedMsg{query: q, res: res, err: err}
	}
}

func (m Model) index(destination string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.service.IndexDestination(m.ctx, destination)
		return indexedMsg{out: out, err: err}
	}
}

// Update handles keys, window size and finished background work.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header and digest, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, max(3, msg.Height-reserved)-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case retrievedMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			m.hits = nil
		case msg.res.Status == domain.StatusEmpty:
			m.status = "Nothing indexed yet. Try :index <destination>."
			m.hits = nil
		default:
			m.status = fmt.Sprintf("Results for %q", msg.query)
			m.hits = msg.res.Hits
			m.lastQuery = msg.query
		}
		m.cursor = 0
		m.viewport.SetContent(m.renderCurrent())
		return m, nil

	case indexedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.digest = msg.out.Digest
		m.status = fmt.Sprintf("Indexed %s as document %s", msg.out.Destination, msg.out.Document.ID)
		if msg.out.Rebuilt {
			m.status += fmt.Sprintf(" (index rebuilt, %d dropped)", msg.out.Discarded)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.input.SetValue("")
			if dest, ok := strings.CutPrefix(q+" ", indexPrefix); ok {
				dest = strings.TrimSpace(dest)
				m.status = "Indexing " + dest + "..."
				return m, m.index(dest)
			}
			m.status = "Searching..."
			return m, m.retrieve(q)
		case "down":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor + 1) % len(m.hits)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.hits) > 0 {
				m.cursor = (m.cursor - 1 + len(m.hits)) % len(m.hits)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout and the selected hit.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Travel Index")
	digest := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.digest)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + digest + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.hits) == 0 {
		return "No results yet."
	}
	h := m.hits[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %v  distance=%.3f", m.cursor+1, len(m.hits), h.Document.Metadata[rag.MetaDestination], h.Distance)
	return title + "\n\n" + highlightBestSentence(h.Document.Text, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`[^.!?\n]+[.!?]*`)
)

// highlightBestSentence marks the sentence or line sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var parts []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	q := wordSet(query)
	if len(q) == 0 || len(parts) == 0 {
		return text
	}
	best, bestScore := 0, -1
	for i, s := range parts {
		if score := overlap(q, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	parts[best] = highlightStyle.Render(parts[best])
	return strings.Join(parts, "\n")
}

func wordSet(s string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlap(query map[string]struct{}, sentence string) int {
	n := 0
	for w := range wordSet(sentence) {
		if _, ok := query[w]; ok {
			n++
		}
	}
	return n
}
