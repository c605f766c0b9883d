package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelrag/internal/domain"
	"travelrag/internal/rag"
	"travelrag/internal/vectorindex"
)

type fakePort struct {
	retrieval rag.Retrieval
	err       error
	indexed   []string
	queries   []string
}

func (f *fakePort) IndexDestination(_ context.Context, destination string) (rag.Indexed, error) {
	f.indexed = append(f.indexed, destination)
	return rag.Indexed{
		AddResult:   vectorindex.AddResult{Document: domain.Document{ID: "3"}},
		Destination: destination,
		Digest:      "Kyoto has temples.",
	}, f.err
}

func (f *fakePort) Retrieve(_ context.Context, query string, _ int) (rag.Retrieval, error) {
	f.queries = append(f.queries, query)
	return f.retrieval, f.err
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestQueryShowsHits(t *testing.T) {
	port := &fakePort{retrieval: rag.Retrieval{Status: domain.StatusOK, Hits: []domain.SearchHit{
		{Document: domain.Document{ID: "0", Text: "Rome is old. The Colosseum is huge."}, Distance: 0.5},
		{Document: domain.Document{ID: "1", Text: "Paris has the Louvre."}, Distance: 0.9},
	}}}
	m := New(context.Background(), port, 2, 2)

	m, cmd := typeAndEnter(t, m, "Colosseum")
	assert.True(t, m.busy)
	m = run(t, m, cmd)

	assert.False(t, m.busy)
	assert.Equal(t, []string{"Colosseum"}, port.queries)
	assert.Len(t, m.hits, 2)
	assert.Contains(t, m.renderCurrent(), "Result 1/2")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
}

func TestQueryOnEmptyIndex(t *testing.T) {
	port := &fakePort{retrieval: rag.Retrieval{Status: domain.StatusEmpty}}
	m := New(context.Background(), port, 2, 0)
	m, cmd := typeAndEnter(t, m, "anything")
	m = run(t, m, cmd)
	assert.Contains(t, m.status, "Nothing indexed yet")
	assert.Equal(t, "No results yet.", m.renderCurrent())
}

func TestIndexCommand(t *testing.T) {
	port := &fakePort{}
	m := New(context.Background(), port, 2, 0)
	m, cmd := typeAndEnter(t, m, ":index Kyoto")
	m = run(t, m, cmd)

	assert.Equal(t, []string{"Kyoto"}, port.indexed)
	assert.Empty(t, port.queries)
	assert.Equal(t, "Kyoto has temples.", m.digest)
	assert.Contains(t, m.status, "Indexed Kyoto as document 3")
}

func TestErrorsReachStatus(t *testing.T) {
	port := &fakePort{err: errors.New("disk full")}
	m := New(context.Background(), port, 2, 0)
	m, cmd := typeAndEnter(t, m, "Rome")
	m = run(t, m, cmd)
	assert.Equal(t, "Error: disk full", m.status)
}

func TestHighlightBestSentence(t *testing.T) {
	out := highlightBestSentence("Rome is old. The Colosseum is huge.", "colosseum")
	assert.Contains(t, out, "Rome is old.")
	assert.Contains(t, out, "Colosseum")
	assert.Equal(t, "", highlightBestSentence("", "x"))
}
