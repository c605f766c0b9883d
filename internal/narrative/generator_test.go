package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"travelrag/internal/domain"
	"travelrag/internal/rag"
)

type fakeRetriever struct {
	result  rag.Retrieval
	err     error
	queries []string
	ks      []int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, k int) (rag.Retrieval, error) {
	f.queries = append(f.queries, query)
	f.ks = append(f.ks, k)
	return f.result, f.err
}

type fakeCompleter struct {
	out     domain.Completion
	err     error
	prompts []string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (domain.Completion, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func hits(texts ...string) rag.Retrieval {
	r := rag.Retrieval{Status: domain.StatusOK}
	for _, t := range texts {
		r.Hits = append(r.Hits, domain.SearchHit{Document: domain.Document{Text: t}})
	}
	return r
}

var paris = Request{
	Origin:      "London",
	Destination: "Paris",
	StartDate:   "2025-05-01",
	EndDate:     "2025-05-05",
	Purpose:     "Leisure",
}

func TestItineraryPrompt(t *testing.T) {
	ret := &fakeRetriever{result: hits("Paris is the capital.", "Louvre - Rue de Rivoli")}
	comp := &fakeCompleter{out: domain.Completion{Text: "Day 1: Louvre"}}
	g := NewGenerator(ret, comp, 2, arbor.NewLogger())

	out, err := g.Generate(context.Background(), paris)
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Louvre", out)
	assert.Equal(t, []string{"Best travel itinerary for Paris"}, ret.queries)
	assert.Equal(t, []int{2}, ret.ks)

	require.Len(t, comp.prompts, 1)
	assert.Equal(t,
		"Create a detailed travel itinerary for Paris from London (2025-05-01 - 2025-05-05).\n"+
			"Purpose: Leisure\n\n"+
			"Additional Travel Information:\n"+
			"Paris is the capital. Louvre - Rue de Rivoli",
		comp.prompts[0])
}

func TestStoryPrompt(t *testing.T) {
	ret := &fakeRetriever{result: hits("Montmartre at dusk.")}
	comp := &fakeCompleter{out: domain.Completion{Text: "Once upon a time"}}
	req := paris
	req.Kind = Story

	_, err := NewGenerator(ret, comp, 0, arbor.NewLogger()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"Best places to visit in Paris for Leisure"}, ret.queries)
	assert.Contains(t, comp.prompts[0], "Create a compelling travel story about visiting Paris from London (2025-05-01 - 2025-05-05).")
	assert.Contains(t, comp.prompts[0], "Additional Travel Information:\nMontmartre at dusk.")
}

func TestEmptyRetrievalUsesPlaceholder(t *testing.T) {
	ret := &fakeRetriever{result: rag.Retrieval{Status: domain.StatusEmpty}}
	comp := &fakeCompleter{out: domain.Completion{Text: "ok"}}

	_, err := NewGenerator(ret, comp, 2, arbor.NewLogger()).Generate(context.Background(), paris)
	require.NoError(t, err)
	assert.Contains(t, comp.prompts[0], "Additional Travel Information:\n"+NoContext)
}

func TestContextKeepsDuplicatesInOrder(t *testing.T) {
	assert.Equal(t, "b a b", ContextText(hits("b", "a", "b")))
}

func TestRawResponseFallback(t *testing.T) {
	ret := &fakeRetriever{result: hits("x")}
	comp := &fakeCompleter{out: domain.Completion{Raw: 42}}

	out, err := NewGenerator(ret, comp, 2, arbor.NewLogger()).Generate(context.Background(), paris)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestErrorsPropagate(t *testing.T) {
	g := NewGenerator(&fakeRetriever{err: errors.New("disk")}, &fakeCompleter{}, 2, arbor.NewLogger())
	_, err := g.Generate(context.Background(), paris)
	assert.ErrorContains(t, err, "disk")

	comp := &fakeCompleter{err: errors.New("quota")}
	g = NewGenerator(&fakeRetriever{result: hits("x")}, comp, 2, arbor.NewLogger())
	_, err = g.Generate(context.Background(), paris)
	assert.ErrorContains(t, err, "quota")
	assert.Len(t, comp.prompts, 1)

	_, err = g.Generate(context.Background(), Request{})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Story")
	require.NoError(t, err)
	assert.Equal(t, Story, k)
	k, err = ParseKind("plan")
	require.NoError(t, err)
	assert.Equal(t, Itinerary, k)
	_, err = ParseKind("poem")
	assert.Error(t, err)
}
