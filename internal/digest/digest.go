// Package digest picks the most representative sentences of fetched travel text.
package digest

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultSentences is used when a caller asks for zero or fewer sentences.
const DefaultSentences = 3

var (
	tokenRe    = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`[^.!?\n]+[.!?]*`)
)

// Digester ranks sentences by normalized term frequency, ignoring stopwords.
type Digester struct {
	stopwords map[string]struct{}
}

// New creates a Digester with the built-in English stopword list.
func New() *Digester {
	return &Digester{stopwords: stopwords()}
}

// Sentences returns up to n sentences of text in their original order, chosen
// by summed word frequency over the square root of sentence length. Headings
// such as "Top Attractions:" and list lines count as sentences too.
func (d *Digester) Sentences(text string, n int) []string {
	if n <= 0 {
		n = DefaultSentences
	}
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= n {
		return sentences
	}

	freq := map[string]float64{}
	top := 0.0
	for _, s := range sentences {
		for _, tok := range d.tokens(s) {
			freq[tok]++
			top = math.Max(top, freq[tok])
		}
	}

	type ranked struct {
		pos   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, s := range sentences {
		toks := d.tokens(s)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok] / top
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = ranked{pos: i, score: score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	picked := make([]int, n)
	for i := range picked {
		picked[i] = scores[i].pos
	}
	sort.Ints(picked)
	out := make([]string, n)
	for i, pos := range picked {
		out[i] = sentences[pos]
	}
	return out
}

// Summary joins Sentences with a single space.
func (d *Digester) Summary(text string, n int) string {
	return strings.Join(d.Sentences(text, n), " ")
}

func (d *Digester) tokens(s string) []string {
	all := tokenRe.FindAllString(strings.ToLower(s), -1)
	out := all[:0]
	for _, t := range all {
		if _, stop := d.stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func stopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
		"those", "from", "up", "down", "over", "under", "so", "such", "into", "about", "between", "through",
		"during", "before", "after", "out", "off", "too", "very", "can", "will", "just", "also", "has", "have",
		"no", "not",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
