package search

import (
	"strings"

	"github.com/dangpham/sitesearch/internal/lemmatizer"
)

// buildSnippet cuts windows of tokens around query-lemma matches, joins them
// with ellipses and wraps every matching token of the final snippet in <b>
// tags. Tokens are whitespace-separated; a token matches when any lemma of
// its letter runs is a query lemma.
func (e *Engine) buildSnippet(text string, queryLemmas map[string]int) string {
	tokens := strings.Fields(text)
	match := newTokenMatcher(e.lemmas, queryLemmas)

	var fragments []string
	lastEnd := -1
	for pos, token := range tokens {
		if len(fragments) >= e.maxFragments {
			break
		}
		if pos <= lastEnd || !match.matches(token) {
			continue
		}

		start := pos - e.window
		if start < 0 {
			start = 0
		}
		end := pos + e.window + 1
		if end > len(tokens) {
			end = len(tokens)
		}
		fragments = append(fragments, "... "+strings.Join(tokens[start:end], " ")+" ...")
		lastEnd = end - 1
	}
	if len(fragments) == 0 {
		return ""
	}

	highlighted := strings.Fields(strings.Join(fragments, " "))
	for i, token := range highlighted {
		if match.matches(token) {
			highlighted[i] = "<b>" + token + "</b>"
		}
	}
	return strings.Join(highlighted, " ")
}

// tokenMatcher memoizes per-token lemma lookups within one snippet build.
type tokenMatcher struct {
	finder *lemmatizer.Finder
	query  map[string]int
	cache  map[string]bool
}

func newTokenMatcher(finder *lemmatizer.Finder, query map[string]int) *tokenMatcher {
	return &tokenMatcher{
		finder: finder,
		query:  query,
		cache:  make(map[string]bool),
	}
}

func (m *tokenMatcher) matches(token string) bool {
	if hit, cached := m.cache[token]; cached {
		return hit
	}

	hit := false
	for lemma := range m.finder.FindLemmas(token) {
		if _, ok := m.query[lemma]; ok {
			hit = true
			break
		}
	}
	m.cache[token] = hit
	return hit
}
