package lemmatizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLemmasEmptyInput(t *testing.T) {
	f := NewFinder()

	assert.Empty(t, f.FindLemmas(""))
	assert.Empty(t, f.FindLemmas("   \n\t  "))
	assert.Empty(t, f.FindLemmas("12345 !@#$% ..."))
}

func TestFindLemmasFunctionWordsOnly(t *testing.T) {
	f := NewFinder()

	assert.Empty(t, f.FindLemmas("the and of a an"))
	assert.Empty(t, f.FindLemmas("и в на не по за"))
	assert.Empty(t, f.FindLemmas("и the в of"))
}

func TestFindLemmasCounts(t *testing.T) {
	f := NewFinder()

	lemmas := f.FindLemmas("dog dog cat")
	require.Len(t, lemmas, 2)
	assert.Equal(t, 2, lemmas["dog"])
	assert.Equal(t, 1, lemmas["cat"])
}

func TestFindLemmasNormalizesInflections(t *testing.T) {
	f := NewFinder()

	lemmas := f.FindLemmas("Dog dogs DOG")
	require.Len(t, lemmas, 1)
	assert.Equal(t, 3, lemmas["dog"])
}

func TestFindLemmasRussian(t *testing.T) {
	f := NewFinder()

	lemmas := f.FindLemmas("кот и кот")
	require.Len(t, lemmas, 1)
	assert.Equal(t, 2, lemmas["кот"])
}

func TestFindLemmasMixedAlphabets(t *testing.T) {
	f := NewFinder()

	lemmas := f.FindLemmas("кот cat")
	assert.Len(t, lemmas, 2)
	assert.Equal(t, 1, lemmas["кот"])
	assert.Equal(t, 1, lemmas["cat"])
}

func TestFindLemmasDeterministic(t *testing.T) {
	f := NewFinder()
	text := "Быстрый кот ловит мышей, the quick cat catches mice"

	first := f.FindLemmas(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.FindLemmas(text))
	}
}

func TestFindLemmasNonNegativeCounts(t *testing.T) {
	f := NewFinder()

	for lemma, count := range f.FindLemmas("some words, слова и ещё words") {
		assert.Positive(t, count, "lemma %q", lemma)
	}
}

func TestLemmaSingleWord(t *testing.T) {
	f := NewFinder()

	lemma, ok := f.Lemma("dogs")
	require.True(t, ok)
	assert.Equal(t, "dog", lemma)

	_, ok = f.Lemma("the")
	assert.False(t, ok)

	_, ok = f.Lemma("и")
	assert.False(t, ok)
}
