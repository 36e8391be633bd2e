// Package lemmatizer reduces free text to normalized word forms. It handles
// Russian and English words, drops function words (prepositions, conjunctions,
// particles, pronouns, articles, interjections) and normalizes the rest with
// a Snowball stemmer for the matching language.
package lemmatizer

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/kljensen/snowball/russian"
)

var wordPattern = regexp.MustCompile(`[a-zA-Zа-яА-Я]+`)

// Finder is stateless apart from its function-word sets. Construct once and
// share across goroutines.
type Finder struct {
	russianFunctionWords map[string]struct{}
	englishFunctionWords map[string]struct{}
}

func NewFinder() *Finder {
	return &Finder{
		russianFunctionWords: toSet(russianFunctionWords),
		englishFunctionWords: toSet(englishFunctionWords),
	}
}

// FindLemmas maps every indexable word of text to its occurrence count.
// Non-letter characters split words; function words contribute nothing.
// Blank input yields an empty map.
func (f *Finder) FindLemmas(text string) map[string]int {
	lemmas := make(map[string]int)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		lemma, ok := f.Lemma(word)
		if !ok {
			continue
		}
		lemmas[lemma]++
	}
	return lemmas
}

// Lemma normalizes a single already-lowercased word. ok is false for
// function words and words that produce no base form.
func (f *Finder) Lemma(word string) (string, bool) {
	var stem string
	if isRussian(word) {
		if _, skip := f.russianFunctionWords[word]; skip {
			return "", false
		}
		stem = russian.Stem(word, true)
	} else {
		if _, skip := f.englishFunctionWords[word]; skip {
			return "", false
		}
		stem = english.Stem(word, true)
	}
	if stem == "" {
		return "", false
	}
	return stem, true
}

func isRussian(word string) bool {
	for _, r := range word {
		if r >= 'а' && r <= 'я' {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
