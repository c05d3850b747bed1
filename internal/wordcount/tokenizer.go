package wordcount

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// WordCounts maps a lowercased word to its number of occurrences.
type WordCounts map[string]int

// Letters, nonspacing marks, decimal digits and connector punctuation
// (which covers '_') are word constituents. Everything else delimits.
var wordClasses = []*unicode.RangeTable{unicode.L, unicode.Mn, unicode.Nd, unicode.Pc}

func isDelimiter(r rune) bool {
	return !unicode.In(r, wordClasses...)
}

// CountWords splits text on runs of non-word characters and counts each
// token after locale-independent lowercasing. It never returns nil.
func CountWords(text string) WordCounts {
	counts := make(WordCounts)
	if text == "" {
		return counts
	}

	// A Caser holds state and must not be shared across goroutines.
	// Final sigma stays off so every casing of a word maps to one key.
	lower := cases.Lower(language.Und, cases.HandleFinalSigma(false))

	for _, token := range strings.FieldsFunc(text, isDelimiter) {
		counts[lower.String(token)]++
	}

	return counts
}

// Total returns the number of tokens counted, not the number of distinct words.
func (wc WordCounts) Total() int {
	total := 0
	for _, n := range wc {
		total += n
	}
	return total
}

// Merge sums any number of partial counts into a fresh mapping.
func Merge(parts ...WordCounts) WordCounts {
	merged := make(WordCounts)
	for _, counts := range parts {
		for word, n := range counts {
			merged[word] += n
		}
	}
	return merged
}
