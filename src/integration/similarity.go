package integration

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity scores how close two answer texts are, in [0,1]. It blends a
// sequence-matcher ratio over word tokens (order-sensitive, weight 0.6)
// with Jaccard word overlap (order-insensitive, weight 0.4): the ratio
// catches near-identical phrasings, Jaccard catches same-content
// different-order answers.
func Similarity(a, b string) float64 {
	wordsA := strings.Fields(strings.ToLower(a))
	wordsB := strings.Fields(strings.ToLower(b))

	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	matcher := difflib.NewMatcher(wordsA, wordsB)
	ratio := matcher.Ratio()

	return 0.6*ratio + 0.4*jaccard(wordsA, wordsB)
}

func jaccard(wordsA, wordsB []string) float64 {
	set := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		set[w] = true
	}

	seen := make(map[string]bool, len(wordsB))
	common := 0
	for _, w := range wordsB {
		if set[w] && !seen[w] {
			common++
			seen[w] = true
		}
	}

	uniqueA := len(set)
	uniqueB := 0
	counted := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		if !counted[w] {
			uniqueB++
			counted[w] = true
		}
	}

	union := uniqueA + uniqueB - common
	if union == 0 {
		return 0.0
	}
	return float64(common) / float64(union)
}
