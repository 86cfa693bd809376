package integration

import "strings"

var apologyMarkers = []string{
	"i'm sorry", "i am sorry", "i apologize", "i cannot", "i can't",
	"i am unable", "i'm unable", "as an ai", "error", "something went wrong",
}

// QualityScore rates the surface-level well-formedness of a response text
// in [0,1]: length inside the configured bounds, a terminal sentence
// ending, absence of apology/error language, and lexical richness. It is a
// heuristic for ranking two candidate answers, not a truth judgment.
func QualityScore(text string, minLength, maxLength int) float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0.0
	}

	score := 0.0

	// Length inside bounds: full credit in band, partial when short.
	n := len(trimmed)
	switch {
	case n >= minLength && n <= maxLength:
		score += 0.35
	case n < minLength:
		score += 0.35 * float64(n) / float64(minLength)
	default:
		score += 0.2
	}

	// Terminal punctuation suggests a completed thought.
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		score += 0.2
	}

	// Apology and error language drags the answer down.
	lower := strings.ToLower(trimmed)
	clean := true
	for _, marker := range apologyMarkers {
		if strings.Contains(lower, marker) {
			clean = false
			break
		}
	}
	if clean {
		score += 0.25
	}

	// Lexical richness: unique-to-total word ratio.
	words := strings.Fields(lower)
	if len(words) > 0 {
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			unique[w] = true
		}
		score += 0.2 * float64(len(unique)) / float64(len(words))
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
