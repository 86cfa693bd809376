package router

import (
	"math"
	"regexp"
	"strings"

	"github.com/vanta-labs/vanta/src/models"
)

// FeatureExtractor derives a QueryFeatures vector from raw query text.
// Extraction is a pure function of its inputs; the regexes are compiled
// once at construction. It never fails, for any string input: an empty
// query yields an all-zero vector.
type FeatureExtractor struct {
	wordRe   *regexp.Regexp
	entityRe *regexp.Regexp
}

var questionWords = []string{"who", "what", "when", "where", "why", "how", "which", "whose", "whom"}

var reasoningKeywords = []string{
	"explain", "analyze", "analyse", "compare", "evaluate", "reasoning",
	"step by step", "prove", "derive", "walk me through", "break down",
}

var referenceWords = map[string]bool{
	"it": true, "this": true, "that": true, "these": true, "those": true,
	"they": true, "them": true, "he": true, "she": true, "him": true,
	"her": true, "his": true, "their": true, "previous": true,
	"earlier": true, "again": true, "above": true, "mentioned": true,
}

var timeKeywords = []string{
	"now", "right now", "today", "tonight", "current", "currently",
	"latest", "recent", "news", "weather", "tomorrow", "this week",
}

var creativeKeywords = []string{
	"write", "story", "poem", "imagine", "creative", "compose", "invent",
	"brainstorm", "joke", "song", "lyrics", "fiction", "design a",
}

var socialPhrases = []string{
	"hi", "hello", "hey", "thanks", "thank you", "bye", "goodbye",
	"good morning", "good night", "good evening", "how are you",
	"what's up", "whats up", "nice to meet you", "see you", "lol",
}

func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{
		wordRe:   regexp.MustCompile(`[A-Za-z0-9']+`),
		entityRe: regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`),
	}
}

// Extract computes the feature vector for a query and its optional context.
func (e *FeatureExtractor) Extract(query string, qctx *models.QueryContext) models.QueryFeatures {
	f := models.QueryFeatures{}

	words := e.wordRe.FindAllString(query, -1)
	f.TokenCount = len(words)
	if f.TokenCount == 0 {
		return f
	}

	lower := strings.ToLower(query)
	lowerWords := make([]string, len(words))
	for i, w := range words {
		lowerWords[i] = strings.ToLower(w)
	}

	f.QuestionWords = e.findQuestionWords(lowerWords)
	f.EntityCount = e.countEntities(query)
	f.ReasoningSteps = e.estimateReasoningSteps(lower)
	f.ContextDependency = e.contextDependency(lowerWords, qctx)
	f.TimeSensitivity = e.timeSensitivity(lower)
	f.CreativityRequired = containsAny(lower, creativeKeywords)
	f.SocialChat = e.isSocialChat(lower, f.TokenCount)
	f.FactualRetrieval = e.isFactualRetrieval(f, lower)
	f.ComplexityScore = e.complexityScore(f)

	return f
}

func (e *FeatureExtractor) findQuestionWords(lowerWords []string) []string {
	var found []string
	for _, w := range lowerWords {
		for _, q := range questionWords {
			if w == q {
				found = append(found, q)
				break
			}
		}
	}
	return found
}

// countEntities counts proper-noun-like capitalized token runs. A single
// capitalized word at the very start of the query is treated as sentence
// capitalization, not an entity.
func (e *FeatureExtractor) countEntities(query string) int {
	matches := e.entityRe.FindAllStringIndex(query, -1)
	count := 0
	for _, m := range matches {
		run := query[m[0]:m[1]]
		if m[0] == 0 && !strings.Contains(run, " ") {
			continue
		}
		count++
	}
	return count
}

func (e *FeatureExtractor) estimateReasoningSteps(lower string) int {
	steps := 0
	if strings.Contains(lower, "why") || strings.Contains(lower, "how") {
		steps++
	}
	for _, kw := range reasoningKeywords {
		if strings.Contains(lower, kw) {
			steps++
			break
		}
	}
	if strings.Contains(lower, "what if") ||
		(strings.Contains(lower, "if ") && strings.Contains(lower, "then")) {
		steps++
	}
	if strings.Count(lower, "?") > 1 || strings.Contains(lower, " and then ") {
		steps++
	}
	if steps > 3 {
		steps = 3
	}
	return steps
}

// contextDependency blends reference-word density with a 1.5x multiplier
// when non-empty context is supplied, capped at 1.0.
func (e *FeatureExtractor) contextDependency(lowerWords []string, qctx *models.QueryContext) float64 {
	refs := 0
	for _, w := range lowerWords {
		if referenceWords[w] {
			refs++
		}
	}
	density := float64(refs) / float64(len(lowerWords))
	score := math.Min(density*3.0, 1.0)
	if !qctx.Empty() {
		score *= 1.5
	}
	return math.Min(score, 1.0)
}

func (e *FeatureExtractor) timeSensitivity(lower string) float64 {
	hits := 0
	for _, kw := range timeKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return math.Min(float64(hits)*0.35, 1.0)
}

func (e *FeatureExtractor) isSocialChat(lower string, tokens int) bool {
	if tokens > 12 {
		return false
	}
	return containsAny(lower, socialPhrases)
}

func (e *FeatureExtractor) isFactualRetrieval(f models.QueryFeatures, lower string) bool {
	if f.CreativityRequired || f.SocialChat {
		return false
	}
	for _, q := range f.QuestionWords {
		switch q {
		case "who", "what", "when", "where", "which":
			return true
		}
	}
	return strings.Contains(lower, "define ") || strings.Contains(lower, "definition of")
}

// complexityScore is a weighted blend of the normalized signals, in [0,1].
func (e *FeatureExtractor) complexityScore(f models.QueryFeatures) float64 {
	lengthNorm := math.Min(float64(f.TokenCount)/100.0, 1.0)
	entityNorm := math.Min(float64(f.EntityCount)/4.0, 1.0)
	reasoningNorm := float64(f.ReasoningSteps) / 3.0

	creative := 0.0
	if f.CreativityRequired {
		creative = 1.0
	}

	score := lengthNorm*0.30 +
		reasoningNorm*0.25 +
		entityNorm*0.15 +
		f.ContextDependency*0.15 +
		creative*0.15

	return math.Min(score, 1.0)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
