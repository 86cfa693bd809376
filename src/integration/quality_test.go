package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityScore_Empty(t *testing.T) {
	assert.Equal(t, 0.0, QualityScore("", 10, 2000))
	assert.Equal(t, 0.0, QualityScore("   ", 10, 2000))
}

func TestQualityScore_Bounds(t *testing.T) {
	texts := []string{
		"ok",
		"The Eiffel Tower is 330 meters tall and was completed in 1889.",
		"error error error",
	}
	for _, text := range texts {
		score := QualityScore(text, 10, 2000)
		assert.GreaterOrEqual(t, score, 0.0, text)
		assert.LessOrEqual(t, score, 1.0, text)
	}
}

func TestQualityScore_WellFormedBeatsApology(t *testing.T) {
	clean := QualityScore("The Eiffel Tower is 330 meters tall and was completed in 1889.", 10, 2000)
	apology := QualityScore("I'm sorry, I cannot help with that.", 10, 2000)

	assert.Greater(t, clean, apology)
	assert.Greater(t, clean, 0.7)
}

func TestQualityScore_TerminalPunctuationRewarded(t *testing.T) {
	complete := QualityScore("Paris is the capital of France.", 10, 2000)
	dangling := QualityScore("Paris is the capital of France and", 10, 2000)

	assert.Greater(t, complete, dangling)
}

func TestQualityScore_TooShortPenalized(t *testing.T) {
	short := QualityScore("Yes.", 10, 2000)
	full := QualityScore("Yes, that is correct and here is why.", 10, 2000)

	assert.Greater(t, full, short)
}
