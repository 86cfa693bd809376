package utils

import (
	"strings"

	"github.com/vanta-labs/vanta/src/models"
)

// Pricing per 1M tokens (as of 2025).
const (
	GPT4oInputPer1M      = 2.50
	GPT4oOutputPer1M     = 10.00
	GPT4oMiniInputPer1M  = 0.15
	GPT4oMiniOutputPer1M = 0.60
	GPT35InputPer1M      = 0.50
	GPT35OutputPer1M     = 1.50

	// Local inference has no per-token bill; this is a nominal
	// electricity/wear estimate so cost comparisons stay non-degenerate.
	LocalPer1M = 0.01
)

// EstimateTokenCount estimates token count from text, roughly 1 token per
// 4 characters of English.
func EstimateTokenCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	tokenCount := len(text) / 4
	if tokenCount < 1 {
		tokenCount = 1
	}
	return tokenCount
}

// APICost prices a remote completion by model family.
func APICost(inputTokens, outputTokens int, model string) float64 {
	var inPer1M, outPer1M float64

	switch {
	case strings.Contains(strings.ToLower(model), "gpt-4o-mini"):
		inPer1M, outPer1M = GPT4oMiniInputPer1M, GPT4oMiniOutputPer1M
	case strings.Contains(strings.ToLower(model), "gpt-4"):
		inPer1M, outPer1M = GPT4oInputPer1M, GPT4oOutputPer1M
	case strings.Contains(strings.ToLower(model), "gpt-3.5"):
		inPer1M, outPer1M = GPT35InputPer1M, GPT35OutputPer1M
	default:
		inPer1M, outPer1M = GPT4oMiniInputPer1M, GPT4oMiniOutputPer1M
	}

	return float64(inputTokens)*inPer1M/1e6 + float64(outputTokens)*outPer1M/1e6
}

// LocalCost prices a local completion with the nominal local rate.
func LocalCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens+outputTokens) * LocalPer1M / 1e6
}

// RequestCost estimates the cost of one completed request from the
// responses that were actually produced. Parallel and staged requests pay
// for every track that ran.
func RequestCost(localResp, apiResp *models.ModelResponse) float64 {
	var cost float64
	if localResp != nil && localResp.Failure == nil {
		cost += LocalCost(localResp.PromptTokens, localResp.CompletionTokens)
	}
	if apiResp != nil && apiResp.Failure == nil {
		cost += APICost(apiResp.PromptTokens, apiResp.CompletionTokens, apiResp.Model)
	}
	return cost
}

// EstimatedSavings reports what the same answer would have cost had it gone
// to the API track, minus what it actually cost. Zero when the API track
// was used.
func EstimatedSavings(path models.ProcessingPath, localResp *models.ModelResponse, apiModel string) float64 {
	if path != models.PathLocal || localResp == nil || localResp.Failure != nil {
		return 0
	}
	apiCost := APICost(localResp.PromptTokens, localResp.CompletionTokens, apiModel)
	return apiCost - LocalCost(localResp.PromptTokens, localResp.CompletionTokens)
}
