package integration

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

// Strategy names surfaced in IntegrationResult.Strategy.
const (
	StrategySingleSource = "single_source"
	StrategyPreference   = "preference"
	StrategyCombine      = "combine"
	StrategyInterrupt    = "interrupt"
	StrategyFastest      = "fastest"
	StrategyFallback     = "fallback"
)

const fallbackContent = "I'm sorry, I couldn't come up with an answer just now. Could you try asking that again?"

var smoothTransitions = []string{
	"Also worth adding: ",
	"On a related note, ",
	"To give you a fuller picture: ",
	"Adding a bit more detail: ",
}

var abruptTransitions = []string{
	"Actually, here's a better take: ",
	"Wait — there's more to it: ",
	"Let me correct that: ",
}

// Integrator reconciles the local and API answers into one reply. It is a
// state machine over input availability; for two live answers the blended
// text similarity picks the strategy. It never fails: any internal fault
// degrades to the fallback result with the reason kept in metadata.
type Integrator struct {
	cfg *config.IntegrationConfig
}

func NewIntegrator(cfg *config.IntegrationConfig) *Integrator {
	return &Integrator{cfg: cfg}
}

// IntegrateResponses produces the final answer. Content is never empty.
func (in *Integrator) IntegrateResponses(localResp, apiResp *models.ModelResponse, path models.ProcessingPath) (result models.IntegrationResult) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("error", rec).Error("integrator recovered from internal fault")
			result = in.fallback(fmt.Sprintf("internal error: %v", rec))
		}
		if result.Content == "" {
			result = in.fallback("empty content after integration")
		}
		result.ProcessingTime = time.Since(start)
	}()

	localOK := localResp.Success()
	apiOK := apiResp.Success()

	switch {
	case !localOK && !apiOK:
		reason := "no responses available"
		if f := firstFailure(localResp, apiResp); f != nil {
			reason = f.Error()
		}
		return in.fallback(reason)

	case localOK && !apiOK:
		return in.singleSource(localResp, models.SourceLocal, apiResp)

	case !localOK && apiOK:
		return in.singleSource(apiResp, models.SourceAPI, localResp)
	}

	sim := Similarity(localResp.Text, apiResp.Text)

	switch {
	case sim > in.cfg.PreferenceThreshold:
		result = in.preference(localResp, apiResp)
	case sim < in.cfg.DivergenceThreshold:
		// Divergent answers need explicit reconciliation, not a silent pick.
		if in.cfg.InterruptStyle == "abrupt" {
			result = in.interrupt(localResp, apiResp)
		} else {
			result = in.combine(localResp, apiResp, sim)
		}
	case path == models.PathParallel:
		result = in.fastest(localResp, apiResp)
	default:
		result = in.defaultStrategy(localResp, apiResp, sim)
	}

	result.SimilarityScore = &sim
	return result
}

func (in *Integrator) singleSource(resp *models.ModelResponse, source models.ResponseSource, failed *models.ModelResponse) models.IntegrationResult {
	meta := map[string]any{"model": resp.Model}
	if failed != nil && failed.Failure != nil {
		// The other track's failure is absorbed silently for the user but
		// kept for operators.
		meta["absorbed_failure"] = failed.Failure.Error()
	}
	return models.IntegrationResult{
		Content:  resp.Text,
		Source:   source,
		Strategy: StrategySingleSource,
		Metadata: meta,
	}
}

// preference picks the better-scored of two near-duplicate answers, with
// the API response weighted by the configured preference.
func (in *Integrator) preference(localResp, apiResp *models.ModelResponse) models.IntegrationResult {
	w := in.cfg.APIPreferenceWeight
	localScore := QualityScore(localResp.Text, in.cfg.MinResponseLength, in.cfg.MaxResponseLength) * (1 - w)
	apiScore := QualityScore(apiResp.Text, in.cfg.MinResponseLength, in.cfg.MaxResponseLength) * w

	chosen, source := apiResp, models.SourceAPI
	if localScore > apiScore {
		chosen, source = localResp, models.SourceLocal
	}

	return models.IntegrationResult{
		Content:  chosen.Text,
		Source:   source,
		Strategy: StrategyPreference,
		Metadata: map[string]any{
			"local_score": localScore,
			"api_score":   apiScore,
			"model":       chosen.Model,
		},
	}
}

// combine reconciles divergent answers: above the substitute threshold the
// more detailed answer replaces the other outright; below it both are kept,
// joined by a transition phrase.
func (in *Integrator) combine(localResp, apiResp *models.ModelResponse, sim float64) models.IntegrationResult {
	if sim > in.cfg.SubstituteThreshold {
		longer, source := apiResp, models.SourceAPI
		if len(localResp.Text) > len(apiResp.Text) {
			longer, source = localResp, models.SourceLocal
		}
		return models.IntegrationResult{
			Content:  longer.Text,
			Source:   source,
			Strategy: StrategyCombine,
			Metadata: map[string]any{"substituted": true},
		}
	}

	transition := in.pickTransition()
	content := strings.TrimSpace(localResp.Text) + "\n\n" + transition + strings.TrimSpace(apiResp.Text)

	return models.IntegrationResult{
		Content:  content,
		Source:   models.SourceIntegrated,
		Strategy: StrategyCombine,
		Metadata: map[string]any{"transition": transition},
	}
}

// interrupt joins the two answers as a spoken self-correction; the abrupt
// style cuts the local answer short first.
func (in *Integrator) interrupt(localResp, apiResp *models.ModelResponse) models.IntegrationResult {
	localText := strings.TrimSpace(localResp.Text)
	truncated := false
	if in.cfg.InterruptStyle == "abrupt" && len(localText) > in.cfg.AbruptTruncateLength {
		cut := in.cfg.AbruptTruncateLength
		for cut > 0 && !utf8.RuneStart(localText[cut]) {
			cut--
		}
		if idx := strings.LastIndex(localText[:cut], " "); idx > 0 {
			cut = idx
		}
		localText = localText[:cut] + "—"
		truncated = true
	}

	transition := in.pickTransition()
	content := localText + "\n\n" + transition + strings.TrimSpace(apiResp.Text)

	return models.IntegrationResult{
		Content:  content,
		Source:   models.SourceIntegrated,
		Strategy: StrategyInterrupt,
		Metadata: map[string]any{
			"transition":      transition,
			"local_truncated": truncated,
		},
	}
}

// fastest returns whichever answer completed first. A response without
// timing is treated as infinitely slow, so the timed one wins; if neither
// reported timing the choice falls through to preference scoring.
func (in *Integrator) fastest(localResp, apiResp *models.ModelResponse) models.IntegrationResult {
	localTime := responseTime(localResp)
	apiTime := responseTime(apiResp)

	if localTime == 0 && apiTime == 0 {
		result := in.preference(localResp, apiResp)
		result.Metadata["timing_unavailable"] = true
		return result
	}

	chosen, source := localResp, models.SourceLocal
	if localTime == 0 || (apiTime != 0 && apiTime < localTime) {
		chosen, source = apiResp, models.SourceAPI
	}

	return models.IntegrationResult{
		Content:  chosen.Text,
		Source:   source,
		Strategy: StrategyFastest,
		Metadata: map[string]any{
			"local_time": localTime.Seconds(),
			"api_time":   apiTime.Seconds(),
		},
	}
}

func (in *Integrator) defaultStrategy(localResp, apiResp *models.ModelResponse, sim float64) models.IntegrationResult {
	switch in.cfg.DefaultStrategy {
	case StrategyCombine:
		return in.combine(localResp, apiResp, sim)
	case StrategyFastest:
		return in.fastest(localResp, apiResp)
	default:
		return in.preference(localResp, apiResp)
	}
}

func (in *Integrator) fallback(reason string) models.IntegrationResult {
	return models.IntegrationResult{
		Content:  fallbackContent,
		Source:   models.SourceFallback,
		Strategy: StrategyFallback,
		Metadata: map[string]any{"reason": reason},
	}
}

func (in *Integrator) pickTransition() string {
	pool := smoothTransitions
	if in.cfg.InterruptStyle == "abrupt" {
		pool = abruptTransitions
	}
	return pool[rand.Intn(len(pool))]
}

func responseTime(resp *models.ModelResponse) time.Duration {
	if resp == nil {
		return 0
	}
	return resp.CompletionTime
}

func firstFailure(responses ...*models.ModelResponse) *models.Failure {
	for _, r := range responses {
		if r != nil && r.Failure != nil {
			return r.Failure
		}
	}
	return nil
}
