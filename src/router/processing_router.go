package router

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

// ProcessingRouter decides which execution path serves a query. The rules
// are evaluated strictly top to bottom, first match wins; the ordering and
// thresholds are deliberate, so identical inputs always produce identical
// routing. DeterminePath never fails: any internal fault degrades to the
// configured default path.
type ProcessingRouter struct {
	config    *config.RouterConfig
	extractor *FeatureExtractor

	mu      sync.Mutex
	history []models.RoutingDecision
}

func NewProcessingRouter(cfg *config.RouterConfig) *ProcessingRouter {
	return &ProcessingRouter{
		config:    cfg,
		extractor: NewFeatureExtractor(),
	}
}

// DeterminePath classifies the query and applies the routing rule list.
func (r *ProcessingRouter) DeterminePath(query string, qctx *models.QueryContext) (decision models.RoutingDecision) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			decision = models.RoutingDecision{
				Path:       r.defaultPath(),
				Confidence: 0.5,
				Reasoning:  fmt.Sprintf("routing degraded to default after internal error: %v", rec),
			}
			log.WithField("error", rec).Error("processing router recovered from internal fault")
		}
		decision.ProcessingTime = time.Since(start)
		r.track(decision)
	}()

	features := r.extractor.Extract(query, qctx)
	decision = r.decide(features)
	return decision
}

// decide is the ordered rule list. Do not reorder: precedence is part of
// the routing contract.
func (r *ProcessingRouter) decide(f models.QueryFeatures) models.RoutingDecision {
	d := models.RoutingDecision{Features: f}

	// 1. Empty query goes to the default path with neutral confidence.
	if f.TokenCount == 0 {
		d.Path = r.defaultPath()
		d.Confidence = 0.5
		d.Reasoning = "empty query, default path"
		return d
	}

	// 2. Short social chat stays local: latency beats quality for greetings.
	if f.TokenCount < r.config.SimpleTokenThreshold && f.SocialChat {
		d.Path = models.PathLocal
		d.Confidence = 0.9
		d.Reasoning = "short social chat suits the local model"
		return d
	}

	// 3. Simple factual lookups are local territory.
	if f.FactualRetrieval && f.TokenCount < 30 && f.ReasoningSteps == 0 {
		d.Path = models.PathLocal
		d.Confidence = 0.8
		d.Reasoning = "simple factual retrieval without reasoning"
		return d
	}

	// 4. Creative or multi-step reasoning work needs the API model.
	if f.CreativityRequired || f.ReasoningSteps > 2 {
		d.Path = models.PathAPI
		d.Confidence = 0.85
		d.Reasoning = "creative or multi-step reasoning query requires API quality"
		return d
	}

	// 5. Context-heavy queries route to the API for coherence.
	if f.ContextDependency > r.config.ContextThreshold {
		d.Path = models.PathAPI
		d.Confidence = 0.75
		d.Reasoning = "high context dependency routed to API"
		return d
	}

	// 6. Long queries exceed the local model's sweet spot.
	if f.TokenCount > r.config.ComplexTokenThreshold {
		d.Path = models.PathAPI
		d.Confidence = 0.8
		d.Reasoning = "long query routed to API"
		return d
	}

	// 7. Time-sensitive queries favor local speed.
	if f.TimeSensitivity > r.config.TimeThreshold {
		d.Path = models.PathLocal
		d.Confidence = 0.7
		d.Reasoning = "time-sensitive query favors local speed"
		return d
	}

	// 8. Mid-band complexity runs both tracks and lets integration choose.
	if f.ComplexityScore > 0.3 && f.ComplexityScore < 0.7 {
		d.Path = models.PathParallel
		d.Confidence = 0.7
		d.Reasoning = "moderate complexity, running both tracks"
		return d
	}

	// 9. Low complexity stays local.
	if f.ComplexityScore < 0.3 {
		d.Path = models.PathLocal
		d.Confidence = 0.75
		d.Reasoning = "low complexity suits the local model"
		return d
	}

	// 10. Fallback.
	d.Path = r.defaultPath()
	d.Confidence = 0.6
	d.Reasoning = "no rule matched, default path"
	return d
}

func (r *ProcessingRouter) defaultPath() models.ProcessingPath {
	p := models.ProcessingPath(r.config.DefaultPath)
	if !p.Valid() {
		return models.PathLocal
	}
	return p
}

// track appends to the bounded decision history. The history feeds
// RoutingStats only and never influences routing.
func (r *ProcessingRouter) track(d models.RoutingDecision) {
	limit := r.config.HistorySize
	if limit <= 0 {
		limit = 1000
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.history = append(r.history, d)
	if len(r.history) > limit {
		r.history = r.history[len(r.history)-limit:]
	}
}

// RoutingStats summarizes the recent decision history.
type RoutingStats struct {
	TotalDecisions   int                            `json:"total_decisions"`
	PathDistribution map[models.ProcessingPath]int  `json:"path_distribution"`
	PathShare        map[models.ProcessingPath]float64 `json:"path_share"`
	AvgConfidence    float64                        `json:"avg_confidence"`
	AvgDecisionTime  time.Duration                  `json:"avg_decision_time"`
}

// GetRoutingStats derives summary statistics from the bounded history.
func (r *ProcessingRouter) GetRoutingStats() RoutingStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := RoutingStats{
		TotalDecisions:   len(r.history),
		PathDistribution: make(map[models.ProcessingPath]int),
		PathShare:        make(map[models.ProcessingPath]float64),
	}
	if len(r.history) == 0 {
		return stats
	}

	var confSum float64
	var timeSum time.Duration
	for _, d := range r.history {
		stats.PathDistribution[d.Path]++
		confSum += d.Confidence
		timeSum += d.ProcessingTime
	}
	for path, n := range stats.PathDistribution {
		stats.PathShare[path] = float64(n) / float64(len(r.history))
	}
	stats.AvgConfidence = confSum / float64(len(r.history))
	stats.AvgDecisionTime = timeSum / time.Duration(len(r.history))

	return stats
}
