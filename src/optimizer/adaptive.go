package optimizer

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

const (
	adaptationHistoryLimit = 50
	// minSamples gates the metric-driven rules so a handful of requests
	// cannot swing the preferences.
	minSamples = 5
	// successRateFloor below which timeouts loosen and the parallel bar rises.
	successRateFloor = 0.8
)

// AdaptationResult reports one adaptation attempt.
type AdaptationResult struct {
	Adapted     bool                      `json:"adapted"`
	Reasons     []string                  `json:"reasons,omitempty"`
	Preferences models.RoutingPreferences `json:"preferences"`
}

// AdaptationRecord is one entry in the bounded observability history.
type AdaptationRecord struct {
	Timestamp   time.Time                 `json:"timestamp"`
	Reasons     []string                  `json:"reasons"`
	Preferences models.RoutingPreferences `json:"preferences"`
}

// AdaptiveOptimizer tunes the routing preferences from live metrics and
// resource telemetry. Adjustments are bounded increments, never absolute
// resets: the hysteresis keeps the preferences from oscillating between
// adaptation cycles.
type AdaptiveOptimizer struct {
	cfg     *config.OptimizationConfig
	metrics *MetricsCollector
	monitor *ResourceMonitor
	clock   models.Clock

	mu             sync.RWMutex
	prefs          models.RoutingPreferences
	lastAdaptation time.Time
	history        []AdaptationRecord
}

func NewAdaptiveOptimizer(cfg *config.OptimizationConfig, metrics *MetricsCollector, monitor *ResourceMonitor, clock models.Clock) *AdaptiveOptimizer {
	if clock == nil {
		clock = models.SystemClock{}
	}
	return &AdaptiveOptimizer{
		cfg:     cfg,
		metrics: metrics,
		monitor: monitor,
		clock:   clock,
		prefs: models.RoutingPreferences{
			LocalBias:         0.5,
			ParallelThreshold: 0.7,
			TimeoutMultiplier: 1.0,
			QualityThreshold:  0.7,
		},
	}
}

// Preferences returns the current adaptive state.
func (a *AdaptiveOptimizer) Preferences() models.RoutingPreferences {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.prefs
}

// History returns a copy of the bounded adaptation history.
func (a *AdaptiveOptimizer) History() []AdaptationRecord {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AdaptationRecord, len(a.history))
	copy(out, a.history)
	return out
}

// AdaptStrategy evaluates the adaptation rules at most once per configured
// interval; calling more often is a no-op that reports Adapted false. All
// contributing adjustments land in one atomic preference update.
func (a *AdaptiveOptimizer) AdaptStrategy() AdaptationResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if !a.lastAdaptation.IsZero() && now.Sub(a.lastAdaptation) < a.cfg.AdaptationInterval {
		return AdaptationResult{Adapted: false, Preferences: a.prefs}
	}
	a.lastAdaptation = now

	overall := a.metrics.Summary("")
	localSum := a.metrics.Summary(models.PathLocal)
	apiSum := a.metrics.Summary(models.PathAPI)
	violations := a.monitor.CheckConstraints(a.cfg.Constraints)

	next := a.prefs
	var reasons []string

	// Rule order is priority order: resource pressure outranks everything,
	// then latency, success rate, quality, cost.

	for _, v := range violations {
		switch v {
		case models.ViolationMemory, models.ViolationCPU:
			next.LocalBias -= 0.2
			reasons = append(reasons, string(v)+" pressure, shifting bias away from local")
		case models.ViolationBattery:
			next.LocalBias += 0.2
			next.TimeoutMultiplier -= 0.15
			reasons = append(reasons, "battery pressure, favoring local and tightening timeouts")
		case models.ViolationGPUMemory:
			next.LocalBias -= 0.15
			reasons = append(reasons, "gpu memory pressure, shifting bias away from local")
		}
	}

	if overall.Count >= minSamples {
		if a.cfg.Constraints.TargetLatencyMs > 0 && overall.AvgLatencyMs > a.cfg.Constraints.TargetLatencyMs {
			if localSum.Count > 0 && apiSum.Count > 0 {
				if localSum.AvgLatencyMs < apiSum.AvgLatencyMs {
					next.LocalBias += 0.15
					reasons = append(reasons, "latency over target, local track measured faster")
				} else {
					next.LocalBias -= 0.15
					reasons = append(reasons, "latency over target, api track measured faster")
				}
			}
		}

		if overall.SuccessRate < successRateFloor {
			next.TimeoutMultiplier += 0.25
			next.ParallelThreshold += 0.15
			reasons = append(reasons, "low success rate, loosening timeouts and raising the parallel bar")
		}

		if overall.AvgQuality > 0 && overall.AvgQuality < next.QualityThreshold {
			next.LocalBias -= 0.15
			reasons = append(reasons, "quality below threshold, shifting bias toward api")
		}

		if a.cfg.Constraints.MaxCostPerRequest > 0 &&
			overall.TotalCost/float64(overall.Count) > a.cfg.Constraints.MaxCostPerRequest {
			next.LocalBias += 0.2
			reasons = append(reasons, "cost per request over budget, shifting bias toward local")
		}
	}

	if len(reasons) == 0 {
		return AdaptationResult{Adapted: false, Preferences: a.prefs}
	}

	next.LocalBias = clamp(next.LocalBias, 0, 1)
	next.ParallelThreshold = clamp(next.ParallelThreshold, 0.5, 0.95)
	next.TimeoutMultiplier = clamp(next.TimeoutMultiplier, 0.5, 3.0)
	next.QualityThreshold = clamp(next.QualityThreshold, 0.3, 0.95)

	a.prefs = next
	a.history = append(a.history, AdaptationRecord{
		Timestamp:   now,
		Reasons:     reasons,
		Preferences: next,
	})
	if len(a.history) > adaptationHistoryLimit {
		a.history = a.history[len(a.history)-adaptationHistoryLimit:]
	}

	log.WithFields(log.Fields{
		"local_bias":         next.LocalBias,
		"parallel_threshold": next.ParallelThreshold,
		"timeout_multiplier": next.TimeoutMultiplier,
		"reasons":            reasons,
	}).Info("routing preferences adapted")

	return AdaptationResult{Adapted: true, Reasons: reasons, Preferences: next}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
