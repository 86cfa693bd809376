package optimizer

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/integration"
	"github.com/vanta-labs/vanta/src/models"
	"github.com/vanta-labs/vanta/src/utils"
)

// Recommendations is the optimizer's advice for the next request: the
// current adaptive preferences, any active resource violations, and the
// timeout budgets already scaled by the adaptive multiplier.
type Recommendations struct {
	Preferences           models.RoutingPreferences  `json:"preferences"`
	Violations            []models.ResourceViolation `json:"violations,omitempty"`
	LocalTimeout          time.Duration              `json:"local_timeout"`
	APITimeout            time.Duration              `json:"api_timeout"`
	CacheEnabled          bool                       `json:"cache_enabled"`
	ActiveRequests        int                        `json:"active_requests"`
	MaxConcurrentRequests int                        `json:"max_concurrent_requests"`
}

// OptimizationStatus is the operator-facing snapshot served by the
// status endpoint.
type OptimizationStatus struct {
	Summary         MetricsSummary                           `json:"summary"`
	PerPath         map[models.ProcessingPath]MetricsSummary `json:"per_path"`
	Resources       models.ResourceSnapshot                  `json:"resources"`
	Violations      []models.ResourceViolation               `json:"violations,omitempty"`
	Preferences     models.RoutingPreferences                `json:"preferences"`
	AdaptationCount int                                      `json:"adaptation_count"`
	ActiveRequests  int                                      `json:"active_requests"`
}

type inflightRequest struct {
	query   string
	started time.Time
}

// DualTrackOptimizer ties the metrics window, the resource monitor and the
// adaptive strategy together behind one façade. Request lifecycle calls
// (start, completion) come from the orchestration layer; adaptation runs
// piggybacked on completions, internally rate limited.
type DualTrackOptimizer struct {
	cfg      *config.DualTrackConfig
	Metrics  *MetricsCollector
	Monitor  *ResourceMonitor
	adaptive *AdaptiveOptimizer

	mu       sync.Mutex
	inflight map[string]inflightRequest
}

func NewDualTrackOptimizer(cfg *config.DualTrackConfig, sampler models.ResourceSampler, clock models.Clock) *DualTrackOptimizer {
	metrics := NewMetricsCollector(cfg.Optimization.MetricsWindowSize)
	monitor := NewResourceMonitor(sampler, cfg.Optimization.MonitorInterval)
	return &DualTrackOptimizer{
		cfg:      cfg,
		Metrics:  metrics,
		Monitor:  monitor,
		adaptive: NewAdaptiveOptimizer(&cfg.Optimization, metrics, monitor, clock),
		inflight: make(map[string]inflightRequest),
	}
}

// Start launches the background resource sampler.
func (o *DualTrackOptimizer) Start(ctx context.Context) {
	o.Monitor.Start(ctx)
}

// Stop halts the background sampler and waits for it.
func (o *DualTrackOptimizer) Stop() {
	o.Monitor.Stop()
}

// RecordRequestStart marks a request as in flight.
func (o *DualTrackOptimizer) RecordRequestStart(requestID, query string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight[requestID] = inflightRequest{query: query, started: time.Now()}
}

// RecordRequestCompletion closes out an in-flight request: it derives the
// latency, cost and quality figures, appends the metrics record, and gives
// the adaptive strategy a chance to run.
func (o *DualTrackOptimizer) RecordRequestCompletion(requestID string, path models.ProcessingPath, localResp, apiResp *models.ModelResponse, result *models.IntegrationResult) {
	o.mu.Lock()
	req, ok := o.inflight[requestID]
	delete(o.inflight, requestID)
	o.mu.Unlock()

	if !ok {
		log.WithField("request_id", requestID).Warn("completion recorded for unknown request")
		return
	}

	snap := o.Monitor.Current()

	record := models.PerformanceMetrics{
		Timestamp:       time.Now(),
		Path:            path,
		RequestID:       requestID,
		LatencyMs:       float64(time.Since(req.started).Milliseconds()),
		TokensProcessed: totalTokens(localResp, apiResp),
		MemoryUsageMB:   snap.ProcessMemoryMB,
		CPUUsagePercent: snap.CPUPercent,
		CostEstimate:    utils.RequestCost(localResp, apiResp),
	}

	if result != nil {
		record.Success = result.Source != models.SourceFallback
		record.QualityScore = integration.QualityScore(result.Content,
			o.cfg.Integration.MinResponseLength, o.cfg.Integration.MaxResponseLength)
		if !record.Success {
			record.ErrorType = failureKind(localResp, apiResp)
		}
	}

	o.Metrics.Record(record)
	o.adaptive.AdaptStrategy()
}

// ActiveRequests reports the number of requests currently in flight.
func (o *DualTrackOptimizer) ActiveRequests() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.inflight)
}

// GetOptimizationRecommendations computes the advice for the next request
// from the current preferences and resource state. It first gives the
// adaptive optimizer a chance to run, so a system that only serves
// recommendation calls still adapts on schedule.
func (o *DualTrackOptimizer) GetOptimizationRecommendations() Recommendations {
	prefs := o.adaptive.AdaptStrategy().Preferences
	return Recommendations{
		Preferences:           prefs,
		Violations:            o.Monitor.CheckConstraints(o.cfg.Optimization.Constraints),
		LocalTimeout:          scaleTimeout(o.cfg.LocalModel.GenerationTimeout, prefs.TimeoutMultiplier),
		APITimeout:            scaleTimeout(o.cfg.APIModel.Timeout, prefs.TimeoutMultiplier),
		CacheEnabled:          o.cfg.Optimization.CacheEnabled,
		ActiveRequests:        o.ActiveRequests(),
		MaxConcurrentRequests: o.cfg.Optimization.Constraints.MaxConcurrentRequests,
	}
}

// GetOptimizationStatus assembles the full observability snapshot.
func (o *DualTrackOptimizer) GetOptimizationStatus() OptimizationStatus {
	perPath := make(map[models.ProcessingPath]MetricsSummary)
	for _, p := range []models.ProcessingPath{models.PathLocal, models.PathAPI, models.PathParallel, models.PathStaged} {
		if s := o.Metrics.Summary(p); s.Count > 0 {
			perPath[p] = s
		}
	}
	return OptimizationStatus{
		Summary:         o.Metrics.Summary(""),
		PerPath:         perPath,
		Resources:       o.Monitor.Current(),
		Violations:      o.Monitor.CheckConstraints(o.cfg.Optimization.Constraints),
		Preferences:     o.adaptive.Preferences(),
		AdaptationCount: len(o.adaptive.History()),
		ActiveRequests:  o.ActiveRequests(),
	}
}

func scaleTimeout(base time.Duration, multiplier float64) time.Duration {
	if multiplier <= 0 {
		return base
	}
	return time.Duration(float64(base) * multiplier)
}

func totalTokens(responses ...*models.ModelResponse) int {
	total := 0
	for _, r := range responses {
		if r != nil {
			total += r.TotalTokens
		}
	}
	return total
}

func failureKind(responses ...*models.ModelResponse) string {
	for _, r := range responses {
		if r != nil && r.Failure != nil {
			return string(r.Failure.Kind)
		}
	}
	return "unknown"
}
