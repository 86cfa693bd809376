package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/mocks"
	"github.com/vanta-labs/vanta/src/models"
)

func newTestOptimizer() (*DualTrackOptimizer, *mocks.FakeClock) {
	cfg := config.Default()
	sampler := &mocks.StaticSampler{Snapshot: models.ResourceSnapshot{
		ProcessMemoryMB: 512,
		CPUPercent:      10,
		GPUMemoryMB:     -1,
		BatteryPercent:  -1,
	}}
	clock := &mocks.FakeClock{Current: time.Unix(1_700_000_000, 0)}
	return NewDualTrackOptimizer(cfg, sampler, clock), clock
}

func TestDualTrackOptimizer_RequestLifecycle(t *testing.T) {
	o, _ := newTestOptimizer()

	o.RecordRequestStart("req-1", "what is the weather")
	assert.Equal(t, 1, o.ActiveRequests())

	local := &models.ModelResponse{
		Text:             "It is sunny today.",
		Source:           models.PathLocal,
		CompletionTokens: 6,
		TotalTokens:      10,
		CompletionTime:   300 * time.Millisecond,
	}
	result := &models.IntegrationResult{
		Content:  local.Text,
		Source:   models.SourceLocal,
		Strategy: "single_source",
	}
	o.RecordRequestCompletion("req-1", models.PathLocal, local, nil, result)

	assert.Equal(t, 0, o.ActiveRequests())
	require.Equal(t, 1, o.Metrics.Len())

	window := o.Metrics.Window()
	assert.Equal(t, "req-1", window[0].RequestID)
	assert.True(t, window[0].Success)
	assert.Equal(t, 10, window[0].TokensProcessed)
	assert.Greater(t, window[0].QualityScore, 0.0)
}

func TestDualTrackOptimizer_FallbackCountsAsFailure(t *testing.T) {
	o, _ := newTestOptimizer()

	o.RecordRequestStart("req-1", "anything")
	localFail := models.FailedResponse(models.PathLocal, models.FailureTimeout, "deadline exceeded")
	result := &models.IntegrationResult{
		Content:  "I'm sorry, I couldn't come up with an answer just now.",
		Source:   models.SourceFallback,
		Strategy: "fallback",
	}
	o.RecordRequestCompletion("req-1", models.PathLocal, localFail, nil, result)

	window := o.Metrics.Window()
	require.Len(t, window, 1)
	assert.False(t, window[0].Success)
	assert.Equal(t, "timeout", window[0].ErrorType)
}

func TestDualTrackOptimizer_UnknownCompletionIgnored(t *testing.T) {
	o, _ := newTestOptimizer()

	o.RecordRequestCompletion("ghost", models.PathLocal, nil, nil, nil)

	assert.Equal(t, 0, o.Metrics.Len())
}

func TestDualTrackOptimizer_RecommendationsScaleTimeouts(t *testing.T) {
	o, clock := newTestOptimizer()

	rec := o.GetOptimizationRecommendations()

	assert.Equal(t, o.cfg.LocalModel.GenerationTimeout, rec.LocalTimeout)
	assert.Equal(t, o.cfg.APIModel.Timeout, rec.APITimeout)
	assert.True(t, rec.CacheEnabled)
	assert.Equal(t, 5, rec.MaxConcurrentRequests)

	// Force the multiplier up through a burst of failures.
	for i := 0; i < 10; i++ {
		clock.Advance(31 * time.Second)
		o.RecordRequestStart("req", "q")
		fail := models.FailedResponse(models.PathLocal, models.FailureTimeout, "deadline")
		o.RecordRequestCompletion("req", models.PathLocal, fail, nil, &models.IntegrationResult{
			Content: "fallback", Source: models.SourceFallback, Strategy: "fallback",
		})
	}

	rec = o.GetOptimizationRecommendations()
	assert.Greater(t, rec.LocalTimeout, o.cfg.LocalModel.GenerationTimeout)
	assert.Greater(t, rec.APITimeout, o.cfg.APIModel.Timeout)
}

func TestDualTrackOptimizer_RecommendationsTriggerAdaptation(t *testing.T) {
	o, clock := newTestOptimizer()

	for i := 0; i < 6; i++ {
		o.Metrics.Record(models.PerformanceMetrics{
			Timestamp: clock.Now(),
			Path:      models.PathLocal,
			LatencyMs: 200,
			Success:   false,
			ErrorType: "timeout",
		})
	}
	clock.Advance(31 * time.Second)

	rec := o.GetOptimizationRecommendations()

	assert.Greater(t, rec.Preferences.TimeoutMultiplier, 1.0)
	assert.Greater(t, rec.LocalTimeout, o.cfg.LocalModel.GenerationTimeout)
	assert.NotEmpty(t, o.adaptive.History())
}

func TestDualTrackOptimizer_StatusSnapshot(t *testing.T) {
	o, _ := newTestOptimizer()

	o.RecordRequestStart("req-1", "q")
	ok := &models.ModelResponse{Text: "An answer.", Source: models.PathLocal, CompletionTime: time.Millisecond}
	o.RecordRequestCompletion("req-1", models.PathLocal, ok, nil, &models.IntegrationResult{
		Content: ok.Text, Source: models.SourceLocal, Strategy: "single_source",
	})

	status := o.GetOptimizationStatus()

	assert.Equal(t, 1, status.Summary.Count)
	assert.Contains(t, status.PerPath, models.PathLocal)
	assert.Equal(t, 0, status.ActiveRequests)
	assert.InDelta(t, 0.5, status.Preferences.LocalBias, 1e-9)
}
