package optimizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-labs/vanta/src/models"
)

func record(path models.ProcessingPath, latencyMs float64, success bool) models.PerformanceMetrics {
	return models.PerformanceMetrics{
		Timestamp: time.Now(),
		Path:      path,
		LatencyMs: latencyMs,
		Success:   success,
	}
}

func TestMetricsCollector_WindowBounded(t *testing.T) {
	c := NewMetricsCollector(10)

	for i := 0; i < 60; i++ {
		m := record(models.PathLocal, float64(i), true)
		m.RequestID = fmt.Sprintf("req-%d", i)
		c.Record(m)
	}

	assert.Equal(t, 10, c.Len())

	window := c.Window()
	require.Len(t, window, 10)
	assert.Equal(t, "req-50", window[0].RequestID, "oldest surviving record after FIFO eviction")
	assert.Equal(t, "req-59", window[9].RequestID)
}

func TestMetricsCollector_EmptySummary(t *testing.T) {
	c := NewMetricsCollector(100)

	s := c.Summary("")

	assert.Equal(t, 0, s.Count)
	assert.Equal(t, 0.0, s.SuccessRate)
	assert.Equal(t, 0.0, s.AvgLatencyMs)
}

func TestMetricsCollector_SummaryStatistics(t *testing.T) {
	c := NewMetricsCollector(100)

	latencies := []float64{100, 200, 300, 400, 500}
	for i, l := range latencies {
		m := record(models.PathLocal, l, i != 0)
		if i == 0 {
			m.ErrorType = "timeout"
		}
		m.CostEstimate = 0.01
		m.QualityScore = 0.8
		c.Record(m)
	}

	s := c.Summary("")

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 0.8, s.SuccessRate, 1e-9)
	assert.InDelta(t, 300, s.AvgLatencyMs, 1e-9)
	assert.InDelta(t, 300, s.MedianLatencyMs, 1e-9)
	assert.InDelta(t, 500, s.P95LatencyMs, 1e-9)
	assert.InDelta(t, 0.05, s.TotalCost, 1e-9)
	assert.InDelta(t, 0.8, s.AvgQuality, 1e-9)
	assert.Equal(t, 1, s.ErrorsByType["timeout"])
	assert.Equal(t, 5, s.PathDistribution[models.PathLocal])
}

func TestMetricsCollector_PerPathWindows(t *testing.T) {
	c := NewMetricsCollector(100)

	c.Record(record(models.PathLocal, 100, true))
	c.Record(record(models.PathLocal, 200, true))
	c.Record(record(models.PathAPI, 1000, true))

	local := c.Summary(models.PathLocal)
	api := c.Summary(models.PathAPI)
	all := c.Summary("")

	assert.Equal(t, 2, local.Count)
	assert.InDelta(t, 150, local.AvgLatencyMs, 1e-9)
	assert.Equal(t, 1, api.Count)
	assert.Equal(t, 3, all.Count)
}

func TestMetricsCollector_SummariesAreFresh(t *testing.T) {
	c := NewMetricsCollector(100)

	c.Record(record(models.PathLocal, 100, true))
	first := c.Summary("")

	c.Record(record(models.PathLocal, 300, false))
	second := c.Summary("")

	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 2, second.Count)
	assert.InDelta(t, 0.5, second.SuccessRate, 1e-9)
}
