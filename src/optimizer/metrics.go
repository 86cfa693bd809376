package optimizer

import (
	"sort"
	"sync"

	"github.com/vanta-labs/vanta/src/models"
)

// ringBuffer is a fixed-capacity FIFO of metric records. Appends are O(1);
// once full, each append silently evicts the oldest entry.
type ringBuffer struct {
	buf  []models.PerformanceMetrics
	head int
	size int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]models.PerformanceMetrics, capacity)}
}

func (r *ringBuffer) push(m models.PerformanceMetrics) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = m
		r.size++
		return
	}
	r.buf[r.head] = m
	r.head = (r.head + 1) % len(r.buf)
}

func (r *ringBuffer) items() []models.PerformanceMetrics {
	out := make([]models.PerformanceMetrics, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(r.head+i)%len(r.buf)])
	}
	return out
}

// MetricsSummary is derived fresh from the window on every call; nothing
// here is cached.
type MetricsSummary struct {
	Count            int                            `json:"count"`
	SuccessRate      float64                        `json:"success_rate"`
	AvgLatencyMs     float64                        `json:"avg_latency_ms"`
	MedianLatencyMs  float64                        `json:"median_latency_ms"`
	P95LatencyMs     float64                        `json:"p95_latency_ms"`
	AvgMemoryMB      float64                        `json:"avg_memory_mb"`
	AvgCPUPercent    float64                        `json:"avg_cpu_percent"`
	TotalCost        float64                        `json:"total_cost"`
	AvgQuality       float64                        `json:"avg_quality"` // over entries with quality > 0
	ErrorsByType     map[string]int                 `json:"errors_by_type,omitempty"`
	PathDistribution map[models.ProcessingPath]int  `json:"path_distribution,omitempty"`
}

// MetricsCollector keeps a bounded sliding window of per-request metrics,
// globally and per processing path. Records are append-only and never
// mutated after insertion.
type MetricsCollector struct {
	mu       sync.Mutex
	capacity int
	global   *ringBuffer
	perPath  map[models.ProcessingPath]*ringBuffer
}

func NewMetricsCollector(windowSize int) *MetricsCollector {
	if windowSize <= 0 {
		windowSize = 100
	}
	return &MetricsCollector{
		capacity: windowSize,
		global:   newRingBuffer(windowSize),
		perPath:  make(map[models.ProcessingPath]*ringBuffer),
	}
}

// Record appends one completed-request record, evicting the oldest entry
// once the window is full.
func (c *MetricsCollector) Record(m models.PerformanceMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.global.push(m)

	rb, ok := c.perPath[m.Path]
	if !ok {
		rb = newRingBuffer(c.capacity)
		c.perPath[m.Path] = rb
	}
	rb.push(m)
}

// Len reports the current number of records in the global window.
func (c *MetricsCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global.size
}

// Window returns a copy of the global window, oldest first.
func (c *MetricsCollector) Window() []models.PerformanceMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global.items()
}

// Summary computes statistics over the window. An empty path summarizes
// all records; a specific path summarizes that path's window.
func (c *MetricsCollector) Summary(path models.ProcessingPath) MetricsSummary {
	c.mu.Lock()
	var records []models.PerformanceMetrics
	if path == "" {
		records = c.global.items()
	} else if rb, ok := c.perPath[path]; ok {
		records = rb.items()
	}
	c.mu.Unlock()

	summary := MetricsSummary{
		ErrorsByType:     make(map[string]int),
		PathDistribution: make(map[models.ProcessingPath]int),
	}
	if len(records) == 0 {
		return summary
	}

	summary.Count = len(records)

	latencies := make([]float64, 0, len(records))
	successes := 0
	qualitySum, qualityCount := 0.0, 0

	for _, m := range records {
		latencies = append(latencies, m.LatencyMs)
		summary.AvgMemoryMB += m.MemoryUsageMB
		summary.AvgCPUPercent += m.CPUUsagePercent
		summary.TotalCost += m.CostEstimate
		summary.PathDistribution[m.Path]++

		if m.Success {
			successes++
		} else if m.ErrorType != "" {
			summary.ErrorsByType[m.ErrorType]++
		}
		if m.QualityScore > 0 {
			qualitySum += m.QualityScore
			qualityCount++
		}
	}

	n := float64(len(records))
	summary.SuccessRate = float64(successes) / n
	summary.AvgMemoryMB /= n
	summary.AvgCPUPercent /= n
	if qualityCount > 0 {
		summary.AvgQuality = qualitySum / float64(qualityCount)
	}

	sort.Float64s(latencies)
	for _, l := range latencies {
		summary.AvgLatencyMs += l
	}
	summary.AvgLatencyMs /= n
	summary.MedianLatencyMs = percentile(latencies, 0.5)
	summary.P95LatencyMs = percentile(latencies, 0.95)

	return summary
}

// percentile reads the p-quantile from an already sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
