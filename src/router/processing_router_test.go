package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

func testRouterConfig() *config.RouterConfig {
	return &config.RouterConfig{
		SimpleTokenThreshold:  20,
		ComplexTokenThreshold: 50,
		ContextThreshold:      0.2,
		TimeThreshold:         0.3,
		DefaultPath:           string(models.PathLocal),
		HistorySize:           1000,
	}
}

func TestDeterminePath_EmptyQuery(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	d := r.DeterminePath("", nil)

	assert.Equal(t, models.PathLocal, d.Path)
	assert.Equal(t, 0.5, d.Confidence)
	assert.True(t, d.Path.Valid())
}

func TestDeterminePath_SocialChatStaysLocal(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	d := r.DeterminePath("hey, thanks!", nil)

	assert.Equal(t, models.PathLocal, d.Path)
	assert.Equal(t, 0.9, d.Confidence)
}

func TestDeterminePath_SimpleFactualStaysLocal(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	d := r.DeterminePath("What is the capital of France?", nil)

	assert.Equal(t, models.PathLocal, d.Path)
	assert.Equal(t, 0.8, d.Confidence)
}

func TestDeterminePath_CreativeGoesToAPI(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	d := r.DeterminePath("Write a short poem about the sea at dusk", nil)

	assert.Equal(t, models.PathAPI, d.Path)
	assert.Equal(t, 0.85, d.Confidence)
}

func TestDeterminePath_ContextHeavyGoesToAPI(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	d := r.DeterminePath("Tell me more about that thing they mentioned earlier", nil)

	assert.Equal(t, models.PathAPI, d.Path)
	assert.Equal(t, 0.75, d.Confidence)
}

func TestDeterminePath_LongQueryGoesToAPI(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	long := ""
	for i := 0; i < 60; i++ {
		long += "banana "
	}
	d := r.DeterminePath(long, nil)

	assert.Equal(t, models.PathAPI, d.Path)
	assert.Equal(t, 0.8, d.Confidence)
}

func TestDeterminePath_TimeSensitiveStaysLocal(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	d := r.DeterminePath("weather today", nil)

	assert.Equal(t, models.PathLocal, d.Path)
	assert.Equal(t, 0.7, d.Confidence)
}

func TestDeterminePath_ModerateComplexityRunsParallel(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	query := "Explain how the theories of Alan Turing and Claude Shannon shaped " +
		"the work of John Neumann and the early computing designs followed in " +
		"the decades after the war across both industry and academia overall"
	d := r.DeterminePath(query, nil)

	assert.Equal(t, models.PathParallel, d.Path)
	assert.Equal(t, 0.7, d.Confidence)
}

func TestDeterminePath_Deterministic(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	queries := []string{
		"hey, thanks!",
		"What is the capital of France?",
		"Write a short poem about the sea at dusk",
		"",
	}
	for _, q := range queries {
		first := r.DeterminePath(q, nil)
		for i := 0; i < 50; i++ {
			d := r.DeterminePath(q, nil)
			assert.Equal(t, first.Path, d.Path, q)
			assert.Equal(t, first.Confidence, d.Confidence, q)
			assert.Equal(t, first.Reasoning, d.Reasoning, q)
		}
	}
}

func TestDeterminePath_AlwaysValidPath(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	queries := []string{
		"", " ", "???", "ことばのテスト", "a",
		"WHY WHY WHY WHY", "\n\t\n",
	}
	for _, q := range queries {
		d := r.DeterminePath(q, nil)
		assert.True(t, d.Path.Valid(), "query %q produced invalid path %q", q, d.Path)
		assert.NotEmpty(t, d.Reasoning, q)
	}
}

func TestDeterminePath_InvalidDefaultFallsBackToLocal(t *testing.T) {
	cfg := testRouterConfig()
	cfg.DefaultPath = "teleport"
	r := NewProcessingRouter(cfg)

	d := r.DeterminePath("", nil)

	assert.Equal(t, models.PathLocal, d.Path)
}

func TestGetRoutingStats(t *testing.T) {
	r := NewProcessingRouter(testRouterConfig())

	r.DeterminePath("hey, thanks!", nil)
	r.DeterminePath("hi there", nil)
	r.DeterminePath("Write a short poem about the sea at dusk", nil)

	stats := r.GetRoutingStats()

	require.Equal(t, 3, stats.TotalDecisions)
	assert.Equal(t, 2, stats.PathDistribution[models.PathLocal])
	assert.Equal(t, 1, stats.PathDistribution[models.PathAPI])
	assert.InDelta(t, 2.0/3.0, stats.PathShare[models.PathLocal], 1e-9)
	assert.Greater(t, stats.AvgConfidence, 0.0)
}

func TestRoutingHistoryBounded(t *testing.T) {
	cfg := testRouterConfig()
	cfg.HistorySize = 10
	r := NewProcessingRouter(cfg)

	for i := 0; i < 60; i++ {
		r.DeterminePath("hi", nil)
	}

	stats := r.GetRoutingStats()
	assert.Equal(t, 10, stats.TotalDecisions)
}

func BenchmarkProcessingRouter_DeterminePath(b *testing.B) {
	r := NewProcessingRouter(testRouterConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.DeterminePath("Explain how caching works in detail", nil)
	}
}
