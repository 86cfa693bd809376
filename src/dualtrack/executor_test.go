package dualtrack

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/mocks"
	"github.com/vanta-labs/vanta/src/models"
)

func testIntegrationConfig() *config.IntegrationConfig {
	return &config.IntegrationConfig{MinResponseLength: 10}
}

func okResponse(source models.ProcessingPath, text string) *models.ModelResponse {
	return &models.ModelResponse{Text: text, Source: source, CompletionTime: time.Millisecond}
}

func decision(path models.ProcessingPath) *models.RoutingDecision {
	return &models.RoutingDecision{Path: path, Confidence: 0.8}
}

func TestExecutor_LocalPathSkipsAPI(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	local.On("ProcessQuery", mock.Anything, "hey", mock.Anything).
		Return(okResponse(models.PathLocal, "Hi there."))

	e := NewExecutor(local, api, testIntegrationConfig())
	localResp, apiResp := e.Execute(context.Background(), decision(models.PathLocal), "hey", nil)

	require.NotNil(t, localResp)
	assert.Nil(t, apiResp)
	api.AssertNotCalled(t, "ProcessQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_APIPathSkipsLocal(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	api.On("ProcessQuery", mock.Anything, "write a poem", mock.Anything).
		Return(okResponse(models.PathAPI, "A poem."))

	e := NewExecutor(local, api, testIntegrationConfig())
	localResp, apiResp := e.Execute(context.Background(), decision(models.PathAPI), "write a poem", nil)

	assert.Nil(t, localResp)
	require.NotNil(t, apiResp)
	local.AssertNotCalled(t, "ProcessQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_ParallelRunsBoth(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	local.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathLocal, "Local answer."))
	api.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathAPI, "API answer."))

	e := NewExecutor(local, api, testIntegrationConfig())
	localResp, apiResp := e.Execute(context.Background(), decision(models.PathParallel), "moderate query", nil)

	require.NotNil(t, localResp)
	require.NotNil(t, apiResp)
	assert.Equal(t, "Local answer.", localResp.Text)
	assert.Equal(t, "API answer.", apiResp.Text)
}

func TestExecutor_ParallelJoinIsBounded(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	local.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(30 * time.Millisecond) }).
		Return(okResponse(models.PathLocal, "Slow local."))
	api.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathAPI, "Fast API."))

	e := NewExecutor(local, api, testIntegrationConfig())

	start := time.Now()
	localResp, apiResp := e.Execute(context.Background(), decision(models.PathParallel), "q", nil)
	elapsed := time.Since(start)

	assert.NotNil(t, localResp)
	assert.NotNil(t, apiResp)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond, "parallel waits for both tracks")
}

func TestExecutor_StagedSufficientLocalSkipsAPI(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	local.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathLocal, "A complete and confident answer to the question."))

	e := NewExecutor(local, api, testIntegrationConfig())
	localResp, apiResp := e.Execute(context.Background(), decision(models.PathStaged), "q", nil)

	require.NotNil(t, localResp)
	assert.Nil(t, apiResp)
	api.AssertNotCalled(t, "ProcessQuery", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_StagedEscalatesOnFailure(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	local.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(models.FailedResponse(models.PathLocal, models.FailureTimeout, "deadline"))
	api.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathAPI, "API rescue answer."))

	e := NewExecutor(local, api, testIntegrationConfig())
	localResp, apiResp := e.Execute(context.Background(), decision(models.PathStaged), "q", nil)

	require.NotNil(t, localResp)
	require.NotNil(t, apiResp)
	assert.Equal(t, "API rescue answer.", apiResp.Text)
}

func TestExecutor_StagedEscalatesOnWeakAnswer(t *testing.T) {
	local := new(mocks.MockQueryProcessor)
	api := new(mocks.MockQueryProcessor)
	local.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathLocal, "I'm sorry, I don't know the answer to that."))
	api.On("ProcessQuery", mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(models.PathAPI, "Here is the real answer."))

	e := NewExecutor(local, api, testIntegrationConfig())
	_, apiResp := e.Execute(context.Background(), decision(models.PathStaged), "q", nil)

	require.NotNil(t, apiResp)
}

func TestHeuristicSufficiency(t *testing.T) {
	h := HeuristicSufficiency{MinLength: 10}

	cases := []struct {
		text string
		want bool
	}{
		{"A complete and confident answer.", true},
		{"short.", false},
		{"This answer never quite finishes its", false},
		{"I'm sorry, I cannot help with that request today.", false},
		{"", false},
	}
	for _, tc := range cases {
		resp := &models.ModelResponse{Text: tc.text, Source: models.PathLocal}
		assert.Equal(t, tc.want, h.Sufficient(resp), tc.text)
	}
}
