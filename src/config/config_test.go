package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-labs/vanta/src/models"
)

func validConfig() *DualTrackConfig {
	cfg := Default()
	cfg.APIModel.Providers = []ProviderConfig{{
		Name:   "openai",
		Model:  "gpt-4o-mini",
		APIKey: "sk-test",
	}}
	return cfg
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingProviders(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()

	require.Error(t, err)
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api_model.providers", cfgErr.Field)
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.APIModel.Providers[0].APIKey = ""

	err := cfg.Validate()

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api_model.providers.api_key", cfgErr.Field)
}

func TestValidate_MissingLocalModel(t *testing.T) {
	cfg := validConfig()
	cfg.LocalModel.Model = ""

	err := cfg.Validate()

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "local_model.model", cfgErr.Field)
}

func TestValidate_UnknownDefaultPath(t *testing.T) {
	cfg := validConfig()
	cfg.Router.DefaultPath = "quantum"

	err := cfg.Validate()

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "router.default_path", cfgErr.Field)
}

func TestDefault_RouterThresholds(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 20, cfg.Router.SimpleTokenThreshold)
	assert.Equal(t, 50, cfg.Router.ComplexTokenThreshold)
	assert.Equal(t, 0.2, cfg.Router.ContextThreshold)
	assert.Equal(t, 0.3, cfg.Router.TimeThreshold)
	assert.Equal(t, string(models.PathLocal), cfg.Router.DefaultPath)
}

func TestDefault_TimeoutsAndWindows(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 15*time.Second, cfg.LocalModel.GenerationTimeout)
	assert.Equal(t, 30*time.Second, cfg.APIModel.Timeout)
	assert.Equal(t, 100, cfg.Optimization.MetricsWindowSize)
	assert.Equal(t, 30*time.Second, cfg.Optimization.AdaptationInterval)
}

func TestConfigMapRoundTrip(t *testing.T) {
	cfg := validConfig()
	cfg.Integration.InterruptStyle = "abrupt"
	cfg.Optimization.Constraints.MaxCostPerRequest = 0.02

	m, err := cfg.ToMap()
	require.NoError(t, err)

	back, err := FromMap(m)
	require.NoError(t, err)

	assert.Equal(t, cfg.Router, back.Router)
	assert.Equal(t, cfg.LocalModel, back.LocalModel)
	assert.Equal(t, cfg.APIModel, back.APIModel)
	assert.Equal(t, cfg.Integration, back.Integration)
	assert.Equal(t, cfg.Optimization, back.Optimization)
}
