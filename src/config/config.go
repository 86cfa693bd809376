package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/vanta-labs/vanta/src/models"
)

type DualTrackConfig struct {
	Server       ServerConfig       `mapstructure:"server"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Router       RouterConfig       `mapstructure:"router"`
	LocalModel   LocalModelConfig   `mapstructure:"local_model"`
	APIModel     APIModelConfig     `mapstructure:"api_model"`
	Integration  IntegrationConfig  `mapstructure:"integration"`
	Optimization OptimizationConfig `mapstructure:"optimization"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Address    string        `mapstructure:"address"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type RouterConfig struct {
	SimpleTokenThreshold  int     `mapstructure:"simple_token_threshold"`
	ComplexTokenThreshold int     `mapstructure:"complex_token_threshold"`
	ContextThreshold      float64 `mapstructure:"context_threshold"`
	TimeThreshold         float64 `mapstructure:"time_threshold"`
	DefaultPath           string  `mapstructure:"default_path"`
	HistorySize           int     `mapstructure:"history_size"`
}

type LocalModelConfig struct {
	Model             string        `mapstructure:"model"`
	ServerURL         string        `mapstructure:"server_url"`
	Preload           bool          `mapstructure:"preload"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Temperature       float64       `mapstructure:"temperature"`
	TopP              float64       `mapstructure:"top_p"`
	TopK              int           `mapstructure:"top_k"`
	RepeatPenalty     float64       `mapstructure:"repeat_penalty"`
	HistoryWindow     int           `mapstructure:"history_window"`
}

type ProviderConfig struct {
	Name     string `mapstructure:"name"`
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

type APIModelConfig struct {
	Providers         []ProviderConfig `mapstructure:"providers"`
	Timeout           time.Duration    `mapstructure:"timeout"`
	MaxConcurrent     int              `mapstructure:"max_concurrent"`
	RequestsPerMinute int              `mapstructure:"requests_per_minute"`
	MaxRetries        int              `mapstructure:"max_retries"`
	InitialBackoff    time.Duration    `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration    `mapstructure:"max_backoff"`
	MaxTokens         int              `mapstructure:"max_tokens"`
	Temperature       float64          `mapstructure:"temperature"`
	HistoryWindow     int              `mapstructure:"history_window"`
}

type IntegrationConfig struct {
	APIPreferenceWeight  float64 `mapstructure:"api_preference_weight"`
	PreferenceThreshold  float64 `mapstructure:"preference_threshold"`
	DivergenceThreshold  float64 `mapstructure:"divergence_threshold"`
	SubstituteThreshold  float64 `mapstructure:"substitute_threshold"`
	InterruptStyle       string  `mapstructure:"interrupt_style"` // "smooth" or "abrupt"
	DefaultStrategy      string  `mapstructure:"default_strategy"`
	MinResponseLength    int     `mapstructure:"min_response_length"`
	MaxResponseLength    int     `mapstructure:"max_response_length"`
	AbruptTruncateLength int     `mapstructure:"abrupt_truncate_length"`
}

type ResourceConstraints struct {
	MaxMemoryMB             float64 `mapstructure:"max_memory_mb"`
	MaxCPUPercent           float64 `mapstructure:"max_cpu_percent"`
	MaxGPUMemoryMB          float64 `mapstructure:"max_gpu_memory_mb"`
	MaxConcurrentRequests   int     `mapstructure:"max_concurrent_requests"`
	TargetLatencyMs         float64 `mapstructure:"target_latency_ms"`
	MaxCostPerRequest       float64 `mapstructure:"max_cost_per_request"`
	BatteryThresholdPercent float64 `mapstructure:"battery_threshold_percent"`
}

type OptimizationConfig struct {
	MetricsWindowSize  int                 `mapstructure:"metrics_window_size"`
	AdaptationInterval time.Duration       `mapstructure:"adaptation_interval"`
	MonitorInterval    time.Duration       `mapstructure:"monitor_interval"`
	CacheEnabled       bool                `mapstructure:"cache_enabled"`
	Constraints        ResourceConstraints `mapstructure:"constraints"`
}

// Default returns the configuration used when no file or environment
// override is present. The router thresholds are load-bearing: identical
// inputs must produce identical routing across deployments.
func Default() *DualTrackConfig {
	return &DualTrackConfig{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Redis: RedisConfig{
			Address:    "localhost:6379",
			SessionTTL: 24 * time.Hour,
			CacheTTL:   time.Hour,
		},
		Router: RouterConfig{
			SimpleTokenThreshold:  20,
			ComplexTokenThreshold: 50,
			ContextThreshold:      0.2,
			TimeThreshold:         0.3,
			DefaultPath:           string(models.PathLocal),
			HistorySize:           1000,
		},
		LocalModel: LocalModelConfig{
			Model:             "llama3.2:3b",
			ServerURL:         "http://localhost:11434",
			Preload:           false,
			GenerationTimeout: 15 * time.Second,
			MaxTokens:         256,
			Temperature:       0.7,
			TopP:              0.9,
			TopK:              40,
			RepeatPenalty:     1.1,
			HistoryWindow:     5,
		},
		APIModel: APIModelConfig{
			Timeout:           30 * time.Second,
			MaxConcurrent:     3,
			RequestsPerMinute: 60,
			MaxRetries:        3,
			InitialBackoff:    500 * time.Millisecond,
			MaxBackoff:        8 * time.Second,
			MaxTokens:         1024,
			Temperature:       0.7,
			HistoryWindow:     10,
		},
		Integration: IntegrationConfig{
			APIPreferenceWeight:  0.7,
			PreferenceThreshold:  0.9,
			DivergenceThreshold:  0.3,
			SubstituteThreshold:  0.6,
			InterruptStyle:       "smooth",
			DefaultStrategy:      "preference",
			MinResponseLength:    10,
			MaxResponseLength:    2000,
			AbruptTruncateLength: 150,
		},
		Optimization: OptimizationConfig{
			MetricsWindowSize:  100,
			AdaptationInterval: 30 * time.Second,
			MonitorInterval:    time.Second,
			CacheEnabled:       true,
			Constraints: ResourceConstraints{
				MaxMemoryMB:             8192,
				MaxCPUPercent:           80,
				MaxGPUMemoryMB:          4096,
				MaxConcurrentRequests:   5,
				TargetLatencyMs:         2000,
				MaxCostPerRequest:       0.05,
				BatteryThresholdPercent: 20,
			},
		},
	}
}

// Load reads config.yaml (optional), applies environment overrides and
// validates the result. Validation failures are ConfigurationErrors and
// must abort startup: they are not recoverable at request time.
func Load() (*DualTrackConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.BindEnv("local_model.server_url", "OLLAMA_HOST")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := Default()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if len(cfg.APIModel.Providers) == 0 {
			cfg.APIModel.Providers = []ProviderConfig{{
				Name:  "openai",
				Model: "gpt-4o-mini",
			}}
		}
		for i := range cfg.APIModel.Providers {
			if cfg.APIModel.Providers[i].APIKey == "" {
				cfg.APIModel.Providers[i].APIKey = apiKey
			}
		}
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.LocalModel.ServerURL = host
	}
	if redisAddr := os.Getenv("REDIS_ADDRESS"); redisAddr != "" {
		cfg.Redis.Address = redisAddr
	}
	if redisPass := os.Getenv("REDIS_PASSWORD"); redisPass != "" {
		cfg.Redis.Password = redisPass
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.DB = db
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the fields that cannot be defaulted into a working state.
func (c *DualTrackConfig) Validate() error {
	if len(c.APIModel.Providers) == 0 {
		return &models.ConfigurationError{
			Field:  "api_model.providers",
			Reason: "at least one remote provider is required (set OPENAI_API_KEY)",
		}
	}
	for _, p := range c.APIModel.Providers {
		if p.Name == "" {
			return &models.ConfigurationError{Field: "api_model.providers.name", Reason: "provider name is empty"}
		}
		if p.Model == "" {
			return &models.ConfigurationError{Field: "api_model.providers.model", Reason: "model is empty for provider " + p.Name}
		}
		if p.APIKey == "" {
			return &models.ConfigurationError{Field: "api_model.providers.api_key", Reason: "API key is empty for provider " + p.Name}
		}
	}
	if c.LocalModel.Model == "" {
		return &models.ConfigurationError{Field: "local_model.model", Reason: "local model name is empty"}
	}
	if !models.ProcessingPath(c.Router.DefaultPath).Valid() {
		return &models.ConfigurationError{Field: "router.default_path", Reason: "unknown path " + c.Router.DefaultPath}
	}
	if c.Optimization.MetricsWindowSize <= 0 {
		return &models.ConfigurationError{Field: "optimization.metrics_window_size", Reason: "must be positive"}
	}
	return nil
}
