package models

import "time"

// ProcessingPath is the routing outcome for a query.
type ProcessingPath string

const (
	PathLocal    ProcessingPath = "local"
	PathAPI      ProcessingPath = "api"
	PathParallel ProcessingPath = "parallel"
	PathStaged   ProcessingPath = "staged"
)

// Valid reports whether p is one of the four known paths.
func (p ProcessingPath) Valid() bool {
	switch p {
	case PathLocal, PathAPI, PathParallel, PathStaged:
		return true
	}
	return false
}

// QueryFeatures is the structured feature vector derived from a raw query.
// Created fresh per routing call and never mutated afterwards.
type QueryFeatures struct {
	TokenCount         int      `json:"token_count"`
	EntityCount        int      `json:"entity_count"`
	ReasoningSteps     int      `json:"reasoning_steps"` // capped at 3
	ContextDependency  float64  `json:"context_dependency"`
	TimeSensitivity    float64  `json:"time_sensitivity"`
	FactualRetrieval   bool     `json:"factual_retrieval"`
	CreativityRequired bool     `json:"creativity_required"`
	SocialChat         bool     `json:"social_chat"`
	QuestionWords      []string `json:"question_words,omitempty"`
	ComplexityScore    float64  `json:"complexity_score"`
}

// RoutingDecision is the router's verdict for a single query.
type RoutingDecision struct {
	Path           ProcessingPath `json:"path"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	Features       QueryFeatures  `json:"features"`
	ProcessingTime time.Duration  `json:"processing_time"`
}

// ModelResponse is the uniform result shape produced by both the local and
// the API controller. A failed call has Failure set and Success() false; the
// integrator never needs to branch on which backend produced the value.
type ModelResponse struct {
	Text             string         `json:"text"`
	Source           ProcessingPath `json:"source"` // PathLocal or PathAPI
	Provider         string         `json:"provider,omitempty"`
	Model            string         `json:"model,omitempty"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	TotalTokens      int            `json:"total_tokens"`
	FinishReason     string         `json:"finish_reason,omitempty"`
	// CompletionTime is the measured wall-clock generation latency.
	// Zero means the backend did not report timing.
	CompletionTime time.Duration `json:"completion_time"`
	Failure        *Failure      `json:"failure,omitempty"`
}

// Success reports whether the call produced a usable answer.
func (r *ModelResponse) Success() bool {
	return r != nil && r.Failure == nil && r.Text != ""
}

// ResponseSource identifies where an integrated answer came from.
type ResponseSource string

const (
	SourceLocal      ResponseSource = "local"
	SourceAPI        ResponseSource = "api"
	SourceIntegrated ResponseSource = "integrated"
	SourceFallback   ResponseSource = "fallback"
)

// IntegrationResult is the single reconciled answer surfaced to the user.
// Content is never empty: a fallback message is substituted when both
// candidate responses are missing or erroring.
type IntegrationResult struct {
	Content         string         `json:"content"`
	Source          ResponseSource `json:"source"`
	Strategy        string         `json:"integration_strategy"`
	SimilarityScore *float64       `json:"similarity_score,omitempty"` // nil when fewer than two sources
	ProcessingTime  time.Duration  `json:"processing_time"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// PerformanceMetrics is one append-only record per completed request.
type PerformanceMetrics struct {
	Timestamp       time.Time      `json:"timestamp"`
	Path            ProcessingPath `json:"processing_path"`
	RequestID       string         `json:"request_id"`
	LatencyMs       float64        `json:"latency_ms"`
	TokensProcessed int            `json:"tokens_processed"`
	MemoryUsageMB   float64        `json:"memory_usage_mb"`
	CPUUsagePercent float64        `json:"cpu_usage_percent"`
	GPUUsagePercent float64        `json:"gpu_usage_percent,omitempty"`
	CostEstimate    float64        `json:"cost_estimate"`
	QualityScore    float64        `json:"quality_score"`
	Success         bool           `json:"success"`
	ErrorType       string         `json:"error_type,omitempty"`
}

// ResourceSnapshot is the monitor's current view of system usage.
// Fields the platform cannot report are negative.
type ResourceSnapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	ProcessMemoryMB float64   `json:"process_memory_mb"`
	MemoryPercent   float64   `json:"memory_percent"`
	CPUPercent      float64   `json:"cpu_percent"`
	LoadAvg1        float64   `json:"load_avg_1"`
	GPUMemoryMB     float64   `json:"gpu_memory_mb"`
	BatteryPercent  float64   `json:"battery_percent"`
}

// ResourceViolation names a constraint currently exceeded.
type ResourceViolation string

const (
	ViolationMemory    ResourceViolation = "memory"
	ViolationCPU       ResourceViolation = "cpu"
	ViolationGPUMemory ResourceViolation = "gpu_memory"
	ViolationBattery   ResourceViolation = "battery"
)

// RoutingPreferences is the adaptive state tuned by the optimizer: read on
// every recommendation call, written at most once per adaptation interval.
type RoutingPreferences struct {
	LocalBias         float64 `json:"local_bias"`         // 0 = prefer API, 1 = prefer local
	ParallelThreshold float64 `json:"parallel_threshold"` // confidence bar for parallel dispatch
	TimeoutMultiplier float64 `json:"timeout_multiplier"`
	QualityThreshold  float64 `json:"quality_threshold"`
}

// Conversation types, consumed read-only by feature extraction and prompt
// building.

type ConversationTurn struct {
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	Timestamp        time.Time `json:"timestamp"`
}

type Session struct {
	SessionID       string             `json:"session_id"`
	Turns           []ConversationTurn `json:"turns"`
	CreatedAt       time.Time          `json:"created_at"`
	LastInteraction time.Time          `json:"last_interaction"`
	TotalTokens     int                `json:"total_tokens"`
	TurnCount       int                `json:"turn_count"`
}

// QueryContext is the optional per-query context supplied by the
// orchestration layer: conversation history plus retrieved facts.
type QueryContext struct {
	History   []ConversationTurn `json:"conversation_history,omitempty"`
	Retrieved map[string]string  `json:"retrieved_context,omitempty"`
}

// Empty reports whether the context carries no usable signal.
func (c *QueryContext) Empty() bool {
	return c == nil || (len(c.History) == 0 && len(c.Retrieved) == 0)
}
