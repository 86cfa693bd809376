package models

import (
	"context"
	"time"
)

// GenerationOptions are the sampling knobs passed through to a backend.
type GenerationOptions struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	RepeatPenalty float64
	Stop          []string
}

// Generation is the raw output of a local model call.
type Generation struct {
	Text         string
	TokensUsed   int
	FinishReason string
}

// LocalGenerator abstracts a locally hosted generative model with an
// explicit load/unload lifecycle.
type LocalGenerator interface {
	Load(ctx context.Context) error
	Unload() error
	Loaded() bool
	ModelName() string
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (*Generation, error)
}

// ChatMessage is one turn in a provider chat request.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ProviderResponse is a remote provider's answer, normalized immediately at
// the SDK boundary so nothing downstream branches on provider identity.
type ProviderResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	FinishReason     string
}

// ChatProvider abstracts one remote model provider. Implementations must
// classify their errors into *Failure values.
type ChatProvider interface {
	Name() string
	Model() string
	Chat(ctx context.Context, messages []ChatMessage, opts GenerationOptions) (*ProviderResponse, *Failure)
}

// ConversationStore supplies bounded conversation history to prompt
// building. The core reads it; only the orchestration surface writes it.
type ConversationStore interface {
	CreateSession(ctx context.Context) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	AppendTurn(ctx context.Context, sessionID string, turn ConversationTurn) error
	DeleteSession(ctx context.Context, sessionID string) error
	Close() error
}

// ResourceSampler reads OS-level usage. Sampled, never mutated.
type ResourceSampler interface {
	Sample(ctx context.Context) (*ResourceSnapshot, error)
}

// Clock lets tests control time-dependent behavior such as adaptation rate
// limiting.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
