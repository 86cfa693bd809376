package api

import (
	"context"
	"errors"
	"net"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

// OpenAIProvider speaks the OpenAI chat completion protocol. Pointing
// Endpoint at any OpenAI-compatible server (Groq, Together, a local
// gateway) yields a second provider without new code, which is why the
// provider list is configuration, not a type hierarchy.
type OpenAIProvider struct {
	name   string
	model  string
	client *openai.Client
}

func NewOpenAIProvider(cfg config.ProviderConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	return &OpenAIProvider{
		name:   cfg.Name,
		model:  cfg.Model,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

// Chat sends one chat completion request and normalizes the result at the
// SDK boundary: callers see a ProviderResponse or a classified Failure,
// never an SDK error type.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (*models.ProviderResponse, *models.Failure) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, models.NewFailure(models.FailureGeneration, "provider %s returned no choices", p.name)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, models.NewFailure(models.FailureContentFiltered, "provider %s filtered the completion", p.name)
	}

	return &models.ProviderResponse{
		Content:          choice.Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		FinishReason:     string(choice.FinishReason),
	}, nil
}

// classify maps SDK and transport errors onto the failure taxonomy. The
// kind decides retry behavior, so an unknown error is treated as transient
// rather than fatal.
func (p *OpenAIProvider) classify(err error) *models.Failure {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return models.NewFailure(models.FailureTimeout, "provider %s timed out: %v", p.name, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.NewFailure(models.FailureTimeout, "provider %s timed out: %v", p.name, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return models.NewFailure(models.FailureAuth, "provider %s rejected credentials: %v", p.name, err)
		case apiErr.HTTPStatusCode == 429:
			return models.NewFailure(models.FailureRateLimit, "provider %s rate limited: %v", p.name, err)
		case apiErr.HTTPStatusCode == 400 || apiErr.HTTPStatusCode == 404 || apiErr.HTTPStatusCode == 422:
			return models.NewFailure(models.FailureInvalidRequest, "provider %s rejected request: %v", p.name, err)
		case apiErr.HTTPStatusCode >= 500:
			return models.NewFailure(models.FailureTransient, "provider %s unavailable: %v", p.name, err)
		}
	}

	return models.NewFailure(models.FailureTransient, "provider %s call failed: %v", p.name, err)
}
