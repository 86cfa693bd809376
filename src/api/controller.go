package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

const apiSystemInstruction = "You are VANTA, a helpful voice assistant. " +
	"Keep answers clear and conversational. Do not state facts about the " +
	"user that are not present in the conversation history."

// Controller wraps the remote track: a prioritized list of providers
// behind a bounded worker pool, a requests-per-minute budget checked
// before any network call, and retry with exponential backoff for
// retryable failures only. Like the local controller it always returns a
// structured ModelResponse.
type Controller struct {
	cfg       *config.APIModelConfig
	providers []models.ChatProvider
	pool      chan struct{}
	limiter   *rate.Limiter
	retry     retryPolicy
}

func NewController(cfg *config.APIModelConfig, providers []models.ChatProvider) (*Controller, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("api controller requires at least one provider")
	}

	concurrency := cfg.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 3
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := rpm / 6
	if burst < 1 {
		burst = 1
	}

	return &Controller{
		cfg:       cfg,
		providers: providers,
		pool:      make(chan struct{}, concurrency),
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst),
		retry: retryPolicy{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxBackoff:     cfg.MaxBackoff,
		},
	}, nil
}

// ProcessQuery runs the query against the remote track. The whole call,
// retries included, is bounded by the configured timeout.
func (c *Controller) ProcessQuery(ctx context.Context, query string, qctx *models.QueryContext) *models.ModelResponse {
	// Pre-flight budget check; fail before spending a network round trip.
	if !c.limiter.Allow() {
		return models.FailedResponse(models.PathAPI, models.FailureRateLimit,
			"request budget of %d/min exhausted", c.cfg.RequestsPerMinute)
	}

	select {
	case c.pool <- struct{}{}:
		defer func() { <-c.pool }()
	case <-ctx.Done():
		return models.FailedResponse(models.PathAPI, models.FailureTimeout,
			"canceled while waiting for an API worker: %v", ctx.Err())
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	messages := c.BuildMessages(query, qctx)
	start := time.Now()

	var lastFailure *models.Failure
	for _, provider := range c.providers {
		resp, failure := c.callWithRetry(callCtx, provider, messages)
		if failure == nil {
			return &models.ModelResponse{
				Text:             resp.Content,
				Source:           models.PathAPI,
				Provider:         provider.Name(),
				Model:            provider.Model(),
				PromptTokens:     resp.PromptTokens,
				CompletionTokens: resp.CompletionTokens,
				TotalTokens:      resp.TotalTokens,
				FinishReason:     resp.FinishReason,
				CompletionTime:   time.Since(start),
			}
		}

		lastFailure = failure
		// A request the provider rejected as malformed or filtered will be
		// rejected identically by the next provider; stop here.
		if failure.Kind == models.FailureInvalidRequest || failure.Kind == models.FailureContentFiltered {
			break
		}
		log.WithFields(log.Fields{
			"provider": provider.Name(),
			"kind":     failure.Kind,
		}).Warn("api provider failed, trying next")
	}

	return &models.ModelResponse{Source: models.PathAPI, Failure: lastFailure}
}

// callWithRetry retries retryable failures with backoff and jitter inside
// the caller's deadline. Auth, malformed-request and content-filter
// failures fail immediately.
func (c *Controller) callWithRetry(ctx context.Context, provider models.ChatProvider, messages []models.ChatMessage) (*models.ProviderResponse, *models.Failure) {
	opts := models.GenerationOptions{
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	var failure *models.Failure
	for attempt := 0; ; attempt++ {
		resp, f := provider.Chat(ctx, messages, opts)
		if f == nil {
			return resp, nil
		}

		failure = f
		if !f.Kind.Retryable() || attempt >= c.retry.MaxRetries {
			return nil, failure
		}

		select {
		case <-time.After(c.retry.delay(attempt)):
		case <-ctx.Done():
			return nil, models.NewFailure(models.FailureTimeout,
				"retry budget exhausted by deadline: %v (last: %s)", ctx.Err(), failure.Message)
		}
	}
}

// BuildMessages converts the query and its context into provider chat
// messages: system instruction (with retrieved facts folded in), a bounded
// history window as alternating turns, then the query.
func (c *Controller) BuildMessages(query string, qctx *models.QueryContext) []models.ChatMessage {
	system := apiSystemInstruction
	if qctx != nil && len(qctx.Retrieved) > 0 {
		var b strings.Builder
		b.WriteString(system)
		b.WriteString("\n\nKnown context:")
		for key, val := range qctx.Retrieved {
			fmt.Fprintf(&b, "\n- %s: %s", key, val)
		}
		system = b.String()
	}

	messages := []models.ChatMessage{{Role: "system", Content: system}}

	if qctx != nil && len(qctx.History) > 0 {
		window := qctx.History
		if c.cfg.HistoryWindow > 0 && len(window) > c.cfg.HistoryWindow {
			window = window[len(window)-c.cfg.HistoryWindow:]
		}
		for _, turn := range window {
			messages = append(messages, models.ChatMessage{Role: "user", Content: turn.UserMessage})
			if turn.AssistantMessage != "" {
				messages = append(messages, models.ChatMessage{Role: "assistant", Content: turn.AssistantMessage})
			}
		}
	}

	return append(messages, models.ChatMessage{Role: "user", Content: query})
}
