package local

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

const systemInstruction = "You are VANTA, a concise voice assistant. Answer " +
	"in a natural spoken register and keep responses short enough to be read " +
	"aloud. Never invent personal facts about the user: if something about " +
	"the user is not present in the conversation history below, say you do " +
	"not know rather than guessing."

// Controller wraps a local generative model behind a bounded-time call.
// Generation is serialized through a single execution slot: there is one
// model instance and one inference context, so concurrent callers queue
// rather than overlap. Every failure mode, including timeout, comes back
// as a structured ModelResponse, never as a propagated error.
type Controller struct {
	cfg       *config.LocalModelConfig
	generator models.LocalGenerator
	slot      chan struct{}
}

// NewController resolves the configured model from the catalog. With
// Preload set the model is loaded immediately and a load failure is fatal;
// otherwise loading is deferred to the first query.
func NewController(cfg *config.LocalModelConfig, catalog *ModelCatalog) (*Controller, error) {
	gen, err := catalog.Resolve(cfg.Model)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:       cfg,
		generator: gen,
		slot:      make(chan struct{}, 1),
	}

	if cfg.Preload {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout)
		defer cancel()
		if err := gen.Load(ctx); err != nil {
			return nil, fmt.Errorf("preload of %s failed: %w", cfg.Model, err)
		}
	}

	return c, nil
}

// ProcessQuery generates a response on the local track. It blocks while
// earlier generations hold the execution slot, then bounds the generation
// itself by the configured timeout.
func (c *Controller) ProcessQuery(ctx context.Context, query string, qctx *models.QueryContext) *models.ModelResponse {
	select {
	case c.slot <- struct{}{}:
		defer func() { <-c.slot }()
	case <-ctx.Done():
		return models.FailedResponse(models.PathLocal, models.FailureTimeout,
			"canceled while waiting for the local execution slot: %v", ctx.Err())
	}

	if !c.generator.Loaded() {
		if err := c.generator.Load(ctx); err != nil {
			log.WithError(err).WithField("model", c.cfg.Model).Error("local model load failed")
			return models.FailedResponse(models.PathLocal, models.FailureModelLoad,
				"loading %s: %v", c.cfg.Model, err)
		}
	}

	prompt := c.BuildPrompt(query, qctx)
	start := time.Now()

	type genResult struct {
		gen *models.Generation
		err error
	}
	done := make(chan genResult, 1)

	genCtx, cancel := context.WithTimeout(ctx, c.cfg.GenerationTimeout)
	defer cancel()

	go func() {
		gen, err := c.generator.Generate(genCtx, prompt, models.GenerationOptions{
			MaxTokens:     c.cfg.MaxTokens,
			Temperature:   c.cfg.Temperature,
			TopP:          c.cfg.TopP,
			TopK:          c.cfg.TopK,
			RepeatPenalty: c.cfg.RepeatPenalty,
		})
		done <- genResult{gen: gen, err: err}
	}()

	select {
	case res := <-done:
		elapsed := time.Since(start)
		if res.err != nil {
			if genCtx.Err() != nil {
				return models.FailedResponse(models.PathLocal, models.FailureTimeout,
					"local generation exceeded %s", c.cfg.GenerationTimeout)
			}
			return models.FailedResponse(models.PathLocal, models.FailureGeneration,
				"local generation failed: %v", res.err)
		}
		return &models.ModelResponse{
			Text:             res.gen.Text,
			Source:           models.PathLocal,
			Model:            c.generator.ModelName(),
			CompletionTokens: res.gen.TokensUsed,
			TotalTokens:      res.gen.TokensUsed,
			FinishReason:     res.gen.FinishReason,
			CompletionTime:   elapsed,
		}
	case <-genCtx.Done():
		// The in-flight generation is abandoned; it finishes or is
		// collected on its own. The caller gets a bounded answer either way.
		return models.FailedResponse(models.PathLocal, models.FailureTimeout,
			"local generation exceeded %s", c.cfg.GenerationTimeout)
	}
}

// BuildPrompt assembles the system instruction, a bounded window of prior
// turns, any retrieved context, and the current query. The do-not-fabricate
// instruction in the system prompt is a correctness requirement: hallucinated
// personal facts are a known failure mode on small local models.
func (c *Controller) BuildPrompt(query string, qctx *models.QueryContext) string {
	var b strings.Builder
	b.WriteString(systemInstruction)
	b.WriteString("\n\n")

	if qctx != nil && len(qctx.Retrieved) > 0 {
		b.WriteString("Known context:\n")
		for key, val := range qctx.Retrieved {
			fmt.Fprintf(&b, "- %s: %s\n", key, val)
		}
		b.WriteString("\n")
	}

	if qctx != nil && len(qctx.History) > 0 {
		window := qctx.History
		if c.cfg.HistoryWindow > 0 && len(window) > c.cfg.HistoryWindow {
			window = window[len(window)-c.cfg.HistoryWindow:]
		}
		b.WriteString("Conversation so far:\n")
		for _, turn := range window {
			fmt.Fprintf(&b, "User: %s\n", turn.UserMessage)
			if turn.AssistantMessage != "" {
				fmt.Fprintf(&b, "Assistant: %s\n", turn.AssistantMessage)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User: %s\nAssistant:", query)
	return b.String()
}

// Unload releases the underlying model. Safe to call at any time; a query
// arriving afterwards triggers a fresh lazy load.
func (c *Controller) Unload() error {
	return c.generator.Unload()
}
