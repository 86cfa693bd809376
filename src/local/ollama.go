package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
	"github.com/vanta-labs/vanta/src/utils"
)

// OllamaGenerator runs a local model through an Ollama server. It satisfies
// models.LocalGenerator with an explicit load/unload lifecycle; the client
// handle is only created on Load so a configured-but-unused model costs
// nothing.
type OllamaGenerator struct {
	model     string
	serverURL string

	mu  sync.Mutex
	llm *ollama.LLM
}

func NewOllamaGenerator(cfg *config.LocalModelConfig) *OllamaGenerator {
	return &OllamaGenerator{
		model:     cfg.Model,
		serverURL: cfg.ServerURL,
	}
}

func (g *OllamaGenerator) ModelName() string { return g.model }

func (g *OllamaGenerator) Loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.llm != nil
}

func (g *OllamaGenerator) Load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.llm != nil {
		return nil
	}

	llm, err := ollama.New(
		ollama.WithModel(g.model),
		ollama.WithServerURL(g.serverURL),
	)
	if err != nil {
		return fmt.Errorf("failed to create ollama client for %s: %w", g.model, err)
	}

	g.llm = llm
	return nil
}

func (g *OllamaGenerator) Unload() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.llm = nil
	return nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (*models.Generation, error) {
	g.mu.Lock()
	llm := g.llm
	g.mu.Unlock()

	if llm == nil {
		return nil, fmt.Errorf("model %s is not loaded", g.model)
	}

	callOptions := []llms.CallOption{
		llms.WithTemperature(opts.Temperature),
		llms.WithMaxTokens(opts.MaxTokens),
		llms.WithTopP(opts.TopP),
		llms.WithTopK(opts.TopK),
		llms.WithRepetitionPenalty(opts.RepeatPenalty),
	}
	if len(opts.Stop) > 0 {
		callOptions = append(callOptions, llms.WithStopWords(opts.Stop))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt, callOptions...)
	if err != nil {
		return nil, fmt.Errorf("model %s generation failed: %w", g.model, err)
	}

	return &models.Generation{
		Text:         text,
		TokensUsed:   utils.EstimateTokenCount(text),
		FinishReason: "stop",
	}, nil
}
