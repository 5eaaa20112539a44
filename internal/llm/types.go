package llm

import (
	"context"
	"strings"
	"time"

	"github.com/loqalabs/loqa-interview/internal/config"
)

// Request describes a language model prompt.
type Request struct {
	RequestID   string
	Prompt      string
	System      string
	Model       string
	MaxTokens   int
	Temperature float64
	// JSON asks the backend for a single JSON object reply.
	JSON bool
}

// Chunk represents streamed model output.
type Chunk struct {
	RequestID        string
	Content          string
	Partial          bool
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// Generator defines a pluggable LLM backend.
type Generator interface {
	Generate(ctx context.Context, req Request, consumer func(Chunk) error) error
}

// Completion is the accumulated output of a Generate call.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	Latency          time.Duration
}

// OptionsFromConfig builds defaults from config.
func OptionsFromConfig(cfg config.LLMConfig) Request {
	return Request{Model: cfg.Model, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
}

// Collect runs the generator to completion and concatenates every chunk.
func Collect(ctx context.Context, g Generator, req Request) (Completion, error) {
	var (
		b   strings.Builder
		out Completion
	)
	err := g.Generate(ctx, req, func(chunk Chunk) error {
		b.WriteString(chunk.Content)
		if chunk.PromptTokens > 0 {
			out.PromptTokens = chunk.PromptTokens
		}
		if chunk.CompletionTokens > 0 {
			out.CompletionTokens = chunk.CompletionTokens
		}
		out.Latency = chunk.Latency
		return nil
	})
	out.Content = b.String()
	return out, err
}
