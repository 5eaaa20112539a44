package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

type mockGenerator struct{}

func NewMockGenerator() Generator { return &mockGenerator{} }

func (m *mockGenerator) Generate(ctx context.Context, req Request, consumer func(Chunk) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(20 * time.Millisecond):
	}
	content := "[mock completion for " + strings.TrimSpace(req.Prompt) + "]"
	if req.JSON {
		data, err := json.Marshal(map[string]any{
			"feedback":     "[mock] Grading backend is in mock mode; no real evaluation was performed.",
			"rating":       mockRating(req.Prompt),
			"betterAnswer": "[mock] Configure llm.mode to grade answers with a hosted model.",
		})
		if err != nil {
			return err
		}
		content = string(data)
	}
	return consumer(Chunk{
		RequestID: req.RequestID,
		Content:   content,
		Partial:   false,
		Latency:   20 * time.Millisecond,
	})
}

// mockRating gives longer prompts a higher score so the UI has something to
// render in development.
func mockRating(prompt string) int {
	words := len(strings.Fields(prompt))
	if words > 100 {
		return 100
	}
	return words
}
