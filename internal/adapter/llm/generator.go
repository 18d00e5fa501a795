package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

const defaultTopP = 0.9

// Generator wraps a ChatCompleter with bounded retry and error-to-text
// folding. It is safe for concurrent use.
type Generator struct {
	client  ChatCompleter
	retries int
	backoff time.Duration
}

// NewGenerator creates a Generator. retries is the total attempt count;
// values below 1 are clamped to 1.
func NewGenerator(client ChatCompleter, retries int, backoff time.Duration) *Generator {
	if retries < 1 {
		retries = 1
	}
	return &Generator{
		client:  client,
		retries: retries,
		backoff: backoff,
	}
}

var _ TextGenerator = (*Generator)(nil)

// Generate sends a single chat completion request with bounded retry. It
// always returns text: after the last failed attempt, or when the context is
// cancelled, the error is folded into an "[Error: ...]" sentinel string.
func (g *Generator) Generate(ctx context.Context, messages []ChatMessage, model string, maxTokens int, temperature float64) string {
	topP := defaultTopP
	req := &ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}

	var lastErr error
	for attempt := 0; attempt < g.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Sprintf("[Error: %v]", ctx.Err())
			case <-time.After(g.backoff):
			}
		}

		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return fmt.Sprintf("[Error: %v]", ctx.Err())
			}
			log.Printf("WARN: LLM attempt %d/%d failed: %v", attempt+1, g.retries, err)
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
			lastErr = fmt.Errorf("empty completion")
			log.Printf("WARN: LLM attempt %d/%d returned no choices", attempt+1, g.retries)
			continue
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	return fmt.Sprintf("[Error: %v]", lastErr)
}
