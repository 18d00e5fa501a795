package llm

import "context"

// ChatCompleter defines the interface for chat-completion API operations.
type ChatCompleter interface {
	// CreateChatCompletion sends a chat completion request.
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// TextGenerator is the oracle contract consumed by the agents: it never
// returns a Go error. Transport failures after bounded retries are folded
// into "[Error: ...]" sentinel text so downstream parsers treat an outage as
// degenerate model output and fail to their conservative branch.
type TextGenerator interface {
	Generate(ctx context.Context, messages []ChatMessage, model string, maxTokens int, temperature float64) string
}

// Ensure Client implements ChatCompleter interface.
var _ ChatCompleter = (*Client)(nil)
