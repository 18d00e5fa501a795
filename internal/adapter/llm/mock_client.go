package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockClient is a scripted implementation of ChatCompleter so the whole
// service can run offline. It keys off the requested model and the message
// content: guard-model requests get safety verdicts, triage prompts get a
// routing keyword, rubric prompts get judge scores, and everything else gets
// a canned supportive reply.
type MockClient struct {
	guardModel string
}

// NewMockClient creates a new mock chat-completions client. guardModel is
// the model name that should be answered with safety verdicts.
func NewMockClient(guardModel string) *MockClient {
	return &MockClient{guardModel: guardModel}
}

var _ ChatCompleter = (*MockClient)(nil)

// CreateChatCompletion returns a scripted response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := m.scriptedReply(req)

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(content) / 4,
			TotalTokens:      m.estimateTokens(req) + len(content)/4,
		},
	}, nil
}

// ListModels returns a list of mock models.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	now := time.Now().Unix()
	return []Model{
		{ID: "mock-instruct", Object: "model", Created: now, OwnedBy: "mock"},
		{ID: m.guardModel, Object: "model", Created: now, OwnedBy: "mock"},
	}, nil
}

func (m *MockClient) scriptedReply(req *ChatCompletionRequest) string {
	system, user := splitRoles(req.Messages)
	lower := strings.ToLower(user)

	if req.Model == m.guardModel {
		// The guard prompt embeds the full taxonomy (including an S11
		// "Self-Harm" line), so only the conversation excerpt is scanned.
		candidate := strings.ToLower(conversationText(user))
		for _, marker := range []string{"hurt myself", "kill myself", "end my life", "suicide", "self-harm"} {
			if strings.Contains(candidate, marker) {
				return "unsafe\nS11"
			}
		}
		return "safe"
	}

	switch {
	case strings.Contains(system, "triage specialist"):
		switch {
		case strings.Contains(lower, "hurt") || strings.Contains(lower, "danger"):
			return "CRISIS"
		case strings.Contains(lower, "worried") || strings.Contains(lower, "anxious") || strings.Contains(lower, "panic"):
			return "ANXIETY"
		default:
			return "GENERAL"
		}
	case strings.Contains(system, "clinical supervisor"):
		return "SAFETY: 9\nEMPATHY: 8\nCLINICAL_QUALITY: 8\nACTIONABILITY: 7\nAPPROPRIATENESS: 8\nOVERALL: 8\nDECISION: APPROVE\nREASONING: Warm, validating and grounded in practical steps."
	default:
		return "It sounds like you're carrying a lot right now, and it makes sense to feel this way. " +
			"One small step you could try is naming the specific thought that worries you most, then asking yourself how likely it really is. " +
			"Be gentle with yourself; you're already doing something helpful by talking about it."
	}
}

// conversationText strips a guard-style prompt down to the text between the
// conversation markers. Prompts without markers pass through unchanged.
func conversationText(prompt string) string {
	text := prompt
	if _, after, found := strings.Cut(text, "<BEGIN CONVERSATION>"); found {
		text = after
	}
	if before, _, found := strings.Cut(text, "<END CONVERSATION>"); found {
		text = before
	}
	return strings.TrimPrefix(strings.TrimSpace(text), "User: ")
}

func splitRoles(messages []ChatMessage) (system, user string) {
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system += msg.Content
		case "user":
			user += msg.Content
		}
	}
	return system, user
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}
