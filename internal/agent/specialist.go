package agent

import (
	"context"
	"sync"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/domain"
)

// Responder is the single capability contract shared by every specialist:
// produce response text for a user message plus an optional conversation
// context string. The orchestrator dispatches over this, not over concrete
// types. Specialists never consult safety gates; that is the pipeline's job.
type Responder interface {
	Respond(ctx context.Context, userMessage, contextText string) domain.SpecialistResult
}

// AnxietySpecialist produces CBT-based therapeutic responses. It keeps an
// append-only record of every message it has processed so the caller can
// assemble later context from it.
type AnxietySpecialist struct {
	gen   llm.TextGenerator
	model string

	mu      sync.Mutex
	history []llm.ChatMessage
}

// NewAnxietySpecialist creates the anxiety/CBT specialist.
func NewAnxietySpecialist(gen llm.TextGenerator, model string) *AnxietySpecialist {
	return &AnxietySpecialist{gen: gen, model: model}
}

var _ Responder = (*AnxietySpecialist)(nil)

// Respond generates a CBT-grounded reply to userMessage.
func (a *AnxietySpecialist) Respond(ctx context.Context, userMessage, contextText string) domain.SpecialistResult {
	a.record("user", userMessage)

	messages := []llm.ChatMessage{{Role: "system", Content: anxietySystemPrompt}}
	if contextText != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: "Recent conversation:\n" + contextText})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMessage})

	response := a.gen.Generate(ctx, messages, a.model, 400, 0.7)
	a.record("assistant", response)

	return domain.SpecialistResult{
		Response: response,
		Approach: "CBT-based anxiety support",
	}
}

// History returns a copy of the append-only message record.
func (a *AnxietySpecialist) History() []llm.ChatMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.ChatMessage, len(a.history))
	copy(out, a.history)
	return out
}

func (a *AnxietySpecialist) record(role, content string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history, llm.ChatMessage{Role: role, Content: content})
}

// CrisisHandler responds to users in acute distress: empathy first, then
// crisis resources and immediate professional help.
type CrisisHandler struct {
	gen   llm.TextGenerator
	model string
}

// NewCrisisHandler creates the crisis handler.
func NewCrisisHandler(gen llm.TextGenerator, model string) *CrisisHandler {
	return &CrisisHandler{gen: gen, model: model}
}

var _ Responder = (*CrisisHandler)(nil)

func (c *CrisisHandler) Respond(ctx context.Context, userMessage, contextText string) domain.SpecialistResult {
	messages := []llm.ChatMessage{{Role: "system", Content: crisisSystemPrompt}}
	if contextText != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: "Recent conversation:\n" + contextText})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMessage})

	response := c.gen.Generate(ctx, messages, c.model, 300, 0.5)
	return domain.SpecialistResult{
		Response: response,
		Approach: "crisis de-escalation and resources",
	}
}

// GeneralSupport handles everything the other specialists do not.
type GeneralSupport struct {
	gen   llm.TextGenerator
	model string
}

// NewGeneralSupport creates the general support handler.
func NewGeneralSupport(gen llm.TextGenerator, model string) *GeneralSupport {
	return &GeneralSupport{gen: gen, model: model}
}

var _ Responder = (*GeneralSupport)(nil)

func (g *GeneralSupport) Respond(ctx context.Context, userMessage, contextText string) domain.SpecialistResult {
	messages := []llm.ChatMessage{{Role: "system", Content: generalSystemPrompt}}
	if contextText != "" {
		messages = append(messages, llm.ChatMessage{Role: "system", Content: "Recent conversation:\n" + contextText})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: userMessage})

	response := g.gen.Generate(ctx, messages, g.model, 400, 0.7)
	return domain.SpecialistResult{
		Response: response,
		Approach: "general mental health support",
	}
}
