package agent

import (
	"context"
	"strings"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/domain"
)

const (
	routerMaxTokens   = 10
	routerTemperature = 0.1
)

// Router classifies a user message into one of the specialist categories.
type Router struct {
	gen   llm.TextGenerator
	model string
}

// NewRouter creates a router backed by the given instruct model.
func NewRouter(gen llm.TextGenerator, model string) *Router {
	return &Router{gen: gen, model: model}
}

// Route classifies userMessage. contextText, when non-empty, is prefixed so
// recent conversation informs the decision. Any reply matching no category
// keyword defaults to general with lower confidence.
func (r *Router) Route(ctx context.Context, userMessage, contextText string) domain.RoutingDecision {
	prompt := "User message: " + userMessage
	if contextText != "" {
		prompt = "Recent conversation:\n" + contextText + "\n\n" + prompt
	}

	messages := []llm.ChatMessage{
		{Role: "system", Content: routerSystemPrompt},
		{Role: "user", Content: prompt},
	}

	reply := r.gen.Generate(ctx, messages, r.model, routerMaxTokens, routerTemperature)
	route := strings.ToUpper(reply)

	// Priority order mirrors the triage rule: CRISIS outranks ANXIETY
	// outranks GENERAL.
	switch {
	case strings.Contains(route, "CRISIS"):
		return domain.RoutingDecision{Specialist: domain.SpecialistCrisis, Confidence: 0.95, RawText: reply}
	case strings.Contains(route, "ANXIETY"):
		return domain.RoutingDecision{Specialist: domain.SpecialistAnxiety, Confidence: 0.9, RawText: reply}
	default:
		return domain.RoutingDecision{Specialist: domain.SpecialistGeneral, Confidence: 0.7, RawText: reply}
	}
}
