package agent

import (
	"context"
	"regexp"
	"strings"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/domain"
)

const (
	guardMaxTokens   = 100
	guardTemperature = 0.1
)

var categoryPattern = regexp.MustCompile(`S\d+`)

// Gate classifies a single text blob as safe or unsafe using the guard
// model. It never returns an error: a failed or ambiguous classification
// yields an unsafe verdict, so absence of a clear "safe" is never treated as
// permission.
type Gate struct {
	gen   llm.TextGenerator
	model string
}

// NewGate creates a safety gate backed by the given guard model.
func NewGate(gen llm.TextGenerator, model string) *Gate {
	return &Gate{gen: gen, model: model}
}

// Check classifies text and returns a fresh verdict.
func (g *Gate) Check(ctx context.Context, text string) domain.SafetyVerdict {
	prompt := guardPromptPrefix + text + guardPromptSuffix
	messages := []llm.ChatMessage{{Role: "user", Content: prompt}}

	reply := g.gen.Generate(ctx, messages, g.model, guardMaxTokens, guardTemperature)
	lower := strings.ToLower(reply)

	// "unsafe" must be checked before "safe": it contains it as a substring.
	if strings.Contains(lower, "unsafe") {
		category := domain.CategoryUnknown
		if match := categoryPattern.FindString(strings.ToUpper(reply)); match != "" {
			category = match
		}
		return domain.SafetyVerdict{
			IsSafe:     false,
			Category:   category,
			Confidence: 0.9,
			RawText:    reply,
		}
	}

	if strings.Contains(lower, "safe") {
		return domain.SafetyVerdict{
			IsSafe:     true,
			Category:   domain.CategorySafe,
			Confidence: 0.9,
			RawText:    reply,
		}
	}

	// Ambiguous or oracle failure: fail closed.
	return domain.SafetyVerdict{
		IsSafe:     false,
		Category:   domain.CategoryUnclear,
		Confidence: 0.5,
		RawText:    reply,
	}
}
