package agent

import (
	"context"
	"strconv"
	"strings"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/domain"
)

const (
	judgeMaxTokens   = 300
	judgeTemperature = 0.3
)

// Judge scores a (user input, specialist response) pair against a fixed
// clinical rubric and extracts an APPROVE/REVISE decision. Approval comes
// from the decision token alone; the numeric scores are telemetry.
type Judge struct {
	gen   llm.TextGenerator
	model string
}

// NewJudge creates a judge backed by the given instruct model.
func NewJudge(gen llm.TextGenerator, model string) *Judge {
	return &Judge{gen: gen, model: model}
}

// Evaluate scores response against userMessage.
func (j *Judge) Evaluate(ctx context.Context, userMessage, response string) domain.Evaluation {
	prompt := "USER INPUT: " + userMessage + "\n\nSPECIALIST RESPONSE: " + response +
		"\n\nEvaluate the above response according to the criteria."

	messages := []llm.ChatMessage{
		{Role: "system", Content: judgeSystemPrompt},
		{Role: "user", Content: prompt},
	}

	reply := j.gen.Generate(ctx, messages, j.model, judgeMaxTokens, judgeTemperature)
	scores := parseEvaluation(reply)

	return domain.Evaluation{
		Scores:   scores,
		Approved: scores.Decision == domain.DecisionApprove,
		RawText:  reply,
	}
}

// parseEvaluation extracts rubric scores from the free-text reply. The parse
// is tolerant per field: a missing or malformed numeric field keeps its zero
// default and the decision defaults to REVISE.
func parseEvaluation(reply string) domain.EvaluationScores {
	scores := domain.EvaluationScores{Decision: domain.DecisionRevise}

	numeric := map[string]*float64{
		"safety":           &scores.Safety,
		"empathy":          &scores.Empathy,
		"clinical_quality": &scores.ClinicalQuality,
		"actionability":    &scores.Actionability,
		"appropriateness":  &scores.Appropriateness,
		"overall":          &scores.Overall,
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
		value = strings.TrimSpace(value)

		if target, ok := numeric[key]; ok {
			fields := strings.Fields(value)
			if len(fields) == 0 {
				continue
			}
			if score, err := strconv.ParseFloat(fields[0], 64); err == nil {
				*target = score
			}
			continue
		}

		switch key {
		case "decision":
			if strings.Contains(strings.ToUpper(value), domain.DecisionApprove) {
				scores.Decision = domain.DecisionApprove
			} else {
				scores.Decision = domain.DecisionRevise
			}
		case "reasoning":
			scores.Reasoning = value
		}
	}

	return scores
}
