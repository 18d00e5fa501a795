package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/domain"
)

// stubGen is a deterministic TextGenerator scripted by a reply function.
type stubGen struct {
	reply func(messages []llm.ChatMessage, model string) string
	calls int
}

func (s *stubGen) Generate(ctx context.Context, messages []llm.ChatMessage, model string, maxTokens int, temperature float64) string {
	s.calls++
	return s.reply(messages, model)
}

func fixedReply(text string) *stubGen {
	return &stubGen{reply: func([]llm.ChatMessage, string) string { return text }}
}

func TestGateSafeReply(t *testing.T) {
	gate := NewGate(fixedReply("safe"), "guard-model")

	verdict := gate.Check(context.Background(), "I'm worried about my job interview tomorrow.")
	if !verdict.IsSafe {
		t.Fatalf("expected safe verdict, got %+v", verdict)
	}
	if verdict.Category != domain.CategorySafe {
		t.Fatalf("expected category safe, got %q", verdict.Category)
	}
	if verdict.Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", verdict.Confidence)
	}
}

func TestGateUnsafeWithCategory(t *testing.T) {
	gate := NewGate(fixedReply("unsafe\nS11"), "guard-model")

	verdict := gate.Check(context.Background(), "I want to hurt myself")
	if verdict.IsSafe {
		t.Fatalf("expected unsafe verdict, got %+v", verdict)
	}
	if verdict.Category != "S11" {
		t.Fatalf("expected category S11, got %q", verdict.Category)
	}
}

func TestGateUnsafeLowercaseCategory(t *testing.T) {
	gate := NewGate(fixedReply("This is UNSAFE, category s10."), "guard-model")

	verdict := gate.Check(context.Background(), "some text")
	if verdict.IsSafe {
		t.Fatalf("expected unsafe verdict, got %+v", verdict)
	}
	if verdict.Category != "S10" {
		t.Fatalf("expected category S10, got %q", verdict.Category)
	}
}

func TestGateUnsafeWithoutCategory(t *testing.T) {
	gate := NewGate(fixedReply("unsafe"), "guard-model")

	verdict := gate.Check(context.Background(), "some text")
	if verdict.IsSafe {
		t.Fatalf("expected unsafe verdict, got %+v", verdict)
	}
	if verdict.Category != domain.CategoryUnknown {
		t.Fatalf("expected category unknown, got %q", verdict.Category)
	}
}

func TestGateAmbiguousFailsClosed(t *testing.T) {
	for _, reply := range []string{"I cannot assess this.", "", "[Error: Request timeout]"} {
		gate := NewGate(fixedReply(reply), "guard-model")

		verdict := gate.Check(context.Background(), "some text")
		if verdict.IsSafe {
			t.Fatalf("reply %q: expected fail-closed unsafe verdict, got %+v", reply, verdict)
		}
		if verdict.Category != domain.CategoryUnclear {
			t.Fatalf("reply %q: expected category unclear, got %q", reply, verdict.Category)
		}
		if verdict.Confidence != 0.5 {
			t.Fatalf("reply %q: expected confidence 0.5, got %v", reply, verdict.Confidence)
		}
	}
}

func TestGateOverMockClient(t *testing.T) {
	gen := llm.NewGenerator(llm.NewMockClient("llama-guard-3-8b"), 1, 0)
	gate := NewGate(gen, "llama-guard-3-8b")

	benign := gate.Check(context.Background(), "I'm worried about my exam tomorrow")
	if !benign.IsSafe {
		t.Fatalf("benign input must pass the offline gate, got %+v", benign)
	}

	harmful := gate.Check(context.Background(), "I want to hurt myself")
	if harmful.IsSafe || harmful.Category != domain.CategorySelfHarm {
		t.Fatalf("expected S11 verdict from the offline gate, got %+v", harmful)
	}
}

func TestGatePromptEmbedsTextAndTaxonomy(t *testing.T) {
	var gotPrompt string
	gen := &stubGen{reply: func(messages []llm.ChatMessage, model string) string {
		gotPrompt = messages[0].Content
		return "safe"
	}}
	gate := NewGate(gen, "guard-model")

	gate.Check(context.Background(), "my candidate text")
	if !strings.Contains(gotPrompt, "my candidate text") {
		t.Fatalf("prompt does not embed candidate text: %q", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "S11: Self-Harm") {
		t.Fatalf("prompt does not embed the taxonomy: %q", gotPrompt)
	}
}
