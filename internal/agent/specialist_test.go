package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/companionai/counsel/internal/adapter/llm"
)

func TestAnxietySpecialistRespond(t *testing.T) {
	var gotMessages []llm.ChatMessage
	gen := &stubGen{reply: func(messages []llm.ChatMessage, model string) string {
		gotMessages = messages
		return "Let's try grounding yourself with a slow breath."
	}}
	spec := NewAnxietySpecialist(gen, "instruct-model")

	result := spec.Respond(context.Background(), "I'm panicking about tomorrow", "")
	if result.Response != "Let's try grounding yourself with a slow breath." {
		t.Fatalf("unexpected response: %q", result.Response)
	}
	if result.Approach != "CBT-based anxiety support" {
		t.Fatalf("unexpected approach: %q", result.Approach)
	}
	if len(gotMessages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(gotMessages))
	}
	if gotMessages[0].Role != "system" || gotMessages[1].Content != "I'm panicking about tomorrow" {
		t.Fatalf("unexpected message layout: %+v", gotMessages)
	}
}

func TestAnxietySpecialistHistoryRecordsBothSides(t *testing.T) {
	spec := NewAnxietySpecialist(fixedReply("reply one"), "instruct-model")

	spec.Respond(context.Background(), "first message", "")
	spec.Respond(context.Background(), "second message", "")

	history := spec.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 history entries, got %d", len(history))
	}
	if history[0].Role != "user" || history[0].Content != "first message" {
		t.Fatalf("unexpected first entry: %+v", history[0])
	}
	if history[1].Role != "assistant" || history[1].Content != "reply one" {
		t.Fatalf("unexpected second entry: %+v", history[1])
	}

	// Mutating the returned slice must not leak back.
	history[0].Content = "tampered"
	if spec.History()[0].Content != "first message" {
		t.Fatalf("History must return a copy")
	}
}

func TestSpecialistsInjectContextAsSystemMessage(t *testing.T) {
	for _, name := range []string{"anxiety", "crisis", "general"} {
		var gotMessages []llm.ChatMessage
		gen := &stubGen{reply: func(messages []llm.ChatMessage, model string) string {
			gotMessages = messages
			return "ok"
		}}

		var spec Responder
		switch name {
		case "anxiety":
			spec = NewAnxietySpecialist(gen, "m")
		case "crisis":
			spec = NewCrisisHandler(gen, "m")
		default:
			spec = NewGeneralSupport(gen, "m")
		}

		spec.Respond(context.Background(), "hello", "user: earlier turn")
		if len(gotMessages) != 3 {
			t.Fatalf("%s: expected system+context+user, got %d messages", name, len(gotMessages))
		}
		if gotMessages[1].Role != "system" || !strings.Contains(gotMessages[1].Content, "user: earlier turn") {
			t.Fatalf("%s: context not injected as system message: %+v", name, gotMessages[1])
		}
	}
}

func TestCrisisHandlerApproach(t *testing.T) {
	spec := NewCrisisHandler(fixedReply("You are not alone."), "instruct-model")

	result := spec.Respond(context.Background(), "everything is falling apart", "")
	if result.Approach != "crisis de-escalation and resources" {
		t.Fatalf("unexpected approach: %q", result.Approach)
	}
}

func TestGeneralSupportApproach(t *testing.T) {
	spec := NewGeneralSupport(fixedReply("Tell me more."), "instruct-model")

	result := spec.Respond(context.Background(), "just checking in", "")
	if result.Approach != "general mental health support" {
		t.Fatalf("unexpected approach: %q", result.Approach)
	}
}
