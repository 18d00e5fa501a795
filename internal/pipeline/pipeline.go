// Package pipeline implements the orchestration state machine: an ordered,
// fail-closed sequence of safety gate, router, specialist, judge and a second
// safety gate, producing exactly one vetted response per user turn.
package pipeline

import (
	"context"
	"encoding/json"
	"log"

	"github.com/companionai/counsel/internal/domain"
	"github.com/companionai/counsel/internal/policy"
)

// Canned user-visible messages. The user only ever sees one of these or the
// approved specialist text, never a raw error.
const (
	// CrisisResourcesMessage is returned when unsafe input carries self-harm
	// indicators.
	CrisisResourcesMessage = `I'm really concerned about what you've shared. Your safety is the most important thing right now.

Please reach out to a crisis helpline immediately:
- India: AASRA - 91-22-27546669
- USA: 988 (Suicide & Crisis Lifeline)
- International: https://findahelpline.com

You can also:
- Call emergency services (112 in India)
- Go to the nearest emergency room
- Tell someone you trust right now

You don't have to face this alone. Professional help is available 24/7.`

	// RefusalMessage is returned for every other unsafe input category.
	RefusalMessage = "I'm not able to provide support for this type of concern. Please consult with an appropriate professional or trusted resource."

	// UnsafeResponseMessage replaces a generated response that failed the
	// post-safety gate.
	UnsafeResponseMessage = "I apologize, but I need to rephrase my response to ensure it's safe and appropriate. Please ask again."

	// NeedsRevisionMessage replaces a safe but judge-rejected response. It is
	// deliberately distinct from the safety messages so callers can tell
	// "unsafe" from "low quality".
	NeedsRevisionMessage = "I need to refine my response. Could you rephrase your concern?"
)

// SafetyChecker classifies text as safe or unsafe.
type SafetyChecker interface {
	Check(ctx context.Context, text string) domain.SafetyVerdict
}

// MessageRouter picks the specialist for a user message.
type MessageRouter interface {
	Route(ctx context.Context, userMessage, contextText string) domain.RoutingDecision
}

// Responder produces response text for a user message and optional context.
type Responder interface {
	Respond(ctx context.Context, userMessage, contextText string) domain.SpecialistResult
}

// Evaluator scores a (input, response) pair and decides approve/revise.
type Evaluator interface {
	Evaluate(ctx context.Context, userMessage, response string) domain.Evaluation
}

// ActionDecider maps an unsafe-input category to a response action.
// *policy.Engine implements it.
type ActionDecider interface {
	Action(ctx context.Context, category string) (string, error)
}

// Pipeline glues the agents into one request/response transaction. It is
// stateless across turns: concurrent turns may run in parallel.
type Pipeline struct {
	safety      SafetyChecker
	router      MessageRouter
	specialists map[domain.SpecialistKind]Responder
	fallback    Responder
	judge       Evaluator
	policy      ActionDecider
}

// New creates a pipeline. specialists maps routing categories to handlers;
// unknown categories fall back to the general handler, which must be present.
func New(safety SafetyChecker, router MessageRouter, specialists map[domain.SpecialistKind]Responder, judge Evaluator, decider ActionDecider) *Pipeline {
	return &Pipeline{
		safety:      safety,
		router:      router,
		specialists: specialists,
		fallback:    specialists[domain.SpecialistGeneral],
		judge:       judge,
		policy:      decider,
	}
}

// Run executes one full transaction: pre-safety, route, specialist, judge,
// post-safety, decide. Each state executes exactly once; the only early exit
// is an unsafe input. contextText is caller-assembled conversation history,
// read-only here.
func (p *Pipeline) Run(ctx context.Context, userInput, contextText string) *domain.WorkflowRecord {
	record := &domain.WorkflowRecord{UserInput: userInput}

	// PRE_SAFETY: gate the raw input.
	preSafety := p.safety.Check(ctx, userInput)
	appendStep(record, domain.StepPreSafetyGate, preSafety)

	if !preSafety.IsSafe {
		record.FinalResponse = p.blockedInputResponse(ctx, preSafety.Category)
		record.Approved = false
		record.Outcome = domain.OutcomeBlocked
		return record
	}

	// ROUTE: always proceeds regardless of confidence.
	routing := p.router.Route(ctx, userInput, contextText)
	appendStep(record, domain.StepRouter, routing)

	// SPECIALIST: dispatch by routing decision.
	specialist, ok := p.specialists[routing.Specialist]
	if !ok {
		specialist = p.fallback
	}
	result := specialist.Respond(ctx, userInput, contextText)
	appendStep(record, domain.StepSpecialist, struct {
		Specialist domain.SpecialistKind `json:"specialist"`
		domain.SpecialistResult
	}{routing.Specialist, result})

	// JUDGE: score the pair.
	evaluation := p.judge.Evaluate(ctx, userInput, result.Response)
	appendStep(record, domain.StepJudge, evaluation)

	// POST_SAFETY: gate the generated response. An unsafe response vetoes
	// the judge's approval unconditionally.
	postSafety := p.safety.Check(ctx, result.Response)
	appendStep(record, domain.StepPostSafetyGate, postSafety)

	if !postSafety.IsSafe {
		record.FinalResponse = UnsafeResponseMessage
		record.Approved = false
		record.Outcome = domain.OutcomeBlocked
		return record
	}

	// DECIDE.
	if evaluation.Approved {
		record.FinalResponse = result.Response
		record.Approved = true
		record.Outcome = domain.OutcomeDelivered
	} else {
		record.FinalResponse = NeedsRevisionMessage
		record.Approved = false
		record.Outcome = domain.OutcomeNeedsRevision
	}

	return record
}

// blockedInputResponse picks the canned message for an unsafe input via the
// safety policy. A policy failure falls back to the generic refusal.
func (p *Pipeline) blockedInputResponse(ctx context.Context, category string) string {
	action, err := p.policy.Action(ctx, category)
	if err != nil {
		log.Printf("WARN: safety policy evaluation failed: %v", err)
		action = policy.ActionRefuse
	}
	if action == policy.ActionCrisis {
		return CrisisResourcesMessage
	}
	return RefusalMessage
}

func appendStep(record *domain.WorkflowRecord, step domain.StepName, result interface{}) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("ERROR: failed to marshal %s step result: %v", step, err)
		payload = []byte("{}")
	}
	record.Steps = append(record.Steps, domain.WorkflowStep{Step: step, Result: payload})
}
