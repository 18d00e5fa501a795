package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/companionai/counsel/internal/adapter/llm"
	"github.com/companionai/counsel/internal/agent"
	"github.com/companionai/counsel/internal/domain"
	"github.com/companionai/counsel/internal/policy"
)

type stubSafety struct {
	verdicts []domain.SafetyVerdict
	calls    int
}

func (s *stubSafety) Check(ctx context.Context, text string) domain.SafetyVerdict {
	idx := s.calls
	s.calls++
	if idx >= len(s.verdicts) {
		idx = len(s.verdicts) - 1
	}
	return s.verdicts[idx]
}

func safeVerdict() domain.SafetyVerdict {
	return domain.SafetyVerdict{IsSafe: true, Category: domain.CategorySafe, Confidence: 0.9, RawText: "safe"}
}

func unsafeVerdict(category string) domain.SafetyVerdict {
	return domain.SafetyVerdict{IsSafe: false, Category: category, Confidence: 0.9, RawText: "unsafe\n" + category}
}

type stubRouter struct {
	decision domain.RoutingDecision
	calls    int
}

func (s *stubRouter) Route(ctx context.Context, userMessage, contextText string) domain.RoutingDecision {
	s.calls++
	return s.decision
}

type stubResponder struct {
	result domain.SpecialistResult
	calls  int
}

func (s *stubResponder) Respond(ctx context.Context, userMessage, contextText string) domain.SpecialistResult {
	s.calls++
	return s.result
}

type stubJudge struct {
	evaluation domain.Evaluation
	calls      int
}

func (s *stubJudge) Evaluate(ctx context.Context, userMessage, response string) domain.Evaluation {
	s.calls++
	return s.evaluation
}

type stubDecider struct {
	action string
	err    error
}

func (s *stubDecider) Action(ctx context.Context, category string) (string, error) {
	return s.action, s.err
}

func approveEval() domain.Evaluation {
	return domain.Evaluation{
		Scores:   domain.EvaluationScores{Overall: 8, Decision: domain.DecisionApprove},
		Approved: true,
		RawText:  "DECISION: APPROVE",
	}
}

func newStubPipeline(safety *stubSafety, router *stubRouter, responder *stubResponder, judge *stubJudge, decider ActionDecider) *Pipeline {
	specialists := map[domain.SpecialistKind]Responder{
		domain.SpecialistAnxiety: responder,
		domain.SpecialistCrisis:  responder,
		domain.SpecialistGeneral: responder,
	}
	return New(safety, router, specialists, judge, decider)
}

func TestUnsafeInputShortCircuits(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{unsafeVerdict("S10")}}
	router := &stubRouter{decision: domain.RoutingDecision{Specialist: domain.SpecialistGeneral}}
	responder := &stubResponder{}
	judge := &stubJudge{evaluation: approveEval()}
	p := newStubPipeline(safety, router, responder, judge, &stubDecider{action: policy.ActionRefuse})

	record := p.Run(context.Background(), "some hateful text", "")

	if record.Outcome != domain.OutcomeBlocked || record.Approved {
		t.Fatalf("expected blocked outcome, got %+v", record)
	}
	if record.FinalResponse != RefusalMessage {
		t.Fatalf("expected refusal message, got %q", record.FinalResponse)
	}
	if router.calls != 0 || responder.calls != 0 || judge.calls != 0 {
		t.Fatalf("downstream agents must not run on unsafe input: router=%d specialist=%d judge=%d",
			router.calls, responder.calls, judge.calls)
	}
	if len(record.Steps) != 1 || record.Steps[0].Step != domain.StepPreSafetyGate {
		t.Fatalf("expected single pre-safety step, got %+v", record.Steps)
	}
}

func TestUnsafeSelfHarmInputGetsCrisisResources(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{unsafeVerdict("S11")}}
	p := newStubPipeline(safety, &stubRouter{}, &stubResponder{}, &stubJudge{}, &stubDecider{action: policy.ActionCrisis})

	record := p.Run(context.Background(), "I want to hurt myself", "")

	if record.FinalResponse != CrisisResourcesMessage {
		t.Fatalf("expected crisis resources, got %q", record.FinalResponse)
	}
	if record.Outcome != domain.OutcomeBlocked || record.Approved {
		t.Fatalf("expected blocked unapproved record, got %+v", record)
	}
}

func TestPolicyFailureFallsBackToRefusal(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{unsafeVerdict("S11")}}
	p := newStubPipeline(safety, &stubRouter{}, &stubResponder{}, &stubJudge{}, &stubDecider{err: errors.New("rego blew up")})

	record := p.Run(context.Background(), "I want to hurt myself", "")
	if record.FinalResponse != RefusalMessage {
		t.Fatalf("expected refusal fallback on policy failure, got %q", record.FinalResponse)
	}
}

func TestPostSafetyVetoOverridesApproval(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{safeVerdict(), unsafeVerdict("S6")}}
	router := &stubRouter{decision: domain.RoutingDecision{Specialist: domain.SpecialistGeneral, Confidence: 0.7}}
	responder := &stubResponder{result: domain.SpecialistResult{Response: "problematic advice", Approach: "general"}}
	judge := &stubJudge{evaluation: approveEval()}
	p := newStubPipeline(safety, router, responder, judge, &stubDecider{action: policy.ActionRefuse})

	record := p.Run(context.Background(), "hello", "")

	if record.Outcome != domain.OutcomeBlocked || record.Approved {
		t.Fatalf("post-safety veto must block regardless of judge approval, got %+v", record)
	}
	if record.FinalResponse != UnsafeResponseMessage {
		t.Fatalf("expected unsafe-response message, got %q", record.FinalResponse)
	}
	if judge.calls != 1 {
		t.Fatalf("judge still runs before the post gate, got %d calls", judge.calls)
	}
	if safety.calls != 2 {
		t.Fatalf("expected both safety gates to run, got %d calls", safety.calls)
	}
	wantSteps := []domain.StepName{
		domain.StepPreSafetyGate, domain.StepRouter, domain.StepSpecialist,
		domain.StepJudge, domain.StepPostSafetyGate,
	}
	if len(record.Steps) != len(wantSteps) {
		t.Fatalf("expected %d steps, got %d", len(wantSteps), len(record.Steps))
	}
	for i, want := range wantSteps {
		if record.Steps[i].Step != want {
			t.Fatalf("step %d: expected %s, got %s", i, want, record.Steps[i].Step)
		}
	}
}

func TestJudgeRejectionYieldsNeedsRevision(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{safeVerdict(), safeVerdict()}}
	router := &stubRouter{decision: domain.RoutingDecision{Specialist: domain.SpecialistAnxiety, Confidence: 0.9}}
	responder := &stubResponder{result: domain.SpecialistResult{Response: "thin advice"}}
	judge := &stubJudge{evaluation: domain.Evaluation{
		Scores:   domain.EvaluationScores{Decision: domain.DecisionRevise},
		Approved: false,
	}}
	p := newStubPipeline(safety, router, responder, judge, &stubDecider{action: policy.ActionRefuse})

	record := p.Run(context.Background(), "hello", "")

	if record.Outcome != domain.OutcomeNeedsRevision || record.Approved {
		t.Fatalf("expected needs_revision outcome, got %+v", record)
	}
	if record.FinalResponse != NeedsRevisionMessage {
		t.Fatalf("expected revision message, got %q", record.FinalResponse)
	}
}

func TestApprovedResponseDeliveredVerbatim(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{safeVerdict(), safeVerdict()}}
	router := &stubRouter{decision: domain.RoutingDecision{Specialist: domain.SpecialistAnxiety, Confidence: 0.9}}
	responder := &stubResponder{result: domain.SpecialistResult{Response: "Try box breathing for two minutes.", Approach: "cbt"}}
	judge := &stubJudge{evaluation: approveEval()}
	p := newStubPipeline(safety, router, responder, judge, &stubDecider{action: policy.ActionRefuse})

	record := p.Run(context.Background(), "I'm anxious about my exam", "")

	if record.Outcome != domain.OutcomeDelivered || !record.Approved {
		t.Fatalf("expected delivered outcome, got %+v", record)
	}
	if record.FinalResponse != "Try box breathing for two minutes." {
		t.Fatalf("approved response must be delivered verbatim, got %q", record.FinalResponse)
	}
}

func TestUnknownSpecialistFallsBackToGeneral(t *testing.T) {
	general := &stubResponder{result: domain.SpecialistResult{Response: "general reply"}}
	specialists := map[domain.SpecialistKind]Responder{domain.SpecialistGeneral: general}
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{safeVerdict(), safeVerdict()}}
	router := &stubRouter{decision: domain.RoutingDecision{Specialist: domain.SpecialistKind("astrology"), Confidence: 0.7}}
	judge := &stubJudge{evaluation: approveEval()}
	p := New(safety, router, specialists, judge, &stubDecider{action: policy.ActionRefuse})

	record := p.Run(context.Background(), "hello", "")
	if general.calls != 1 {
		t.Fatalf("expected fallback to general specialist, got %d calls", general.calls)
	}
	if record.FinalResponse != "general reply" {
		t.Fatalf("unexpected response: %q", record.FinalResponse)
	}
}

func TestSpecialistStepCarriesRoutedKind(t *testing.T) {
	safety := &stubSafety{verdicts: []domain.SafetyVerdict{safeVerdict(), safeVerdict()}}
	router := &stubRouter{decision: domain.RoutingDecision{Specialist: domain.SpecialistCrisis, Confidence: 0.95}}
	responder := &stubResponder{result: domain.SpecialistResult{Response: "stay with me", Approach: "crisis"}}
	p := newStubPipeline(safety, router, responder, &stubJudge{evaluation: approveEval()}, &stubDecider{action: policy.ActionRefuse})

	record := p.Run(context.Background(), "hello", "")

	var step struct {
		Specialist string `json:"specialist"`
		Response   string `json:"response"`
	}
	if err := json.Unmarshal(record.Steps[2].Result, &step); err != nil {
		t.Fatalf("unmarshal specialist step: %v", err)
	}
	if step.Specialist != string(domain.SpecialistCrisis) {
		t.Fatalf("expected crisis kind in step payload, got %q", step.Specialist)
	}
	if step.Response != "stay with me" {
		t.Fatalf("unexpected response in step payload: %q", step.Response)
	}
}

// newMockedPipeline wires real agents over the scripted offline client, the
// same construction main uses under COUNSEL_MODE=MOCK.
func newMockedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	const guardModel = "llama-guard-3-8b"
	const instructModel = "llama-3.1-8b-instant"

	gen := llm.NewGenerator(llm.NewMockClient(guardModel), 1, 0)

	specialists := map[domain.SpecialistKind]Responder{
		domain.SpecialistAnxiety: agent.NewAnxietySpecialist(gen, instructModel),
		domain.SpecialistCrisis:  agent.NewCrisisHandler(gen, instructModel),
		domain.SpecialistGeneral: agent.NewGeneralSupport(gen, instructModel),
	}

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	return New(
		agent.NewGate(gen, guardModel),
		agent.NewRouter(gen, instructModel),
		specialists,
		agent.NewJudge(gen, instructModel),
		engine,
	)
}

func TestEndToEndAnxiousTurnDelivered(t *testing.T) {
	p := newMockedPipeline(t)

	record := p.Run(context.Background(), "I'm really worried about my exam next week", "")

	if record.Outcome != domain.OutcomeDelivered || !record.Approved {
		t.Fatalf("expected delivered turn, got outcome=%s approved=%v response=%q",
			record.Outcome, record.Approved, record.FinalResponse)
	}
	if len(record.Steps) != 5 {
		t.Fatalf("expected all 5 steps, got %d", len(record.Steps))
	}

	var routing domain.RoutingDecision
	if err := json.Unmarshal(record.Steps[1].Result, &routing); err != nil {
		t.Fatalf("unmarshal routing step: %v", err)
	}
	if routing.Specialist != domain.SpecialistAnxiety {
		t.Fatalf("expected anxiety routing, got %q", routing.Specialist)
	}
	if strings.HasPrefix(record.FinalResponse, "[Error:") {
		t.Fatalf("error sentinel leaked to user: %q", record.FinalResponse)
	}
}

func TestEndToEndSelfHarmBlockedWithResources(t *testing.T) {
	p := newMockedPipeline(t)

	record := p.Run(context.Background(), "I want to hurt myself", "")

	if record.Outcome != domain.OutcomeBlocked || record.Approved {
		t.Fatalf("expected blocked turn, got %+v", record)
	}
	if record.FinalResponse != CrisisResourcesMessage {
		t.Fatalf("expected crisis resources message, got %q", record.FinalResponse)
	}
	if len(record.Steps) != 1 {
		t.Fatalf("expected only the pre-safety step, got %d", len(record.Steps))
	}
}

func TestRunIsDeterministicForSameInput(t *testing.T) {
	p := newMockedPipeline(t)

	first := p.Run(context.Background(), "I'm worried about everything lately", "")
	second := p.Run(context.Background(), "I'm worried about everything lately", "")

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs must produce identical records:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
