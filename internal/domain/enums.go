package domain

// SpecialistKind identifies a specialist agent.
type SpecialistKind string

const (
	SpecialistAnxiety SpecialistKind = "anxiety"
	SpecialistCrisis  SpecialistKind = "crisis"
	SpecialistGeneral SpecialistKind = "general"
)

// StepName identifies a pipeline step inside a WorkflowRecord.
type StepName string

const (
	StepPreSafetyGate  StepName = "pre_safety_gate"
	StepRouter         StepName = "router"
	StepSpecialist     StepName = "specialist"
	StepJudge          StepName = "judge"
	StepPostSafetyGate StepName = "post_safety_gate"
)

// Outcome is the terminal state of one pipeline transaction.
type Outcome string

const (
	OutcomeDelivered     Outcome = "delivered"
	OutcomeBlocked       Outcome = "blocked"
	OutcomeNeedsRevision Outcome = "needs_revision"
)

// EventType represents the type of an audit event.
type EventType string

const (
	EventTypeTurnStarted EventType = "turn_started"
	EventTypeStepDone    EventType = "step_done"
	EventTypeTurnDone    EventType = "turn_done"
)

// Judge decision tokens.
const (
	DecisionApprove = "APPROVE"
	DecisionRevise  = "REVISE"
)

// Safety gate categories outside the S1-S13 taxonomy, plus the self-harm
// code the pipeline special-cases.
const (
	CategorySafe     = "safe"
	CategoryUnclear  = "unclear"
	CategoryUnknown  = "unknown"
	CategorySelfHarm = "S11"
)
