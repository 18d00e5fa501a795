// Package domain defines the core domain models for the counseling orchestrator.
package domain

import (
	"encoding/json"
	"time"
)

// Session represents a conversation session.
type Session struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Message represents a single message in a session.
type Message struct {
	MessageID     string          `json:"message_id"`
	SessionID     string          `json:"session_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Role          string          `json:"role"` // user, assistant, system
	Content       string          `json:"content"`
	CreatedAt     time.Time       `json:"created_at"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// SafetyVerdict is the result of one safety gate check. Produced fresh per
// check and never mutated. Category is one of "S1".."S13", "safe", "unclear"
// or "unknown".
type SafetyVerdict struct {
	IsSafe     bool    `json:"is_safe"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	RawText    string  `json:"raw_text"`
}

// RoutingDecision names the specialist that should handle a user message.
// Confidence is a fixed constant per parse branch, advisory only.
type RoutingDecision struct {
	Specialist SpecialistKind `json:"specialist"`
	Confidence float64        `json:"confidence"`
	RawText    string         `json:"raw_text"`
}

// SpecialistResult is the output of one specialist invocation.
type SpecialistResult struct {
	Response string `json:"response"`
	Approach string `json:"approach"`
}

// EvaluationScores holds the judge's rubric scores. Any field missing from
// the judge's reply keeps its zero default; Decision defaults to REVISE.
type EvaluationScores struct {
	Safety          float64 `json:"safety"`
	Empathy         float64 `json:"empathy"`
	ClinicalQuality float64 `json:"clinical_quality"`
	Actionability   float64 `json:"actionability"`
	Appropriateness float64 `json:"appropriateness"`
	Overall         float64 `json:"overall"`
	Decision        string  `json:"decision"`
	Reasoning       string  `json:"reasoning"`
}

// Evaluation is the judge's verdict on one (input, response) pair.
// Approved mirrors the DECISION token only; the numeric scores never gate it.
type Evaluation struct {
	Scores   EvaluationScores `json:"scores"`
	Approved bool             `json:"approved"`
	RawText  string           `json:"raw_text"`
}

// WorkflowStep is one named step result inside a WorkflowRecord.
type WorkflowStep struct {
	Step   StepName        `json:"step"`
	Result json.RawMessage `json:"result"`
}

// WorkflowRecord captures one full pipeline transaction for audit/replay.
// It contains no IDs or timestamps, so a deterministic oracle yields an
// identical record for the same input.
type WorkflowRecord struct {
	UserInput     string         `json:"user_input"`
	Steps         []WorkflowStep `json:"steps"`
	FinalResponse string         `json:"final_response"`
	Approved      bool           `json:"approved"`
	Outcome       Outcome        `json:"outcome"`
}

// Transaction is the persisted envelope of one WorkflowRecord.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	SessionID     string          `json:"session_id"`
	UserMessage   string          `json:"user_message"`
	BotResponse   string          `json:"bot_response"`
	Specialist    SpecialistKind  `json:"specialist,omitempty"`
	Approved      bool            `json:"approved"`
	Outcome       Outcome         `json:"outcome"`
	CreatedAt     time.Time       `json:"created_at"`
	Record        json.RawMessage `json:"record,omitempty"`
}

// Event is a per-step audit event for one transaction.
type Event struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	Ts            int64           `json:"ts"` // Unix milliseconds
	Type          EventType       `json:"type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// ChatRequest is the request body for POST /v1/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// WorkflowSummary is the condensed view of a turn returned to front-ends.
type WorkflowSummary struct {
	SafetyStatus string         `json:"safety_status"`
	Category     string         `json:"category,omitempty"`
	Specialist   SpecialistKind `json:"specialist,omitempty"`
	JudgeScore   float64        `json:"judge_score"`
	SafetyPassed bool           `json:"safety_passed"`
}

// ChatResponse is the response body for POST /v1/chat.
type ChatResponse struct {
	Response  string          `json:"response"`
	SessionID string          `json:"session_id"`
	Approved  bool            `json:"approved"`
	Workflow  WorkflowSummary `json:"workflow"`
}

// Stats aggregates stored transactions.
type Stats struct {
	TotalTurns    int            `json:"total_turns"`
	Approved      int            `json:"approved"`
	Blocked       int            `json:"blocked"`
	NeedsRevision int            `json:"needs_revision"`
	BySpecialist  map[string]int `json:"by_specialist"`
}

// StepDonePayload is the payload for step_done events.
type StepDonePayload struct {
	Step   StepName        `json:"step"`
	Result json.RawMessage `json:"result,omitempty"`
}

// TurnStartedPayload is the payload for turn_started events.
type TurnStartedPayload struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// TurnDonePayload is the payload for turn_done events.
type TurnDonePayload struct {
	Approved bool    `json:"approved"`
	Outcome  Outcome `json:"outcome"`
}
