package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/companionai/counsel/internal/domain"
)

// ProcessChat handles one chat turn: validates the request, assembles
// read-only conversation context, runs the pipeline and persists the result.
// Persistence failures after the pipeline ran are logged but never hide the
// response from the user.
func (s *Service) ProcessChat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	userMessage := strings.TrimSpace(req.Message)
	if userMessage == "" {
		return nil, ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}

	session, err := s.store.GetOrCreateSession(ctx, sessionID, "default_user")
	if err != nil {
		return nil, fmt.Errorf("failed to get/create session: %w", err)
	}

	contextText := s.conversationContext(ctx, session.SessionID)

	transactionID := "txn_" + uuid.New().String()[:8]
	now := time.Now()

	record := s.pipeline.Run(ctx, userMessage, contextText)

	recordJSON, err := json.Marshal(record)
	if err != nil {
		log.Printf("ERROR: failed to marshal workflow record: %v", err)
	}

	tx := &domain.Transaction{
		TransactionID: transactionID,
		SessionID:     session.SessionID,
		UserMessage:   userMessage,
		BotResponse:   record.FinalResponse,
		Specialist:    routedSpecialist(record),
		Approved:      record.Approved,
		Outcome:       record.Outcome,
		CreatedAt:     now,
		Record:        recordJSON,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		log.Printf("ERROR: failed to save transaction: %v", err)
	}

	s.saveTurnMessages(ctx, session.SessionID, transactionID, userMessage, record.FinalResponse)

	// Events carry a foreign key to the transaction row, so they are
	// recorded after it.
	if err := s.recordEvent(ctx, transactionID, domain.EventTypeTurnStarted, domain.TurnStartedPayload{
		SessionID: session.SessionID,
		Content:   userMessage,
	}); err != nil {
		log.Printf("WARN: failed to record turn_started event: %v", err)
	}

	for _, step := range record.Steps {
		if err := s.recordEvent(ctx, transactionID, domain.EventTypeStepDone, domain.StepDonePayload{
			Step:   step.Step,
			Result: step.Result,
		}); err != nil {
			log.Printf("WARN: failed to record step_done event: %v", err)
		}
	}

	if err := s.recordEvent(ctx, transactionID, domain.EventTypeTurnDone, domain.TurnDonePayload{
		Approved: record.Approved,
		Outcome:  record.Outcome,
	}); err != nil {
		log.Printf("WARN: failed to record turn_done event: %v", err)
	}

	return &domain.ChatResponse{
		Response:  record.FinalResponse,
		SessionID: session.SessionID,
		Approved:  record.Approved,
		Workflow:  summarize(record),
	}, nil
}

// conversationContext renders the most recent session messages as
// "role: content" lines. The pipeline treats it as read-only.
func (s *Service) conversationContext(ctx context.Context, sessionID string) string {
	messages, err := s.store.GetMessages(ctx, sessionID, s.config.ContextMessages, "")
	if err != nil {
		log.Printf("WARN: failed to get messages: %v", err)
		return ""
	}
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) saveTurnMessages(ctx context.Context, sessionID, transactionID, userMessage, botResponse string) {
	now := time.Now()
	userMsg := &domain.Message{
		MessageID:     "msg_" + uuid.New().String()[:8],
		SessionID:     sessionID,
		TransactionID: transactionID,
		Role:          "user",
		Content:       userMessage,
		CreatedAt:     now,
	}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		log.Printf("ERROR: failed to save user message: %v", err)
	}

	assistantMsg := &domain.Message{
		MessageID:     "msg_" + uuid.New().String()[:8],
		SessionID:     sessionID,
		TransactionID: transactionID,
		Role:          "assistant",
		Content:       botResponse,
		CreatedAt:     now.Add(time.Millisecond),
	}
	if err := s.store.CreateMessage(ctx, assistantMsg); err != nil {
		log.Printf("ERROR: failed to save assistant message: %v", err)
	}
}

// summarize condenses a workflow record into the front-end view.
func summarize(record *domain.WorkflowRecord) domain.WorkflowSummary {
	summary := domain.WorkflowSummary{SafetyStatus: "unsafe"}

	for _, step := range record.Steps {
		switch step.Step {
		case domain.StepPreSafetyGate:
			var verdict domain.SafetyVerdict
			if err := json.Unmarshal(step.Result, &verdict); err == nil {
				summary.Category = verdict.Category
				if verdict.IsSafe {
					summary.SafetyStatus = "safe"
				}
			}
		case domain.StepRouter:
			var routing domain.RoutingDecision
			if err := json.Unmarshal(step.Result, &routing); err == nil {
				summary.Specialist = routing.Specialist
			}
		case domain.StepJudge:
			var evaluation domain.Evaluation
			if err := json.Unmarshal(step.Result, &evaluation); err == nil {
				summary.JudgeScore = evaluation.Scores.Overall
			}
		case domain.StepPostSafetyGate:
			var verdict domain.SafetyVerdict
			if err := json.Unmarshal(step.Result, &verdict); err == nil {
				summary.SafetyPassed = verdict.IsSafe
			}
		}
	}
	return summary
}

func routedSpecialist(record *domain.WorkflowRecord) domain.SpecialistKind {
	for _, step := range record.Steps {
		if step.Step != domain.StepRouter {
			continue
		}
		var routing domain.RoutingDecision
		if err := json.Unmarshal(step.Result, &routing); err == nil {
			return routing.Specialist
		}
	}
	return ""
}
