// Package service coordinates one chat turn: it runs the pipeline and
// persists messages, transactions and per-step audit events.
package service

import (
	"context"
	"errors"

	"github.com/companionai/counsel/internal/config"
	"github.com/companionai/counsel/internal/domain"
	"github.com/companionai/counsel/internal/store"
)

// ErrEmptyMessage is returned for blank chat messages. The pipeline is never
// entered; transports map this to a client error.
var ErrEmptyMessage = errors.New("message cannot be empty")

// TurnRunner executes one pipeline transaction. *pipeline.Pipeline
// implements it.
type TurnRunner interface {
	Run(ctx context.Context, userInput, contextText string) *domain.WorkflowRecord
}

// Service is the transaction service.
type Service struct {
	store    store.Store
	pipeline TurnRunner
	config   *config.Config
}

// New creates a new service.
func New(store store.Store, pipeline TurnRunner, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		pipeline: pipeline,
		config:   cfg,
	}
}
