// Package policy evaluates the safety-response policy: given the category
// reported by the safety gate, it decides which canned response class the
// pipeline must use for a blocked input.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Actions returned by the safety policy.
const (
	ActionCrisis = "crisis"
	ActionRefuse = "refuse"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.safety_policy.action"),
		rego.Module("safety_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Action evaluates the policy for the given safety category and returns the
// response action ("crisis" or "refuse").
func (e *Engine) Action(ctx context.Context, category string) (string, error) {
	input := map[string]interface{}{"category": category}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		// The policy defines a default; reaching here means it was removed.
		return ActionRefuse, nil
	}

	if action, ok := results[0].Expressions[0].Value.(string); ok {
		return action, nil
	}

	return ActionRefuse, nil
}

// DefaultPolicy is the default safety-response policy: self-harm input gets
// crisis resources, every other unsafe category gets the generic refusal.
const DefaultPolicy = `
package safety_policy

import rego.v1

default action := "refuse"

action := "crisis" if input.category == "S11"
`
