package services

import (
	"context"

	"convert2ansible/backend/internal/workflow"
)

// AgentClient is an interface for communicating with the conversion agents.
// Each method maps to one agent endpoint; the pipeline decides when to call
// them and what to do with the outcome.
type AgentClient interface {
	// Classify asks the classifier agent what tool produced the snippet
	// and whether it can be converted.
	Classify(ctx context.Context, code string) (workflow.AnalyzeOutcome, error)
	// QueryContext retrieves reference documentation chunks relevant to
	// the snippet from the context agent.
	QueryContext(ctx context.Context, code string) (workflow.ContextOutcome, error)
	// Generate asks the generator agent for an Ansible playbook.
	Generate(ctx context.Context, code string, chunks []workflow.ContextChunk) (workflow.ConvertOutcome, error)
	// Validate runs the generated playbook through the validation agent.
	Validate(ctx context.Context, playbook string) (workflow.ValidateOutcome, error)
	// GenerateSpec asks the spec agent for a prose specification of the
	// snippet, an aid for reviewing a conversion before running it.
	GenerateSpec(ctx context.Context, code, contextText string) (string, error)
	// Deploy hands the playbook to the deployment agent for execution.
	Deploy(ctx context.Context, playbook, target string) (workflow.DeployOutcome, error)
}
