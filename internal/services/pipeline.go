package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"convert2ansible/backend/internal/logging"
	"convert2ansible/backend/internal/repository"
	"convert2ansible/backend/internal/session"
	"convert2ansible/backend/internal/workflow"
	"convert2ansible/backend/pkg/models"
)

// ErrMissingPrerequisite is returned when a step is executed before the
// earlier step whose output it consumes has a successful result.
var ErrMissingPrerequisite = errors.New("prerequisite step has no successful result")

// PipelineService drives the conversion agents on behalf of a session's
// workflow. It snapshots the epoch before each agent call and records the
// outcome through the controller, so a reset during a slow call discards
// the late result instead of resurrecting cleared state.
type PipelineService struct {
	agents AgentClient
	store  repository.Store
	logger *logging.Logger

	stepRuns metric.Int64Counter
}

// NewPipelineService creates a new PipelineService. store may be nil when
// archiving is disabled; deploy then skips the archive write.
func NewPipelineService(agents AgentClient, store repository.Store, logger *logging.Logger) *PipelineService {
	meter := otel.Meter("convert2ansible/pipeline")
	stepRuns, err := meter.Int64Counter("pipeline.step.runs",
		metric.WithDescription("Agent step executions by kind and status"))
	if err != nil {
		logger.Error("failed to create step counter: %v", err)
	}
	return &PipelineService{
		agents:   agents,
		store:    store,
		logger:   logger,
		stepRuns: stepRuns,
	}
}

// DeployRequest carries the deploy step's inputs plus the metadata needed
// to archive the finished conversion.
type DeployRequest struct {
	Target     string
	SourceName string
	SourceType models.SourceType
	CreatedBy  string
}

// RunAnalyze executes the analyze step against the classifier agent.
func (p *PipelineService) RunAnalyze(ctx context.Context, sess *session.Session, code string) (*workflow.StepResult, error) {
	return p.run(ctx, sess, workflow.StepAnalyze, func(ctx context.Context) (workflow.Payload, error) {
		out, err := p.agents.Classify(ctx, code)
		if err != nil {
			return nil, err
		}
		index := sess.Workflow.Registry().IndexOf(workflow.StepAnalyze)
		sess.Workflow.Log(index, fmt.Sprintf("classified as %s (convertible=%t)", out.Classification, out.Convertible))
		return out, nil
	})
}

// RunContext executes the context step against the retrieval agent.
func (p *PipelineService) RunContext(ctx context.Context, sess *session.Session, code string) (*workflow.StepResult, error) {
	return p.run(ctx, sess, workflow.StepContext, func(ctx context.Context) (workflow.Payload, error) {
		out, err := p.agents.QueryContext(ctx, code)
		if err != nil {
			return nil, err
		}
		index := sess.Workflow.Registry().IndexOf(workflow.StepContext)
		sess.Workflow.Log(index, fmt.Sprintf("retrieved %d context chunks", len(out.Chunks)))
		return out, nil
	})
}

// RunConvert executes the convert step. The context step's chunks are read
// from the workflow; a session without a successful context result cannot
// generate.
func (p *PipelineService) RunConvert(ctx context.Context, sess *session.Session, code string) (*workflow.StepResult, error) {
	chunks, err := contextChunks(sess)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, sess, workflow.StepConvert, func(ctx context.Context) (workflow.Payload, error) {
		out, err := p.agents.Generate(ctx, code, chunks)
		if err != nil {
			return nil, err
		}
		index := sess.Workflow.Registry().IndexOf(workflow.StepConvert)
		sess.Workflow.Log(index, fmt.Sprintf("generated playbook (%d bytes)", len(out.Playbook)))
		return out, nil
	})
}

// RunValidate executes the validate step on the generated playbook.
func (p *PipelineService) RunValidate(ctx context.Context, sess *session.Session) (*workflow.StepResult, error) {
	playbook, err := generatedPlaybook(sess)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, sess, workflow.StepValidate, func(ctx context.Context) (workflow.Payload, error) {
		out, err := p.agents.Validate(ctx, playbook)
		if err != nil {
			return nil, err
		}
		index := sess.Workflow.Registry().IndexOf(workflow.StepValidate)
		sess.Workflow.Log(index, fmt.Sprintf("validation finished: passed=%t issues=%d", out.Passed, len(out.Issues)))
		return out, nil
	})
}

// RunDeploy executes the deploy step and archives the conversion.
func (p *PipelineService) RunDeploy(ctx context.Context, sess *session.Session, req DeployRequest) (*workflow.StepResult, error) {
	playbook, err := generatedPlaybook(sess)
	if err != nil {
		return nil, err
	}
	res, err := p.run(ctx, sess, workflow.StepDeploy, func(ctx context.Context) (workflow.Payload, error) {
		out, err := p.agents.Deploy(ctx, playbook, req.Target)
		if err != nil {
			return nil, err
		}
		index := sess.Workflow.Registry().IndexOf(workflow.StepDeploy)
		sess.Workflow.Log(index, fmt.Sprintf("deployment %s %s on %s", out.JobID, out.Status, out.Target))
		return out, nil
	})
	if err != nil || res.Status != workflow.StatusSuccess {
		return res, err
	}

	if p.store != nil {
		if archiveErr := p.archive(ctx, sess, playbook, req); archiveErr != nil {
			// The deployment already happened; losing the archive row is
			// reported but does not fail the step.
			p.logger.Error("failed to archive conversion for session %s: %v", sess.ID, archiveErr)
		}
	}
	return res, nil
}

// GenerateSpec asks the spec agent for a prose description of the snippet.
// Sessionless; nothing is recorded against any workflow.
func (p *PipelineService) GenerateSpec(ctx context.Context, code, contextText string) (string, error) {
	return p.agents.GenerateSpec(ctx, code, contextText)
}

// run wraps one agent call with epoch snapshotting, timing, logging and
// result recording. A processing result is recorded before the call so the
// step stays observable while a slow agent is still working.
func (p *PipelineService) run(ctx context.Context, sess *session.Session, kind workflow.StepKind, call func(context.Context) (workflow.Payload, error)) (*workflow.StepResult, error) {
	wf := sess.Workflow
	index := wf.Registry().IndexOf(kind)
	if index < 0 {
		return nil, fmt.Errorf("run %s: %w", kind, workflow.ErrStepOutOfRange)
	}

	epoch := wf.Epoch()
	if err := wf.RecordResult(index, epoch, workflow.StepResult{Status: workflow.StatusProcessing}); err != nil {
		return nil, err
	}
	wf.Log(index, fmt.Sprintf("%s step started", kind))
	start := time.Now()

	payload, callErr := call(ctx)
	duration := time.Since(start)

	res := workflow.StepResult{
		Status:     workflow.StatusSuccess,
		DurationMS: duration.Milliseconds(),
		Payload:    payload,
	}
	if callErr != nil {
		res.Status = workflow.StatusError
		res.Error = callErr.Error()
		res.Payload = nil
		wf.Log(index, fmt.Sprintf("%s step failed: %v", kind, callErr))
	}

	if err := wf.RecordResult(index, epoch, res); err != nil {
		if errors.Is(err, workflow.ErrStaleResult) {
			p.logger.Info("discarding stale %s result for session %s", kind, sess.ID)
		}
		return nil, err
	}
	p.countRun(ctx, kind, res.Status)
	return &res, callErr
}

func (p *PipelineService) countRun(ctx context.Context, kind workflow.StepKind, status workflow.StepStatus) {
	if p.stepRuns == nil {
		return
	}
	p.stepRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("step", string(kind)),
			attribute.String("status", string(status)),
		))
}

func (p *PipelineService) archive(ctx context.Context, sess *session.Session, playbook string, req DeployRequest) error {
	conv := &models.Conversion{
		ID:         uuid.New().String(),
		TenantID:   sess.TenantID,
		SessionID:  sess.ID,
		SourceName: req.SourceName,
		SourceType: req.SourceType,
		Playbook:   playbook,
		CreatedAt:  time.Now().UTC(),
	}
	if req.CreatedBy != "" {
		conv.CreatedBy = &req.CreatedBy
	}
	if res, ok := stepPayload(sess, workflow.StepAnalyze); ok {
		if analyze, ok := res.(workflow.AnalyzeOutcome); ok && analyze.Summary != "" {
			summary := analyze.Summary
			conv.Summary = &summary
		}
	}
	if res, ok := stepPayload(sess, workflow.StepValidate); ok {
		if validate, ok := res.(workflow.ValidateOutcome); ok {
			conv.ValidationPassed = validate.Passed
		}
	}
	return p.store.SaveConversion(ctx, conv)
}

// contextChunks reads the context step's successful outcome.
func contextChunks(sess *session.Session) ([]workflow.ContextChunk, error) {
	payload, ok := stepPayload(sess, workflow.StepContext)
	if !ok {
		return nil, fmt.Errorf("convert needs context chunks: %w", ErrMissingPrerequisite)
	}
	out, ok := payload.(workflow.ContextOutcome)
	if !ok {
		return nil, fmt.Errorf("convert needs context chunks: %w", ErrMissingPrerequisite)
	}
	return out.Chunks, nil
}

// generatedPlaybook reads the convert step's successful outcome.
func generatedPlaybook(sess *session.Session) (string, error) {
	payload, ok := stepPayload(sess, workflow.StepConvert)
	if !ok {
		return "", fmt.Errorf("no generated playbook: %w", ErrMissingPrerequisite)
	}
	out, ok := payload.(workflow.ConvertOutcome)
	if !ok || out.Playbook == "" {
		return "", fmt.Errorf("no generated playbook: %w", ErrMissingPrerequisite)
	}
	return out.Playbook, nil
}

func stepPayload(sess *session.Session, kind workflow.StepKind) (workflow.Payload, bool) {
	index := sess.Workflow.Registry().IndexOf(kind)
	res, ok := sess.Workflow.Result(index)
	if !ok || res.Status != workflow.StatusSuccess || res.Payload == nil {
		return nil, false
	}
	return res.Payload, true
}
