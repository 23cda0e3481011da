package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"convert2ansible/backend/internal/services"
	"convert2ansible/backend/internal/session"
	"convert2ansible/backend/internal/workflow"
	"convert2ansible/backend/pkg/models"
)

// StepRunView is the wire shape of an executed step.
type StepRunView struct {
	SessionID string               `json:"session_id"`
	StepIndex int                  `json:"step_index"`
	Result    *workflow.StepResult `json:"result"`
	Summary   workflow.Summary     `json:"summary"`
	Completed []int                `json:"completed_steps"`
}

func stepRunView(sess *session.Session, kind workflow.StepKind, res *workflow.StepResult) StepRunView {
	return StepRunView{
		SessionID: sess.ID,
		StepIndex: sess.Workflow.Registry().IndexOf(kind),
		Result:    res,
		Summary:   sess.Workflow.Summary(),
		Completed: sess.Workflow.Completed(),
	}
}

// AnalyzeRequest carries the source snippet to classify.
type AnalyzeRequest struct {
	Code string `json:"code"`
}

// RunAnalyze executes the analyze step.
// (POST /api/v1/sessions/:id/steps/analyze)
func (s *Server) RunAnalyze(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return problem(c, http.StatusBadRequest, "Invalid request body", "code is required")
	}
	res, err := s.Pipeline.RunAnalyze(c.Request().Context(), sess, req.Code)
	return s.stepResponse(c, sess, workflow.StepAnalyze, res, err)
}

// ContextRequest carries the snippet to retrieve reference chunks for.
type ContextRequest struct {
	Code string `json:"code"`
}

// RunContext executes the context step.
// (POST /api/v1/sessions/:id/steps/context)
func (s *Server) RunContext(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	var req ContextRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return problem(c, http.StatusBadRequest, "Invalid request body", "code is required")
	}
	res, err := s.Pipeline.RunContext(c.Request().Context(), sess, req.Code)
	return s.stepResponse(c, sess, workflow.StepContext, res, err)
}

// ConvertRequest carries the snippet to convert. The context chunks come
// from the session's context step result, not the request.
type ConvertRequest struct {
	Code string `json:"code"`
}

// RunConvert executes the convert step.
// (POST /api/v1/sessions/:id/steps/convert)
func (s *Server) RunConvert(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	var req ConvertRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return problem(c, http.StatusBadRequest, "Invalid request body", "code is required")
	}
	res, err := s.Pipeline.RunConvert(c.Request().Context(), sess, req.Code)
	return s.stepResponse(c, sess, workflow.StepConvert, res, err)
}

// RunValidate executes the validate step on the session's generated
// playbook.
// (POST /api/v1/sessions/:id/steps/validate)
func (s *Server) RunValidate(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	res, err := s.Pipeline.RunValidate(c.Request().Context(), sess)
	return s.stepResponse(c, sess, workflow.StepValidate, res, err)
}

// DeployStepRequest names the deployment target and archive metadata.
type DeployStepRequest struct {
	Target     string `json:"target"`
	SourceName string `json:"source_name"`
	SourceType string `json:"source_type"`
}

// RunDeploy executes the deploy step and archives the conversion.
// (POST /api/v1/sessions/:id/steps/deploy)
func (s *Server) RunDeploy(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	var req DeployStepRequest
	if err := c.Bind(&req); err != nil || req.Target == "" {
		return problem(c, http.StatusBadRequest, "Invalid request body", "target is required")
	}
	res, err := s.Pipeline.RunDeploy(c.Request().Context(), sess, services.DeployRequest{
		Target:     req.Target,
		SourceName: req.SourceName,
		SourceType: sourceType(req.SourceType),
		CreatedBy:  userEmail(c),
	})
	return s.stepResponse(c, sess, workflow.StepDeploy, res, err)
}

// SpecRequest carries the snippet to describe.
type SpecRequest struct {
	Code    string `json:"code"`
	Context string `json:"context"`
}

// GenerateSpec produces a prose specification of a snippet. This is a
// sessionless helper; it never touches workflow state.
// (POST /api/v1/spec/generate)
func (s *Server) GenerateSpec(c echo.Context) error {
	var req SpecRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return problem(c, http.StatusBadRequest, "Invalid request body", "code is required")
	}
	specText, err := s.Pipeline.GenerateSpec(c.Request().Context(), req.Code, req.Context)
	if err != nil {
		return problem(c, http.StatusBadGateway, "Agent call failed", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"spec_text": specText})
}

func sourceType(raw string) models.SourceType {
	switch models.SourceType(raw) {
	case models.SourceTypePuppet, models.SourceTypeChef, models.SourceTypeSalt,
		models.SourceTypeTerraform, models.SourceTypeCloudInit,
		models.SourceTypeShell, models.SourceTypeDockerfile:
		return models.SourceType(raw)
	default:
		return models.SourceTypeUnknown
	}
}

// stepResponse maps pipeline outcomes onto HTTP. Agent failures are part of
// the step result and still return 200; only engine rejections and missing
// prerequisites become problem responses.
func (s *Server) stepResponse(c echo.Context, sess *session.Session, kind workflow.StepKind, res *workflow.StepResult, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingPrerequisite):
		return problem(c, http.StatusConflict, "Missing prerequisite", err.Error())
	case errors.Is(err, workflow.ErrStaleResult):
		return problem(c, http.StatusConflict, "Session was reset", err.Error())
	case errors.Is(err, workflow.ErrStepOutOfRange):
		return problem(c, http.StatusBadRequest, "Step out of range", err.Error())
	case err != nil && res == nil:
		return problem(c, http.StatusBadGateway, "Agent call failed", err.Error())
	}
	return c.JSON(http.StatusOK, stepRunView(sess, kind, res))
}
