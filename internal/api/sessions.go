package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"convert2ansible/backend/internal/session"
	"convert2ansible/backend/internal/workflow"
)

// SessionView is the wire shape of a session.
type SessionView struct {
	SessionID string             `json:"session_id"`
	Steps     []workflow.StepDef `json:"steps"`
	Summary   workflow.Summary   `json:"summary"`
	Completed []int              `json:"completed_steps"`
}

func sessionView(sess *session.Session) SessionView {
	return SessionView{
		SessionID: sess.ID,
		Steps:     sess.Workflow.Registry().Steps(),
		Summary:   sess.Workflow.Summary(),
		Completed: sess.Workflow.Completed(),
	}
}

// CreateSession starts a new conversion session for the caller's tenant.
// (POST /api/v1/sessions)
func (s *Server) CreateSession(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "tenant not found in context")
	}
	sess := s.Sessions.Create(tenant)
	return c.JSON(http.StatusCreated, sessionView(sess))
}

// SessionSummary returns the derived view of a session's workflow.
// (GET /api/v1/sessions/:id/summary)
func (s *Server) SessionSummary(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, sessionView(sess))
}

// DeleteSession drops a session and all of its in-memory state.
// (DELETE /api/v1/sessions/:id)
func (s *Server) DeleteSession(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	s.Sessions.Delete(sess.ID)
	return c.NoContent(http.StatusNoContent)
}

// ResetSession returns the workflow to its initial state. In-flight agent
// results dispatched before the reset will be discarded when they land.
// (POST /api/v1/sessions/:id/reset)
func (s *Server) ResetSession(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	sess.Workflow.Reset()
	return c.JSON(http.StatusOK, sessionView(sess))
}

// NavigateRequest selects the step to move to.
type NavigateRequest struct {
	Target int `json:"target"`
}

// Navigate moves the current step pointer if the gate permits.
// (POST /api/v1/sessions/:id/navigate)
func (s *Server) Navigate(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	var req NavigateRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	if err := sess.Workflow.Navigate(req.Target); err != nil {
		switch {
		case errors.Is(err, workflow.ErrStepOutOfRange):
			return problem(c, http.StatusBadRequest, "Step out of range", err.Error())
		case errors.Is(err, workflow.ErrStepLocked):
			return problem(c, http.StatusConflict, "Step locked", err.Error())
		default:
			return problem(c, http.StatusInternalServerError, "Navigation failed", err.Error())
		}
	}
	return c.JSON(http.StatusOK, sessionView(sess))
}

// StepResult returns the last recorded result for a step.
// (GET /api/v1/sessions/:id/steps/:index/result)
func (s *Server) StepResult(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	index, ok := stepIndex(c, sess)
	if !ok {
		return nil
	}
	res, found := sess.Workflow.Result(index)
	if !found {
		return problem(c, http.StatusNotFound, "No result", "step has no recorded result")
	}
	return c.JSON(http.StatusOK, res)
}

// StepLogs returns a step's log stream in append order.
// (GET /api/v1/sessions/:id/steps/:index/logs)
func (s *Server) StepLogs(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	index, ok := stepIndex(c, sess)
	if !ok {
		return nil
	}
	logs := sess.Workflow.Logs(index)
	if logs == nil {
		logs = []workflow.LogEntry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"step_index": index,
		"entries":    logs,
	})
}

// ClearStepLogs drops one step's log stream.
// (DELETE /api/v1/sessions/:id/steps/:index/logs)
func (s *Server) ClearStepLogs(c echo.Context) error {
	sess, ok := s.session(c)
	if !ok {
		return nil
	}
	index, ok := stepIndex(c, sess)
	if !ok {
		return nil
	}
	sess.Workflow.ClearLogs(index)
	return c.NoContent(http.StatusNoContent)
}

// session resolves the :id param to a live session owned by the caller's
// tenant, writing the problem response itself on failure. Foreign sessions
// read as not found.
func (s *Server) session(c echo.Context) (*session.Session, bool) {
	tenant, ok := tenantID(c)
	if !ok {
		problem(c, http.StatusUnauthorized, "Unauthorized", "tenant not found in context")
		return nil, false
	}
	sess, err := s.Sessions.Get(c.Param("id"))
	if err != nil || sess.TenantID != tenant {
		problem(c, http.StatusNotFound, "Session not found", "no such session: "+c.Param("id"))
		return nil, false
	}
	return sess, true
}

func stepIndex(c echo.Context, sess *session.Session) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= sess.Workflow.Registry().Len() {
		problem(c, http.StatusBadRequest, "Step out of range", "invalid step index: "+c.Param("index"))
		return 0, false
	}
	return index, true
}
