// Package api contains the HTTP handlers for the conversion service
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"convert2ansible/backend/internal/agentcfg"
	"convert2ansible/backend/internal/logging"
	"convert2ansible/backend/internal/repository"
	"convert2ansible/backend/internal/services"
	"convert2ansible/backend/internal/session"
	"convert2ansible/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Sessions *session.Manager
	Pipeline *services.PipelineService
	Store    repository.Store
	Agents   *agentcfg.Store
	Logger   *logging.Logger
}

// NewServer creates a new Server.
func NewServer(sessions *session.Manager, pipeline *services.PipelineService, store repository.Store, agents *agentcfg.Store, logger *logging.Logger) *Server {
	return &Server{
		Sessions: sessions,
		Pipeline: pipeline,
		Store:    store,
		Agents:   agents,
		Logger:   logger,
	}
}

// RegisterHandlers mounts the authenticated /api/v1 surface on g.
func RegisterHandlers(g *echo.Group, s *Server) {
	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions/:id/summary", s.SessionSummary)
	g.DELETE("/sessions/:id", s.DeleteSession)
	g.POST("/sessions/:id/reset", s.ResetSession)
	g.POST("/sessions/:id/navigate", s.Navigate)
	g.GET("/sessions/:id/steps/:index/result", s.StepResult)
	g.GET("/sessions/:id/steps/:index/logs", s.StepLogs)
	g.DELETE("/sessions/:id/steps/:index/logs", s.ClearStepLogs)

	g.POST("/sessions/:id/steps/analyze", s.RunAnalyze)
	g.POST("/sessions/:id/steps/context", s.RunContext)
	g.POST("/sessions/:id/steps/convert", s.RunConvert)
	g.POST("/sessions/:id/steps/validate", s.RunValidate)
	g.POST("/sessions/:id/steps/deploy", s.RunDeploy)

	g.POST("/spec/generate", s.GenerateSpec)

	g.GET("/conversions", s.ListConversions)
	g.GET("/conversions/:id", s.GetConversion)

	g.GET("/admin/agents", s.ListAgentConfigs)
	g.GET("/admin/agents/:id", s.GetAgentConfig)
	g.PUT("/admin/agents", s.UpdateAgentConfig)
	g.POST("/admin/agents/reload", s.ReloadAgentConfigs)
}

// HandleHealth returns basic health status. The database check degrades the
// report but never fails the endpoint.
func (s *Server) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "convert2ansible",
		Version:   "1.0.0",
		Checks:    map[string]string{},
	}
	if s.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.Store.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Checks["database"] = err.Error()
		} else {
			status.Checks["database"] = "ok"
		}
	}
	return c.JSON(http.StatusOK, status)
}

// problem writes an RFC 7807 Problem Details response.
func problem(c echo.Context, status int, title, detail string) error {
	p := models.ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	c.Response().WriteHeader(status)
	return json.NewEncoder(c.Response()).Encode(p)
}

// tenantID pulls the tenant injected by the auth middleware.
func tenantID(c echo.Context) (string, bool) {
	id, ok := c.Request().Context().Value("tenant_id").(string)
	return id, ok && id != ""
}

// userEmail pulls the caller identity injected by the auth middleware.
func userEmail(c echo.Context) string {
	email, _ := c.Request().Context().Value("user_email").(string)
	return email
}
