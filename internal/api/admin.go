package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"convert2ansible/backend/internal/agentcfg"
)

// ListAgentConfigs returns every agent's instruction configuration.
// (GET /api/v1/admin/agents)
func (s *Server) ListAgentConfigs(c echo.Context) error {
	agents := s.Agents.All()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
		"total":  len(agents),
	})
}

// GetAgentConfig returns one agent's instruction configuration.
// (GET /api/v1/admin/agents/:id)
func (s *Server) GetAgentConfig(c echo.Context) error {
	cfg, err := s.Agents.Get(c.Param("id"))
	if errors.Is(err, agentcfg.ErrUnknownAgent) {
		return problem(c, http.StatusNotFound, "Agent not found", err.Error())
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Agent config read failed", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agent_id": c.Param("id"),
		"config":   cfg,
	})
}

// UpdateAgentRequest replaces one agent's instructions.
type UpdateAgentRequest struct {
	AgentID      string `json:"agent_id"`
	Instructions string `json:"instructions"`
}

// UpdateAgentConfig replaces an agent's instructions and persists the
// change.
// (PUT /api/v1/admin/agents)
func (s *Server) UpdateAgentConfig(c echo.Context) error {
	var req UpdateAgentRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Invalid request body", err.Error())
	}
	cfg, err := s.Agents.UpdateInstructions(req.AgentID, req.Instructions)
	switch {
	case errors.Is(err, agentcfg.ErrUnknownAgent):
		return problem(c, http.StatusNotFound, "Agent not found", err.Error())
	case errors.Is(err, agentcfg.ErrEmptyInstructions):
		return problem(c, http.StatusBadRequest, "Invalid instructions", err.Error())
	case err != nil:
		return problem(c, http.StatusInternalServerError, "Agent config update failed", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agent_id": req.AgentID,
		"config":   cfg,
	})
}

// ReloadAgentConfigs re-reads the instruction file, discarding unsaved
// in-memory edits.
// (POST /api/v1/admin/agents/reload)
func (s *Server) ReloadAgentConfigs(c echo.Context) error {
	if err := s.Agents.Reload(); err != nil {
		return problem(c, http.StatusInternalServerError, "Agent config reload failed", err.Error())
	}
	agents := s.Agents.All()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"agents": agents,
		"total":  len(agents),
	})
}
