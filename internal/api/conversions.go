package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"convert2ansible/backend/internal/repository"
	"convert2ansible/backend/pkg/models"
)

// ListConversions returns the caller tenant's archived conversions,
// newest first.
// (GET /api/v1/conversions)
func (s *Server) ListConversions(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "tenant not found in context")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	convs, err := s.Store.ListConversions(c.Request().Context(), tenant, limit)
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Archive query failed", err.Error())
	}
	if convs == nil {
		convs = []*models.Conversion{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"conversions": convs,
		"total":       len(convs),
	})
}

// GetConversion returns one archived conversion.
// (GET /api/v1/conversions/:id)
func (s *Server) GetConversion(c echo.Context) error {
	tenant, ok := tenantID(c)
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "tenant not found in context")
	}
	conv, err := s.Store.GetConversion(c.Request().Context(), tenant, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Conversion not found", "no such conversion: "+c.Param("id"))
	}
	if err != nil {
		return problem(c, http.StatusInternalServerError, "Archive query failed", err.Error())
	}
	return c.JSON(http.StatusOK, conv)
}
