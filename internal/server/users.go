package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

// ListUsers returns every patient. Ordering is unspecified.
func (s *Service) ListUsers(c echo.Context) error {
	users, err := s.users.List(c.Request().Context())
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list users failed")
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateUser overwrites a patient's fields by id. This is the only mutation
// path for patients; the ingestion pipeline never edits an existing one.
func (s *Service) UpdateUser(c echo.Context) error {
	var body entity.User
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	if err := s.users.Update(c.Request().Context(), &body); err != nil {
		s.logger.Error("update user failed", "user_id", body.ID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "update user failed")
	}
	return c.String(http.StatusOK, "success")
}
