package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

// UpdateReport overwrites one report row's fields by report id.
func (s *Service) UpdateReport(c echo.Context) error {
	var body entity.CaseReport
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.ReportID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "report_id is required")
	}
	err := s.reports.Update(c.Request().Context(), &entity.Report{
		ID:          body.ReportID,
		ChineseName: body.ChineseName,
		EnglishName: body.EnglishName,
		Value:       body.Value,
		Unit:        body.Unit,
		Range:       body.Range,
		Notifaction: body.Notifaction,
	})
	if err != nil {
		s.logger.Error("update report failed", "report_id", body.ReportID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "update report failed")
	}
	return c.String(http.StatusOK, "success")
}
