package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ExportCaseReports streams an XLSX workbook of the joined case/report rows
// for a comma-separated set of user ids.
func (s *Service) ExportCaseReports(c echo.Context) error {
	userIDs, err := parseUserIDs(c.QueryParam("userIds"))
	if err != nil {
		return err
	}
	data, err := s.exporter.ExportCaseReportsXLSX(c.Request().Context(), userIDs)
	if err != nil {
		s.logger.Error("export failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="case_reports.xlsx"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
