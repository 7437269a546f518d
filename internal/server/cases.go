package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yuchen-hong/labcase-tracker/internal/core"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

// IngestCases accepts a multipart form of lab report photographs (parts named
// "image" with a filename) and runs the ingestion pipeline over them in form
// order.
//
// The response is 200-shaped even when every image failed: callers must
// inspect errorMessages, not the status code. Only two things break that
// contract, a missing payload and an extractor failure, both of which abort
// the whole request with a 400 before any partial output.
func (s *Service) IngestCases(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No form data provided")
	}

	files := form.File["image"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No form data provided")
	}

	images := make([]core.ImageInput, 0, len(files))
	for _, fh := range files {
		if fh.Filename == "" {
			continue
		}
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload: "+err.Error())
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload: "+err.Error())
		}
		images = append(images, core.ImageInput{
			Filename:  fh.Filename,
			MediaType: fh.Header.Get("Content-Type"),
			Data:      data,
		})
	}
	if len(images) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No form data provided")
	}

	result, err := s.processor.ProcessBatch(c.Request().Context(), images)
	if err != nil {
		s.logger.Error("ingest batch failed", "images", len(images), "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// ListCaseReports returns the flat joined case/report rows for a
// comma-separated set of user ids.
func (s *Service) ListCaseReports(c echo.Context) error {
	userIDs, err := parseUserIDs(c.QueryParam("userIds"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	cases, err := s.cases.ListByUserIDs(ctx, userIDs)
	if err != nil {
		s.logger.Error("list cases failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list cases failed")
	}
	caseIDs := make([]string, 0, len(cases))
	for _, cs := range cases {
		caseIDs = append(caseIDs, cs.ID)
	}
	rows, err := s.reports.ListByCaseIDs(ctx, caseIDs)
	if err != nil {
		s.logger.Error("list case reports failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "list case reports failed")
	}
	return c.JSON(http.StatusOK, rows)
}

// UpdateCase overwrites a case's owning user, hospital and report date by
// case id. No optimistic-concurrency check.
func (s *Service) UpdateCase(c echo.Context) error {
	var body entity.CaseReport
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.CaseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "case_id is required")
	}
	err := s.cases.Update(c.Request().Context(), &entity.Case{
		ID:         body.CaseID,
		UserID:     body.UserID,
		Hospital:   body.Hospital,
		ReportDate: body.ReportDate,
	})
	if err != nil {
		s.logger.Error("update case failed", "case_id", body.CaseID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "update case failed")
	}
	return c.String(http.StatusOK, "success")
}

func parseUserIDs(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "请选择用户")
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	if len(ids) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "请选择用户")
	}
	return ids, nil
}
