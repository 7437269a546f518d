package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/yuchen-hong/labcase-tracker/internal/core"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
)

// BatchProcessor is what the upload handler needs from the ingestion core.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, images []core.ImageInput) (entity.BatchResult, error)
}

// CaseReportExporter renders joined case/report rows to a workbook.
type CaseReportExporter interface {
	ExportCaseReportsXLSX(ctx context.Context, userIDs []string) ([]byte, error)
}

// Service wires the HTTP surface. Handlers stay thin: parsing and status
// mapping here, decision logic in core.
type Service struct {
	db        *repository.DB
	processor BatchProcessor
	users     repository.UserRepository
	cases     repository.CaseRepository
	reports   repository.ReportRepository
	exporter  CaseReportExporter
	logger    *slog.Logger
}

func NewService(
	db *repository.DB,
	processor BatchProcessor,
	users repository.UserRepository,
	cases repository.CaseRepository,
	reports repository.ReportRepository,
	exporter CaseReportExporter,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:        db,
		processor: processor,
		users:     users,
		cases:     cases,
		reports:   reports,
		exporter:  exporter,
		logger:    logger,
	}
}

// NewEcho builds the echo instance with routes and middleware registered.
func (s *Service) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	s.RegisterRoutes(e)
	return e
}

func (s *Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/case", s.IngestCases)
	api.GET("/case", s.ListCaseReports)
	api.PATCH("/case", s.UpdateCase)
	api.PATCH("/report", s.UpdateReport)
	api.GET("/users", s.ListUsers)
	api.PATCH("/users", s.UpdateUser)
	api.GET("/export", s.ExportCaseReports)

	e.GET("/healthz", s.Healthz)
}

func (s *Service) Healthz(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context(), s.logger); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
