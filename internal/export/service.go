package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yuchen-hong/labcase-tracker/internal/entity"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
)

// Service is a tiny façade over the repositories that produces XLSX bytes:
// one worksheet row per report line item for the selected patients.
type Service struct {
	users   repository.UserRepository
	cases   repository.CaseRepository
	reports repository.ReportRepository
	logger  *slog.Logger
}

func NewService(users repository.UserRepository, cases repository.CaseRepository, reports repository.ReportRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, cases: cases, reports: reports, logger: logger}
}

// ExportCaseReportsXLSX returns an XLSX workbook (as bytes) holding the joined
// case/report rows for the given patient ids.
func (s *Service) ExportCaseReportsXLSX(ctx context.Context, userIDs []string) ([]byte, error) {
	start := time.Now()

	rows, err := s.listCaseReports(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	// patient id -> display name for the worksheet
	names := make(map[string]string)
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}

	f := excelize.NewFile()
	const sheet = "CaseReports"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Report Date",
		"Hospital",
		"Patient",
		"Item (CN)",
		"Item (EN)",
		"Value",
		"Unit",
		"Reference Range",
		"Flag",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.ReportDate)
		write(2, r.Hospital)
		write(3, names[r.UserID])
		write(4, r.ChineseName)
		write(5, r.EnglishName)
		write(6, r.Value)
		write(7, r.Unit)
		write(8, r.Range)
		write(9, r.Notifaction)
		rowIdx++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 20) // date
	_ = f.SetColWidth(sheet, "B", "B", 28) // hospital
	_ = f.SetColWidth(sheet, "C", "C", 14) // patient
	_ = f.SetColWidth(sheet, "D", "E", 24) // item names
	_ = f.SetColWidth(sheet, "F", "H", 14) // value/unit/range

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_ids", len(userIDs),
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) listCaseReports(ctx context.Context, userIDs []string) ([]*entity.CaseReport, error) {
	cases, err := s.cases.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	caseIDs := make([]string, 0, len(cases))
	for _, c := range cases {
		caseIDs = append(caseIDs, c.ID)
	}
	rows, err := s.reports.ListByCaseIDs(ctx, caseIDs)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	return rows, nil
}
