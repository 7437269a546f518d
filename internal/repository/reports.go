package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"

	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

const reportTable = "case_report"

type ReportRepository interface {
	// Create persists one measurement row. No dedup happens here: the case
	// deduplicator already prevents re-entry into an existing case.
	Create(ctx context.Context, rep *entity.Report) error
	// ListByCaseIDs returns the flat joined rows (report + owning case) for a
	// set of cases. Ordering is unspecified.
	ListByCaseIDs(ctx context.Context, caseIDs []string) ([]*entity.CaseReport, error)
	// Update overwrites a report's fields by id. Fields left empty in the
	// payload are not touched, so callers only re-send what changed.
	Update(ctx context.Context, rep *entity.Report) error
}

type reportRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewReportRepository(db *DB, logger *slog.Logger) ReportRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportRepository{db: db, logger: logger}
}

func (r *reportRepository) Create(ctx context.Context, rep *entity.Report) error {
	query, args, err := r.db.Builder().
		Insert(reportTable).
		Rows(goqu.Record{
			"id":           rep.ID,
			"case_id":      rep.CaseID,
			"chinese_name": rep.ChineseName,
			"english_name": rep.EnglishName,
			"value":        rep.Value,
			"unit":         rep.Unit,
			"range":        rep.Range,
			"notifaction":  rep.Notifaction,
		}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build report insert: %w", err)
	}
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create report", "case_id", rep.CaseID, "error", err)
		return err
	}
	return nil
}

func (r *reportRepository) ListByCaseIDs(ctx context.Context, caseIDs []string) ([]*entity.CaseReport, error) {
	if len(caseIDs) == 0 {
		return []*entity.CaseReport{}, nil
	}
	query, args, err := r.db.Builder().
		Select(
			goqu.I("r.id").As("report_id"),
			goqu.I("r.case_id"),
			goqu.I("r.chinese_name"),
			goqu.I("r.english_name"),
			goqu.I("r.value"),
			goqu.I("r.unit"),
			goqu.I("r.range"),
			goqu.I("r.notifaction"),
			goqu.I("c.user_id"),
			goqu.I("c.hospital"),
			goqu.I("c.report_date"),
		).
		From(goqu.T(reportTable).As("r")).
		Join(goqu.T(caseTable).As("c"), goqu.On(goqu.I("r.case_id").Eq(goqu.I("c.id")))).
		Where(goqu.I("r.case_id").In(caseIDs)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build report list: %w", err)
	}

	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list case reports", "case_ids", len(caseIDs), "error", err)
		return nil, err
	}
	defer rows.Close()

	reports := make([]*entity.CaseReport, 0)
	for rows.Next() {
		cr := &entity.CaseReport{}
		if err := rows.Scan(
			&cr.ReportID, &cr.CaseID,
			&cr.ChineseName, &cr.EnglishName, &cr.Value, &cr.Unit, &cr.Range, &cr.Notifaction,
			&cr.UserID, &cr.Hospital, &cr.ReportDate,
		); err != nil {
			return nil, err
		}
		reports = append(reports, cr)
	}
	return reports, rows.Err()
}

func (r *reportRepository) Update(ctx context.Context, rep *entity.Report) error {
	record := goqu.Record{}
	for col, v := range map[string]string{
		"chinese_name": rep.ChineseName,
		"english_name": rep.EnglishName,
		"value":        rep.Value,
		"unit":         rep.Unit,
		"range":        rep.Range,
		"notifaction":  rep.Notifaction,
	} {
		if v != "" {
			record[col] = v
		}
	}
	if len(record) == 0 {
		return nil
	}
	query, args, err := r.db.Builder().
		Update(reportTable).
		Set(record).
		Where(goqu.Ex{"id": rep.ID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build report update: %w", err)
	}
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to update report", "report_id", rep.ID, "error", err)
		return err
	}
	return nil
}
