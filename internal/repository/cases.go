package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

const caseTable = "patient_case"

var caseColumns = []any{"id", "user_id", "hospital", "report_date"}

type CaseRepository interface {
	// FindByHospitalDate looks for any case matching (hospital, report_date).
	// The key deliberately excludes the patient: it guards against
	// re-uploading the same physical document. Returns common.ErrNotFound on
	// a miss.
	FindByHospitalDate(ctx context.Context, hospital, reportDate string) (*entity.Case, error)
	Create(ctx context.Context, c *entity.Case) error
	ListByUserIDs(ctx context.Context, userIDs []string) ([]*entity.Case, error)
	// Update overwrites user_id, hospital and report_date by id.
	Update(ctx context.Context, c *entity.Case) error
}

type caseRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewCaseRepository(db *DB, logger *slog.Logger) CaseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &caseRepository{db: db, logger: logger}
}

func (r *caseRepository) FindByHospitalDate(ctx context.Context, hospital, reportDate string) (*entity.Case, error) {
	query, args, err := r.db.Builder().
		Select(caseColumns...).
		From(caseTable).
		Where(goqu.Ex{"hospital": hospital, "report_date": reportDate}).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build case query: %w", err)
	}

	c := &entity.Case{}
	err = r.db.SQL().QueryRowContext(ctx, query, args...).
		Scan(&c.ID, &c.UserID, &c.Hospital, &c.ReportDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to find case", "hospital", hospital, "report_date", reportDate, "error", err)
		return nil, err
	}
	return c, nil
}

func (r *caseRepository) Create(ctx context.Context, c *entity.Case) error {
	query, args, err := r.db.Builder().
		Insert(caseTable).
		Rows(goqu.Record{
			"id":          c.ID,
			"user_id":     c.UserID,
			"hospital":    c.Hospital,
			"report_date": c.ReportDate,
		}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build case insert: %w", err)
	}
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to create case", "hospital", c.Hospital, "report_date", c.ReportDate, "error", err)
		return err
	}
	return nil
}

func (r *caseRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]*entity.Case, error) {
	if len(userIDs) == 0 {
		return []*entity.Case{}, nil
	}
	query, args, err := r.db.Builder().
		Select(caseColumns...).
		From(caseTable).
		Where(goqu.Ex{"user_id": userIDs}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build case list: %w", err)
	}

	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list cases", "user_ids", len(userIDs), "error", err)
		return nil, err
	}
	defer rows.Close()

	cases := make([]*entity.Case, 0)
	for rows.Next() {
		c := &entity.Case{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Hospital, &c.ReportDate); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (r *caseRepository) Update(ctx context.Context, c *entity.Case) error {
	query, args, err := r.db.Builder().
		Update(caseTable).
		Set(goqu.Record{
			"user_id":     c.UserID,
			"hospital":    c.Hospital,
			"report_date": c.ReportDate,
		}).
		Where(goqu.Ex{"id": c.ID}).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build case update: %w", err)
	}
	if _, err := r.db.SQL().ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to update case", "case_id", c.ID, "error", err)
		return err
	}
	return nil
}
