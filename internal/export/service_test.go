package export_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
	"github.com/yuchen-hong/labcase-tracker/internal/export"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
)

func newService(t *testing.T) (*export.Service, repository.UserRepository, repository.CaseRepository, repository.ReportRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, db.Migrate(ctx, nil))

	users := repository.NewUserRepository(db, nil)
	cases := repository.NewCaseRepository(db, nil)
	reports := repository.NewReportRepository(db, nil)
	return export.NewService(users, cases, reports, nil), users, cases, reports
}

func TestExportCaseReportsXLSX(t *testing.T) {
	svc, users, cases, reports := newService(t)
	ctx := context.Background()

	user := &entity.User{ID: uuid.NewString(), Name: "张三"}
	require.NoError(t, users.Create(ctx, user))
	cs := &entity.Case{ID: uuid.NewString(), UserID: user.ID, Hospital: "仁济医院", ReportDate: "2024-03-01 09:30:00"}
	require.NoError(t, cases.Create(ctx, cs))
	require.NoError(t, reports.Create(ctx, &entity.Report{
		ID: uuid.NewString(), CaseID: cs.ID,
		ChineseName: "血红蛋白", EnglishName: "HGB",
		Value: "142", Unit: "g/L", Range: "130-175", Notifaction: "↑",
	}))

	data, err := svc.ExportCaseReportsXLSX(ctx, []string{user.ID})
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("CaseReports")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"Report Date", "Hospital", "Patient",
		"Item (CN)", "Item (EN)", "Value", "Unit", "Reference Range", "Flag",
	}, rows[0])
	assert.Equal(t, []string{
		"2024-03-01 09:30:00", "仁济医院", "张三",
		"血红蛋白", "HGB", "142", "g/L", "130-175", "↑",
	}, rows[1])
}

func TestExportCaseReportsXLSX_NoRows(t *testing.T) {
	svc, _, _, _ := newService(t)

	data, err := svc.ExportCaseReportsXLSX(context.Background(), []string{"nobody"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("CaseReports")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
