package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/core"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
	"github.com/yuchen-hong/labcase-tracker/internal/server"
)

type stubProcessor struct {
	result entity.BatchResult
	err    error
	got    []core.ImageInput
}

func (s *stubProcessor) ProcessBatch(_ context.Context, images []core.ImageInput) (entity.BatchResult, error) {
	s.got = images
	return s.result, s.err
}

type stubExporter struct {
	data []byte
	err  error
	got  []string
}

func (s *stubExporter) ExportCaseReportsXLSX(_ context.Context, userIDs []string) ([]byte, error) {
	s.got = userIDs
	return s.data, s.err
}

type harness struct {
	e       *echo.Echo
	db      *repository.DB
	users   repository.UserRepository
	cases   repository.CaseRepository
	reports repository.ReportRepository
}

func newHarness(t *testing.T, processor server.BatchProcessor, exporter server.CaseReportExporter) *harness {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, common.DatabaseConfig{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, db.Migrate(ctx, nil))

	users := repository.NewUserRepository(db, nil)
	cases := repository.NewCaseRepository(db, nil)
	reports := repository.NewReportRepository(db, nil)
	svc := server.NewService(db, processor, users, cases, reports, exporter, nil)
	return &harness{e: svc.NewEcho(), db: db, users: users, cases: cases, reports: reports}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func multipartImages(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, name := range names {
		part, err := w.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestIngestCases(t *testing.T) {
	t.Run("no multipart body is rejected", func(t *testing.T) {
		h := newHarness(t, &stubProcessor{}, &stubExporter{})
		req := httptest.NewRequest(http.MethodPost, "/api/case", nil)
		rec := h.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "No form data provided")
	})

	t.Run("form without image parts is rejected", func(t *testing.T) {
		h := newHarness(t, &stubProcessor{}, &stubExporter{})
		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		require.NoError(t, w.WriteField("note", "hello"))
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/case", body)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		rec := h.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("batch result is returned verbatim", func(t *testing.T) {
		proc := &stubProcessor{result: entity.BatchResult{
			Results: []entity.Info{{
				User: entity.User{ID: "u1", Name: "张三"},
				Case: entity.Case{ID: "c1", UserID: "u1", Hospital: "仁济医院", ReportDate: "2024-03-01"},
			}},
			Errors: []string{"该病例已存在 2024-02-01 华山医院"},
		}}
		h := newHarness(t, proc, &stubExporter{})

		body, contentType := multipartImages(t, "a.jpg", "b.png")
		req := httptest.NewRequest(http.MethodPost, "/api/case", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := h.do(req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, proc.got, 2)
		assert.Equal(t, "a.jpg", proc.got[0].Filename)
		assert.Equal(t, []byte("fake-image-bytes"), proc.got[0].Data)

		var got map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Contains(t, got, "info")
		assert.Contains(t, got, "errorMessages")
		assert.JSONEq(t, `["该病例已存在 2024-02-01 华山医院"]`, string(got["errorMessages"]))
	})

	t.Run("extractor failure aborts with 400", func(t *testing.T) {
		proc := &stubProcessor{err: errors.New("invalid extraction candidate: not json")}
		h := newHarness(t, proc, &stubExporter{})

		body, contentType := multipartImages(t, "a.jpg")
		req := httptest.NewRequest(http.MethodPost, "/api/case", body)
		req.Header.Set(echo.HeaderContentType, contentType)
		rec := h.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid extraction candidate")
	})
}

func TestListCaseReports(t *testing.T) {
	t.Run("missing userIds", func(t *testing.T) {
		h := newHarness(t, &stubProcessor{}, &stubExporter{})
		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/case", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "请选择用户")
	})

	t.Run("joined rows for the selected users", func(t *testing.T) {
		h := newHarness(t, &stubProcessor{}, &stubExporter{})
		ctx := context.Background()

		user := &entity.User{ID: uuid.NewString(), Name: "张三"}
		require.NoError(t, h.users.Create(ctx, user))
		cs := &entity.Case{ID: uuid.NewString(), UserID: user.ID, Hospital: "仁济医院", ReportDate: "2024-03-01"}
		require.NoError(t, h.cases.Create(ctx, cs))
		require.NoError(t, h.reports.Create(ctx, &entity.Report{
			ID: uuid.NewString(), CaseID: cs.ID,
			ChineseName: "血红蛋白", EnglishName: "HGB", Value: "142", Unit: "g/L", Range: "130-175",
		}))

		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/case?userIds="+user.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var rows []entity.CaseReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, cs.ID, rows[0].CaseID)
		assert.Equal(t, "仁济医院", rows[0].Hospital)
		assert.Equal(t, "HGB", rows[0].EnglishName)
	})

	t.Run("unknown user yields empty list", func(t *testing.T) {
		h := newHarness(t, &stubProcessor{}, &stubExporter{})
		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/case?userIds=nobody", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestUpdateCase(t *testing.T) {
	h := newHarness(t, &stubProcessor{}, &stubExporter{})
	ctx := context.Background()
	cs := &entity.Case{ID: uuid.NewString(), UserID: "u1", Hospital: "仁济医院", ReportDate: "2024-03-01"}
	require.NoError(t, h.cases.Create(ctx, cs))

	t.Run("missing case_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/case", strings.NewReader(`{"hospital":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := h.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("overwrites the row", func(t *testing.T) {
		payload := `{"case_id":"` + cs.ID + `","user_id":"u1","hospital":"华山医院","report_date":"2024-04-02"}`
		req := httptest.NewRequest(http.MethodPatch, "/api/case", strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := h.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", rec.Body.String())

		got, err := h.cases.FindByHospitalDate(ctx, "华山医院", "2024-04-02")
		require.NoError(t, err)
		assert.Equal(t, cs.ID, got.ID)
	})
}

func TestUpdateReport(t *testing.T) {
	h := newHarness(t, &stubProcessor{}, &stubExporter{})
	ctx := context.Background()
	cs := &entity.Case{ID: uuid.NewString(), UserID: "u1", Hospital: "仁济医院", ReportDate: "2024-03-01"}
	require.NoError(t, h.cases.Create(ctx, cs))
	rep := &entity.Report{ID: uuid.NewString(), CaseID: cs.ID, ChineseName: "血红蛋白", EnglishName: "HGB", Value: "142"}
	require.NoError(t, h.reports.Create(ctx, rep))

	t.Run("missing report_id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/report", strings.NewReader(`{"value":"150"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := h.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("updates the sent fields", func(t *testing.T) {
		payload := `{"report_id":"` + rep.ID + `","value":"150","notifaction":"↑"}`
		req := httptest.NewRequest(http.MethodPatch, "/api/report", strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := h.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "success", rec.Body.String())

		rows, err := h.reports.ListByCaseIDs(ctx, []string{cs.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "150", rows[0].Value)
		assert.Equal(t, "↑", rows[0].Notifaction)
		assert.Equal(t, "HGB", rows[0].EnglishName) // untouched field survives
	})
}

func TestUsers(t *testing.T) {
	h := newHarness(t, &stubProcessor{}, &stubExporter{})
	ctx := context.Background()
	user := &entity.User{ID: uuid.NewString(), Name: "张三", Sex: "男"}
	require.NoError(t, h.users.Create(ctx, user))

	t.Run("list", func(t *testing.T) {
		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/users", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var users []entity.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		require.Len(t, users, 1)
		assert.Equal(t, "张三", users[0].Name)
	})

	t.Run("update requires id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/users", strings.NewReader(`{"name":"李四"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := h.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update overwrites", func(t *testing.T) {
		payload := `{"id":"` + user.ID + `","name":"李四","sex":"男","phone":"139"}`
		req := httptest.NewRequest(http.MethodPatch, "/api/users", strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := h.do(req)
		require.Equal(t, http.StatusOK, rec.Code)

		got, err := h.users.GetByName(ctx, "李四")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "139", got.Phone)
	})
}

func TestExportCaseReports(t *testing.T) {
	t.Run("missing userIds", func(t *testing.T) {
		h := newHarness(t, &stubProcessor{}, &stubExporter{})
		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/export", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("streams the workbook", func(t *testing.T) {
		exp := &stubExporter{data: []byte("xlsx-bytes")}
		h := newHarness(t, &stubProcessor{}, exp)
		rec := h.do(httptest.NewRequest(http.MethodGet, "/api/export?userIds=u1,u2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"u1", "u2"}, exp.got)
		assert.Equal(t, "xlsx-bytes", rec.Body.String())
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "case_reports.xlsx")
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			rec.Header().Get(echo.HeaderContentType))
	})
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, &stubProcessor{}, &stubExporter{})
	rec := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
