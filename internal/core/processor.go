package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yuchen-hong/labcase-tracker/internal/common"
	"github.com/yuchen-hong/labcase-tracker/internal/entity"
	"github.com/yuchen-hong/labcase-tracker/internal/llm"
	"github.com/yuchen-hong/labcase-tracker/internal/repository"
)

// ImageInput is one uploaded image, in batch order.
type ImageInput struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Processor drives one ingestion run: extract a candidate per image, resolve
// the patient, deduplicate the case, persist the report rows.
//
// Two failure classes with different propagation. An extractor failure aborts
// the whole batch and no partial output is returned. Everything downstream of
// extraction is record-level: the message is appended to the batch's error
// list and processing continues with the next image (or next report row).
type Processor struct {
	logger    *slog.Logger
	extractor llm.CaseExtractor
	users     repository.UserRepository
	cases     repository.CaseRepository
	reports   repository.ReportRepository
}

func NewProcessor(
	logger *slog.Logger,
	extractor llm.CaseExtractor,
	users repository.UserRepository,
	cases repository.CaseRepository,
	reports repository.ReportRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		users:     users,
		cases:     cases,
		reports:   reports,
	}
}

// ProcessBatch processes the images strictly in order, one at a time: each
// step mutates shared state (patient and case existence) that the next
// image's checks depend on. The find-or-create sequences are check-then-act
// without locking; two concurrent requests can race duplicate rows in, an
// accepted limitation documented on the schema.
func (p *Processor) ProcessBatch(ctx context.Context, images []ImageInput) (entity.BatchResult, error) {
	result := entity.BatchResult{
		Results: make([]entity.Info, 0, len(images)),
		Errors:  make([]string, 0),
	}

	for _, img := range images {
		candidate, _, err := p.extractor.ExtractCase(ctx, img.Data, img.MediaType)
		if err != nil {
			// Request-fatal: a malformed model response aborts the whole
			// batch, discarding any records already accumulated.
			p.logger.Error("processor.extract.failed", "filename", img.Filename, "error", err)
			return entity.BatchResult{}, err
		}

		if candidate.User.IsEmpty() {
			// Not an error: the model returns an empty shape for images that
			// are not lab reports.
			p.logger.Info("processor.extract.no_patient", "filename", img.Filename)
			continue
		}

		user, err := p.resolveUser(ctx, candidate.User)
		if err != nil {
			result.Errors = append(result.Errors, identityErrorMessage(err))
			p.logger.Warn("processor.identity.failed", "filename", img.Filename, "error", err)
			continue
		}

		caseRow, err := p.dedupCase(ctx, user.ID, candidate.Case)
		if err != nil {
			result.Errors = append(result.Errors, caseErrorMessage(err, candidate.Case))
			p.logger.Warn("processor.case.rejected",
				"filename", img.Filename,
				"hospital", candidate.Case.Hospital,
				"report_date", candidate.Case.ReportDate,
				"error", err,
			)
			continue
		}

		reports := p.ingestReports(ctx, caseRow.ID, candidate.Reports, &result.Errors)

		result.Results = append(result.Results, entity.Info{
			User:    *user,
			Case:    *caseRow,
			Reports: reports,
		})
		p.logger.Info("processor.image.ok",
			"filename", img.Filename,
			"user_id", user.ID,
			"case_id", caseRow.ID,
			"reports", len(reports),
		)
	}

	return result, nil
}

// resolveUser maps a candidate patient onto a stable identity. An exact name
// match wins outright: the candidate's other fields are discarded, never
// merged. A miss with a name creates the patient; a miss without a name is
// ErrMissingIdentity.
func (p *Processor) resolveUser(ctx context.Context, candidate entity.User) (*entity.User, error) {
	existing, err := p.users.GetByName(ctx, candidate.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if candidate.Name == "" {
		return nil, common.ErrMissingIdentity
	}

	user := &entity.User{
		ID:       uuid.NewString(),
		Identity: candidate.Identity,
		Name:     candidate.Name,
		Sex:      candidate.Sex,
		Phone:    candidate.Phone,
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// dedupCase rejects a (hospital, report_date) pair that already exists and
// otherwise creates the case under the resolved patient. The lookup key
// deliberately excludes the patient: it guards against re-uploading the same
// physical document, since a hospital issues one report per date.
func (p *Processor) dedupCase(ctx context.Context, userID string, candidate entity.Case) (*entity.Case, error) {
	existing, err := p.cases.FindByHospitalDate(ctx, candidate.Hospital, candidate.ReportDate)
	if err == nil {
		return nil, fmt.Errorf("%w: %s %s", common.ErrDuplicateCase, existing.ReportDate, existing.Hospital)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("lookup case: %w", err)
	}

	c := &entity.Case{
		ID:         uuid.NewString(),
		UserID:     userID,
		Hospital:   candidate.Hospital,
		ReportDate: candidate.ReportDate,
	}
	if err := p.cases.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return c, nil
}

// ingestReports persists each measurement under the case. Failure isolation
// is per row: an insert error is recorded against the case id and the
// remaining rows still go in.
func (p *Processor) ingestReports(ctx context.Context, caseID string, candidates []entity.Report, errs *[]string) []entity.Report {
	reports := make([]entity.Report, 0, len(candidates))
	for _, cand := range candidates {
		rep := entity.Report{
			ID:          uuid.NewString(),
			CaseID:      caseID,
			ChineseName: cand.ChineseName,
			EnglishName: cand.EnglishName,
			Value:       cand.Value,
			Unit:        cand.Unit,
			Range:       cand.Range,
			Notifaction: cand.Notifaction,
		}
		if err := p.reports.Create(ctx, &rep); err != nil {
			*errs = append(*errs, fmt.Sprintf("failed to insert report for case %s", caseID))
			p.logger.Error("processor.report.insert_failed", "case_id", caseID, "error", err)
			continue
		}
		reports = append(reports, rep)
	}
	return reports
}

func identityErrorMessage(err error) string {
	if errors.Is(err, common.ErrMissingIdentity) {
		return "未识别患者名称"
	}
	return fmt.Sprintf("database error during user resolution: %v", err)
}

func caseErrorMessage(err error, candidate entity.Case) string {
	if errors.Is(err, common.ErrDuplicateCase) {
		return fmt.Sprintf("该病例已存在 %s %s", candidate.ReportDate, candidate.Hospital)
	}
	return fmt.Sprintf("database error during case creation: %v", err)
}
