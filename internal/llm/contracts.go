package llm

import (
	"context"

	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

// CaseExtractor is the interface the ingestion pipeline depends on: one opaque
// call turning raw image bytes into a candidate case record.
//
// The returned Info is a candidate, not a persisted record: ids are empty and
// nothing has been reconciled yet. The raw JSON (post fence-stripping) is
// returned for logging and diagnostics. Any error here is fatal for the whole
// request, unlike the record-level errors accumulated downstream.
type CaseExtractor interface {
	ExtractCase(ctx context.Context, image []byte, mediaType string) (entity.Info, []byte /*rawJSON*/, error)
}
