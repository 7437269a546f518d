package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuchen-hong/labcase-tracker/internal/entity"
)

var (
	reFenceOpen  = regexp.MustCompile("^\\s*```(?:json)?\\s*\n?")
	reFenceClose = regexp.MustCompile("\n?\\s*```\\s*$")
)

// StripFences removes a leading ``` or ```json delimiter and a trailing ```
// from a model response. Models wrap JSON in fenced code blocks often enough
// that this has to happen before any parse attempt.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// DecodeCandidate turns stripped model output into a candidate Info. The
// document is schema-checked first (types only, nothing required) so a shape
// the model invented fails here rather than deep in the pipeline. An empty
// object is valid: that is how the model answers for non-report images.
func DecodeCandidate(raw []byte) (entity.Info, error) {
	if err := ValidateJSONAgainstSchema(BuildCaseJSONSchema(), raw); err != nil {
		return entity.Info{}, err
	}
	var info entity.Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return entity.Info{}, fmt.Errorf("decode candidate: %w", err)
	}
	return info, nil
}
