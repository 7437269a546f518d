package llm

// BuildCaseJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map. It type-checks the candidate shape without requiring any field: the
// provider guarantees nothing beyond JSON-parseability, and an empty object is
// a legitimate answer for an image that is not a lab report.
func BuildCaseJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":     stringProp(),
					"sex":      stringProp(),
					"identity": stringProp(),
					"phone":    stringProp(),
				},
			},
			"case": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"hospital":    stringProp(),
					"report_date": stringProp(),
				},
			},
			"reports": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"chinese_name": stringProp(),
						"english_name": stringProp(),
						"value":        stringProp(),
						"unit":         stringProp(),
						"range":        stringProp(),
						"notifaction":  stringProp(),
					},
				},
			},
		},
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}
