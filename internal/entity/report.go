package entity

// Report is one named measurement belonging to a case. Value stays an opaque
// string: units and reference ranges vary too much to type it numerically.
// The "notifaction" spelling is the wire and column contract.
type Report struct {
	ID          string `json:"id"`
	CaseID      string `json:"case_id"`
	ChineseName string `json:"chinese_name"`
	EnglishName string `json:"english_name"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	Range       string `json:"range"`
	Notifaction string `json:"notifaction"`
}

// CaseReport is the flat read-model row returned by the joined case/report
// queries: report fields plus the owning case's user, hospital and date.
type CaseReport struct {
	ReportID    string `json:"report_id"`
	CaseID      string `json:"case_id"`
	UserID      string `json:"user_id"`
	Hospital    string `json:"hospital"`
	ReportDate  string `json:"report_date"`
	ChineseName string `json:"chinese_name"`
	EnglishName string `json:"english_name"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	Range       string `json:"range"`
	Notifaction string `json:"notifaction"`
}
