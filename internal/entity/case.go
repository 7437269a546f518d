package entity

// Case represents one hospital report event (a visit). A hospital issues one
// report per date, so (hospital, report_date) identifies the physical document.
type Case struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Hospital   string `json:"hospital"`
	ReportDate string `json:"report_date"` // free-form date or date-time text, no enforced timezone
}
