package entity

// Info is the composed record for one successfully reconciled image.
type Info struct {
	User    User     `json:"user"`
	Case    Case     `json:"case"`
	Reports []Report `json:"reports"`
}

// BatchResult aggregates one ingestion run. Record-level failures land in
// Errors while processing continues; the response is 200-shaped even when
// every image failed, so callers must inspect Errors, not status codes.
type BatchResult struct {
	Results []Info   `json:"info"`
	Errors  []string `json:"errorMessages"`
}
