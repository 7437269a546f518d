package entity

// User represents a patient for data transfer between layers.
// IDs are UUID strings: every column in the store is text-typed and the
// extraction candidate carries no identifiers of its own.
type User struct {
	ID       string `json:"id"`
	Identity string `json:"identity"`
	Name     string `json:"name"`
	Sex      string `json:"sex"`
	Phone    string `json:"phone"`
}

// IsEmpty reports whether the extractor returned no patient section at all,
// which is how non-report images come back from the model.
func (u User) IsEmpty() bool {
	return u.Name == "" && u.Identity == "" && u.Sex == "" && u.Phone == ""
}
