package models

// MessageResponse is the success body for both operations.
type MessageResponse struct {
	Message string `json:"message"`
}

// EnrolResult confirms a stored enrolment.
type EnrolResult struct {
	User       string
	Challenges int
	Message    string
}

// AuthenticateResult confirms a successful authentication.
type AuthenticateResult struct {
	User    string
	Checked int
	Message string
}
