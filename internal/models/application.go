// internal/models/application.go
package models

// Attachment is a submitted supporting document reference.
type Attachment struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	URL      string `json:"url"`
}

// HistoryStep is one entry in an application's ordered step history.
type HistoryStep struct {
	Step      string `json:"step"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details,omitempty"`
}

// Application is a certificate application record. Created on submission and
// mutated only by the lifecycle controller; revocation is a status change,
// never a delete.
type Application struct {
	ApplicationID  string `json:"application_id"`
	Status         string `json:"status"`
	CurrentStep    string `json:"current_step"`
	SubmissionDate string `json:"submission_date"`

	Name         string `json:"name"`
	NRIC         string `json:"nric,omitempty"`
	Passport     string `json:"passport,omitempty"`
	DOB          string `json:"dob"`
	Nationality  string `json:"nationality"`
	Email        string `json:"email"`
	Organisation string `json:"organisation,omitempty"`
	Address      string `json:"address,omitempty"`

	CertificateType string       `json:"certificate_type"`
	PaymentMode     string       `json:"payment_mode"`
	Attachments     []Attachment `json:"attachments,omitempty"`

	AutoProcessing bool          `json:"auto_processing"`
	History        []HistoryStep `json:"history"`

	PaymentValidated         bool              `json:"payment_validated"`
	PaymentDate              string            `json:"payment_date,omitempty"`
	PaymentValidationDetails *ValidationResult `json:"payment_validation_details,omitempty"`

	CertificateID string `json:"certificate_id,omitempty"`
	IssueDate     string `json:"issue_date,omitempty"`
	LastUpdated   string `json:"last_updated,omitempty"`
}
