// internal/models/payment.go
package models

// Payment record status values.
const (
	PaymentStatusValidated = "Validated"
	PaymentStatusFailed    = "Failed"
)

// PaymentRecord captures one validation outcome for an application, including
// the full engine result for audit and manual review of PENDING decisions.
type PaymentRecord struct {
	ApplicationID    string            `json:"application_id"`
	ValidationResult *ValidationResult `json:"validation_result"`
	ValidationDate   string            `json:"validation_date"`
	Status           string            `json:"status"`
	AutoProcessed    bool              `json:"auto_processed"`

	FunctionalScore  int              `json:"functional_score"`
	PerformanceScore int              `json:"performance_score"`
	SecurityScore    int              `json:"security_score"`
	OverallScore     int              `json:"overall_score"`
	OverallStatus    ValidationStatus `json:"overall_status"`

	Reasons   []string `json:"reason,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}
