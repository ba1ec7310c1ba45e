// internal/lifecycle/state.go
package lifecycle

// Application status values.
const (
	StatusPending            = "Pending"
	StatusPaymentValidated   = "Payment Validated"
	StatusPaymentFailed      = "Payment Failed"
	StatusIssued             = "Issued"
	StatusCertificateRevoked = "Certificate Revoked"
)

// Current step labels shown alongside each status.
const (
	StepDocumentVerification  = "Document Verification"
	StepCertificateGeneration = "Certificate Generation"
	StepPaymentReviewRequired = "Payment Review Required"
	StepCompleted             = "Completed"
)

// History step labels.
const (
	HistorySubmitted         = "Submitted"
	HistoryDocumentsReceived = "Documents Received"

	HistoryPaymentAutoValidated    = "Payment Auto-Validated"
	HistoryPaymentValidated        = "Payment Validated"
	HistoryPaymentValidationFailed = "Payment Validation Failed"

	HistoryCertificateAutoIssued = "Certificate Auto-Issued"
	HistoryCertificateIssued     = "Certificate Issued"
	HistoryCertificateRevoked    = "Certificate Revoked"
)

// transitions maps each status to the statuses it may move to. Payment Failed
// stays re-validatable so a corrected manual validation can recover the
// application.
var transitions = map[string][]string{
	StatusPending:          {StatusPaymentValidated, StatusPaymentFailed},
	StatusPaymentFailed:    {StatusPaymentValidated, StatusPaymentFailed},
	StatusPaymentValidated: {StatusIssued},
	StatusIssued:           {StatusCertificateRevoked},
}

// CanTransition reports whether an application may move between two statuses.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StepFor returns the current step label that accompanies a status.
func StepFor(status string) string {
	switch status {
	case StatusPending:
		return StepDocumentVerification
	case StatusPaymentValidated:
		return StepCertificateGeneration
	case StatusPaymentFailed:
		return StepPaymentReviewRequired
	case StatusIssued, StatusCertificateRevoked:
		return StepCompleted
	default:
		return ""
	}
}
