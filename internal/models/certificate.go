// internal/models/certificate.go
package models

// Certificate status values. Revocation is one-way.
const (
	CertificateStatusValid   = "Valid"
	CertificateStatusRevoked = "Revoked"
)

// Validity is the certificate validity window.
type Validity struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Certificate is the credential record created exactly once per application at
// issuance. Issuance here is simulated decision logic, not a PKI operation.
type Certificate struct {
	CertificateID  string   `json:"certificate_id"`
	ApplicationID  string   `json:"application_id"`
	Name           string   `json:"name"`
	Status         string   `json:"status"`
	IssueDate      string   `json:"issue_date"`
	Validity       Validity `json:"validity"`
	DeliveryMedium string   `json:"delivery_medium"`
	Revoked        bool     `json:"revoked"`
	RevocationDate string   `json:"revocation_date,omitempty"`

	NRIC         string `json:"nric,omitempty"`
	Passport     string `json:"passport,omitempty"`
	Email        string `json:"email"`
	Organisation string `json:"organisation,omitempty"`
	Nationality  string `json:"nationality"`

	AutoIssued  bool   `json:"auto_issued"`
	LastUpdated string `json:"last_updated,omitempty"`
}
