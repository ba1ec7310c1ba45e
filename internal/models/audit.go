// internal/models/audit.go
package models

// Audit entry status values.
const (
	AuditStatusSuccess = "SUCCESS"
	AuditStatusFailed  = "FAILED"
)

// AuditEntry is one append-only event in an application's audit trail.
type AuditEntry struct {
	LogID         string                 `json:"log_id"`
	ApplicationID string                 `json:"application_id"`
	Action        string                 `json:"action"`
	Status        string                 `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	Details       map[string]interface{} `json:"details,omitempty"`
}

// AuditTrailReport is the queryable view of one application's trail, entries
// sorted ascending by timestamp.
type AuditTrailReport struct {
	ApplicationID string       `json:"application_id"`
	TotalEntries  int          `json:"total_entries"`
	Entries       []AuditEntry `json:"audit_trail"`
	FirstEntry    string       `json:"first_entry,omitempty"`
	LastEntry     string       `json:"last_entry,omitempty"`
}
