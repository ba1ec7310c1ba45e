// internal/audit/trail.go
package audit

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
	"github.com/rkbisoi/applus-backend-demo/internal/storage"
)

// Audit trail action names.
const (
	ActionApplicationSubmitted  = "APPLICATION_SUBMITTED"
	ActionPaymentValidation     = "PAYMENT_VALIDATION"
	ActionCertificateIssuance   = "CERTIFICATE_ISSUANCE"
	ActionCertificateRevocation = "CERTIFICATE_REVOCATION"
	ActionAutoProcessing        = "AUTO_PROCESSING"
)

// Trail is the append-only audit log for application events. Recording never
// fails the caller's operation: persistence errors are logged and dropped.
type Trail struct {
	store   storage.Store
	indexer *Indexer
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

// NewTrail builds a trail over the store. The indexer may be nil when no
// search backend is configured.
func NewTrail(store storage.Store, indexer *Indexer, log logger.Logger) *Trail {
	return &Trail{
		store:   store,
		indexer: indexer,
		logger:  log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Record appends a SUCCESS entry for the action.
func (t *Trail) Record(ctx context.Context, applicationID, action string, details map[string]interface{}) {
	t.append(ctx, applicationID, action, models.AuditStatusSuccess, details)
}

// RecordFailure appends a FAILED entry for the action.
func (t *Trail) RecordFailure(ctx context.Context, applicationID, action string, details map[string]interface{}) {
	t.append(ctx, applicationID, action, models.AuditStatusFailed, details)
}

func (t *Trail) append(ctx context.Context, applicationID, action, status string, details map[string]interface{}) {
	entry := &models.AuditEntry{
		LogID:         t.newID(),
		ApplicationID: applicationID,
		Action:        action,
		Status:        status,
		Timestamp:     t.now().UTC().Format(time.RFC3339Nano),
		Details:       details,
	}

	if err := t.store.AppendAuditEntry(ctx, entry); err != nil {
		t.logger.Error("Failed to persist audit entry", map[string]interface{}{
			"application_id": applicationID,
			"action":         action,
			"error":          err.Error(),
		})
		return
	}

	t.indexer.Index(ctx, entry)
}

// Query returns the application's full trail sorted ascending by timestamp.
// An application with no entries yields an empty report, not an error.
func (t *Trail) Query(ctx context.Context, applicationID string) (*models.AuditTrailReport, error) {
	entries, err := t.store.GetAuditEntries(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339Nano, entries[i].Timestamp)
		tj, errj := time.Parse(time.RFC3339Nano, entries[j].Timestamp)
		if erri != nil || errj != nil {
			return entries[i].Timestamp < entries[j].Timestamp
		}
		return ti.Before(tj)
	})

	report := &models.AuditTrailReport{
		ApplicationID: applicationID,
		TotalEntries:  len(entries),
		Entries:       entries,
	}
	if len(entries) > 0 {
		report.FirstEntry = entries[0].Timestamp
		report.LastEntry = entries[len(entries)-1].Timestamp
	}
	return report, nil
}
