package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestStore(t *testing.T) *JSONStore {
	store, err := NewJSONStore(t.TempDir(), logger.NewZapAdapter(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store
}

func createTestApplication(id string) *models.Application {
	return &models.Application{
		ApplicationID:   id,
		Status:          "Pending",
		CurrentStep:     "Document Verification",
		Name:            "Jane Tan",
		DOB:             "1990-04-12",
		Nationality:     "Singaporean",
		Email:           "jane.tan@example.com",
		CertificateType: "Digital Identity",
		PaymentMode:     "card",
	}
}

func createTestCertificate(certID, appID string) *models.Certificate {
	return &models.Certificate{
		CertificateID: certID,
		ApplicationID: appID,
		Name:          "Jane Tan",
		Status:        models.CertificateStatusValid,
		Email:         "jane.tan@example.com",
		Nationality:   "Singaporean",
	}
}

// ==========================
// Application Tests
// ==========================

func TestJSONStore_SaveAndGetApplication(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	app := createTestApplication("APP_20260101_000000_0001")
	require.NoError(t, store.SaveApplication(ctx, app))

	got, err := store.GetApplication(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, app.ApplicationID, got.ApplicationID)
	assert.Equal(t, "Pending", got.Status)
	assert.Equal(t, "jane.tan@example.com", got.Email)
}

func TestJSONStore_GetApplication_NotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.GetApplication(context.Background(), "APP_MISSING")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, errors.CodeOf(err))
}

func TestJSONStore_SaveApplication_ReplacesExisting(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	app := createTestApplication("APP_20260101_000000_0001")
	require.NoError(t, store.SaveApplication(ctx, app))

	app.Status = "Issued"
	require.NoError(t, store.SaveApplication(ctx, app))

	apps, err := store.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Issued", apps[0].Status)
}

func TestJSONStore_UpdateApplication(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	app := createTestApplication("APP_20260101_000000_0001")
	require.NoError(t, store.SaveApplication(ctx, app))

	updated, err := store.UpdateApplication(ctx, app.ApplicationID, func(a *models.Application) error {
		a.Status = "Payment Validated"
		a.PaymentValidated = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment Validated", updated.Status)
	assert.True(t, updated.PaymentValidated)

	got, err := store.GetApplication(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "Payment Validated", got.Status)
}

func TestJSONStore_UpdateApplication_ConcurrentHistoryAppends(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	app := createTestApplication("APP_20260101_000000_0001")
	require.NoError(t, store.SaveApplication(ctx, app))

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := store.UpdateApplication(ctx, app.ApplicationID, func(a *models.Application) error {
				a.History = append(a.History, models.HistoryStep{Step: "Documents Received"})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.GetApplication(ctx, app.ApplicationID)
	require.NoError(t, err)
	assert.Len(t, got.History, writers)
}

// ==========================
// Certificate Tests
// ==========================

func TestJSONStore_CertificateLookups(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	cert := createTestCertificate("CERT_20260101_000000_0001", "APP_20260101_000000_0001")
	require.NoError(t, store.SaveCertificate(ctx, cert))

	byID, err := store.GetCertificate(ctx, cert.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, cert.ApplicationID, byID.ApplicationID)

	byApp, err := store.GetCertificateByApplicationID(ctx, cert.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateID, byApp.CertificateID)

	_, err = store.GetCertificate(ctx, "CERT_MISSING")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCertificateNotFound, errors.CodeOf(err))
}

func TestJSONStore_UpdateCertificate(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	cert := createTestCertificate("CERT_20260101_000000_0001", "APP_20260101_000000_0001")
	require.NoError(t, store.SaveCertificate(ctx, cert))

	updated, err := store.UpdateCertificate(ctx, cert.CertificateID, func(c *models.Certificate) error {
		c.Revoked = true
		c.Status = models.CertificateStatusRevoked
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Revoked)
	assert.Equal(t, models.CertificateStatusRevoked, updated.Status)
}

// ==========================
// Payment and Audit Tests
// ==========================

func TestJSONStore_AppendPayment_IsAppendOnly(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendPayment(ctx, &models.PaymentRecord{
			ApplicationID: "APP_X",
			Status:        models.PaymentStatusValidated,
		}))
	}
	require.NoError(t, store.AppendPayment(ctx, &models.PaymentRecord{
		ApplicationID: "APP_Y",
		Status:        models.PaymentStatusFailed,
	}))

	records, err := store.GetPaymentsByApplicationID(ctx, "APP_X")
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestJSONStore_AuditEntries_FilteredByApplication(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendAuditEntry(ctx, &models.AuditEntry{
		LogID: "1", ApplicationID: "APP_A", Action: "APPLICATION_SUBMITTED",
	}))
	require.NoError(t, store.AppendAuditEntry(ctx, &models.AuditEntry{
		LogID: "2", ApplicationID: "APP_B", Action: "APPLICATION_SUBMITTED",
	}))
	require.NoError(t, store.AppendAuditEntry(ctx, &models.AuditEntry{
		LogID: "3", ApplicationID: "APP_A", Action: "PAYMENT_VALIDATION",
	}))

	entries, err := store.GetAuditEntries(ctx, "APP_A")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "APPLICATION_SUBMITTED", entries[0].Action)
	assert.Equal(t, "PAYMENT_VALIDATION", entries[1].Action)
}

// ==========================
// Durability and ID Tests
// ==========================

func TestJSONStore_UnparseableFileReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir, logger.NewNoOpLogger())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, applicationsFile), []byte("{not json"), 0o644))

	apps, err := store.ListApplications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)

	// A save over the corrupt file starts a fresh collection.
	require.NoError(t, store.SaveApplication(context.Background(), createTestApplication("APP_1")))
	apps, err = store.ListApplications(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestJSONStore_GenerateIDs(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	appID, err := store.GenerateApplicationID(ctx)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^APP_\d{8}_\d{6}_0001$`), appID)

	require.NoError(t, store.SaveApplication(ctx, createTestApplication(appID)))

	next, err := store.GenerateApplicationID(ctx)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^APP_\d{8}_\d{6}_0002$`), next)

	certID, err := store.GenerateCertificateID(ctx)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^CERT_\d{8}_\d{6}_0001$`), certID)
}

func TestJSONStore_Statistics(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	issued := createTestApplication("APP_1")
	issued.Status = "Issued"
	require.NoError(t, store.SaveApplication(ctx, issued))
	require.NoError(t, store.SaveApplication(ctx, createTestApplication("APP_2")))

	cert := createTestCertificate("CERT_1", "APP_1")
	require.NoError(t, store.SaveCertificate(ctx, cert))
	revoked := createTestCertificate("CERT_2", "APP_0")
	revoked.Revoked = true
	require.NoError(t, store.SaveCertificate(ctx, revoked))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalApplications)
	assert.Equal(t, 1, stats.ApplicationsByState["Pending"])
	assert.Equal(t, 1, stats.ApplicationsByState["Issued"])
	assert.Equal(t, 2, stats.TotalCertificates)
	assert.Equal(t, 1, stats.RevokedCertificates)
}
