package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rkbisoi/applus-backend-demo/internal/audit"
	"github.com/rkbisoi/applus-backend-demo/internal/common/config"
	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
	"github.com/rkbisoi/applus-backend-demo/internal/storage"
	"github.com/rkbisoi/applus-backend-demo/internal/validation"
)

// ==========================
// Test Helper Functions
// ==========================

type fixedRandom struct {
	f float64
	n int
}

func (r fixedRandom) Float64() float64 { return r.f }
func (r fixedRandom) Intn(n int) int   { return r.n % n }

func noonClock() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{DocumentWait: 1, ValidationWait: 1, IssueWait: 1}
}

// createTestController pins the engine's randomness, sleep and clock so
// every decision is deterministic, and uses millisecond pipeline waits.
func createTestController(t *testing.T) *Controller {
	return createTestControllerWithConfig(t, validation.DefaultConfig())
}

func createTestControllerWithConfig(t *testing.T, engineCfg validation.Config) *Controller {
	store, err := storage.NewJSONStore(t.TempDir(), logger.NewNoOpLogger())
	require.NoError(t, err)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	trail := audit.NewTrail(store, nil, log)
	engine := validation.NewEngine(engineCfg, log).
		WithRandom(fixedRandom{f: 0, n: 100}).
		WithSleep(func(context.Context, time.Duration) {}).
		WithClock(noonClock)

	return NewController(store, trail, engine, nil, nil, testPipelineConfig(), log).
		WithClock(noonClock)
}

func createTestSubmission(auto bool) *Submission {
	return &Submission{
		Name:            "Jane Tan",
		NRIC:            "S1234567A",
		DOB:             "1990-04-12",
		Nationality:     "Singaporean",
		Email:           "jane.tan@example.com",
		CertificateType: "Smart Card",
		PaymentMode:     "Credit Card",
		AutoProcessing:  auto,
	}
}

// submitApplication submits without auto processing and returns the record.
func submitApplication(t *testing.T, c *Controller) *models.Application {
	app, run, err := c.Submit(context.Background(), createTestSubmission(false))
	require.NoError(t, err)
	require.Nil(t, run)
	return app
}

func approvedRequest(applicationID string) *models.ValidationRequest {
	return validation.NewApprovedRequest(applicationID, noonClock(), fixedRandom{n: 100})
}

func declinedRequest(applicationID string) *models.ValidationRequest {
	return &models.ValidationRequest{ApplicationID: applicationID}
}

// validateAndIssue pushes an application through manual validation and
// issuance.
func validateAndIssue(t *testing.T, c *Controller, applicationID string) *models.Certificate {
	_, result, err := c.ValidatePayment(context.Background(), approvedRequest(applicationID), false)
	require.NoError(t, err)
	require.True(t, result.Approved())

	cert, err := c.Issue(context.Background(), applicationID, false)
	require.NoError(t, err)
	return cert
}

// ==========================
// Submission Tests
// ==========================

func TestController_Submit(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)

	assert.Regexp(t, `^APP_\d{8}_\d{6}_\d{4}$`, app.ApplicationID)
	assert.Equal(t, StatusPending, app.Status)
	assert.Equal(t, StepDocumentVerification, app.CurrentStep)
	assert.False(t, app.PaymentValidated)

	require.Len(t, app.History, 2)
	assert.Equal(t, HistorySubmitted, app.History[0].Step)
	assert.Equal(t, HistoryDocumentsReceived, app.History[1].Step)

	report, err := c.AuditTrail(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalEntries)
	assert.Equal(t, audit.ActionApplicationSubmitted, report.Entries[0].Action)
}

func TestController_Submit_RejectsIncompleteSubmission(t *testing.T) {
	c := createTestController(t)

	sub := createTestSubmission(false)
	sub.Email = ""

	_, _, err := c.Submit(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationInputInvalid, errors.CodeOf(err))
}

// ==========================
// Payment Validation Tests
// ==========================

func TestController_ValidatePayment_Approved(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)

	updated, result, err := c.ValidatePayment(context.Background(), approvedRequest(app.ApplicationID), false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, result.OverallStatus)
	assert.Equal(t, StatusPaymentValidated, updated.Status)
	assert.Equal(t, StepCertificateGeneration, updated.CurrentStep)
	assert.True(t, updated.PaymentValidated)
	assert.NotNil(t, updated.PaymentValidationDetails)
	assert.Equal(t, HistoryPaymentValidated, updated.History[len(updated.History)-1].Step)

	records, err := c.store.GetPaymentsByApplicationID(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.PaymentStatusValidated, records[0].Status)
	assert.False(t, records[0].AutoProcessed)
	assert.Empty(t, records[0].Reasons)
}

func TestController_ValidatePayment_Declined(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)

	updated, result, err := c.ValidatePayment(context.Background(), declinedRequest(app.ApplicationID), false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusDeclined, result.OverallStatus)
	assert.Equal(t, StatusPaymentFailed, updated.Status)
	assert.Equal(t, StepPaymentReviewRequired, updated.CurrentStep)
	assert.False(t, updated.PaymentValidated)
	assert.Equal(t, HistoryPaymentValidationFailed, updated.History[len(updated.History)-1].Step)

	records, err := c.store.GetPaymentsByApplicationID(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.PaymentStatusFailed, records[0].Status)
	assert.NotEmpty(t, records[0].Reasons)

	report, err := c.AuditTrail(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	last := report.Entries[len(report.Entries)-1]
	assert.Equal(t, audit.ActionPaymentValidation, last.Action)
	assert.Equal(t, models.AuditStatusFailed, last.Status)
}

func TestController_ValidatePayment_FailedApplicationCanRetry(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)

	_, _, err := c.ValidatePayment(context.Background(), declinedRequest(app.ApplicationID), false)
	require.NoError(t, err)

	updated, result, err := c.ValidatePayment(context.Background(), approvedRequest(app.ApplicationID), false)
	require.NoError(t, err)
	assert.True(t, result.Approved())
	assert.Equal(t, StatusPaymentValidated, updated.Status)
}

func TestController_ValidatePayment_UnknownApplication(t *testing.T) {
	c := createTestController(t)

	_, _, err := c.ValidatePayment(context.Background(), approvedRequest("APP_MISSING"), false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, errors.CodeOf(err))
}

func TestController_ValidatePayment_IssuedApplicationRejected(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)
	validateAndIssue(t, c, app.ApplicationID)

	_, _, err := c.ValidatePayment(context.Background(), approvedRequest(app.ApplicationID), false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidTransition, errors.CodeOf(err))
}

// ==========================
// Issuance Tests
// ==========================

func TestController_Issue(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)

	cert := validateAndIssue(t, c, app.ApplicationID)

	assert.Regexp(t, `^CERT_\d{8}_\d{6}_\d{4}$`, cert.CertificateID)
	assert.Equal(t, app.ApplicationID, cert.ApplicationID)
	assert.Equal(t, models.CertificateStatusValid, cert.Status)
	assert.Equal(t, "Smart Card", cert.DeliveryMedium)
	assert.Equal(t, "2026-01-15", cert.Validity.Start)
	assert.Equal(t, "2027-01-15", cert.Validity.End)
	assert.False(t, cert.Revoked)
	assert.False(t, cert.AutoIssued)

	updated, err := c.GetApplication(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, updated.Status)
	assert.Equal(t, StepCompleted, updated.CurrentStep)
	assert.Equal(t, cert.CertificateID, updated.CertificateID)
	assert.Equal(t, HistoryCertificateIssued, updated.History[len(updated.History)-1].Step)
}

func TestController_Issue_RequiresValidatedPayment(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)

	_, err := c.Issue(context.Background(), app.ApplicationID, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePaymentNotValidated, errors.CodeOf(err))
}

func TestController_Issue_OnlyOnce(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)
	validateAndIssue(t, c, app.ApplicationID)

	_, err := c.Issue(context.Background(), app.ApplicationID, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCertificateAlreadyIssued, errors.CodeOf(err))

	certs, err := c.store.ListCertificates(context.Background())
	require.NoError(t, err)
	assert.Len(t, certs, 1)
}

func TestController_Issue_UnknownApplication(t *testing.T) {
	c := createTestController(t)

	_, err := c.Issue(context.Background(), "APP_MISSING", false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeApplicationNotFound, errors.CodeOf(err))
}

// ==========================
// Revocation Tests
// ==========================

func TestController_Revoke(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)
	cert := validateAndIssue(t, c, app.ApplicationID)

	revoked, err := c.Revoke(context.Background(), cert.CertificateID)
	require.NoError(t, err)
	assert.True(t, revoked.Revoked)
	assert.Equal(t, models.CertificateStatusRevoked, revoked.Status)
	assert.NotEmpty(t, revoked.RevocationDate)

	updated, err := c.GetApplication(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, StatusCertificateRevoked, updated.Status)
}

func TestController_Revoke_Idempotent(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)
	cert := validateAndIssue(t, c, app.ApplicationID)

	first, err := c.Revoke(context.Background(), cert.CertificateID)
	require.NoError(t, err)

	second, err := c.Revoke(context.Background(), cert.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, first.RevocationDate, second.RevocationDate)

	report, err := c.AuditTrail(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	revocations := 0
	for _, entry := range report.Entries {
		if entry.Action == audit.ActionCertificateRevocation {
			revocations++
		}
	}
	assert.Equal(t, 1, revocations)
}

func TestController_Revoke_UnknownCertificate(t *testing.T) {
	c := createTestController(t)

	_, err := c.Revoke(context.Background(), "CERT_MISSING")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCertificateNotFound, errors.CodeOf(err))
}

// ==========================
// Lookup Tests
// ==========================

func TestController_FindCertificate_ByEitherID(t *testing.T) {
	c := createTestController(t)
	app := submitApplication(t, c)
	cert := validateAndIssue(t, c, app.ApplicationID)

	byCertID, err := c.FindCertificate(context.Background(), cert.CertificateID)
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateID, byCertID.CertificateID)

	byAppID, err := c.FindCertificate(context.Background(), app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateID, byAppID.CertificateID)

	_, err = c.FindCertificate(context.Background(), "CERT_MISSING")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCertificateNotFound, errors.CodeOf(err))
}
