// internal/lifecycle/controller.go
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/audit"
	"github.com/rkbisoi/applus-backend-demo/internal/common/config"
	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/common/metrics"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
	"github.com/rkbisoi/applus-backend-demo/internal/notify"
	"github.com/rkbisoi/applus-backend-demo/internal/schema"
	"github.com/rkbisoi/applus-backend-demo/internal/storage"
	"github.com/rkbisoi/applus-backend-demo/internal/validation"
)

const certificateValidityDays = 365

// Submission is an incoming certificate application.
type Submission struct {
	Name            string              `json:"name"`
	NRIC            string              `json:"nric,omitempty"`
	Passport        string              `json:"passport,omitempty"`
	DOB             string              `json:"dob"`
	Nationality     string              `json:"nationality"`
	Email           string              `json:"email"`
	Organisation    string              `json:"organisation,omitempty"`
	Address         string              `json:"address,omitempty"`
	CertificateType string              `json:"certificate_type"`
	PaymentMode     string              `json:"payment_mode"`
	Attachments     []models.Attachment `json:"attachments,omitempty"`
	AutoProcessing  bool                `json:"auto_processing"`
}

// Controller owns every application state change: submission, payment
// validation, issuance and revocation. The automatic pipeline drives the
// same operations through the driver in driver.go.
type Controller struct {
	store    storage.Store
	trail    *audit.Trail
	engine   *validation.Engine
	cache    *storage.CertificateCache
	notifier *notify.Notifier
	logger   logger.Logger

	pipeline config.PipelineConfig
	now      func() time.Time

	wg sync.WaitGroup
}

// NewController wires the lifecycle over its collaborators. Cache and
// notifier may be nil.
func NewController(
	store storage.Store,
	trail *audit.Trail,
	engine *validation.Engine,
	cache *storage.CertificateCache,
	notifier *notify.Notifier,
	pipeline config.PipelineConfig,
	log logger.Logger,
) *Controller {
	return &Controller{
		store:    store,
		trail:    trail,
		engine:   engine,
		cache:    cache,
		notifier: notifier,
		logger:   log,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Submit validates and stores a new application. When the submission asks
// for auto processing, the background driver is started and its Run handle
// returned; otherwise Run is nil.
func (c *Controller) Submit(ctx context.Context, sub *Submission) (*models.Application, *Run, error) {
	if err := schema.ValidateSubmission(submissionDocument(sub)); err != nil {
		return nil, nil, err
	}

	applicationID, err := c.store.GenerateApplicationID(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := c.now()
	app := &models.Application{
		ApplicationID:   applicationID,
		Status:          StatusPending,
		CurrentStep:     StepDocumentVerification,
		SubmissionDate:  now.Format(time.RFC3339),
		Name:            sub.Name,
		NRIC:            sub.NRIC,
		Passport:        sub.Passport,
		DOB:             sub.DOB,
		Nationality:     sub.Nationality,
		Email:           sub.Email,
		Organisation:    sub.Organisation,
		Address:         sub.Address,
		CertificateType: sub.CertificateType,
		PaymentMode:     sub.PaymentMode,
		Attachments:     sub.Attachments,
		AutoProcessing:  sub.AutoProcessing,
		History: []models.HistoryStep{
			{Step: HistorySubmitted, Timestamp: now.Format(time.RFC3339)},
			{Step: HistoryDocumentsReceived, Timestamp: now.Add(time.Minute).Format(time.RFC3339)},
		},
		LastUpdated: now.Format(time.RFC3339),
	}

	if err := c.store.SaveApplication(ctx, app); err != nil {
		return nil, nil, err
	}

	c.trail.Record(ctx, applicationID, audit.ActionApplicationSubmitted, map[string]interface{}{
		"certificate_type": sub.CertificateType,
		"payment_mode":     sub.PaymentMode,
		"auto_processing":  sub.AutoProcessing,
	})

	c.logger.Info("Application submitted", map[string]interface{}{
		"application_id":   applicationID,
		"certificate_type": sub.CertificateType,
		"auto_processing":  sub.AutoProcessing,
	})

	var run *Run
	if sub.AutoProcessing {
		run = c.startAutoPipeline(applicationID)
	}
	return app, run, nil
}

// GetApplication returns the stored application.
func (c *Controller) GetApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	return c.store.GetApplication(ctx, applicationID)
}

// ValidatePayment scores the request and applies the outcome to the
// application. The result is returned even when the decision blocks the
// lifecycle from advancing.
func (c *Controller) ValidatePayment(ctx context.Context, req *models.ValidationRequest, auto bool) (*models.Application, *models.ValidationResult, error) {
	if _, err := c.store.GetApplication(ctx, req.ApplicationID); err != nil {
		return nil, nil, err
	}

	result, err := c.engine.Evaluate(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	app, err := c.ApplyValidation(ctx, req.ApplicationID, result, auto)
	if err != nil {
		return nil, nil, err
	}
	return app, result, nil
}

// ApplyValidation records the payment outcome and moves the application to
// Payment Validated or Payment Failed.
func (c *Controller) ApplyValidation(ctx context.Context, applicationID string, result *models.ValidationResult, auto bool) (*models.Application, error) {
	now := c.now()

	target := StatusPaymentFailed
	paymentStatus := models.PaymentStatusFailed
	if result.Approved() {
		target = StatusPaymentValidated
		paymentStatus = models.PaymentStatusValidated
	}

	record := &models.PaymentRecord{
		ApplicationID:    applicationID,
		ValidationResult: result,
		ValidationDate:   now.Format(time.RFC3339),
		Status:           paymentStatus,
		AutoProcessed:    auto,
		FunctionalScore:  result.FunctionalScore,
		PerformanceScore: result.PerformanceScore,
		SecurityScore:    result.SecurityScore,
		OverallScore:     result.OverallScore,
		OverallStatus:    result.OverallStatus,
		CreatedAt:        now.Format(time.RFC3339),
	}
	if !result.Approved() {
		record.Reasons = result.FailureReasons
	}

	app, err := c.store.UpdateApplication(ctx, applicationID, func(a *models.Application) error {
		if !CanTransition(a.Status, target) {
			return errors.NewInvalidTransitionError(a.Status, target)
		}
		a.Status = target
		a.CurrentStep = StepFor(target)
		a.PaymentValidated = result.Approved()
		a.PaymentDate = now.Format(time.RFC3339)
		a.PaymentValidationDetails = result
		a.LastUpdated = now.Format(time.RFC3339)
		a.History = append(a.History, paymentHistoryStep(result, auto, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.store.AppendPayment(ctx, record); err != nil {
		return nil, err
	}

	details := map[string]interface{}{
		"overall_score":  result.OverallScore,
		"overall_status": string(result.OverallStatus),
		"auto_processed": auto,
	}
	if result.Approved() {
		c.trail.Record(ctx, applicationID, audit.ActionPaymentValidation, details)
	} else {
		details["failure_reasons"] = result.FailureReasons
		c.trail.RecordFailure(ctx, applicationID, audit.ActionPaymentValidation, details)
	}

	return app, nil
}

// Issue creates the certificate for a payment-validated application. Each
// application yields at most one certificate.
func (c *Controller) Issue(ctx context.Context, applicationID string, auto bool) (*models.Certificate, error) {
	app, err := c.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.CertificateID != "" {
		return nil, errors.NewCertificateAlreadyIssuedError(applicationID, app.CertificateID)
	}
	if !app.PaymentValidated {
		return nil, errors.NewPaymentNotValidatedError(applicationID)
	}

	certificateID, err := c.store.GenerateCertificateID(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	cert := &models.Certificate{
		CertificateID: certificateID,
		ApplicationID: applicationID,
		Name:          app.Name,
		Status:        models.CertificateStatusValid,
		IssueDate:     now.Format(time.RFC3339),
		Validity: models.Validity{
			Start: now.Format("2006-01-02"),
			End:   now.AddDate(0, 0, certificateValidityDays).Format("2006-01-02"),
		},
		DeliveryMedium: app.CertificateType,
		NRIC:           app.NRIC,
		Passport:       app.Passport,
		Email:          app.Email,
		Organisation:   app.Organisation,
		Nationality:    app.Nationality,
		AutoIssued:     auto,
		LastUpdated:    now.Format(time.RFC3339),
	}

	if err := c.store.SaveCertificate(ctx, cert); err != nil {
		return nil, err
	}

	historyStep := HistoryCertificateIssued
	if auto {
		historyStep = HistoryCertificateAutoIssued
	}
	updated, err := c.store.UpdateApplication(ctx, applicationID, func(a *models.Application) error {
		if !CanTransition(a.Status, StatusIssued) {
			return errors.NewInvalidTransitionError(a.Status, StatusIssued)
		}
		a.Status = StatusIssued
		a.CurrentStep = StepCompleted
		a.CertificateID = certificateID
		a.IssueDate = now.Format(time.RFC3339)
		a.LastUpdated = now.Format(time.RFC3339)
		a.History = append(a.History, models.HistoryStep{
			Step:      historyStep,
			Timestamp: now.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.cache.Put(ctx, cert)
	metrics.CertificatesIssued.Inc()

	c.trail.Record(ctx, applicationID, audit.ActionCertificateIssuance, map[string]interface{}{
		"certificate_id": certificateID,
		"auto_issued":    auto,
		"valid_until":    cert.Validity.End,
	})

	c.notifier.CertificateIssued(ctx, updated, cert)

	c.logger.Info("Certificate issued", map[string]interface{}{
		"application_id": applicationID,
		"certificate_id": certificateID,
		"auto_issued":    auto,
	})

	return cert, nil
}

// Revoke marks a certificate revoked. Revocation is one-way and idempotent:
// revoking an already revoked certificate returns it unchanged.
func (c *Controller) Revoke(ctx context.Context, certificateID string) (*models.Certificate, error) {
	now := c.now()

	alreadyRevoked := false
	cert, err := c.store.UpdateCertificate(ctx, certificateID, func(cr *models.Certificate) error {
		if cr.Revoked {
			alreadyRevoked = true
			return nil
		}
		cr.Status = models.CertificateStatusRevoked
		cr.Revoked = true
		cr.RevocationDate = now.Format(time.RFC3339)
		cr.LastUpdated = now.Format(time.RFC3339)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyRevoked {
		return cert, nil
	}

	_, err = c.store.UpdateApplication(ctx, cert.ApplicationID, func(a *models.Application) error {
		a.Status = StatusCertificateRevoked
		a.LastUpdated = now.Format(time.RFC3339)
		a.History = append(a.History, models.HistoryStep{
			Step:      HistoryCertificateRevoked,
			Timestamp: now.Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		c.logger.Warn("Certificate revoked but application update failed", map[string]interface{}{
			"certificate_id": certificateID,
			"application_id": cert.ApplicationID,
			"error":          err.Error(),
		})
	}

	c.cache.Invalidate(ctx, cert)
	metrics.CertificatesRevoked.Inc()

	c.trail.Record(ctx, cert.ApplicationID, audit.ActionCertificateRevocation, map[string]interface{}{
		"certificate_id":  certificateID,
		"revocation_date": cert.RevocationDate,
	})

	c.notifier.CertificateRevoked(ctx, cert)

	return cert, nil
}

// FindCertificate resolves a certificate by its own ID or its application
// ID, consulting the cache first.
func (c *Controller) FindCertificate(ctx context.Context, identifier string) (*models.Certificate, error) {
	if cert := c.cache.Get(ctx, identifier); cert != nil {
		return cert, nil
	}
	if cert := c.cache.GetByApplication(ctx, identifier); cert != nil {
		return cert, nil
	}

	cert, err := c.store.GetCertificate(ctx, identifier)
	if err != nil {
		cert, err = c.store.GetCertificateByApplicationID(ctx, identifier)
	}
	if err != nil {
		return nil, errors.NewCertificateNotFoundError(identifier)
	}

	c.cache.Put(ctx, cert)
	return cert, nil
}

// AuditTrail returns the application's audit report.
func (c *Controller) AuditTrail(ctx context.Context, applicationID string) (*models.AuditTrailReport, error) {
	return c.trail.Query(ctx, applicationID)
}

// Shutdown waits for in-flight automatic pipelines, up to the context
// deadline.
func (c *Controller) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func paymentHistoryStep(result *models.ValidationResult, auto bool, now time.Time) models.HistoryStep {
	if result.Approved() {
		step := HistoryPaymentValidated
		if auto {
			step = HistoryPaymentAutoValidated
		}
		return models.HistoryStep{
			Step:      step,
			Timestamp: now.Format(time.RFC3339),
			Details:   fmt.Sprintf("Score: %d/100", result.OverallScore),
		}
	}
	return models.HistoryStep{
		Step:      HistoryPaymentValidationFailed,
		Timestamp: now.Format(time.RFC3339),
		Details: fmt.Sprintf("Score: %d/100, Reason: %s",
			result.OverallScore, strings.Join(result.FailureReasons, ", ")),
	}
}

func submissionDocument(sub *Submission) map[string]interface{} {
	doc := map[string]interface{}{
		"auto_processing": sub.AutoProcessing,
	}
	fields := map[string]string{
		"name":             sub.Name,
		"nric":             sub.NRIC,
		"passport":         sub.Passport,
		"dob":              sub.DOB,
		"nationality":      sub.Nationality,
		"email":            sub.Email,
		"organisation":     sub.Organisation,
		"address":          sub.Address,
		"certificate_type": sub.CertificateType,
		"payment_mode":     sub.PaymentMode,
	}
	for key, value := range fields {
		if value != "" {
			doc[key] = value
		}
	}
	return doc
}
