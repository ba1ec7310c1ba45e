// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/common/database"
	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// PostgresStore persists each record as a JSONB document keyed by its domain
// ID. Update* methods take a row lock so concurrent mutations serialize at
// the database.
type PostgresStore struct {
	client *database.PostgresClient
	logger logger.Logger
	now    func() time.Time
}

// NewPostgresStore wraps an existing client. Call Migrate before first use.
func NewPostgresStore(client *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		client: client,
		logger: log,
		now:    time.Now,
	}
}

// Migrate creates the document tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS applications (
			id BIGSERIAL PRIMARY KEY,
			application_id TEXT UNIQUE NOT NULL,
			doc JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS certificates (
			id BIGSERIAL PRIMARY KEY,
			certificate_id TEXT UNIQUE NOT NULL,
			application_id TEXT NOT NULL,
			doc JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payment_records (
			id BIGSERIAL PRIMARY KEY,
			application_id TEXT NOT NULL,
			doc JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id BIGSERIAL PRIMARY KEY,
			application_id TEXT NOT NULL,
			doc JSONB NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.client.Exec(ctx, stmt); err != nil {
			return errors.NewStoreUnavailableError("migrate schema", err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveApplication(ctx context.Context, app *models.Application) error {
	doc, err := json.Marshal(app)
	if err != nil {
		return errors.NewStoreUnavailableError("encode application", err)
	}
	_, err = s.client.Exec(ctx,
		`INSERT INTO applications (application_id, doc) VALUES ($1, $2)
		 ON CONFLICT (application_id) DO UPDATE SET doc = EXCLUDED.doc`,
		app.ApplicationID, doc)
	if err != nil {
		return errors.NewStoreUnavailableError("save application", err)
	}
	return nil
}

func (s *PostgresStore) GetApplication(ctx context.Context, applicationID string) (*models.Application, error) {
	row := s.client.QueryRow(ctx,
		`SELECT doc FROM applications WHERE application_id = $1`, applicationID)

	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewApplicationNotFoundError(applicationID)
		}
		return nil, errors.NewStoreUnavailableError("get application", err)
	}
	var app models.Application
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, errors.NewStoreUnavailableError("decode application", err)
	}
	return &app, nil
}

func (s *PostgresStore) ListApplications(ctx context.Context) ([]models.Application, error) {
	rows, err := s.client.Query(ctx, `SELECT doc FROM applications ORDER BY id`)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list applications", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.NewStoreUnavailableError("scan application", err)
		}
		var app models.Application
		if err := json.Unmarshal(doc, &app); err != nil {
			return nil, errors.NewStoreUnavailableError("decode application", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("list applications", err)
	}
	return apps, nil
}

func (s *PostgresStore) UpdateApplication(ctx context.Context, applicationID string, mutate func(*models.Application) error) (*models.Application, error) {
	tx, err := s.client.BeginTx(ctx)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("begin update", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM applications WHERE application_id = $1 FOR UPDATE`,
		applicationID).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewApplicationNotFoundError(applicationID)
		}
		return nil, errors.NewStoreUnavailableError("lock application", err)
	}

	var app models.Application
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, errors.NewStoreUnavailableError("decode application", err)
	}
	if err := mutate(&app); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(&app)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("encode application", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE applications SET doc = $2 WHERE application_id = $1`,
		applicationID, updated); err != nil {
		return nil, errors.NewStoreUnavailableError("update application", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreUnavailableError("commit update", err)
	}
	return &app, nil
}

func (s *PostgresStore) SaveCertificate(ctx context.Context, cert *models.Certificate) error {
	doc, err := json.Marshal(cert)
	if err != nil {
		return errors.NewStoreUnavailableError("encode certificate", err)
	}
	_, err = s.client.Exec(ctx,
		`INSERT INTO certificates (certificate_id, application_id, doc) VALUES ($1, $2, $3)
		 ON CONFLICT (certificate_id) DO UPDATE SET doc = EXCLUDED.doc`,
		cert.CertificateID, cert.ApplicationID, doc)
	if err != nil {
		return errors.NewStoreUnavailableError("save certificate", err)
	}
	return nil
}

func (s *PostgresStore) GetCertificate(ctx context.Context, certificateID string) (*models.Certificate, error) {
	return s.getCertificateBy(ctx,
		`SELECT doc FROM certificates WHERE certificate_id = $1`, certificateID)
}

func (s *PostgresStore) GetCertificateByApplicationID(ctx context.Context, applicationID string) (*models.Certificate, error) {
	return s.getCertificateBy(ctx,
		`SELECT doc FROM certificates WHERE application_id = $1 ORDER BY id LIMIT 1`, applicationID)
}

func (s *PostgresStore) getCertificateBy(ctx context.Context, query, key string) (*models.Certificate, error) {
	var doc []byte
	if err := s.client.QueryRow(ctx, query, key).Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewCertificateNotFoundError(key)
		}
		return nil, errors.NewStoreUnavailableError("get certificate", err)
	}
	var cert models.Certificate
	if err := json.Unmarshal(doc, &cert); err != nil {
		return nil, errors.NewStoreUnavailableError("decode certificate", err)
	}
	return &cert, nil
}

func (s *PostgresStore) ListCertificates(ctx context.Context) ([]models.Certificate, error) {
	rows, err := s.client.Query(ctx, `SELECT doc FROM certificates ORDER BY id`)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list certificates", err)
	}
	defer rows.Close()

	var certs []models.Certificate
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.NewStoreUnavailableError("scan certificate", err)
		}
		var cert models.Certificate
		if err := json.Unmarshal(doc, &cert); err != nil {
			return nil, errors.NewStoreUnavailableError("decode certificate", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("list certificates", err)
	}
	return certs, nil
}

func (s *PostgresStore) UpdateCertificate(ctx context.Context, certificateID string, mutate func(*models.Certificate) error) (*models.Certificate, error) {
	tx, err := s.client.BeginTx(ctx)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("begin update", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM certificates WHERE certificate_id = $1 FOR UPDATE`,
		certificateID).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewCertificateNotFoundError(certificateID)
		}
		return nil, errors.NewStoreUnavailableError("lock certificate", err)
	}

	var cert models.Certificate
	if err := json.Unmarshal(doc, &cert); err != nil {
		return nil, errors.NewStoreUnavailableError("decode certificate", err)
	}
	if err := mutate(&cert); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(&cert)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("encode certificate", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE certificates SET doc = $2 WHERE certificate_id = $1`,
		certificateID, updated); err != nil {
		return nil, errors.NewStoreUnavailableError("update certificate", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreUnavailableError("commit update", err)
	}
	return &cert, nil
}

func (s *PostgresStore) AppendPayment(ctx context.Context, record *models.PaymentRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return errors.NewStoreUnavailableError("encode payment record", err)
	}
	_, err = s.client.Exec(ctx,
		`INSERT INTO payment_records (application_id, doc) VALUES ($1, $2)`,
		record.ApplicationID, doc)
	if err != nil {
		return errors.NewStoreUnavailableError("append payment record", err)
	}
	return nil
}

func (s *PostgresStore) GetPaymentsByApplicationID(ctx context.Context, applicationID string) ([]models.PaymentRecord, error) {
	rows, err := s.client.Query(ctx,
		`SELECT doc FROM payment_records WHERE application_id = $1 ORDER BY id`, applicationID)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list payment records", err)
	}
	defer rows.Close()

	var records []models.PaymentRecord
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.NewStoreUnavailableError("scan payment record", err)
		}
		var rec models.PaymentRecord
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, errors.NewStoreUnavailableError("decode payment record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("list payment records", err)
	}
	return records, nil
}

func (s *PostgresStore) AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	doc, err := json.Marshal(entry)
	if err != nil {
		return errors.NewStoreUnavailableError("encode audit entry", err)
	}
	_, err = s.client.Exec(ctx,
		`INSERT INTO audit_logs (application_id, doc) VALUES ($1, $2)`,
		entry.ApplicationID, doc)
	if err != nil {
		return errors.NewStoreUnavailableError("append audit entry", err)
	}
	return nil
}

func (s *PostgresStore) GetAuditEntries(ctx context.Context, applicationID string) ([]models.AuditEntry, error) {
	rows, err := s.client.Query(ctx,
		`SELECT doc FROM audit_logs WHERE application_id = $1 ORDER BY id`, applicationID)
	if err != nil {
		return nil, errors.NewStoreUnavailableError("list audit entries", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.NewStoreUnavailableError("scan audit entry", err)
		}
		var entry models.AuditEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			return nil, errors.NewStoreUnavailableError("decode audit entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailableError("list audit entries", err)
	}
	return entries, nil
}

func (s *PostgresStore) GenerateApplicationID(ctx context.Context) (string, error) {
	var count int
	if err := s.client.QueryRow(ctx, `SELECT COUNT(*) FROM applications`).Scan(&count); err != nil {
		return "", errors.NewStoreUnavailableError("count applications", err)
	}
	return formatApplicationID(s.now(), count), nil
}

func (s *PostgresStore) GenerateCertificateID(ctx context.Context) (string, error) {
	var count int
	if err := s.client.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count); err != nil {
		return "", errors.NewStoreUnavailableError("count certificates", err)
	}
	return formatCertificateID(s.now(), count), nil
}

func (s *PostgresStore) Statistics(ctx context.Context) (*Stats, error) {
	apps, err := s.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	certs, err := s.ListCertificates(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(apps, certs), nil
}

func (s *PostgresStore) Close() error {
	return s.client.Close()
}
