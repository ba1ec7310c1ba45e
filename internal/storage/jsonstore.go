// internal/storage/jsonstore.go
package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

const (
	applicationsFile = "applications.json"
	certificatesFile = "certificates.json"
	paymentsFile     = "payments.json"
	auditLogsFile    = "audit_logs.json"
)

// JSONStore persists each collection as a JSON array in its own file under a
// data directory. A missing or unparseable file reads as an empty collection.
// Each collection is guarded by its own mutex so read-modify-write cycles
// cannot lose concurrent updates.
type JSONStore struct {
	dir    string
	logger logger.Logger
	now    func() time.Time

	appsMu     sync.Mutex
	certsMu    sync.Mutex
	paymentsMu sync.Mutex
	auditMu    sync.Mutex
}

// NewJSONStore creates the data directory if needed and returns a store
// rooted at it.
func NewJSONStore(dir string, log logger.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStoreUnavailableError("create data directory", err)
	}
	return &JSONStore{
		dir:    dir,
		logger: log,
		now:    time.Now,
	}, nil
}

func readCollection[T any](s *JSONStore, file string) []T {
	data, err := os.ReadFile(filepath.Join(s.dir, file))
	if err != nil {
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("Discarding unparseable collection file", map[string]interface{}{
			"file":  file,
			"error": err.Error(),
		})
		return nil
	}
	return items
}

func writeCollection[T any](s *JSONStore, file string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.NewStoreUnavailableError("encode "+file, err)
	}
	path := filepath.Join(s.dir, file)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.NewStoreUnavailableError("write "+file, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.NewStoreUnavailableError("replace "+file, err)
	}
	return nil
}

// SaveApplication inserts or replaces the application with the same ID.
func (s *JSONStore) SaveApplication(_ context.Context, app *models.Application) error {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()

	apps := readCollection[models.Application](s, applicationsFile)
	replaced := false
	for i := range apps {
		if apps[i].ApplicationID == app.ApplicationID {
			apps[i] = *app
			replaced = true
			break
		}
	}
	if !replaced {
		apps = append(apps, *app)
	}
	return writeCollection(s, applicationsFile, apps)
}

// GetApplication returns the application or an APPLICATION_NOT_FOUND error.
func (s *JSONStore) GetApplication(_ context.Context, applicationID string) (*models.Application, error) {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()
	return s.findApplication(applicationID)
}

func (s *JSONStore) findApplication(applicationID string) (*models.Application, error) {
	apps := readCollection[models.Application](s, applicationsFile)
	for i := range apps {
		if apps[i].ApplicationID == applicationID {
			app := apps[i]
			return &app, nil
		}
	}
	return nil, errors.NewApplicationNotFoundError(applicationID)
}

func (s *JSONStore) ListApplications(_ context.Context) ([]models.Application, error) {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()
	return readCollection[models.Application](s, applicationsFile), nil
}

// UpdateApplication applies mutate to the stored record under the collection
// lock and persists the result, returning the updated application.
func (s *JSONStore) UpdateApplication(_ context.Context, applicationID string, mutate func(*models.Application) error) (*models.Application, error) {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()

	apps := readCollection[models.Application](s, applicationsFile)
	for i := range apps {
		if apps[i].ApplicationID == applicationID {
			if err := mutate(&apps[i]); err != nil {
				return nil, err
			}
			if err := writeCollection(s, applicationsFile, apps); err != nil {
				return nil, err
			}
			app := apps[i]
			return &app, nil
		}
	}
	return nil, errors.NewApplicationNotFoundError(applicationID)
}

func (s *JSONStore) SaveCertificate(_ context.Context, cert *models.Certificate) error {
	s.certsMu.Lock()
	defer s.certsMu.Unlock()

	certs := readCollection[models.Certificate](s, certificatesFile)
	replaced := false
	for i := range certs {
		if certs[i].CertificateID == cert.CertificateID {
			certs[i] = *cert
			replaced = true
			break
		}
	}
	if !replaced {
		certs = append(certs, *cert)
	}
	return writeCollection(s, certificatesFile, certs)
}

func (s *JSONStore) GetCertificate(_ context.Context, certificateID string) (*models.Certificate, error) {
	s.certsMu.Lock()
	defer s.certsMu.Unlock()

	certs := readCollection[models.Certificate](s, certificatesFile)
	for i := range certs {
		if certs[i].CertificateID == certificateID {
			cert := certs[i]
			return &cert, nil
		}
	}
	return nil, errors.NewCertificateNotFoundError(certificateID)
}

func (s *JSONStore) GetCertificateByApplicationID(_ context.Context, applicationID string) (*models.Certificate, error) {
	s.certsMu.Lock()
	defer s.certsMu.Unlock()

	certs := readCollection[models.Certificate](s, certificatesFile)
	for i := range certs {
		if certs[i].ApplicationID == applicationID {
			cert := certs[i]
			return &cert, nil
		}
	}
	return nil, errors.NewCertificateNotFoundError(applicationID)
}

func (s *JSONStore) ListCertificates(_ context.Context) ([]models.Certificate, error) {
	s.certsMu.Lock()
	defer s.certsMu.Unlock()
	return readCollection[models.Certificate](s, certificatesFile), nil
}

func (s *JSONStore) UpdateCertificate(_ context.Context, certificateID string, mutate func(*models.Certificate) error) (*models.Certificate, error) {
	s.certsMu.Lock()
	defer s.certsMu.Unlock()

	certs := readCollection[models.Certificate](s, certificatesFile)
	for i := range certs {
		if certs[i].CertificateID == certificateID {
			if err := mutate(&certs[i]); err != nil {
				return nil, err
			}
			if err := writeCollection(s, certificatesFile, certs); err != nil {
				return nil, err
			}
			cert := certs[i]
			return &cert, nil
		}
	}
	return nil, errors.NewCertificateNotFoundError(certificateID)
}

// AppendPayment records a validation outcome. Records are append-only.
func (s *JSONStore) AppendPayment(_ context.Context, record *models.PaymentRecord) error {
	s.paymentsMu.Lock()
	defer s.paymentsMu.Unlock()

	payments := readCollection[models.PaymentRecord](s, paymentsFile)
	payments = append(payments, *record)
	return writeCollection(s, paymentsFile, payments)
}

func (s *JSONStore) GetPaymentsByApplicationID(_ context.Context, applicationID string) ([]models.PaymentRecord, error) {
	s.paymentsMu.Lock()
	defer s.paymentsMu.Unlock()

	var matched []models.PaymentRecord
	for _, rec := range readCollection[models.PaymentRecord](s, paymentsFile) {
		if rec.ApplicationID == applicationID {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// AppendAuditEntry records an audit event. Entries are append-only.
func (s *JSONStore) AppendAuditEntry(_ context.Context, entry *models.AuditEntry) error {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()

	entries := readCollection[models.AuditEntry](s, auditLogsFile)
	entries = append(entries, *entry)
	return writeCollection(s, auditLogsFile, entries)
}

func (s *JSONStore) GetAuditEntries(_ context.Context, applicationID string) ([]models.AuditEntry, error) {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()

	var matched []models.AuditEntry
	for _, entry := range readCollection[models.AuditEntry](s, auditLogsFile) {
		if entry.ApplicationID == applicationID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (s *JSONStore) GenerateApplicationID(_ context.Context) (string, error) {
	s.appsMu.Lock()
	defer s.appsMu.Unlock()

	apps := readCollection[models.Application](s, applicationsFile)
	return formatApplicationID(s.now(), len(apps)), nil
}

func (s *JSONStore) GenerateCertificateID(_ context.Context) (string, error) {
	s.certsMu.Lock()
	defer s.certsMu.Unlock()

	certs := readCollection[models.Certificate](s, certificatesFile)
	return formatCertificateID(s.now(), len(certs)), nil
}

func (s *JSONStore) Statistics(ctx context.Context) (*Stats, error) {
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

func (s *JSONStore) Close() error {
	return nil
}
