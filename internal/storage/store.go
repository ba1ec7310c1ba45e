// internal/storage/store.go
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// Store is the persistence boundary for applications, certificates, payment
// records and audit logs. Implementations must make Update* read-modify-write
// cycles safe against concurrent callers.
type Store interface {
	SaveApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, applicationID string) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	UpdateApplication(ctx context.Context, applicationID string, mutate func(*models.Application) error) (*models.Application, error)

	SaveCertificate(ctx context.Context, cert *models.Certificate) error
	GetCertificate(ctx context.Context, certificateID string) (*models.Certificate, error)
	GetCertificateByApplicationID(ctx context.Context, applicationID string) (*models.Certificate, error)
	ListCertificates(ctx context.Context) ([]models.Certificate, error)
	UpdateCertificate(ctx context.Context, certificateID string, mutate func(*models.Certificate) error) (*models.Certificate, error)

	AppendPayment(ctx context.Context, record *models.PaymentRecord) error
	GetPaymentsByApplicationID(ctx context.Context, applicationID string) ([]models.PaymentRecord, error)

	AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error
	GetAuditEntries(ctx context.Context, applicationID string) ([]models.AuditEntry, error)

	GenerateApplicationID(ctx context.Context) (string, error)
	GenerateCertificateID(ctx context.Context) (string, error)

	Statistics(ctx context.Context) (*Stats, error)

	Close() error
}

// Stats is an aggregate snapshot over the stored collections.
type Stats struct {
	TotalApplications   int            `json:"total_applications"`
	ApplicationsByState map[string]int `json:"applications_by_state"`
	TotalCertificates   int            `json:"total_certificates"`
	RevokedCertificates int            `json:"revoked_certificates"`
}

func formatApplicationID(now time.Time, count int) string {
	return fmt.Sprintf("APP_%s_%04d", now.Format("20060102_150405"), count+1)
}

func formatCertificateID(now time.Time, count int) string {
	return fmt.Sprintf("CERT_%s_%04d", now.Format("20060102_150405"), count+1)
}

func computeStats(apps []models.Application, certs []models.Certificate) *Stats {
	stats := &Stats{
		TotalApplications:   len(apps),
		ApplicationsByState: make(map[string]int),
		TotalCertificates:   len(certs),
	}
	for _, app := range apps {
		stats.ApplicationsByState[app.Status]++
	}
	for _, cert := range certs {
		if cert.Revoked {
			stats.RevokedCertificates++
		}
	}
	return stats
}
