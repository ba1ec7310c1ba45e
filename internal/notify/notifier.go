// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/rkbisoi/applus-backend-demo/internal/common/config"
	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// Interfaces for mocking the AWS clients.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier sends applicant emails and ops-topic messages for certificate
// events. Delivery is best-effort: failures are logged and never surface to
// the lifecycle operation that triggered them. A nil Notifier is valid and
// sends nothing.
type Notifier struct {
	cfg       config.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

// New builds a notifier from the AWS default credential chain.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Notifier{
		cfg:       cfg,
		logger:    log,
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

// NewWithClients builds a notifier over preconstructed clients.
func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		logger:    log,
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

// CertificateIssued notifies the applicant and the ops topic.
func (n *Notifier) CertificateIssued(ctx context.Context, app *models.Application, cert *models.Certificate) {
	if n == nil {
		return
	}
	subject := "Your certificate has been issued"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour %s certificate %s has been issued on %s and is valid until %s.\n",
		app.Name, app.CertificateType, cert.CertificateID, cert.IssueDate, cert.Validity.End,
	)
	n.sendEmail(ctx, app.Email, subject, body)
	n.publish(ctx, fmt.Sprintf("Certificate %s issued for application %s", cert.CertificateID, app.ApplicationID))
}

// CertificateRevoked notifies the applicant and the ops topic.
func (n *Notifier) CertificateRevoked(ctx context.Context, cert *models.Certificate) {
	if n == nil {
		return
	}
	subject := "Your certificate has been revoked"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour certificate %s was revoked on %s. Contact support if this is unexpected.\n",
		cert.Name, cert.CertificateID, cert.RevocationDate,
	)
	n.sendEmail(ctx, cert.Email, subject, body)
	n.publish(ctx, fmt.Sprintf("Certificate %s revoked for application %s", cert.CertificateID, cert.ApplicationID))
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) {
	if !n.cfg.Email.Enabled || to == "" {
		return
	}
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	if err != nil {
		n.logger.Error("Email notification failed", map[string]interface{}{
			"to":    to,
			"error": err.Error(),
		})
	}
}

func (n *Notifier) publish(ctx context.Context, message string) {
	if !n.cfg.SMS.Enabled || n.cfg.SMS.TopicARN == "" {
		return
	}
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.SMS.TopicARN),
		Message:  aws.String(message),
	})
	if err != nil {
		n.logger.Error("Topic notification failed", map[string]interface{}{
			"topic": n.cfg.SMS.TopicARN,
			"error": err.Error(),
		})
	}
}
