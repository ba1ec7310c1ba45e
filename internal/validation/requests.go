// internal/validation/requests.go
package validation

import (
	"fmt"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// NewAutoRequest synthesizes the validation request the automatic pipeline
// submits on behalf of an application. The payload deliberately carries
// weaker markers (placeholder terminal, unauthenticated) than an operator
// submission, so approval is not guaranteed.
func NewAutoRequest(applicationID string, now time.Time) *models.ValidationRequest {
	date := now.Format("2006-01-02")
	clock := now.Format("15:04:05")

	return &models.ValidationRequest{
		ApplicationID:         applicationID,
		PaymentInitiationType: "cardNotPresentPan",
		PaymentInformation: models.PaymentInformation{
			AccountType:              "default",
			PaymentType:              "single",
			TransmissionDate:         date,
			TransmissionTime:         clock,
			LocalTransactionDate:     date,
			LocalTransactionTime:     clock,
			SettlementDate:           date,
			RetrievalReferenceNumber: "00000" + lastN(applicationID, 6),
			SystemTraceAuditNumber:   "000000",
		},
		TransactionAcceptMethod: "electronicCommerce",
		MerchantInformation: models.MerchantInformation{
			CardAcceptorName:     "DigitalCertProvider",
			FormatCardAcceptor:   "32",
			MerchantCategoryCode: "1234",
		},
		AcquiringInformation: models.AcquiringInformation{
			MerchantID:              "ABC" + lastN(applicationID, 9),
			TerminalID:              "00000000",
			AcquiringInstitutionID:  "000031",
			ForwardingInstitutionID: "000031",
		},
		POSSecure: models.POSSecure{
			SecurityLevelIndicator: "unauthenticated",
		},
	}
}

// NewApprovedRequest synthesizes a payload that passes every rubric: trusted
// merchant prefix, authenticated security level, real terminal ID and a
// six digit trace number.
func NewApprovedRequest(applicationID string, now time.Time, random RandomSource) *models.ValidationRequest {
	date := now.Format("2006-01-02")
	clock := now.Format("15:04:05")

	return &models.ValidationRequest{
		ApplicationID:         applicationID,
		PaymentInitiationType: "cardNotPresentPan",
		PaymentInformation: models.PaymentInformation{
			AccountType:              "default",
			PaymentType:              "single",
			TransmissionDate:         date,
			TransmissionTime:         clock,
			LocalTransactionDate:     date,
			LocalTransactionTime:     clock,
			SettlementDate:           date,
			RetrievalReferenceNumber: fmt.Sprintf("000001%05d", 10000+random.Intn(90000)),
			SystemTraceAuditNumber:   fmt.Sprintf("%06d", 100000+random.Intn(900000)),
		},
		TransactionAcceptMethod: "electronicCommerce",
		MerchantInformation: models.MerchantInformation{
			CardAcceptorName:     "SecureCert",
			FormatCardAcceptor:   "32",
			MerchantCategoryCode: "1234",
		},
		AcquiringInformation: models.AcquiringInformation{
			MerchantID:              fmt.Sprintf("ABC%09d", 100000000+random.Intn(900000000)),
			TerminalID:              fmt.Sprintf("%08d", 10000001+random.Intn(89999999)),
			AcquiringInstitutionID:  "000012",
			ForwardingInstitutionID: "000034",
		},
		POSSecure: models.POSSecure{
			SecurityLevelIndicator: "authenticated",
		},
	}
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
