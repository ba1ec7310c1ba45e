// internal/models/request.go
package models

// PaymentInformation is the card-network style payment bundle attached to a
// validation request. All date/time fields are transported as plain strings;
// the functional rubric checks their format.
type PaymentInformation struct {
	AccountType              string `json:"account_type"`
	PaymentType              string `json:"payment_type"`
	TransmissionDate         string `json:"transmission_date"`
	TransmissionTime         string `json:"transmission_time"`
	LocalTransactionDate     string `json:"local_transaction_date"`
	LocalTransactionTime     string `json:"local_transaction_time"`
	SettlementDate           string `json:"settlement_date"`
	RetrievalReferenceNumber string `json:"retrieval_reference_number"`
	SystemTraceAuditNumber   string `json:"system_trace_audit_number"`
}

type MerchantInformation struct {
	CardAcceptorName     string `json:"card_acceptor_name"`
	FormatCardAcceptor   string `json:"format_card_acceptor"`
	MerchantCategoryCode string `json:"merchant_category_code"`
}

type AcquiringInformation struct {
	MerchantID              string `json:"merchant_id"`
	TerminalID              string `json:"terminal_id"`
	AcquiringInstitutionID  string `json:"acquiring_institution_id"`
	ForwardingInstitutionID string `json:"forwarding_institution_id"`
}

type POSSecure struct {
	SecurityLevelIndicator string `json:"security_level_indicator"`
}

// ValidationRequest is the transaction payload evaluated by the three rubrics.
type ValidationRequest struct {
	ApplicationID           string               `json:"application_id"`
	PaymentInitiationType   string               `json:"payment_initiation_type"`
	PaymentInformation      PaymentInformation   `json:"payment_information"`
	TransactionAcceptMethod string               `json:"transaction_accept_method"`
	MerchantInformation     MerchantInformation  `json:"merchant_information"`
	AcquiringInformation    AcquiringInformation `json:"acquiring_information"`
	POSSecure               POSSecure            `json:"etp_pos_secure"`
}

// RubricResult is the outcome of one scoring dimension.
type RubricResult struct {
	Score     int            `json:"score"`
	MaxScore  int            `json:"max_score"`
	Breakdown map[string]int `json:"details"`
	Issues    []string       `json:"issues"`
}

// ValidationStatus is the combined decision category.
type ValidationStatus string

const (
	StatusApproved ValidationStatus = "APPROVED"
	StatusPending  ValidationStatus = "PENDING"
	StatusDeclined ValidationStatus = "DECLINED"
)

// ValidationResult is the immutable combined outcome of one evaluation.
type ValidationResult struct {
	FunctionalScore     int              `json:"functional_score"`
	PerformanceScore    int              `json:"performance_score"`
	SecurityScore       int              `json:"security_score"`
	OverallScore        int              `json:"overall_score"`
	OverallStatus       ValidationStatus `json:"overall_status"`
	FunctionalDetails   map[string]int   `json:"functional_details"`
	PerformanceDetails  map[string]int   `json:"performance_details"`
	SecurityDetails     map[string]int   `json:"security_details"`
	FailureReasons      []string         `json:"failure_reasons"`
	ValidationTimestamp string           `json:"validation_timestamp"`
}

// Approved reports whether the combined decision allows the lifecycle to
// advance. PENDING and DECLINED are both treated as not approved here; the
// stored result keeps the distinction for manual review.
func (r *ValidationResult) Approved() bool {
	return r.OverallStatus == StatusApproved
}
