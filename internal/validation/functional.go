// internal/validation/functional.go
package validation

import (
	"regexp"
	"strings"

	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// Valid enumeration values for the business logic checks.
var (
	validPaymentTypes  = map[string]bool{"single": true, "recurring": true, "installment": true}
	validAcceptMethods = map[string]bool{"electronicCommerce": true, "moto": true, "pos": true}
)

const placeholderTerminalID = "00000000"

// evaluateFunctional scores request completeness, field formats, business
// rules and cross-field consistency. Deterministic for a given request.
func (e *Engine) evaluateFunctional(req *models.ValidationRequest) models.RubricResult {
	score := 0
	breakdown := make(map[string]int)
	var issues []string

	// Required fields: 6 points each.
	requiredFields := 0
	checks := []struct {
		name    string
		present bool
	}{
		{"application_id", strings.TrimSpace(req.ApplicationID) != ""},
		{"payment_initiation_type", strings.TrimSpace(req.PaymentInitiationType) != ""},
		{"payment_information", req.PaymentInformation != (models.PaymentInformation{})},
		{"merchant_information", req.MerchantInformation != (models.MerchantInformation{})},
		{"acquiring_information", req.AcquiringInformation != (models.AcquiringInformation{})},
	}
	for _, check := range checks {
		if check.present {
			requiredFields += 6
		} else {
			issues = append(issues, "Missing or empty "+check.name)
		}
	}
	score += requiredFields
	breakdown["required_fields_score"] = requiredFields

	// Field formats: dates, times and the merchant ID shape.
	format := 0
	pay := req.PaymentInformation
	if datePattern.MatchString(pay.TransmissionDate) {
		format += 5
	} else {
		issues = append(issues, "Invalid transmission_date format")
	}
	if timePattern.MatchString(pay.TransmissionTime) {
		format += 5
	} else {
		issues = append(issues, "Invalid transmission_time format")
	}
	if datePattern.MatchString(pay.LocalTransactionDate) {
		format += 5
	} else {
		issues = append(issues, "Invalid local_transaction_date format")
	}
	if timePattern.MatchString(pay.LocalTransactionTime) {
		format += 5
	} else {
		issues = append(issues, "Invalid local_transaction_time format")
	}
	if merchantID := req.AcquiringInformation.MerchantID; len(merchantID) >= 8 && isAlphanumeric(merchantID) {
		format += 5
	} else {
		issues = append(issues, "Invalid merchant_id format")
	}
	score += format
	breakdown["format_score"] = format

	// Business rules: enumerations and the MCC shape.
	business := 0
	if validPaymentTypes[pay.PaymentType] {
		business += 8
	} else {
		issues = append(issues, "Invalid payment_type")
	}
	if validAcceptMethods[req.TransactionAcceptMethod] {
		business += 8
	} else {
		issues = append(issues, "Invalid transaction_accept_method")
	}
	if mcc := req.MerchantInformation.MerchantCategoryCode; len(mcc) == 4 && isDigits(mcc) {
		business += 9
	} else {
		issues = append(issues, "Invalid merchant_category_code")
	}
	score += business
	breakdown["business_logic_score"] = business

	// Cross-field consistency.
	consistency := 0
	if pay.TransmissionDate == pay.LocalTransactionDate {
		consistency += 10
	} else {
		issues = append(issues, "Date inconsistency between transmission and local transaction")
	}
	if terminalID := req.AcquiringInformation.TerminalID; terminalID != placeholderTerminalID && len(terminalID) == 8 {
		consistency += 10
	} else {
		issues = append(issues, "Invalid or placeholder terminal_id")
	}
	score += consistency
	breakdown["consistency_score"] = consistency

	return models.RubricResult{
		Score:     clampScore(score),
		MaxScore:  100,
		Breakdown: breakdown,
		Issues:    issues,
	}
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
