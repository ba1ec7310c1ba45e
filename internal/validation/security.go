// internal/validation/security.go
package validation

import (
	"strings"

	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// evaluateSecurity scores the authentication level, merchant trust tier,
// transaction integrity markers and a small time-of-day risk assessment.
// Depends on the engine clock for the off-hours check.
func (e *Engine) evaluateSecurity(req *models.ValidationRequest) models.RubricResult {
	score := 0
	breakdown := make(map[string]int)
	var issues []string

	// Authentication level.
	var auth int
	switch req.POSSecure.SecurityLevelIndicator {
	case "authenticated":
		auth = 35
	case "unauthenticated":
		auth = 15
		issues = append(issues, "Unauthenticated transaction detected")
	default:
		auth = 0
		issues = append(issues, "Unknown security level indicator")
	}
	score += auth
	breakdown["authentication_score"] = auth

	// Merchant trust tier by ID prefix.
	var merchant int
	merchantID := req.AcquiringInformation.MerchantID
	switch {
	case strings.HasPrefix(merchantID, "ABC"):
		merchant = 25
	case strings.HasPrefix(merchantID, "XYZ"):
		merchant = 15
	case strings.HasPrefix(merchantID, "TEST"):
		merchant = 5
		issues = append(issues, "Test merchant detected - low security score")
	default:
		merchant = 10
		issues = append(issues, "Unknown merchant pattern")
	}
	score += merchant
	breakdown["merchant_score"] = merchant

	// Transaction integrity markers.
	integrity := 0
	if req.AcquiringInformation.TerminalID == placeholderTerminalID {
		integrity += 5
		issues = append(issues, "Suspicious terminal ID pattern")
	} else {
		integrity += 15
	}
	trace := req.PaymentInformation.SystemTraceAuditNumber
	if len(trace) == 6 && isDigits(trace) {
		integrity += 10
	} else {
		issues = append(issues, "Invalid system trace audit number")
	}
	score += integrity
	breakdown["integrity_score"] = integrity

	// Risk assessment.
	risk := 15
	if req.PaymentInformation.PaymentType == "recurring" {
		risk -= 5
		issues = append(issues, "Recurring payment carries additional risk")
	}
	if hour := e.now().Hour(); hour < 6 || hour > 22 {
		risk -= 3
		issues = append(issues, "Off-hours transaction detected")
	}
	if risk < 0 {
		risk = 0
	}
	score += risk
	breakdown["risk_score"] = risk

	return models.RubricResult{
		Score:     clampScore(score),
		MaxScore:  100,
		Breakdown: breakdown,
		Issues:    issues,
	}
}
