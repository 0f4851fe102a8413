// Package model defines the core domain models used throughout the application.
package model

import "time"

// VAT brackets in percent. No other rate is ever produced or accepted.
const (
	VatRateExempt   = 0
	VatRateLow      = 12
	VatRateFood     = 15
	VatRateStandard = 25
)

// VatBrackets lists every supported VAT rate in ascending order.
var VatBrackets = []int{VatRateExempt, VatRateLow, VatRateFood, VatRateStandard}

// IsVatBracket reports whether rate is one of the supported brackets.
func IsVatBracket(rate int) bool {
	for _, b := range VatBrackets {
		if b == rate {
			return true
		}
	}
	return false
}

// ComplianceCompliant is the status when the detected rate matches the merchant's typical rate.
const ComplianceCompliant = "compliant"

// VatAnalysis describes the VAT treatment of a purchase.
type VatAnalysis struct {
	Explanation      string  `json:"explanation"`
	ComplianceStatus string  `json:"compliance_status"`
	DetectedRate     int     `json:"detected_rate"`
	ExpectedRate     int     `json:"expected_rate"`
	VatAmount        float64 `json:"vat_amount"`
}

// ComplianceDecision is an organization-specific deductibility judgment.
type ComplianceDecision struct {
	OrganizationType     string   `json:"organization_type"`
	DeductibilityVerdict string   `json:"deductibility_verdict"`
	RequiredDocuments    []string `json:"required_documents"`
	ApprovalRequired     bool     `json:"approval_required"`
}

// SeasonalProfile is date-derived purchasing context.
type SeasonalProfile struct {
	SeasonLabel      string   `json:"season_label"`
	CulturalEvent    string   `json:"cultural_event,omitempty"`
	PriceExpectation string   `json:"price_expectation"`
	TypicalPurchases []string `json:"typical_purchases"`
}

// NorwegianAnalysis is the composed result of classifying one receipt.
type NorwegianAnalysis struct {
	AnalyzedAt     time.Time          `json:"analyzed_at"`
	Seasonal       SeasonalProfile    `json:"seasonal"`
	Compliance     ComplianceDecision `json:"compliance"`
	Vat            VatAnalysis        `json:"vat"`
	Merchant       DetectionResult    `json:"merchant"`
	Summary        string             `json:"summary"`
	SeasonalHints  []string           `json:"seasonal_hints,omitempty"`
	Amount         float64            `json:"amount"`
	AmountDetected bool               `json:"amount_detected"`
}
