package model

import "time"

// Correction is user feedback on a previous analysis. It is never mutated after submission.
type Correction struct {
	CreatedAt         time.Time `json:"created_at"`
	CorrectedAmount   *float64  `json:"corrected_amount,omitempty"`
	CorrectedVatRate  *int      `json:"corrected_vat_rate,omitempty"`
	ID                string    `json:"id"`
	OriginalText      string    `json:"original_text"`
	CorrectedMerchant string    `json:"corrected_merchant,omitempty"`
	CorrectedCategory string    `json:"corrected_category,omitempty"`
	Feedback          string    `json:"feedback,omitempty"`
	ConfidenceRating  int       `json:"confidence_rating"`
}

// HasMerchant reports whether the correction names a merchant.
func (c Correction) HasMerchant() bool {
	return c.CorrectedMerchant != ""
}

// CorrectionOutcome reports what submitting a correction changed.
type CorrectionOutcome struct {
	ConfidenceImprovement *float64 `json:"confidence_improvement,omitempty"`
	CorrectionID          string   `json:"correction_id,omitempty"`
	SimilarCasesUpdated   int      `json:"similar_cases_updated"`
	Applied               bool     `json:"applied"`
}

// TrainingMetrics is the result of a simulated fine-tuning run.
type TrainingMetrics struct {
	CompletedAt time.Time `json:"completed_at"`
	Examples    int       `json:"examples"`
	Epochs      int       `json:"epochs"`
	Accuracy    float64   `json:"accuracy"`
	Loss        float64   `json:"loss"`
}
