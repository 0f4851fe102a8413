package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/kvittering/internal/catalog"
	"github.com/Veraticus/kvittering/internal/engine"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/stretchr/testify/assert"
)

func testAnalysis() *model.NorwegianAnalysis {
	return &model.NorwegianAnalysis{
		Merchant: model.DetectionResult{
			Profile:             model.MerchantProfile{Name: "REMA 1000", Category: model.CategoryGrocery},
			MatchedBy:           model.MatchedByKey,
			EffectiveConfidence: 0.95,
		},
		Vat:            model.VatAnalysis{DetectedRate: 15, VatAmount: 8.27, ComplianceStatus: model.ComplianceCompliant},
		Compliance:     model.ComplianceDecision{DeductibilityVerdict: "Partially deductible", RequiredDocuments: []string{"Original receipt"}},
		Seasonal:       model.SeasonalProfile{SeasonLabel: "Standard period"},
		Amount:         63.40,
		AmountDetected: true,
	}
}

func TestFormatAnalysis(t *testing.T) {
	out := FormatAnalysis(testAnalysis())

	assert.Contains(t, out, "REMA 1000")
	assert.Contains(t, out, "63.40 kr")
	assert.Contains(t, out, "15% = 8.27 kr")
	assert.Contains(t, out, "Standard period")
	assert.Contains(t, out, "Original receipt")
	assert.NotContains(t, out, "estimated")
	assert.NotContains(t, out, "Board approval")

	estimated := testAnalysis()
	estimated.AmountDetected = false
	estimated.Compliance.ApprovalRequired = true
	estimated.Seasonal = model.SeasonalProfile{SeasonLabel: "Christmas season", CulturalEvent: "Jul"}
	estimated.SeasonalHints = []string{"ribbe"}
	out = FormatAnalysis(estimated)
	assert.Contains(t, out, "estimated")
	assert.Contains(t, out, "Board approval required")
	assert.Contains(t, out, "Christmas season (Jul)")
	assert.Contains(t, out, "ribbe")

	assert.Contains(t, FormatAnalysis(nil), "No analysis available")
}

func TestFormatCorrection(t *testing.T) {
	improvement := 0.05
	out := FormatCorrection(&model.CorrectionOutcome{
		CorrectionID:          "c-1",
		Applied:               true,
		ConfidenceImprovement: &improvement,
		SimilarCasesUpdated:   2,
	})
	assert.Contains(t, out, "Correction c-1 applied")
	assert.Contains(t, out, "+0.05")
	assert.Contains(t, out, "Similar earlier corrections: 2")

	assert.Contains(t, FormatCorrection(&model.CorrectionOutcome{}), "not applied")
}

func TestFormatPrediction(t *testing.T) {
	out := FormatPrediction(&model.PredictiveAnalysisResult{
		OrganizationType: "band",
		Timeframe:        model.TimeframeNextMonth,
		Predictions: []model.SpendPrediction{
			{Category: "grocery", PredictedAmount: 1320, Confidence: 0.72, Trend: model.TrendStable},
		},
		BudgetRecommendations: []model.BudgetRecommendation{{Name: "Emergency reserve", RecommendedAmount: 198, RiskLevel: "low"}},
		SeasonalInsights:      []model.SeasonalInsight{{Event: "Jul", Period: "December", ExpectedIncrease: 1.8}},
		TransactionsAnalyzed:  3,
		TotalPredictedSpend:   1320,
		SkippedDates:          1,
	})

	assert.Contains(t, out, "band · next_month · 3 transactions")
	assert.Contains(t, out, "grocery")
	assert.Contains(t, out, "1320.00 kr")
	assert.Contains(t, out, "72%")
	assert.Contains(t, out, "Emergency reserve: 198.00 kr")
	assert.Contains(t, out, "Jul (December)")
	assert.Contains(t, out, "1 transactions had unreadable dates")
}

func TestFormatBatchSummary(t *testing.T) {
	out := FormatBatchSummary(&engine.BatchSummary{
		Results: []engine.BatchResult{
			{Name: "rema.txt", Analysis: testAnalysis()},
			{Name: "photo.jpg", Error: errors.New("unsupported document")},
		},
		Classified:     1,
		Failed:         1,
		ProcessingTime: 12 * time.Millisecond,
	})

	assert.Contains(t, out, "rema.txt")
	assert.Contains(t, out, "photo.jpg: unsupported document")
	assert.Contains(t, out, "1/2 documents")
	assert.Contains(t, out, "1 classified, 1 failed")
}

func TestFormatCatalog(t *testing.T) {
	out := FormatCatalog(catalog.Default().All())
	assert.Contains(t, out, "REMA")
	assert.Contains(t, out, "VINMONOPOLET")
	assert.Contains(t, out, "Key")
}

func TestFormatTraining(t *testing.T) {
	out := FormatTraining(model.TrainingMetrics{Examples: 10, Epochs: 3, Accuracy: 0.86, Loss: 0.14})
	assert.Contains(t, out, "86.0%")
	assert.Contains(t, out, "0.140")
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable([][]string{{"A", "B"}, {"long cell", "x"}})
	assert.Contains(t, out, "long cell")
	assert.Empty(t, renderTable(nil))
}
