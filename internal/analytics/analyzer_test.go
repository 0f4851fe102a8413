package analytics

import (
	"fmt"
	"testing"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(category string, amount float64) []model.HistoricalTransaction {
	txns := make([]model.HistoricalTransaction, 0, 12)
	for m := 1; m <= 12; m++ {
		txns = append(txns, model.HistoricalTransaction{
			Date:     fmt.Sprintf("2024-%02d-15", m),
			Merchant: "REMA 1000",
			Category: category,
			Amount:   amount,
		})
	}
	return txns
}

func TestAnalyze_EmptyInput(t *testing.T) {
	result, err := NewAnalyzer().Analyze(nil, "association", model.TimeframeNextYear, "")
	require.ErrorIs(t, err, common.ErrNoTransactions)
	assert.True(t, common.IsInputValidation(err))
	assert.Nil(t, result)
}

func TestAnalyze_GroceryNextYear(t *testing.T) {
	result, err := NewAnalyzer().Analyze(monthly("Grocery Store", 100), "association", model.TimeframeNextYear, "")
	require.NoError(t, err)

	require.Len(t, result.Predictions, 1)
	p := result.Predictions[0]
	assert.Equal(t, "Grocery Store", p.Category)
	assert.Equal(t, "next year", p.Period)
	assert.InDelta(t, 1320, p.PredictedAmount, 0.01)
	assert.InDelta(t, 0.72, p.Confidence, 1e-9)
	assert.Equal(t, model.TrendStable, p.Trend)
	assert.NotEmpty(t, p.Factors)

	assert.Equal(t, 12, result.TransactionsAnalyzed)
	assert.Equal(t, 0, result.SkippedDates)
	assert.InDelta(t, 1320, result.TotalPredictedSpend, 0.01)
	assert.InDelta(t, 0.72, result.ConfidenceScore, 1e-9)
	assert.Len(t, result.SeasonalInsights, 5)

	require.Len(t, result.BudgetRecommendations, 2)
	assert.InDelta(t, 198, result.BudgetRecommendations[0].RecommendedAmount, 0.01)
	assert.InDelta(t, 330, result.BudgetRecommendations[1].RecommendedAmount, 0.01)
}

func TestAnalyze_Timeframes(t *testing.T) {
	tests := []struct {
		timeframe string
		want      float64
	}{
		{timeframe: model.TimeframeNextMonth, want: 100},
		{timeframe: model.TimeframeNextQuarter, want: 300},
		{timeframe: model.TimeframeNextYear, want: 1200},
		{timeframe: "next_decade", want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			result, err := NewAnalyzer().Analyze(monthly("Transport", 100), "club", tt.timeframe, "")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, result.Predictions[0].PredictedAmount, 0.01)
		})
	}
}

func TestAnalyze_AlcoholMultiplier(t *testing.T) {
	december := model.HistoricalTransaction{Date: "2024-12-20", Category: "Alcohol", Amount: 600}
	june := model.HistoricalTransaction{Date: "2024-06-20", Category: "Alcohol", Amount: 600}
	extraDecember := model.HistoricalTransaction{Date: "2024-12-01", Category: "Gifts", Amount: 100}

	t.Run("december above june", func(t *testing.T) {
		txns := []model.HistoricalTransaction{december, june, extraDecember}
		result, err := NewAnalyzer().Analyze(txns, "band", model.TimeframeNextYear, "")
		require.NoError(t, err)
		assert.Equal(t, "Alcohol", result.Predictions[0].Category)
		assert.InDelta(t, 1200*AlcoholUpMultiplier, result.Predictions[0].PredictedAmount, 0.01)
	})

	t.Run("december not above june", func(t *testing.T) {
		txns := []model.HistoricalTransaction{december, june}
		result, err := NewAnalyzer().Analyze(txns, "band", model.TimeframeNextYear, "")
		require.NoError(t, err)
		assert.InDelta(t, 1200*AlcoholDownMultiplier, result.Predictions[0].PredictedAmount, 0.01)
	})
}

func TestAnalyze_UnparsableDatesAreSkipped(t *testing.T) {
	txns := []model.HistoricalTransaction{
		{Date: "not a date", Category: "Grocery", Amount: 50},
		{Date: "15.03.2024", Category: "Grocery", Amount: 50},
		{Date: "2024-03-15T10:00:00Z", Category: "", Amount: 20},
	}

	result, err := NewAnalyzer().Analyze(txns, "association", model.TimeframeNextMonth, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedDates)
	assert.Equal(t, 3, result.TransactionsAnalyzed)

	require.Len(t, result.Predictions, 2)
	assert.Equal(t, "Grocery", result.Predictions[0].Category)
	assert.Equal(t, "Uncategorized", result.Predictions[1].Category)
}

func TestAnalyze_Variants(t *testing.T) {
	base, err := NewAnalyzer().Analyze(monthly("Grocery Store", 100), "association", model.TimeframeNextYear, "")
	require.NoError(t, err)

	t.Run("seasonal trends", func(t *testing.T) {
		result, err := NewAnalyzer().Analyze(monthly("Grocery Store", 100), "association", model.TimeframeNextYear, model.AnalysisSeasonalTrends)
		require.NoError(t, err)
		for i, insight := range result.SeasonalInsights {
			assert.InDelta(t, base.SeasonalInsights[i].ExpectedIncrease*TrendInsightMarkup, insight.ExpectedIncrease, 0.01)
		}
		assert.Equal(t, base.BudgetRecommendations, result.BudgetRecommendations)
	})

	t.Run("budget forecast", func(t *testing.T) {
		result, err := NewAnalyzer().Analyze(monthly("Grocery Store", 100), "association", model.TimeframeNextYear, model.AnalysisBudgetForecast)
		require.NoError(t, err)
		for i, rec := range result.BudgetRecommendations {
			assert.InDelta(t, base.BudgetRecommendations[i].RecommendedAmount*ForecastMarkup, rec.RecommendedAmount, 0.01)
			assert.Contains(t, rec.Rationale, "Conservative estimate")
		}
		assert.Equal(t, base.SeasonalInsights, result.SeasonalInsights)
	})

	t.Run("unknown variant is a no-op", func(t *testing.T) {
		result, err := NewAnalyzer().Analyze(monthly("Grocery Store", 100), "association", model.TimeframeNextYear, "something_else")
		require.NoError(t, err)
		assert.Equal(t, base.BudgetRecommendations, result.BudgetRecommendations)
		assert.Equal(t, base.SeasonalInsights, result.SeasonalInsights)
	})
}

func TestAnalyze_TrendAndConfidence(t *testing.T) {
	result, err := NewAnalyzer().Analyze(monthly("Events", 500), "association", model.TimeframeNextMonth, "")
	require.NoError(t, err)
	assert.Equal(t, model.TrendIncreasing, result.Predictions[0].Trend)
	assert.InDelta(t, ConfidenceCap, result.Predictions[0].Confidence, 1e-9)
}

func TestConfidenceFor_Monotone(t *testing.T) {
	previous := ConfidenceFor(0)
	assert.InDelta(t, ConfidenceBase, previous, 1e-9)

	for total := 500.0; total <= 20000; total += 500 {
		got := ConfidenceFor(total)
		assert.GreaterOrEqual(t, got, previous)
		assert.LessOrEqual(t, got, ConfidenceCap)
		previous = got
	}
	assert.InDelta(t, ConfidenceCap, previous, 1e-9)
}
