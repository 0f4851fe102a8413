// Package analytics turns historical transactions into spend predictions and
// budget recommendations.
package analytics

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/shopspring/decimal"
)

// Tuning constants for predictions.
const (
	ConfidenceBase  = 0.6
	ConfidenceCap   = 0.95
	ConfidenceScale = 10000.0
	TrendThreshold  = 5000.0

	GroceryMultiplier     = 1.1
	AlcoholUpMultiplier   = 1.2
	AlcoholDownMultiplier = 0.9

	EmergencyReserveShare = 0.15
	SeasonalEventsShare   = 0.25
	ForecastMarkup        = 1.15
	TrendInsightMarkup    = 1.1
)

const uncategorized = "Uncategorized"

var timeframes = map[string]struct {
	label      string
	multiplier int
}{
	model.TimeframeNextMonth:   {label: "next month", multiplier: 1},
	model.TimeframeNextQuarter: {label: "next quarter", multiplier: 3},
	model.TimeframeNextYear:    {label: "next year", multiplier: 12},
}

// Analyzer is stateless and safe for concurrent use.
type Analyzer struct{}

// NewAnalyzer creates an analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// TimeframeMultiplier returns the month count for timeframe; unknown values count as one month.
func TimeframeMultiplier(timeframe string) int {
	if tf, ok := timeframes[timeframe]; ok {
		return tf.multiplier
	}
	return 1
}

// Analyze forecasts spend per category. An empty transaction list is an
// input validation error and produces no report.
func (a *Analyzer) Analyze(txns []model.HistoricalTransaction, orgType, timeframe, analysisType string) (*model.PredictiveAnalysisResult, error) {
	if len(txns) == 0 {
		return nil, fmt.Errorf("cannot analyze: %w", common.ErrNoTransactions)
	}

	categoryTotals := make(map[string]float64)
	categoryCounts := make(map[string]int)
	monthTotals := make(map[time.Month]float64)
	skipped := 0

	for _, txn := range txns {
		category := strings.TrimSpace(txn.Category)
		if category == "" {
			category = uncategorized
		}
		categoryTotals[category] += txn.Amount
		categoryCounts[category]++

		date, ok := txn.ParsedDate()
		if !ok {
			skipped++
			continue
		}
		monthTotals[date.Month()] += txn.Amount
	}

	if skipped > 0 {
		slog.Warn("Skipped transactions with unparsable dates",
			"skipped", skipped,
			"total", len(txns))
	}

	multiplier := TimeframeMultiplier(timeframe)
	period := timeframes[model.TimeframeNextMonth].label
	if tf, ok := timeframes[timeframe]; ok {
		period = tf.label
	}

	categories := make([]string, 0, len(categoryTotals))
	for category := range categoryTotals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	predictions := make([]model.SpendPrediction, 0, len(categories))
	totalPredicted := 0.0
	confidenceSum := 0.0

	for _, category := range categories {
		total := categoryTotals[category]
		seasonal, seasonalFactor := seasonalMultiplier(category, monthTotals)

		predicted := round2(total / 12 * float64(multiplier) * seasonal)
		confidence := ConfidenceFor(total)

		trend := model.TrendStable
		if total > TrendThreshold {
			trend = model.TrendIncreasing
		}

		factors := []string{
			fmt.Sprintf("Historical spend of %.2f kr across %d transactions", total, categoryCounts[category]),
			fmt.Sprintf("Monthly average scaled to %s (x%d)", period, multiplier),
		}
		if seasonalFactor != "" {
			factors = append(factors, seasonalFactor)
		}

		predictions = append(predictions, model.SpendPrediction{
			Category:        category,
			Period:          period,
			PredictedAmount: predicted,
			Confidence:      confidence,
			Trend:           trend,
			Factors:         factors,
		})
		totalPredicted += predicted
		confidenceSum += confidence
	}

	totalPredicted = round2(totalPredicted)

	result := &model.PredictiveAnalysisResult{
		OrganizationType:      orgType,
		Timeframe:             timeframe,
		AnalysisType:          analysisType,
		Predictions:           predictions,
		SeasonalInsights:      SeasonalInsights(),
		BudgetRecommendations: budgetRecommendations(totalPredicted, orgType),
		TransactionsAnalyzed:  len(txns),
		SkippedDates:          skipped,
		TotalPredictedSpend:   totalPredicted,
		ConfidenceScore:       confidenceSum / float64(len(predictions)),
	}

	applyVariant(result, analysisType)

	slog.Debug("Predicted spend",
		"categories", len(predictions),
		"timeframe", timeframe,
		"analysis_type", analysisType,
		"total", totalPredicted)

	return result, nil
}

// ConfidenceFor grows with total spend and never exceeds ConfidenceCap.
func ConfidenceFor(total float64) float64 {
	if total < 0 {
		total = 0
	}
	confidence := ConfidenceBase + total/ConfidenceScale
	if confidence > ConfidenceCap {
		return ConfidenceCap
	}
	return confidence
}

// seasonalMultiplier returns the category multiplier and a factor describing it.
func seasonalMultiplier(category string, monthTotals map[time.Month]float64) (float64, string) {
	lower := strings.ToLower(category)

	switch {
	case containsAny(lower, "grocer", "dagligvare", "matvare"):
		return GroceryMultiplier, "Grocery spend is upweighted by 10%"
	case containsAny(lower, "alcohol", "alkohol", "vinmonopol"):
		if monthTotals[time.December] > monthTotals[time.June] {
			return AlcoholUpMultiplier, "December spend exceeds June, alcohol upweighted by 20%"
		}
		return AlcoholDownMultiplier, "December spend does not exceed June, alcohol downweighted by 10%"
	default:
		return 1.0, ""
	}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// SeasonalInsights returns the fixed catalog of cultural spending events.
func SeasonalInsights() []model.SeasonalInsight {
	return []model.SeasonalInsight{
		{
			Event:            "Jul",
			Period:           "December",
			ExpectedIncrease: 1.8,
			Categories:       []string{"grocery", "gifts", "alcohol"},
			Recommendation:   "Set aside funds for Christmas events by November",
		},
		{
			Event:            "17. mai",
			Period:           "May",
			ExpectedIncrease: 1.4,
			Categories:       []string{"grocery", "decorations", "clothing"},
			Recommendation:   "Order flags and party supplies early in May",
		},
		{
			Event:            "Påske",
			Period:           "March-April",
			ExpectedIncrease: 1.3,
			Categories:       []string{"grocery", "travel"},
			Recommendation:   "Buy cabin food before prices rise in mountain stores",
		},
		{
			Event:            "Sommer",
			Period:           "June-August",
			ExpectedIncrease: 1.2,
			Categories:       []string{"travel", "leisure"},
			Recommendation:   "Plan summer activities before the July holiday",
		},
		{
			Event:            "Skolestart",
			Period:           "August-September",
			ExpectedIncrease: 1.25,
			Categories:       []string{"supplies", "clothing"},
			Recommendation:   "Use campaign prices on school supplies in August",
		},
	}
}

func budgetRecommendations(totalPredicted float64, orgType string) []model.BudgetRecommendation {
	return []model.BudgetRecommendation{
		{
			Name:              "Emergency reserve",
			RecommendedAmount: round2(totalPredicted * EmergencyReserveShare),
			Rationale:         fmt.Sprintf("15%% of predicted spend held back for unplanned %s expenses", orgTypeLabel(orgType)),
			RiskLevel:         "low",
			OptimizationTips: []string{
				"Keep the reserve in a separate account",
				"Review the reserve level each quarter",
			},
		},
		{
			Name:              "Seasonal events",
			RecommendedAmount: round2(totalPredicted * SeasonalEventsShare),
			Rationale:         "25% of predicted spend allocated to Christmas, 17. mai and summer activities",
			RiskLevel:         "medium",
			OptimizationTips: []string{
				"Buy seasonal goods during campaign weeks",
				"Compare prices across grocery chains",
			},
		},
	}
}

func orgTypeLabel(orgType string) string {
	if strings.TrimSpace(orgType) == "" {
		return "organization"
	}
	return orgType
}

// applyVariant adjusts the report for the requested analysis type.
func applyVariant(result *model.PredictiveAnalysisResult, analysisType string) {
	switch analysisType {
	case model.AnalysisSeasonalTrends:
		for i := range result.SeasonalInsights {
			result.SeasonalInsights[i].ExpectedIncrease = round2(result.SeasonalInsights[i].ExpectedIncrease * TrendInsightMarkup)
		}
	case model.AnalysisBudgetForecast:
		for i := range result.BudgetRecommendations {
			rec := &result.BudgetRecommendations[i]
			rec.RecommendedAmount = round2(rec.RecommendedAmount * ForecastMarkup)
			rec.Rationale = "Conservative estimate: " + rec.Rationale
		}
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
