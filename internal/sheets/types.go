package sheets

import (
	"sort"
	"strings"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/shopspring/decimal"
)

// PredictionRow represents a single row in the Predictions section.
type PredictionRow struct {
	Category   string
	Period     string
	Trend      string
	Factors    string
	Amount     decimal.Decimal
	Confidence decimal.Decimal
}

// InsightRow represents a single row in the Seasonal Insights section.
type InsightRow struct {
	Event            string
	Period           string
	Categories       string
	Recommendation   string
	ExpectedIncrease decimal.Decimal
}

// BudgetRow represents a single row in the Budget section.
type BudgetRow struct {
	Name      string
	RiskLevel string
	Rationale string
	Amount    decimal.Decimal
}

// Report holds all the data for a spreadsheet export.
type Report struct {
	OrganizationType string
	Timeframe        string
	AnalysisType     string
	Predictions      []PredictionRow
	Insights         []InsightRow
	Budget           []BudgetRow
	TotalPredicted   decimal.Decimal
	TotalBudget      decimal.Decimal
	Transactions     int
}

// BuildReport converts a prediction result into spreadsheet rows. Predictions
// are ordered by amount, largest first.
func BuildReport(result *model.PredictiveAnalysisResult) Report {
	report := Report{
		OrganizationType: result.OrganizationType,
		Timeframe:        result.Timeframe,
		AnalysisType:     result.AnalysisType,
		TotalPredicted:   decimal.NewFromFloat(result.TotalPredictedSpend).Round(2),
		Transactions:     result.TransactionsAnalyzed,
	}

	for _, p := range result.Predictions {
		report.Predictions = append(report.Predictions, PredictionRow{
			Category:   p.Category,
			Period:     p.Period,
			Trend:      p.Trend,
			Factors:    strings.Join(p.Factors, ", "),
			Amount:     decimal.NewFromFloat(p.PredictedAmount).Round(2),
			Confidence: decimal.NewFromFloat(p.Confidence).Round(2),
		})
	}
	sort.SliceStable(report.Predictions, func(i, j int) bool {
		return report.Predictions[i].Amount.GreaterThan(report.Predictions[j].Amount)
	})

	for _, insight := range result.SeasonalInsights {
		report.Insights = append(report.Insights, InsightRow{
			Event:            insight.Event,
			Period:           insight.Period,
			Categories:       strings.Join(insight.Categories, ", "),
			Recommendation:   insight.Recommendation,
			ExpectedIncrease: decimal.NewFromFloat(insight.ExpectedIncrease).Round(2),
		})
	}

	total := decimal.Zero
	for _, line := range result.BudgetRecommendations {
		amount := decimal.NewFromFloat(line.RecommendedAmount).Round(2)
		total = total.Add(amount)
		report.Budget = append(report.Budget, BudgetRow{
			Name:      line.Name,
			RiskLevel: line.RiskLevel,
			Rationale: line.Rationale,
			Amount:    amount,
		})
	}
	report.TotalBudget = total

	return report
}
