package model

// Trend directions for spend predictions.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
)

// Timeframes accepted by the predictive analyzer.
const (
	TimeframeNextMonth   = "next_month"
	TimeframeNextQuarter = "next_quarter"
	TimeframeNextYear    = "next_year"
)

// Analysis variants accepted by the predictive analyzer.
const (
	AnalysisSeasonalTrends = "seasonal_trends"
	AnalysisBudgetForecast = "budget_forecast"
)

// SpendPrediction is the forecast for a single category.
type SpendPrediction struct {
	Category        string   `json:"category"`
	Period          string   `json:"period"`
	Trend           string   `json:"trend"`
	Factors         []string `json:"factors"`
	PredictedAmount float64  `json:"predicted_amount"`
	Confidence      float64  `json:"confidence"`
}

// SeasonalInsight describes expected spending around a cultural event.
type SeasonalInsight struct {
	Event            string   `json:"event"`
	Period           string   `json:"period"`
	Recommendation   string   `json:"recommendation"`
	Categories       []string `json:"categories"`
	ExpectedIncrease float64  `json:"expected_increase"`
}

// BudgetRecommendation is a suggested reserve line.
type BudgetRecommendation struct {
	Name              string   `json:"name"`
	Rationale         string   `json:"rationale"`
	RiskLevel         string   `json:"risk_level"`
	OptimizationTips  []string `json:"optimization_tips"`
	RecommendedAmount float64  `json:"recommended_amount"`
}

// PredictiveAnalysisResult is the full output of a prediction request.
type PredictiveAnalysisResult struct {
	OrganizationType      string                 `json:"organization_type"`
	Timeframe             string                 `json:"timeframe"`
	AnalysisType          string                 `json:"analysis_type"`
	Predictions           []SpendPrediction      `json:"predictions"`
	SeasonalInsights      []SeasonalInsight      `json:"seasonal_insights"`
	BudgetRecommendations []BudgetRecommendation `json:"budget_recommendations"`
	TransactionsAnalyzed  int                    `json:"transactions_analyzed"`
	SkippedDates          int                    `json:"skipped_dates"`
	TotalPredictedSpend   float64                `json:"total_predicted_spend"`
	ConfidenceScore       float64                `json:"confidence_score"`
}
