package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/kvittering/internal/catalog"
	"github.com/Veraticus/kvittering/internal/engine"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// FormatAnalysis renders a receipt analysis for the terminal.
func FormatAnalysis(a *model.NorwegianAnalysis) string {
	if a == nil {
		return FormatError("No analysis available")
	}

	amount := fmt.Sprintf("%.2f kr", a.Amount)
	if !a.AmountDetected {
		amount += SubtleStyle.Render(" (estimated)")
	}

	lines := []string{
		field("Merchant", fmt.Sprintf("%s (%s)", a.Merchant.Profile.Name, a.Merchant.Profile.Category)),
		field("Confidence", confidenceStyle(a.Merchant.EffectiveConfidence).Render(fmt.Sprintf("%.0f%%", a.Merchant.EffectiveConfidence*100))+
			SubtleStyle.Render(" via "+string(a.Merchant.MatchedBy))),
		field("Amount", amount),
		field("VAT", fmt.Sprintf("%d%% = %.2f kr", a.Vat.DetectedRate, a.Vat.VatAmount)),
		field("Compliance", complianceStyle(a.Vat.ComplianceStatus).Render(a.Vat.ComplianceStatus)),
		field("Season", seasonLabel(a.Seasonal)),
		"",
		BoldStyle.Render("Deductibility: ") + a.Compliance.DeductibilityVerdict,
	}

	if a.Compliance.ApprovalRequired {
		lines = append(lines, FormatWarning("Board approval required"))
	}
	if len(a.Compliance.RequiredDocuments) > 0 {
		lines = append(lines, SubtleStyle.Render("Documents:"))
		for _, doc := range a.Compliance.RequiredDocuments {
			lines = append(lines, "  • "+doc)
		}
	}
	if len(a.SeasonalHints) > 0 {
		lines = append(lines, SubtleStyle.Render("Seasonal products: "+strings.Join(a.SeasonalHints, ", ")))
	}

	return RenderBox(ReceiptIcon+" Receipt analysis", strings.Join(lines, "\n"))
}

// FormatCorrection renders the outcome of a submitted correction.
func FormatCorrection(o *model.CorrectionOutcome) string {
	if o == nil || !o.Applied {
		return FormatWarning("Correction was not applied")
	}

	parts := []string{FormatSuccess(fmt.Sprintf("Correction %s applied", o.CorrectionID))}
	if o.ConfidenceImprovement != nil {
		parts = append(parts, FormatInfo(fmt.Sprintf("Confidence change: %+.2f", *o.ConfidenceImprovement)))
	}
	parts = append(parts, FormatInfo(fmt.Sprintf("Similar earlier corrections: %d", o.SimilarCasesUpdated)))
	return strings.Join(parts, "\n")
}

// FormatPrediction renders a spend prediction with budget lines and seasonal insights.
func FormatPrediction(r *model.PredictiveAnalysisResult) string {
	if r == nil {
		return FormatError("No prediction available")
	}

	var sections []string

	header := TitleStyle.Render(ChartIcon + " Spend forecast")
	meta := SubtitleStyle.Render(fmt.Sprintf("%s · %s · %d transactions", r.OrganizationType, r.Timeframe, r.TransactionsAnalyzed))
	sections = append(sections, header+"\n"+meta)

	rows := [][]string{{"Category", "Amount", "Confidence", "Trend"}}
	for _, p := range r.Predictions {
		rows = append(rows, []string{
			p.Category,
			fmt.Sprintf("%.2f kr", p.PredictedAmount),
			fmt.Sprintf("%.0f%%", p.Confidence*100),
			p.Trend,
		})
	}
	sections = append(sections, renderTable(rows))
	sections = append(sections, BoldStyle.Render(fmt.Sprintf("Total predicted spend: %.2f kr", r.TotalPredictedSpend)))

	if len(r.BudgetRecommendations) > 0 {
		budget := []string{BoldStyle.Render("Budget")}
		for _, b := range r.BudgetRecommendations {
			budget = append(budget, fmt.Sprintf("  %s: %.2f kr %s", b.Name, b.RecommendedAmount, SubtleStyle.Render("("+b.RiskLevel+" risk)")))
		}
		sections = append(sections, strings.Join(budget, "\n"))
	}

	if len(r.SeasonalInsights) > 0 {
		insights := []string{BoldStyle.Render("Seasonal insights")}
		for _, s := range r.SeasonalInsights {
			insights = append(insights, fmt.Sprintf("  %s (%s): ×%.2f %s", s.Event, s.Period, s.ExpectedIncrease, SubtleStyle.Render(s.Recommendation)))
		}
		sections = append(sections, strings.Join(insights, "\n"))
	}

	if r.SkippedDates > 0 {
		sections = append(sections, FormatWarning(fmt.Sprintf("%d transactions had unreadable dates and were left out of the monthly view", r.SkippedDates)))
	}

	return strings.Join(sections, "\n\n")
}

// FormatBatchSummary renders the per-document outcome of a batch run.
func FormatBatchSummary(s *engine.BatchSummary) string {
	if s == nil {
		return FormatError("No batch results")
	}

	rows := [][]string{{"Document", "Merchant", "Amount", "VAT"}}
	var failures []string
	for _, r := range s.Results {
		if r.Error != nil {
			failures = append(failures, FormatError(fmt.Sprintf("%s: %v", r.Name, r.Error)))
			continue
		}
		rows = append(rows, []string{
			r.Name,
			r.Analysis.Merchant.Profile.Name,
			fmt.Sprintf("%.2f kr", r.Analysis.Amount),
			fmt.Sprintf("%d%%", r.Analysis.Vat.DetectedRate),
		})
	}

	sections := []string{renderTable(rows)}
	if len(failures) > 0 {
		sections = append(sections, strings.Join(failures, "\n"))
	}
	progress := ProgressStyle.Render(fmt.Sprintf("%d/%d documents", s.Classified, len(s.Results)))
	sections = append(sections, progress+"\n"+FormatInfo(fmt.Sprintf("%d classified, %d failed in %s",
		s.Classified, s.Failed, s.ProcessingTime.Round(time.Millisecond))))
	return strings.Join(sections, "\n\n")
}

// FormatCatalog renders the merchant catalog.
func FormatCatalog(entries []catalog.Entry) string {
	rows := [][]string{{"Key", "Name", "Category", "VAT", "Confidence"}}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Key,
			e.Profile.Name,
			e.Profile.Category,
			fmt.Sprintf("%d%%", e.Profile.TypicalVatRate),
			fmt.Sprintf("%.2f", e.Profile.BaseConfidence),
		})
	}
	return TitleStyle.Render(StoreIcon+fmt.Sprintf(" %d merchants", len(entries))) + "\n" + renderTable(rows)
}

// FormatTraining renders simulated fine-tuning metrics.
func FormatTraining(m model.TrainingMetrics) string {
	lines := []string{
		field("Examples", fmt.Sprintf("%d", m.Examples)),
		field("Epochs", fmt.Sprintf("%d", m.Epochs)),
		field("Accuracy", fmt.Sprintf("%.1f%%", m.Accuracy*100)),
		field("Loss", fmt.Sprintf("%.3f", m.Loss)),
	}
	return RenderBox("Training", strings.Join(lines, "\n"))
}

func field(label, value string) string {
	return SubtleStyle.Render(fmt.Sprintf("%-11s", label)) + value
}

func seasonLabel(s model.SeasonalProfile) string {
	if s.CulturalEvent == "" {
		return s.SeasonLabel
	}
	return fmt.Sprintf("%s (%s)", s.SeasonLabel, s.CulturalEvent)
}

func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.85:
		return SuccessStyle
	case confidence >= 0.5:
		return WarningStyle
	default:
		return ErrorStyle
	}
}

func complianceStyle(status string) lipgloss.Style {
	if status == model.ComplianceCompliant {
		return SuccessStyle
	}
	return WarningStyle
}

// renderTable lays rows out in padded columns; the first row is the header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			style := TableCellStyle.Width(widths[i] + 2)
			if r == 0 {
				style = style.Bold(true)
			}
			cells[i] = style.Render(cell)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if r == 0 {
			line = TableHeaderStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
