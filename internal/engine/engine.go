// Package engine composes merchant detection, VAT, seasonal and compliance
// rules into receipt analyses, and exposes corrections and spend predictions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/kvittering/internal/analytics"
	"github.com/Veraticus/kvittering/internal/catalog"
	"github.com/Veraticus/kvittering/internal/classification"
	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/compliance"
	"github.com/Veraticus/kvittering/internal/learning"
	"github.com/Veraticus/kvittering/internal/metrics"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/ocr"
	"github.com/Veraticus/kvittering/internal/seasonal"
	"github.com/Veraticus/kvittering/internal/vat"
)

// Engine is safe for concurrent use. All shared mutable state lives in the
// learning store.
type Engine struct {
	catalog       *catalog.Catalog
	amounts       *classification.AmountExtractor
	detector      *classification.MerchantDetector
	learning      *learning.Store
	vat           *vat.Classifier
	compliance    *compliance.Evaluator
	analyzer      *analytics.Analyzer
	extractor     ocr.TextExtractor
	metrics       *metrics.Metrics
	defaultAmount float64
}

// Config holds configuration options for the engine.
type Config struct {
	Extractor     ocr.TextExtractor
	Metrics       *metrics.Metrics
	Aliases       []classification.Alias
	DefaultAmount float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Extractor:     ocr.Sniffer{},
		Aliases:       classification.DefaultAliases(),
		DefaultAmount: 100.0,
	}
}

// New creates an engine with the default configuration.
func New(c *catalog.Catalog, store *learning.Store) *Engine {
	return NewWithConfig(c, store, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration. A nil store
// is replaced with a memory-only one.
func NewWithConfig(c *catalog.Catalog, store *learning.Store, config Config) *Engine {
	if store == nil {
		store = learning.NewStore(learning.DefaultConfig(), nil)
	}
	if config.Extractor == nil {
		config.Extractor = ocr.Sniffer{}
	}
	if config.DefaultAmount <= 0 {
		config.DefaultAmount = DefaultConfig().DefaultAmount
	}

	return &Engine{
		catalog:       c,
		amounts:       classification.DefaultAmountExtractor(),
		detector:      classification.NewMerchantDetector(c, config.Aliases),
		learning:      store,
		vat:           vat.DefaultClassifier(),
		compliance:    compliance.DefaultEvaluator(),
		analyzer:      analytics.NewAnalyzer(),
		extractor:     config.Extractor,
		metrics:       config.Metrics,
		defaultAmount: config.DefaultAmount,
	}
}

// Classify analyzes one receipt. Blank text is an input validation error;
// every other input yields a best-effort analysis.
func (e *Engine) Classify(ctx context.Context, text, orgType string, now time.Time) (*model.NorwegianAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	amount, detected := e.amounts.Extract(text)
	if !detected {
		amount = e.defaultAmount
	}

	merchant := e.detector.DetectOrFallback(text, e.learning)
	season := seasonal.ContextFor(now)
	vatAnalysis := e.vat.Classify(amount, merchant.Profile, text)
	decision := e.compliance.Evaluate(orgType, merchant.Profile, amount)

	analysis := &model.NorwegianAnalysis{
		AnalyzedAt:     now,
		Amount:         amount,
		AmountDetected: detected,
		Merchant:       merchant,
		Seasonal:       season,
		Vat:            vatAnalysis,
		Compliance:     decision,
		SeasonalHints:  seasonal.Hints(season, merchant.Profile),
		Summary:        summarize(amount, merchant, vatAnalysis, decision),
	}

	e.metrics.ObserveClassification(string(merchant.MatchedBy), time.Since(start).Seconds())
	slog.Debug("Classified receipt",
		"merchant", merchant.Profile.Name,
		"matched_by", merchant.MatchedBy,
		"amount", amount,
		"vat_rate", vatAnalysis.DetectedRate)

	return analysis, nil
}

// ClassifyDocument extracts the text of blob and classifies it.
func (e *Engine) ClassifyDocument(ctx context.Context, blob []byte, orgType string, now time.Time) (*model.NorwegianAnalysis, error) {
	if len(blob) == 0 {
		return nil, common.ErrEmptyText
	}

	text, err := e.extractor.ExtractText(ctx, blob)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document text: %w", err)
	}

	return e.Classify(ctx, text, orgType, now)
}

// SubmitCorrection records user feedback. On lock contention or a rejected
// journal write the outcome reports Applied=false together with the error;
// contention errors are retryable.
func (e *Engine) SubmitCorrection(ctx context.Context, correction model.Correction) (*model.CorrectionOutcome, error) {
	res, err := e.learning.Submit(ctx, correction)
	if err != nil {
		if common.IsInputValidation(err) {
			return nil, err
		}
		if errors.Is(err, common.ErrLockContention) {
			e.metrics.ObserveLockContention()
		}
		e.metrics.ObserveCorrection(false)
		return &model.CorrectionOutcome{CorrectionID: res.CorrectionID, Applied: false}, err
	}

	outcome := &model.CorrectionOutcome{
		CorrectionID:        res.CorrectionID,
		Applied:             res.Applied,
		SimilarCasesUpdated: res.SimilarCases,
	}

	if res.AdjustedMerchant {
		base := e.baseConfidence(res.Merchant)
		improvement := classification.EffectiveConfidence(base, res.After) -
			classification.EffectiveConfidence(base, res.Before)
		outcome.ConfidenceImprovement = &improvement
	}

	e.metrics.ObserveCorrection(true)
	common.LogDebug("Correction applied", common.Fields{
		"correction_id": res.CorrectionID,
		"merchant":      res.Merchant,
		"similar_cases": res.SimilarCases,
		"adjustment":    res.After,
	})

	return outcome, nil
}

// Predict forecasts spend from historical transactions.
func (e *Engine) Predict(ctx context.Context, txns []model.HistoricalTransaction, orgType, timeframe, analysisType string) (*model.PredictiveAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.analyzer.Analyze(txns, orgType, timeframe, analysisType)
	if err != nil {
		return nil, err
	}

	e.metrics.ObservePrediction(analysisType)
	return result, nil
}

// Train runs the simulated fine-tuning pass over the correction buffer.
func (e *Engine) Train(ctx context.Context) (model.TrainingMetrics, error) {
	trained, err := e.learning.FineTune(ctx)
	if err != nil {
		if errors.Is(err, common.ErrLockContention) {
			e.metrics.ObserveLockContention()
		}
		return model.TrainingMetrics{}, err
	}
	return trained, nil
}

// DetectMerchant exposes merchant detection for importers.
func (e *Engine) DetectMerchant(text string) model.DetectionResult {
	return e.detector.DetectOrFallback(text, e.learning)
}

// baseConfidence finds the catalog confidence for a merchant display name.
func (e *Engine) baseConfidence(name string) float64 {
	for _, entry := range e.catalog.All() {
		if strings.EqualFold(entry.Profile.Name, strings.TrimSpace(name)) {
			return entry.Profile.BaseConfidence
		}
	}
	return model.UnknownMerchant().BaseConfidence
}

func summarize(amount float64, merchant model.DetectionResult, v model.VatAnalysis, d model.ComplianceDecision) string {
	return fmt.Sprintf("%.2f kr at %s (%s, %.0f%% confidence). VAT %d%%: %.2f kr. %s.",
		amount,
		merchant.Profile.Name,
		merchant.Profile.Category,
		merchant.EffectiveConfidence*100,
		v.DetectedRate,
		v.VatAmount,
		d.DeductibilityVerdict)
}
