// Package service defines the interfaces shared between the engine and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/kvittering/internal/model"
)

// HistoryFilter narrows historical transaction queries.
type HistoryFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
	Limit     int
}

// HistoryStorage persists historical transactions used for spend predictions.
type HistoryStorage interface {
	SaveHistoricalTransactions(ctx context.Context, transactions []model.HistoricalTransaction) (int, error)
	GetHistoricalTransactions(ctx context.Context, filter HistoryFilter) ([]model.HistoricalTransaction, error)
}

// AdjustmentUpdate moves one merchant's stored adjustment. Apply receives
// the stored value, or Default when the merchant has none yet.
type AdjustmentUpdate struct {
	Apply    func(current float64) float64
	Merchant string
	Default  float64
}

// CorrectionRecord is what the journal assigned and changed for one correction.
type CorrectionRecord struct {
	Seq          uint64
	SimilarCases int
	Before       float64
	After        float64
}

// CorrectionStorage persists user corrections and the adjustments derived from them.
// RecordCorrection is atomic across every handle on the same database.
type CorrectionStorage interface {
	RecordCorrection(ctx context.Context, correction model.Correction, update *AdjustmentUpdate) (CorrectionRecord, error)
	LoadCorrections(ctx context.Context) ([]model.Correction, error)
	LoadAdjustments(ctx context.Context) (map[string]float64, error)
	LastSequence(ctx context.Context) (uint64, error)
}

// Storage is the full persistence contract of the application.
type Storage interface {
	HistoryStorage
	CorrectionStorage

	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter exports a prediction report to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, result *model.PredictiveAnalysisResult) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
