// Package learning keeps user corrections and the per-merchant confidence
// adjustments derived from them.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/service"
	"github.com/google/uuid"
)

// Adjustment bounds and steps.
const (
	DefaultAdjustment = 0.5
	MinAdjustment     = 0.1
	MaxAdjustment     = 0.99
	PositiveStep      = 0.1
	NegativeStep      = 0.05

	// PositiveRatingThreshold is the rating above which a correction raises confidence.
	PositiveRatingThreshold = 7
)

// Config controls the store's resource bounds.
type Config struct {
	MaxExamples   int
	EvictionBatch int
	LockTimeout   time.Duration
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		MaxExamples:   10000,
		EvictionBatch: 1000,
		LockTimeout:   2 * time.Second,
	}
}

// TrainingExample is a correction reduced to what fine-tuning consumes.
type TrainingExample struct {
	AddedAt  time.Time
	Input    string
	Merchant string
	Category string
	Rating   int
}

// Submission reports the effect of one Submit call.
type Submission struct {
	CorrectionID     string
	Merchant         string
	Before           float64
	After            float64
	SimilarCases     int
	Sequence         uint64
	Applied          bool
	AdjustedMerchant bool
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Corrections int
	Examples    int
	Merchants   int
}

// Store is the single shared mutable state of the engine. One lock guards
// the correction log, the adjustment map and the training buffer; it is
// never held across journal I/O.
type Store struct {
	journal     service.CorrectionStorage
	now         func() time.Time
	lock        chan struct{}
	adjustments map[string]float64
	corrections []model.Correction
	examples    []TrainingExample
	cfg         Config
	seq         uint64
}

// NewStore creates an empty store. journal may be nil for a memory-only store.
func NewStore(cfg Config, journal service.CorrectionStorage) *Store {
	defaults := DefaultConfig()
	if cfg.MaxExamples <= 0 {
		cfg.MaxExamples = defaults.MaxExamples
	}
	if cfg.EvictionBatch <= 0 {
		cfg.EvictionBatch = defaults.EvictionBatch
	}
	if cfg.EvictionBatch > cfg.MaxExamples {
		cfg.EvictionBatch = cfg.MaxExamples
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaults.LockTimeout
	}

	return &Store{
		journal:     journal,
		now:         time.Now,
		lock:        make(chan struct{}, 1),
		adjustments: make(map[string]float64),
		cfg:         cfg,
	}
}

// Restore loads the journal snapshot into an empty store.
func (s *Store) Restore(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}

	corrections, err := s.journal.LoadCorrections(ctx)
	if err != nil {
		return fmt.Errorf("failed to load corrections: %w", err)
	}
	adjustments, err := s.journal.LoadAdjustments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load adjustments: %w", err)
	}
	seq, err := s.journal.LastSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to load journal sequence: %w", err)
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.corrections = append(s.corrections[:0], corrections...)
	s.examples = s.examples[:0]
	for _, c := range corrections {
		s.addExample(c)
	}
	for merchant, value := range adjustments {
		s.adjustments[normalize(merchant)] = clampAdjustment(value)
	}
	s.seq = seq

	slog.Debug("Restored learning store",
		"corrections", len(corrections),
		"adjustments", len(adjustments),
		"seq", seq)
	return nil
}

// Submit records a correction and, when it names a merchant, moves that
// merchant's adjustment. With a journal the correction is committed there
// first and the in-memory state folds in what the journal assigned, so
// stores on separate handles of one database never lose each other's
// updates. Applied is false when the lock or the journal's database lock
// could not be taken (the error wraps common.ErrLockContention) or the
// journal rejected the write.
func (s *Store) Submit(ctx context.Context, correction model.Correction) (Submission, error) {
	if correction.ConfidenceRating < 1 || correction.ConfidenceRating > 10 {
		return Submission{}, fmt.Errorf("%w: got %d", common.ErrInvalidRating, correction.ConfidenceRating)
	}
	if correction.ID == "" {
		correction.ID = uuid.NewString()
	}
	if correction.CreatedAt.IsZero() {
		correction.CreatedAt = s.now()
	}

	if s.journal != nil {
		return s.submitJournaled(ctx, correction)
	}

	if err := s.acquire(ctx); err != nil {
		return Submission{CorrectionID: correction.ID}, err
	}
	defer s.release()

	result := Submission{
		CorrectionID: correction.ID,
		Applied:      true,
	}

	if correction.HasMerchant() {
		key := normalize(correction.CorrectedMerchant)
		result.Merchant = correction.CorrectedMerchant
		result.AdjustedMerchant = true
		result.SimilarCases = s.similarLocked(key)
		result.Before = s.adjustmentLocked(key)
		result.After = nudge(result.Before, correction.ConfidenceRating)
		s.adjustments[key] = result.After
	}

	s.corrections = append(s.corrections, correction)
	s.addExample(correction)
	s.seq++
	result.Sequence = s.seq
	return result, nil
}

func (s *Store) submitJournaled(ctx context.Context, correction model.Correction) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{CorrectionID: correction.ID}, fmt.Errorf("%w: %w", common.ErrLockContention, err)
	}

	var update *service.AdjustmentUpdate
	key := ""
	if correction.HasMerchant() {
		key = normalize(correction.CorrectedMerchant)
		rating := correction.ConfidenceRating
		update = &service.AdjustmentUpdate{
			Merchant: key,
			Default:  DefaultAdjustment,
			Apply: func(current float64) float64 {
				return nudge(clampAdjustment(current), rating)
			},
		}
	}

	record, err := s.journal.RecordCorrection(ctx, correction, update)
	if err != nil {
		return Submission{CorrectionID: correction.ID},
			fmt.Errorf("failed to journal correction %s: %w", correction.ID, err)
	}

	result := Submission{
		CorrectionID: correction.ID,
		Sequence:     record.Seq,
		Applied:      true,
	}
	if update != nil {
		result.Merchant = correction.CorrectedMerchant
		result.AdjustedMerchant = true
		result.SimilarCases = record.SimilarCases
		result.Before = clampAdjustment(record.Before)
		result.After = record.After
	}

	// The journal already holds the correction; a busy lock only delays this
	// process's view until the next Restore.
	if err := s.acquire(ctx); err != nil {
		common.LogWarn("Journaled correction not folded into memory", common.Fields{
			"correction_id": correction.ID,
			"seq":           record.Seq,
			"error":         err.Error(),
		})
		return result, nil
	}
	defer s.release()

	if update != nil {
		s.adjustments[key] = record.After
	}
	s.corrections = append(s.corrections, correction)
	s.addExample(correction)
	if record.Seq > s.seq {
		s.seq = record.Seq
	}
	return result, nil
}

// SimilarCaseCount returns how many recorded corrections name merchant.
func (s *Store) SimilarCaseCount(merchant string) int {
	s.lock <- struct{}{}
	defer s.release()
	return s.similarLocked(normalize(merchant))
}

// AdjustmentFor returns the learned adjustment for merchant, 0.5 when unseen.
func (s *Store) AdjustmentFor(merchant string) float64 {
	s.lock <- struct{}{}
	defer s.release()
	return s.adjustmentLocked(normalize(merchant))
}

// Corrections returns a copy of the correction log in submission order.
func (s *Store) Corrections() []model.Correction {
	s.lock <- struct{}{}
	defer s.release()

	out := make([]model.Correction, len(s.corrections))
	copy(out, s.corrections)
	return out
}

// Examples returns a copy of the training buffer, oldest first.
func (s *Store) Examples() []TrainingExample {
	s.lock <- struct{}{}
	defer s.release()

	out := make([]TrainingExample, len(s.examples))
	copy(out, s.examples)
	return out
}

// Stats summarizes the store.
func (s *Store) Stats() Stats {
	s.lock <- struct{}{}
	defer s.release()

	return Stats{
		Corrections: len(s.corrections),
		Examples:    len(s.examples),
		Merchants:   len(s.adjustments),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrLockContention, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", common.ErrLockContention, ctx.Err())
	}
}

func (s *Store) release() {
	<-s.lock
}

func (s *Store) similarLocked(key string) int {
	count := 0
	for _, c := range s.corrections {
		if c.HasMerchant() && normalize(c.CorrectedMerchant) == key {
			count++
		}
	}
	return count
}

func (s *Store) adjustmentLocked(key string) float64 {
	if v, ok := s.adjustments[key]; ok {
		return v
	}
	return DefaultAdjustment
}

// addExample appends to the training buffer, evicting the oldest batch when full.
func (s *Store) addExample(c model.Correction) {
	if len(s.examples) >= s.cfg.MaxExamples {
		remaining := make([]TrainingExample, len(s.examples)-s.cfg.EvictionBatch, s.cfg.MaxExamples)
		copy(remaining, s.examples[s.cfg.EvictionBatch:])
		s.examples = remaining
		slog.Debug("Evicted training examples", "evicted", s.cfg.EvictionBatch, "remaining", len(s.examples))
	}

	s.examples = append(s.examples, TrainingExample{
		AddedAt:  c.CreatedAt,
		Input:    c.OriginalText,
		Merchant: c.CorrectedMerchant,
		Category: c.CorrectedCategory,
		Rating:   c.ConfidenceRating,
	})
}

func nudge(current float64, rating int) float64 {
	if rating > PositiveRatingThreshold {
		return clampAdjustment(current + PositiveStep)
	}
	return clampAdjustment(current - NegativeStep)
}

func clampAdjustment(v float64) float64 {
	if v > MaxAdjustment {
		return MaxAdjustment
	}
	if v < MinAdjustment {
		return MinAdjustment
	}
	return v
}

// normalize folds merchant names so "REMA 1000" and "rema 1000 " share an adjustment.
func normalize(merchant string) string {
	return strings.ToUpper(strings.TrimSpace(merchant))
}
