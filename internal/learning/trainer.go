package learning

import (
	"context"
	"math"

	"github.com/Veraticus/kvittering/internal/model"
)

// Fine-tune metric bounds. Accuracy never drops below the floor and loss
// never rises above the ceiling.
const (
	AccuracyFloor = 0.85
	AccuracyCap   = 0.99
	LossCeiling   = 0.15
	LossFloor     = 0.02

	minEpochs = 3
	maxEpochs = 10
)

// FineTune runs the simulated training pass over the current buffer.
//
// The metrics are a pure function of the example count n:
//
//	progress = n / (n + 100)
//	accuracy = 0.85 + (0.99-0.85) * progress
//	loss     = 0.15 - (0.15-0.02) * progress
//	epochs   = min(3 + n/1000, 10)
func (s *Store) FineTune(ctx context.Context) (model.TrainingMetrics, error) {
	if err := s.acquire(ctx); err != nil {
		return model.TrainingMetrics{}, err
	}
	n := len(s.examples)
	s.release()

	metrics := TrainingMetricsFor(n)
	metrics.CompletedAt = s.now()
	return metrics, nil
}

// TrainingMetricsFor computes the metrics reported for n examples.
func TrainingMetricsFor(n int) model.TrainingMetrics {
	if n < 0 {
		n = 0
	}
	progress := float64(n) / float64(n+100)

	return model.TrainingMetrics{
		Examples: n,
		Epochs:   int(math.Min(float64(minEpochs+n/1000), maxEpochs)),
		Accuracy: AccuracyFloor + (AccuracyCap-AccuracyFloor)*progress,
		Loss:     LossCeiling - (LossCeiling-LossFloor)*progress,
	}
}
