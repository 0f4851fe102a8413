// Package storage provides the SQLite persistence layer for corrections and transaction history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/kvittering/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrEmptySlice          = errors.New("slice cannot be empty")
	ErrInvalidDateRange    = errors.New("start date must be before end date")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrInvalidCorrection   = errors.New("invalid correction")
	ErrDuplicateCorrection = errors.New("duplicate correction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateHistoricalTransactions validates a slice of historical transactions.
func validateHistoricalTransactions(transactions []model.HistoricalTransaction) error {
	if len(transactions) == 0 {
		return fmt.Errorf("%w: transactions", ErrEmptySlice)
	}

	for i := range transactions {
		txn := &transactions[i]
		if strings.TrimSpace(txn.Date) == "" {
			return fmt.Errorf("%w at index %d: date is required", ErrInvalidTransaction, i)
		}
		if strings.TrimSpace(txn.Merchant) == "" {
			return fmt.Errorf("%w at index %d: merchant is required", ErrInvalidTransaction, i)
		}
	}
	return nil
}

// validateCorrection validates a correction before it is journaled.
func validateCorrection(c *model.Correction) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidCorrection)
	}
	if c.ConfidenceRating < 1 || c.ConfidenceRating > 10 {
		return fmt.Errorf("%w: rating %d outside 1-10", ErrInvalidCorrection, c.ConfidenceRating)
	}
	return nil
}

// validateDateRange ensures the date range is ordered.
func validateDateRange(start, end string) error {
	if start != "" && end != "" && start > end {
		return ErrInvalidDateRange
	}
	return nil
}
