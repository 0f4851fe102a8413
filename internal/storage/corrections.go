package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/service"
	"github.com/mattn/go-sqlite3"
)

// RecordCorrection journals a correction and, when update is set, moves that
// merchant's adjustment in the same immediate transaction. The sequence number
// is assigned by the database, so concurrent writers on separate handles never
// share one, and update.Apply always sees the value the last writer committed.
func (s *SQLiteStorage) RecordCorrection(ctx context.Context, correction model.Correction, update *service.AdjustmentUpdate) (service.CorrectionRecord, error) {
	var record service.CorrectionRecord
	if err := validateContext(ctx); err != nil {
		return record, err
	}
	if err := validateCorrection(&correction); err != nil {
		return record, err
	}
	if update != nil {
		if err := validateString(update.Merchant, "merchant"); err != nil {
			return record, err
		}
		if update.Apply == nil {
			return record, fmt.Errorf("%w: adjustment update for %s has no apply function", ErrInvalidCorrection, update.Merchant)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record, journalError("begin correction transaction", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var merchantKey sql.NullString
	if update != nil {
		merchantKey = sql.NullString{String: update.Merchant, Valid: true}
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM corrections WHERE merchant_key = ?`, update.Merchant,
		).Scan(&record.SimilarCases); err != nil {
			return record, journalError("count similar corrections", err)
		}
	}

	var amount sql.NullFloat64
	if correction.CorrectedAmount != nil {
		amount = sql.NullFloat64{Float64: *correction.CorrectedAmount, Valid: true}
	}
	var vatRate sql.NullInt64
	if correction.CorrectedVatRate != nil {
		vatRate = sql.NullInt64{Int64: int64(*correction.CorrectedVatRate), Valid: true}
	}

	var seq int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO corrections (
			id, merchant_key, original_text, corrected_merchant, corrected_amount,
			corrected_vat_rate, corrected_category, feedback, confidence_rating, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING seq`,
		correction.ID,
		merchantKey,
		correction.OriginalText,
		nullString(correction.CorrectedMerchant),
		amount,
		vatRate,
		nullString(correction.CorrectedCategory),
		nullString(correction.Feedback),
		correction.ConfidenceRating,
		correction.CreatedAt.UTC(),
	).Scan(&seq)
	if err != nil {
		if isUniqueViolation(err) {
			return record, fmt.Errorf("%w: correction %s is already journaled", ErrDuplicateCorrection, correction.ID)
		}
		return record, journalError("append correction "+correction.ID, err)
	}
	record.Seq = uint64(seq) //nolint:gosec // AUTOINCREMENT keys are positive

	if update != nil {
		record.Before = update.Default
		err = tx.QueryRowContext(ctx,
			`SELECT value FROM merchant_adjustments WHERE merchant = ?`, update.Merchant,
		).Scan(&record.Before)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return record, journalError("read adjustment for "+update.Merchant, err)
		}
		record.After = update.Apply(record.Before)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO merchant_adjustments (merchant, value, seq, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(merchant) DO UPDATE SET
				value = excluded.value,
				seq = excluded.seq,
				updated_at = excluded.updated_at`,
			update.Merchant,
			record.After,
			seq,
			time.Now().UTC(),
		)
		if err != nil {
			return record, journalError("save adjustment for "+update.Merchant, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return record, journalError("commit correction "+correction.ID, err)
	}
	return record, nil
}

// journalError wraps a database failure, marking busy and locked databases as
// lock contention so callers can retry.
func journalError(action string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("failed to %s: %w: %w", action, common.ErrLockContention, err)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// LoadCorrections returns every journaled correction in sequence order.
func (s *SQLiteStorage) LoadCorrections(ctx context.Context) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_text, corrected_merchant, corrected_amount, corrected_vat_rate,
		       corrected_category, feedback, confidence_rating, created_at
		FROM corrections
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var corrections []model.Correction
	for rows.Next() {
		var c model.Correction
		var merchant, category, feedback sql.NullString
		var amount sql.NullFloat64
		var vatRate sql.NullInt64

		if err := rows.Scan(&c.ID, &c.OriginalText, &merchant, &amount, &vatRate,
			&category, &feedback, &c.ConfidenceRating, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}

		c.CorrectedMerchant = merchant.String
		c.CorrectedCategory = category.String
		c.Feedback = feedback.String
		if amount.Valid {
			v := amount.Float64
			c.CorrectedAmount = &v
		}
		if vatRate.Valid {
			v := int(vatRate.Int64)
			c.CorrectedVatRate = &v
		}
		corrections = append(corrections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate corrections: %w", err)
	}
	return corrections, nil
}

// LoadAdjustments returns the latest adjustment per merchant.
func (s *SQLiteStorage) LoadAdjustments(ctx context.Context) (map[string]float64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT merchant, value FROM merchant_adjustments`)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	adjustments := make(map[string]float64)
	for rows.Next() {
		var merchant string
		var value float64
		if err := rows.Scan(&merchant, &value); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments[merchant] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate adjustments: %w", err)
	}
	return adjustments, nil
}

// LastSequence returns the highest sequence number the journal has assigned.
func (s *SQLiteStorage) LastSequence(ctx context.Context) (uint64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM corrections`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to read journal sequence: %w", err)
	}
	return uint64(seq), nil //nolint:gosec // sequence numbers are never negative
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
