package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/service"
)

const dayLayout = "2006-01-02"

// SaveHistoricalTransactions stores transactions, skipping duplicates by hash.
// It returns the number of newly inserted rows.
func (s *SQLiteStorage) SaveHistoricalTransactions(ctx context.Context, transactions []model.HistoricalTransaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateHistoricalTransactions(transactions); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO historical_transactions (
			hash, date, day, merchant, category, season, cultural_event, amount
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range transactions {
		txn := &transactions[i]

		var day any
		if parsed, ok := txn.ParsedDate(); ok {
			day = parsed.Format(dayLayout)
		}

		res, err := stmt.ExecContext(ctx,
			txn.GenerateHash(),
			strings.TrimSpace(txn.Date),
			day,
			strings.TrimSpace(txn.Merchant),
			strings.TrimSpace(txn.Category),
			nullString(txn.Season),
			nullString(txn.CulturalEvent),
			txn.Amount,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction %d: %w", i, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// GetHistoricalTransactions returns stored transactions matching filter,
// oldest first. Date bounds exclude transactions whose date could not be parsed.
func (s *SQLiteStorage) GetHistoricalTransactions(ctx context.Context, filter service.HistoryFilter) ([]model.HistoricalTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var start, end string
	if filter.StartDate != nil {
		start = filter.StartDate.Format(dayLayout)
	}
	if filter.EndDate != nil {
		end = filter.EndDate.Format(dayLayout)
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	query := `SELECT date, merchant, category, season, cultural_event, amount
		FROM historical_transactions WHERE 1=1`
	var args []any

	if start != "" {
		query += " AND day >= ?"
		args = append(args, start)
	}
	if end != "" {
		query += " AND day <= ?"
		args = append(args, end)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY day IS NULL, day, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.HistoricalTransaction
	for rows.Next() {
		var txn model.HistoricalTransaction
		var season, event sql.NullString
		if err := rows.Scan(&txn.Date, &txn.Merchant, &txn.Category, &season, &event, &txn.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan historical transaction: %w", err)
		}
		txn.Season = season.String
		txn.CulturalEvent = event.String
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate historical transactions: %w", err)
	}
	return transactions, nil
}
