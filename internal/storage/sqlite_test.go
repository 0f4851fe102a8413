package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func createTestCorrection(id string, rating int) model.Correction {
	amount := 63.40
	vat := 15
	return model.Correction{
		ID:                id,
		OriginalText:      "REMA 1000 Storgata 63,40 kr",
		CorrectedMerchant: "REMA 1000",
		CorrectedAmount:   &amount,
		CorrectedVatRate:  &vat,
		CorrectedCategory: "groceries",
		ConfidenceRating:  rating,
		CreatedAt:         time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "kvitt.db")

	store, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	if store.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", store.Path(), dbPath)
	}

	var version int
	if err := store.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Running migrations again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestOpenInMemory(t *testing.T) {
	store, err := Open(context.Background(), memoryPath)
	if err != nil {
		t.Fatalf("Open(:memory:) error = %v", err)
	}
	defer func() { _ = store.Close() }()

	seq, err := store.LastSequence(context.Background())
	if err != nil {
		t.Fatalf("LastSequence() error = %v", err)
	}
	if seq != 0 {
		t.Errorf("LastSequence() = %d, want 0", seq)
	}
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage("  "); !errors.Is(err, ErrEmptyString) {
		t.Errorf("NewSQLiteStorage() error = %v, want ErrEmptyString", err)
	}
}

func raiseBy(step float64) func(float64) float64 {
	return func(current float64) float64 { return current + step }
}

func TestCorrectionJournal(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	first := createTestCorrection("c-1", 9)
	second := createTestCorrection("c-2", 3)
	second.CorrectedAmount = nil
	second.CorrectedVatRate = nil
	second.Feedback = "wrong store"

	rec1, err := store.RecordCorrection(ctx, first, nil)
	if err != nil {
		t.Fatalf("RecordCorrection(c-1) error = %v", err)
	}
	rec2, err := store.RecordCorrection(ctx, second, nil)
	if err != nil {
		t.Fatalf("RecordCorrection(c-2) error = %v", err)
	}
	if rec1.Seq == 0 || rec2.Seq <= rec1.Seq {
		t.Errorf("sequences = %d, %d, want increasing and positive", rec1.Seq, rec2.Seq)
	}

	// A second write with a known id is rejected, not silently dropped.
	if _, err := store.RecordCorrection(ctx, first, nil); !errors.Is(err, ErrDuplicateCorrection) {
		t.Errorf("duplicate RecordCorrection() error = %v, want ErrDuplicateCorrection", err)
	}

	loaded, err := store.LoadCorrections(ctx)
	if err != nil {
		t.Fatalf("LoadCorrections() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("LoadCorrections() returned %d corrections, want 2", len(loaded))
	}

	if loaded[0].ID != "c-1" || loaded[1].ID != "c-2" {
		t.Errorf("corrections out of order: %s, %s", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].CorrectedAmount == nil || *loaded[0].CorrectedAmount != 63.40 {
		t.Errorf("CorrectedAmount = %v, want 63.40", loaded[0].CorrectedAmount)
	}
	if loaded[0].CorrectedVatRate == nil || *loaded[0].CorrectedVatRate != 15 {
		t.Errorf("CorrectedVatRate = %v, want 15", loaded[0].CorrectedVatRate)
	}
	if !loaded[0].CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", loaded[0].CreatedAt, first.CreatedAt)
	}
	if loaded[1].CorrectedAmount != nil || loaded[1].CorrectedVatRate != nil {
		t.Error("expected nil amount and vat rate for second correction")
	}
	if loaded[1].Feedback != "wrong store" {
		t.Errorf("Feedback = %q, want %q", loaded[1].Feedback, "wrong store")
	}

	seq, err := store.LastSequence(ctx)
	if err != nil {
		t.Fatalf("LastSequence() error = %v", err)
	}
	if seq != rec2.Seq {
		t.Errorf("LastSequence() = %d, want %d", seq, rec2.Seq)
	}
}

func TestRecordCorrectionValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		update     *service.AdjustmentUpdate
		wantErr    error
		name       string
		correction model.Correction
	}{
		{name: "missing id", correction: createTestCorrection("", 5), wantErr: ErrInvalidCorrection},
		{name: "rating too low", correction: createTestCorrection("c-1", 0), wantErr: ErrInvalidCorrection},
		{name: "rating too high", correction: createTestCorrection("c-1", 11), wantErr: ErrInvalidCorrection},
		{
			name:       "empty merchant key",
			correction: createTestCorrection("c-1", 5),
			update:     &service.AdjustmentUpdate{Apply: raiseBy(0.1), Default: 0.5},
			wantErr:    ErrEmptyString,
		},
		{
			name:       "missing apply",
			correction: createTestCorrection("c-1", 5),
			update:     &service.AdjustmentUpdate{Merchant: "REMA 1000", Default: 0.5},
			wantErr:    ErrInvalidCorrection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.RecordCorrection(ctx, tt.correction, tt.update)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordCorrection() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	loaded, err := store.LoadCorrections(ctx)
	if err != nil {
		t.Fatalf("LoadCorrections() error = %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("rejected corrections were journaled: %d", len(loaded))
	}
}

func TestRecordCorrectionMovesStoredAdjustment(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	update := &service.AdjustmentUpdate{Merchant: "REMA 1000", Default: 0.5, Apply: raiseBy(0.1)}

	rec, err := store.RecordCorrection(ctx, createTestCorrection("c-1", 9), update)
	if err != nil {
		t.Fatalf("RecordCorrection(c-1) error = %v", err)
	}
	if rec.Before != 0.5 || rec.SimilarCases != 0 {
		t.Errorf("first record = %+v, want Before 0.5 and no similar cases", rec)
	}

	rec, err = store.RecordCorrection(ctx, createTestCorrection("c-2", 9), update)
	if err != nil {
		t.Fatalf("RecordCorrection(c-2) error = %v", err)
	}
	if rec.SimilarCases != 1 {
		t.Errorf("SimilarCases = %d, want 1", rec.SimilarCases)
	}
	if diff := rec.After - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("After = %v, want 0.7", rec.After)
	}

	kiwi := createTestCorrection("c-3", 2)
	kiwi.CorrectedMerchant = "KIWI"
	if _, err := store.RecordCorrection(ctx, kiwi,
		&service.AdjustmentUpdate{Merchant: "KIWI", Default: 0.5, Apply: raiseBy(-0.05)}); err != nil {
		t.Fatalf("RecordCorrection(c-3) error = %v", err)
	}

	adjustments, err := store.LoadAdjustments(ctx)
	if err != nil {
		t.Fatalf("LoadAdjustments() error = %v", err)
	}
	if got := adjustments["REMA 1000"]; got < 0.7-1e-9 || got > 0.7+1e-9 {
		t.Errorf("REMA 1000 adjustment = %v, want 0.7", got)
	}
	if got := adjustments["KIWI"]; got < 0.45-1e-9 || got > 0.45+1e-9 {
		t.Errorf("KIWI adjustment = %v, want 0.45", got)
	}
}

func TestRecordCorrectionAcrossHandles(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "shared.db")

	first, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open(first) error = %v", err)
	}
	defer func() { _ = first.Close() }()
	second, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open(second) error = %v", err)
	}
	defer func() { _ = second.Close() }()

	update := &service.AdjustmentUpdate{Merchant: "REMA 1000", Default: 0.5, Apply: raiseBy(0.1)}
	recA, err := first.RecordCorrection(ctx, createTestCorrection("c-a", 9), update)
	if err != nil {
		t.Fatalf("first RecordCorrection() error = %v", err)
	}
	recB, err := second.RecordCorrection(ctx, createTestCorrection("c-b", 9), update)
	if err != nil {
		t.Fatalf("second RecordCorrection() error = %v", err)
	}

	if recA.Seq == recB.Seq {
		t.Errorf("both handles were assigned seq %d", recA.Seq)
	}
	if recB.Before < 0.6-1e-9 || recB.Before > 0.6+1e-9 {
		t.Errorf("second handle read adjustment %v, want the first handle's 0.6", recB.Before)
	}

	_ = first.Close()
	_ = second.Close()

	reopened, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	loaded, err := reopened.LoadCorrections(ctx)
	if err != nil {
		t.Fatalf("LoadCorrections() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("LoadCorrections() returned %d corrections, want 2", len(loaded))
	}
	adjustments, err := reopened.LoadAdjustments(ctx)
	if err != nil {
		t.Fatalf("LoadAdjustments() error = %v", err)
	}
	if got := adjustments["REMA 1000"]; got < 0.7-1e-9 || got > 0.7+1e-9 {
		t.Errorf("REMA 1000 adjustment = %v, want 0.7", got)
	}
}

func TestMigrateKeepsVersionTwoJournal(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "v2.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	for _, m := range migrations[:2] {
		if err := m.Up(tx); err != nil {
			t.Fatalf("migration %d error = %v", m.Version, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO corrections (seq, id, corrected_merchant, confidence_rating, created_at)
		VALUES (4, 'old-1', 'rema 1000', 8, ?)`, time.Now().UTC()); err != nil {
		t.Fatalf("insert v2 correction error = %v", err)
	}
	if _, err := tx.Exec("PRAGMA user_version = 2"); err != nil {
		t.Fatalf("set user_version error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	rec, err := store.RecordCorrection(ctx, createTestCorrection("c-1", 9),
		&service.AdjustmentUpdate{Merchant: "REMA 1000", Default: 0.5, Apply: raiseBy(0.1)})
	if err != nil {
		t.Fatalf("RecordCorrection() error = %v", err)
	}
	if rec.Seq <= 4 {
		t.Errorf("Seq = %d, want it after the migrated seq 4", rec.Seq)
	}
	if rec.SimilarCases != 1 {
		t.Errorf("SimilarCases = %d, want the migrated correction counted", rec.SimilarCases)
	}
}

func TestHistoricalTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := []model.HistoricalTransaction{
		{Date: "2025-01-15", Merchant: "REMA 1000", Category: "groceries", Amount: 450},
		{Date: "15.02.2025", Merchant: "KIWI", Category: "groceries", Amount: 300},
		{Date: "2025-03-01T10:00:00Z", Merchant: "Vinmonopolet", Category: "alcohol", Amount: 520, CulturalEvent: "Påske"},
		{Date: "sometime", Merchant: "Nille", Category: "household", Amount: 99},
	}

	inserted, err := store.SaveHistoricalTransactions(ctx, txns)
	if err != nil {
		t.Fatalf("SaveHistoricalTransactions() error = %v", err)
	}
	if inserted != 4 {
		t.Errorf("inserted = %d, want 4", inserted)
	}

	// Duplicates are skipped.
	inserted, err = store.SaveHistoricalTransactions(ctx, txns[:2])
	if err != nil {
		t.Fatalf("second SaveHistoricalTransactions() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("duplicate insert count = %d, want 0", inserted)
	}

	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		filter        service.HistoryFilter
		wantMerchants []string
	}{
		{
			name:          "all transactions oldest first",
			filter:        service.HistoryFilter{},
			wantMerchants: []string{"REMA 1000", "KIWI", "Vinmonopolet", "Nille"},
		},
		{
			name:          "date range",
			filter:        service.HistoryFilter{StartDate: &start, EndDate: &end},
			wantMerchants: []string{"KIWI", "Vinmonopolet"},
		},
		{
			name:          "category",
			filter:        service.HistoryFilter{Category: "groceries"},
			wantMerchants: []string{"REMA 1000", "KIWI"},
		},
		{
			name:          "limit",
			filter:        service.HistoryFilter{Limit: 1},
			wantMerchants: []string{"REMA 1000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetHistoricalTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("GetHistoricalTransactions() error = %v", err)
			}
			if len(got) != len(tt.wantMerchants) {
				t.Fatalf("got %d transactions, want %d", len(got), len(tt.wantMerchants))
			}
			for i, want := range tt.wantMerchants {
				if got[i].Merchant != want {
					t.Errorf("transaction %d merchant = %q, want %q", i, got[i].Merchant, want)
				}
			}
		})
	}

	got, err := store.GetHistoricalTransactions(ctx, service.HistoryFilter{Category: "alcohol"})
	if err != nil {
		t.Fatalf("GetHistoricalTransactions() error = %v", err)
	}
	if len(got) != 1 || got[0].CulturalEvent != "Påske" || got[0].Amount != 520 {
		t.Errorf("alcohol transaction not round-tripped: %+v", got)
	}
}

func TestHistoricalTransactionValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.SaveHistoricalTransactions(ctx, nil); !errors.Is(err, ErrEmptySlice) {
		t.Errorf("empty slice error = %v, want ErrEmptySlice", err)
	}

	bad := []model.HistoricalTransaction{{Date: "2025-01-01", Amount: 10}}
	if _, err := store.SaveHistoricalTransactions(ctx, bad); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("missing merchant error = %v, want ErrInvalidTransaction", err)
	}

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.GetHistoricalTransactions(ctx, service.HistoryFilter{StartDate: &start, EndDate: &end})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("reversed range error = %v, want ErrInvalidDateRange", err)
	}
}

func TestNilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // exercising nil context validation
	if _, err := store.LoadCorrections(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("LoadCorrections(nil) error = %v, want ErrNilContext", err)
	}
}
