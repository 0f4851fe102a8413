// Package history builds realistic purchase histories for tests.
//
// Example usage:
//
//	txns := history.NewBuilder(t).
//		WithFixture(history.FixtureAssociationYear).
//		WithMonthly("REMA 1000", "grocery", 2024, 450).
//		Build()
package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/seasonal"
)

// Builder provides a fluent interface for constructing purchase history.
type Builder interface {
	// WithTransaction adds a single purchase on date (YYYY-MM-DD).
	WithTransaction(date, merchant, category string, amount float64) Builder

	// WithMonthly adds one purchase on the first of every month in year.
	WithMonthly(merchant, category string, year int, amount float64) Builder

	// WithFixture adds the purchases from a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build returns the purchases with season and cultural event filled in.
	Build() []model.HistoricalTransaction
}

type builder struct {
	t    *testing.T
	txns []model.HistoricalTransaction
}

// NewBuilder creates a new history builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &builder{t: t}
}

func (b *builder) WithTransaction(date, merchant, category string, amount float64) Builder {
	b.txns = append(b.txns, model.HistoricalTransaction{
		Date:     date,
		Merchant: merchant,
		Category: category,
		Amount:   amount,
	})
	return b
}

func (b *builder) WithMonthly(merchant, category string, year int, amount float64) Builder {
	for month := 1; month <= 12; month++ {
		b.WithTransaction(fmt.Sprintf("%04d-%02d-01", year, month), merchant, category, amount)
	}
	return b
}

func (b *builder) WithFixture(fixture Fixture) Builder {
	for _, p := range fixture.Purchases() {
		b.WithTransaction(p.Date, p.Merchant, p.Category, p.Amount)
	}
	return b
}

func (b *builder) Build() []model.HistoricalTransaction {
	b.t.Helper()

	out := make([]model.HistoricalTransaction, len(b.txns))
	for i, tx := range b.txns {
		day, err := time.Parse("2006-01-02", tx.Date)
		if err != nil {
			b.t.Fatalf("history fixture has invalid date %q: %v", tx.Date, err)
		}
		period := seasonal.ContextFor(day)
		tx.Season = period.SeasonLabel
		tx.CulturalEvent = period.CulturalEvent
		out[i] = tx
	}
	return out
}
