package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVatBracket(t *testing.T) {
	for _, rate := range []int{0, 12, 15, 25} {
		assert.True(t, IsVatBracket(rate), "rate %d", rate)
	}
	for _, rate := range []int{-1, 8, 14, 24, 100} {
		assert.False(t, IsVatBracket(rate), "rate %d", rate)
	}
}

func TestUnknownMerchant(t *testing.T) {
	profile := UnknownMerchant()
	assert.Equal(t, CategoryUnidentified, profile.Category)
	assert.InDelta(t, 0.5, profile.BaseConfidence, 1e-9)
	assert.Equal(t, VatRateStandard, profile.TypicalVatRate)
	assert.False(t, profile.IsGrocery())
	assert.NotNil(t, profile.SeasonalProducts)
}

func TestHistoricalTransaction_GenerateHash(t *testing.T) {
	a := HistoricalTransaction{Date: "2024-03-01", Merchant: "Rema 1000", Amount: 100, Category: "Grocery Store"}
	b := HistoricalTransaction{Date: "2024-03-01", Merchant: " REMA 1000 ", Amount: 100, Category: "grocery store"}
	c := HistoricalTransaction{Date: "2024-03-02", Merchant: "Rema 1000", Amount: 100, Category: "Grocery Store"}

	assert.Equal(t, a.GenerateHash(), b.GenerateHash())
	assert.NotEqual(t, a.GenerateHash(), c.GenerateHash())
	assert.Len(t, a.GenerateHash(), 64)
}

func TestCorrection_HasMerchant(t *testing.T) {
	assert.True(t, Correction{CorrectedMerchant: "REMA 1000"}.HasMerchant())
	assert.False(t, Correction{Feedback: "wrong total"}.HasMerchant())
}

func TestParseDate(t *testing.T) {
	for _, value := range []string{"2024-05-17", "2024-05-17T08:00:00+02:00", "17.05.2024", "2024-05-17 08:00:00", " 2024-05-17 "} {
		d, ok := ParseDate(value)
		assert.True(t, ok, value)
		assert.Equal(t, 17, d.Day(), value)
	}

	_, ok := ParseDate("17/05/2024")
	assert.False(t, ok)

	txn := HistoricalTransaction{Date: "garbage"}
	_, ok = txn.ParsedDate()
	assert.False(t, ok)
}
