package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02.01.2006",
}

// ParseDate parses a transaction date in any supported layout.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// HistoricalTransaction is a past purchase supplied for spend prediction.
// Date is kept as the caller supplied it; unparsable dates are tolerated
// and only excluded from month-based aggregation.
type HistoricalTransaction struct {
	Date          string  `json:"date" yaml:"date"`
	Merchant      string  `json:"merchant" yaml:"merchant"`
	Category      string  `json:"category" yaml:"category"`
	Season        string  `json:"season,omitempty" yaml:"season,omitempty"`
	CulturalEvent string  `json:"cultural_event,omitempty" yaml:"cultural_event,omitempty"`
	Amount        float64 `json:"amount" yaml:"amount"`
}

// ParsedDate returns the transaction date when it can be parsed.
func (t *HistoricalTransaction) ParsedDate() (time.Time, bool) {
	return ParseDate(t.Date)
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *HistoricalTransaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		strings.TrimSpace(t.Date),
		t.Amount,
		strings.ToUpper(strings.TrimSpace(t.Merchant)),
		strings.ToLower(strings.TrimSpace(t.Category)))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
