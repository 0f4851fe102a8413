// Package vat selects the applicable Norwegian VAT bracket for a purchase.
package vat

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// compoundMinLength is the shortest keyword that may also match as the tail of a compound word.
const compoundMinLength = 4

// DefaultFoodKeywords returns words that mark a purchase as food.
func DefaultFoodKeywords() []string {
	return []string{
		"melk", "brød", "ost", "egg", "kjøtt", "fisk", "frukt", "grønnsaker",
		"smør", "kylling", "pølse", "pølser", "yoghurt", "pålegg", "poteter",
		"dagligvarer", "matvarer", "milk", "bread", "cheese", "groceries",
	}
}

// Classifier decides the VAT rate of a purchase.
type Classifier struct {
	keywords map[string]struct{}
	compound []string
}

// NewClassifier creates a classifier recognizing the given food keywords.
func NewClassifier(foodKeywords []string) *Classifier {
	c := &Classifier{keywords: make(map[string]struct{}, len(foodKeywords))}
	lower := cases.Lower(language.Norwegian)
	for _, kw := range foodKeywords {
		kw = lower.String(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		c.keywords[kw] = struct{}{}
		if utf8.RuneCountInString(kw) >= compoundMinLength {
			c.compound = append(c.compound, kw)
		}
	}
	return c
}

// DefaultClassifier returns a classifier using DefaultFoodKeywords.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultFoodKeywords())
}

// Classify returns the VAT analysis for a gross amount bought from merchant.
func (c *Classifier) Classify(amount float64, merchant model.MerchantProfile, text string) model.VatAnalysis {
	var rate int
	var explanation string

	switch {
	case c.HasFoodKeyword(text) || merchant.IsGrocery():
		rate = model.VatRateFood
		explanation = "Reduced food rate of 15% applies to groceries"
	case merchant.AlcoholMonopoly:
		rate = model.VatRateStandard
		explanation = "Standard rate of 25%; alcohol excise duty is charged separately and not covered by this analysis"
	default:
		rate = model.VatRateStandard
		explanation = "Standard rate of 25% applies"
	}

	status := model.ComplianceCompliant
	if rate != merchant.TypicalVatRate {
		status = fmt.Sprintf("mismatch: detected %d%% but %s normally charges %d%%",
			rate, merchant.Name, merchant.TypicalVatRate)
	}

	return model.VatAnalysis{
		DetectedRate:     rate,
		ExpectedRate:     merchant.TypicalVatRate,
		Explanation:      explanation,
		VatAmount:        Amount(amount, rate),
		ComplianceStatus: status,
	}
}

// HasFoodKeyword reports whether text names a food item.
func (c *Classifier) HasFoodKeyword(text string) bool {
	words := strings.FieldsFunc(cases.Lower(language.Norwegian).String(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	for _, word := range words {
		if _, ok := c.keywords[word]; ok {
			return true
		}
		for _, kw := range c.compound {
			if strings.HasSuffix(word, kw) {
				return true
			}
		}
	}
	return false
}

// Amount returns the VAT contained in a gross amount, rounded to øre.
func Amount(gross float64, rate int) float64 {
	if rate <= 0 {
		return 0
	}
	r := decimal.NewFromInt(int64(rate))
	vat := decimal.NewFromFloat(gross).Mul(r).Div(r.Add(decimal.NewFromInt(100)))
	return vat.Round(2).InexactFloat64()
}
