// Package classification extracts structured facts (amount, merchant) from receipt text.
package classification

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// amountInteger accepts thousands grouped by space, no-break space or dot
// ("1 234", "12.500") ahead of plain digits.
const amountInteger = `(?:\b\d{1,3}(?:[ .\x{00A0}]\d{3})+|\d+)`

const amountNumber = `(` + amountInteger + `(?:[.,]\d{1,2})?)`

var dotGrouped = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?$`)

// AmountPattern is a recognizer for a monetary total.
type AmountPattern struct {
	Name     string
	Regex    string
	Priority int // Higher priority patterns are tried first
}

type compiledAmountPattern struct {
	regex *regexp.Regexp
	AmountPattern
}

// DefaultAmountPatterns returns the recognizers in their fixed priority order.
func DefaultAmountPatterns() []AmountPattern {
	return []AmountPattern{
		{
			Name:     "currency suffix",
			Regex:    amountNumber + `\s*(?:kr|nok)\.?\s*$`,
			Priority: 100,
		},
		{
			Name:     "trailing number",
			Regex:    `(` + amountInteger + `[.,]\d{2})\s*$`,
			Priority: 90,
		},
		{
			Name:     "total label",
			Regex:    `total[a-zæøå]*\s*:?\s*` + amountNumber,
			Priority: 80,
		},
		{
			Name:     "sum label",
			Regex:    `sum\s*:?\s*` + amountNumber,
			Priority: 70,
		},
	}
}

// AmountExtractor finds the gross amount in free text.
type AmountExtractor struct {
	patterns []compiledAmountPattern
}

// NewAmountExtractor compiles patterns into an extractor.
func NewAmountExtractor(patterns []AmountPattern) (*AmountExtractor, error) {
	compiled := make([]compiledAmountPattern, 0, len(patterns))

	for _, p := range patterns {
		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr
		}

		regex, err := regexp.Compile(regexStr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile amount pattern %s: %w", p.Name, err)
		}
		if regex.NumSubexp() < 1 {
			return nil, fmt.Errorf("amount pattern %s has no capture group", p.Name)
		}

		compiled = append(compiled, compiledAmountPattern{
			AmountPattern: p,
			regex:         regex,
		})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &AmountExtractor{patterns: compiled}, nil
}

// DefaultAmountExtractor returns an extractor using DefaultAmountPatterns.
func DefaultAmountExtractor() *AmountExtractor {
	extractor, err := NewAmountExtractor(DefaultAmountPatterns())
	if err != nil {
		panic(fmt.Sprintf("default amount patterns are invalid: %v", err))
	}
	return extractor
}

// Extract returns the amount found by the first pattern that matches and parses.
func (e *AmountExtractor) Extract(text string) (float64, bool) {
	for _, pattern := range e.patterns {
		match := pattern.regex.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		amount, ok := parseAmount(match[1])
		if !ok {
			continue
		}
		return amount, true
	}

	return 0, false
}

func parseAmount(raw string) (float64, bool) {
	normalized := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if dotGrouped.MatchString(normalized) {
		normalized = strings.ReplaceAll(normalized, ".", "")
	}
	normalized = strings.Replace(normalized, ",", ".", 1)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, false
	}
	return d.Round(2).InexactFloat64(), true
}
