// Package compliance evaluates organization-specific deduction rules.
package compliance

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/Veraticus/kvittering/internal/model"
)

// Amount thresholds in whole kroner.
const (
	ApprovalThreshold      = 5000.0
	DocumentationThreshold = 1000.0
)

// Family groups organization types sharing a rule set.
type Family string

// Organization families with explicit rules. Everything else is FamilyOther.
const (
	FamilyAssociation Family = "association"
	FamilyBand        Family = "band"
	FamilyOther       Family = "other"
)

// Deductibility verdicts.
const (
	VerdictPartial           = "Partially deductible: only the share used for association activities can be claimed"
	VerdictBoardApproval     = "Deductible after board approval"
	VerdictFull              = "Fully deductible for association activities"
	VerdictNotDeductible     = "Not deductible: alcohol from the state monopoly cannot be covered by band funds"
	VerdictBandDeductible    = "Deductible as band activity expense"
	VerdictConsultAccountant = "Consult an accountant: no deduction rules exist for this organization type"
)

// Required documents.
const (
	DocOriginalReceipt = "Original receipt"
	DocPurpose         = "Documentation of purpose (activity or event)"
	DocBoardMinutes    = "Board minutes approving the purchase"
	DocActivityProof   = "Proof of band activity (rehearsal, concert or trip)"
	DocVoucherNumber   = "Voucher number"
	DocDateAndPurpose  = "Date and purpose of purchase"
)

// familyWords must match a whole word; familyHeads may also end a Norwegian
// compound ("idrettsforening", "skolekorps").
var (
	familyWords = map[Family][]string{
		FamilyAssociation: {"association", "club"},
		FamilyBand:        {"band", "bandet", "corps"},
	}
	familyHeads = map[Family][]string{
		FamilyAssociation: {"forening", "foreningen", "klubb", "klubben"},
		FamilyBand:        {"korps", "korpset"},
	}
)

// FamilyOf classifies a free-form organization type by its words, so
// "bandyklubb" is an association and not a band.
func FamilyOf(orgType string) Family {
	words := strings.FieldsFunc(strings.ToLower(orgType), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, family := range []Family{FamilyAssociation, FamilyBand} {
		for _, word := range words {
			if slices.Contains(familyWords[family], word) {
				return family
			}
			for _, head := range familyHeads[family] {
				if strings.HasSuffix(word, head) {
					return family
				}
			}
		}
	}
	return FamilyOther
}

// Rule is one row of the decision table. Empty condition fields match anything.
// Exclusive rules stop at the first match per evaluation; cumulative rules
// always contribute their documents and approval requirement.
type Rule struct {
	AmountAbove      *float64
	AlcoholMonopoly  *bool
	Name             string
	Family           Family
	Category         string
	Verdict          string
	Documents        []string
	Priority         int
	RequiresApproval bool
	Cumulative       bool
}

func (r Rule) matches(family Family, merchant model.MerchantProfile, amount float64) bool {
	if r.Family != "" && r.Family != family {
		return false
	}
	if r.Category != "" && r.Category != merchant.Category {
		return false
	}
	if r.AlcoholMonopoly != nil && *r.AlcoholMonopoly != merchant.AlcoholMonopoly {
		return false
	}
	if r.AmountAbove != nil && amount <= *r.AmountAbove {
		return false
	}
	return true
}

func floatPtr(v float64) *float64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

// DefaultRules returns the closed decision table.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "association grocery",
			Family:    FamilyAssociation,
			Category:  model.CategoryGrocery,
			Verdict:   VerdictPartial,
			Documents: []string{DocPurpose},
			Priority:  100,
		},
		{
			Name:             "association large purchase",
			Family:           FamilyAssociation,
			AmountAbove:      floatPtr(ApprovalThreshold),
			Verdict:          VerdictBoardApproval,
			Documents:        []string{DocBoardMinutes},
			RequiresApproval: true,
			Cumulative:       true,
			Priority:         90,
		},
		{
			Name:     "association default",
			Family:   FamilyAssociation,
			Verdict:  VerdictFull,
			Priority: 10,
		},
		{
			Name:            "band alcohol",
			Family:          FamilyBand,
			AlcoholMonopoly: boolPtr(true),
			Verdict:         VerdictNotDeductible,
			Priority:        100,
		},
		{
			Name:      "band default",
			Family:    FamilyBand,
			Verdict:   VerdictBandDeductible,
			Documents: []string{DocActivityProof},
			Priority:  10,
		},
		{
			Name:     "other organization",
			Family:   FamilyOther,
			Verdict:  VerdictConsultAccountant,
			Priority: 10,
		},
		{
			Name:        "documentation threshold",
			AmountAbove: floatPtr(DocumentationThreshold),
			Documents:   []string{DocVoucherNumber, DocDateAndPurpose},
			Cumulative:  true,
			Priority:    0,
		},
	}
}

// Evaluator applies a decision table. It is immutable and safe for concurrent use.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator over rules sorted by priority (highest first).
func NewEvaluator(rules []Rule) *Evaluator {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return &Evaluator{rules: sorted}
}

// DefaultEvaluator returns an evaluator over DefaultRules.
func DefaultEvaluator() *Evaluator {
	return NewEvaluator(DefaultRules())
}

// Evaluate returns the deductibility decision for a purchase.
func (e *Evaluator) Evaluate(orgType string, merchant model.MerchantProfile, amount float64) model.ComplianceDecision {
	family := FamilyOf(orgType)

	decision := model.ComplianceDecision{
		OrganizationType:  orgType,
		RequiredDocuments: []string{DocOriginalReceipt},
	}

	exclusiveMatched := false
	for _, rule := range e.rules {
		if !rule.matches(family, merchant, amount) {
			continue
		}
		if !rule.Cumulative {
			if exclusiveMatched {
				continue
			}
			exclusiveMatched = true
		}

		if decision.DeductibilityVerdict == "" && rule.Verdict != "" {
			decision.DeductibilityVerdict = rule.Verdict
		}
		decision.RequiredDocuments = append(decision.RequiredDocuments, rule.Documents...)
		decision.ApprovalRequired = decision.ApprovalRequired || rule.RequiresApproval
	}

	if decision.DeductibilityVerdict == "" {
		decision.DeductibilityVerdict = fmt.Sprintf("%s (%s)", VerdictConsultAccountant, orgType)
	}

	return decision
}
