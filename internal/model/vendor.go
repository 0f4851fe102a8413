package model

// MerchantProfile is immutable reference data describing a known retailer.
type MerchantProfile struct {
	Name                  string   `yaml:"name" json:"name"`
	Chain                 string   `yaml:"chain" json:"chain"`
	Category              string   `yaml:"category" json:"category"`
	OrganizationIDPattern string   `yaml:"organization_id,omitempty" json:"organization_id,omitempty"`
	SeasonalProducts      []string `yaml:"seasonal_products" json:"seasonal_products"`
	TypicalVatRate        int      `yaml:"typical_vat_rate" json:"typical_vat_rate"`
	BaseConfidence        float64  `yaml:"base_confidence" json:"base_confidence"`

	// AlcoholMonopoly marks the state-regulated alcohol retailer.
	AlcoholMonopoly bool `yaml:"alcohol_monopoly,omitempty" json:"alcohol_monopoly,omitempty"`
}

// Merchant categories referenced by the business rules.
const (
	CategoryGrocery      = "grocery"
	CategoryAlcohol      = "alcohol"
	CategoryUnidentified = "unidentified"
)

// UnknownMerchant returns the fallback profile used when detection finds nothing.
func UnknownMerchant() MerchantProfile {
	return MerchantProfile{
		Name:             "Unknown merchant",
		Chain:            "Unknown",
		Category:         CategoryUnidentified,
		TypicalVatRate:   VatRateStandard,
		SeasonalProducts: []string{},
		BaseConfidence:   0.5,
	}
}

// IsGrocery reports whether the merchant sells groceries.
func (m MerchantProfile) IsGrocery() bool {
	return m.Category == CategoryGrocery
}

// MatchSource records which detection rule identified a merchant.
type MatchSource string

const (
	// MatchedByKey means a catalog key occurred in the text.
	MatchedByKey MatchSource = "catalog_key"
	// MatchedByAlias means a hardcoded multi-word alias occurred in the text.
	MatchedByAlias MatchSource = "alias"
	// MatchedByOrganizationID means the merchant's organization number occurred in the text.
	MatchedByOrganizationID MatchSource = "organization_id"
	// MatchedByFallback means nothing matched and the unknown profile was used.
	MatchedByFallback MatchSource = "fallback"
)

// DetectionResult pairs a merchant profile with its effective confidence.
type DetectionResult struct {
	Profile             MerchantProfile `json:"profile"`
	Key                 string          `json:"key,omitempty"`
	MatchedBy           MatchSource     `json:"matched_by"`
	EffectiveConfidence float64         `json:"effective_confidence"`
}
