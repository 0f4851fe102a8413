package classification

import (
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/kvittering/internal/catalog"
	"github.com/Veraticus/kvittering/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Confidence bounds applied to every detection.
const (
	MinConfidence     = 0.1
	MaxConfidence     = 0.99
	DefaultAdjustment = 0.5
)

// AdjustmentSource supplies learned per-merchant confidence adjustments.
type AdjustmentSource interface {
	AdjustmentFor(merchant string) float64
}

// MerchantDetector matches free text against a merchant catalog.
// It holds no mutable state and is safe for concurrent use.
type MerchantDetector struct {
	catalog *catalog.Catalog
	ordered []string
	aliases []Alias
}

// NewMerchantDetector creates a detector for c. Aliases pointing at keys
// missing from the catalog are dropped.
func NewMerchantDetector(c *catalog.Catalog, aliases []Alias) *MerchantDetector {
	ordered := c.Keys()
	sort.SliceStable(ordered, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(ordered[i]), utf8.RuneCountInString(ordered[j])
		if li != lj {
			return li > lj
		}
		return ordered[i] < ordered[j]
	})

	kept := make([]Alias, 0, len(aliases))
	for _, alias := range aliases {
		if _, ok := c.Lookup(alias.Key); !ok {
			slog.Debug("Dropping alias for unknown catalog key", "phrase", alias.Phrase, "key", alias.Key)
			continue
		}
		kept = append(kept, alias)
	}

	return &MerchantDetector{
		catalog: c,
		ordered: ordered,
		aliases: kept,
	}
}

// Detect identifies the merchant named in text. Catalog keys are tried
// longest first with ties broken lexicographically, then aliases in order,
// then organization numbers. adjustments may be nil.
func (d *MerchantDetector) Detect(text string, adjustments AdjustmentSource) (*model.DetectionResult, bool) {
	upper := cases.Upper(language.Norwegian).String(text)

	key, source, ok := d.match(upper)
	if !ok {
		return nil, false
	}

	profile, _ := d.catalog.Lookup(key)
	adjustment := DefaultAdjustment
	if adjustments != nil {
		adjustment = adjustments.AdjustmentFor(profile.Name)
	}

	return &model.DetectionResult{
		Profile:             profile,
		Key:                 key,
		MatchedBy:           source,
		EffectiveConfidence: EffectiveConfidence(profile.BaseConfidence, adjustment),
	}, true
}

// DetectOrFallback is Detect with the unknown-merchant profile substituted when nothing matches.
func (d *MerchantDetector) DetectOrFallback(text string, adjustments AdjustmentSource) model.DetectionResult {
	if result, ok := d.Detect(text, adjustments); ok {
		return *result
	}

	unknown := model.UnknownMerchant()
	return model.DetectionResult{
		Profile:             unknown,
		MatchedBy:           model.MatchedByFallback,
		EffectiveConfidence: unknown.BaseConfidence,
	}
}

func (d *MerchantDetector) match(upper string) (string, model.MatchSource, bool) {
	for _, key := range d.ordered {
		if strings.Contains(upper, key) {
			return key, model.MatchedByKey, true
		}
	}

	for _, alias := range d.aliases {
		if strings.Contains(upper, alias.Phrase) {
			return alias.Key, model.MatchedByAlias, true
		}
	}

	for _, entry := range d.catalog.All() {
		pattern := entry.Profile.OrganizationIDPattern
		if pattern != "" && strings.Contains(upper, pattern) {
			return entry.Key, model.MatchedByOrganizationID, true
		}
	}

	return "", "", false
}

// EffectiveConfidence blends a base confidence with a learned adjustment.
func EffectiveConfidence(base, adjustment float64) float64 {
	return clamp((base+adjustment)/2, MinConfidence, MaxConfidence)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
