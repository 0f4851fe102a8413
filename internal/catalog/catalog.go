// Package catalog holds the read-only merchant reference data used by detection.
package catalog

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/model"
	"gopkg.in/yaml.v3"
)

// Entry is a catalog key together with its profile.
type Entry struct {
	Key     string                `json:"key"`
	Profile model.MerchantProfile `json:"profile"`
}

// Catalog maps uppercase merchant fingerprints to profiles. It is never mutated
// after construction and is safe for concurrent use.
type Catalog struct {
	profiles map[string]model.MerchantProfile
	keys     []string
}

// file is the on-disk YAML shape.
type file struct {
	Merchants map[string]model.MerchantProfile `yaml:"merchants"`
}

// New validates profiles and builds a catalog from them.
func New(profiles map[string]model.MerchantProfile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: catalog has no merchants", common.ErrCatalogLoad)
	}

	c := &Catalog{
		profiles: make(map[string]model.MerchantProfile, len(profiles)),
		keys:     make([]string, 0, len(profiles)),
	}

	for key, profile := range profiles {
		if err := validateEntry(key, profile); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrCatalogLoad, err)
		}
		profile.SeasonalProducts = slices.Clone(profile.SeasonalProducts)
		c.profiles[key] = profile
		c.keys = append(c.keys, key)
	}
	sort.Strings(c.keys)

	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultProfiles())
	if err != nil {
		panic(fmt.Sprintf("built-in merchant catalog is invalid: %v", err))
	}
	return c
}

// Load reads a YAML catalog from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCatalogLoad, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", common.ErrCatalogLoad, path, err)
	}

	return New(f.Merchants)
}

// FromConfig returns the catalog at path, or the built-in one when path is empty.
func FromConfig(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Lookup returns the profile stored under key.
func (c *Catalog) Lookup(key string) (model.MerchantProfile, bool) {
	profile, ok := c.profiles[key]
	if !ok {
		return model.MerchantProfile{}, false
	}
	profile.SeasonalProducts = slices.Clone(profile.SeasonalProducts)
	return profile, true
}

// Keys returns every key in lexicographic order.
func (c *Catalog) Keys() []string {
	return slices.Clone(c.keys)
}

// All returns every entry ordered by key.
func (c *Catalog) All() []Entry {
	entries := make([]Entry, 0, len(c.keys))
	for _, key := range c.keys {
		profile, _ := c.Lookup(key)
		entries = append(entries, Entry{Key: key, Profile: profile})
	}
	return entries
}

// Len returns the number of merchants.
func (c *Catalog) Len() int {
	return len(c.keys)
}

func validateEntry(key string, profile model.MerchantProfile) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("merchant key cannot be empty")
	}
	if key != strings.ToUpper(key) {
		return fmt.Errorf("merchant key %q must be uppercase", key)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("merchant %q has no name", key)
	}
	if !model.IsVatBracket(profile.TypicalVatRate) {
		return fmt.Errorf("merchant %q has unsupported VAT rate %d", key, profile.TypicalVatRate)
	}
	if profile.BaseConfidence < 0 || profile.BaseConfidence > 1 {
		return fmt.Errorf("merchant %q base confidence %.2f outside [0, 1]", key, profile.BaseConfidence)
	}
	return nil
}
