package catalog

import "github.com/Veraticus/kvittering/internal/model"

// DefaultProfiles returns the built-in merchant catalog keyed by uppercase fingerprint.
func DefaultProfiles() map[string]model.MerchantProfile {
	return map[string]model.MerchantProfile{
		// Grocery chains
		"REMA": {
			Name:                  "REMA 1000",
			Chain:                 "Reitangruppen",
			Category:              model.CategoryGrocery,
			TypicalVatRate:        model.VatRateFood,
			SeasonalProducts:      []string{"grillmat", "påskeegg", "julebrus", "pinnekjøtt"},
			OrganizationIDPattern: "981234561",
			BaseConfidence:        0.95,
		},
		"KIWI": {
			Name:                  "KIWI",
			Chain:                 "NorgesGruppen",
			Category:              model.CategoryGrocery,
			TypicalVatRate:        model.VatRateFood,
			SeasonalProducts:      []string{"grillpølser", "kvikk lunsj", "ribbe"},
			OrganizationIDPattern: "982345672",
			BaseConfidence:        0.95,
		},
		"MENY": {
			Name:                  "MENY",
			Chain:                 "NorgesGruppen",
			Category:              model.CategoryGrocery,
			TypicalVatRate:        model.VatRateFood,
			SeasonalProducts:      []string{"sjømat", "lutefisk", "ferske bær"},
			OrganizationIDPattern: "983456783",
			BaseConfidence:        0.95,
		},
		"SPAR": {
			Name:             "SPAR",
			Chain:            "NorgesGruppen",
			Category:         model.CategoryGrocery,
			TypicalVatRate:   model.VatRateFood,
			SeasonalProducts: []string{"hyttemat", "grillkull"},
			BaseConfidence:   0.90,
		},
		"JOKER": {
			Name:             "Joker",
			Chain:            "NorgesGruppen",
			Category:         model.CategoryGrocery,
			TypicalVatRate:   model.VatRateFood,
			SeasonalProducts: []string{"is", "brus"},
			BaseConfidence:   0.90,
		},
		"BUNNPRIS": {
			Name:             "Bunnpris",
			Chain:            "Bunnpris & Gourmet",
			Category:         model.CategoryGrocery,
			TypicalVatRate:   model.VatRateFood,
			SeasonalProducts: []string{"juleribbe", "sommeris"},
			BaseConfidence:   0.90,
		},
		"COOP": {
			Name:                  "Coop",
			Chain:                 "Coop Norge",
			Category:              model.CategoryGrocery,
			TypicalVatRate:        model.VatRateFood,
			SeasonalProducts:      []string{"julemat", "påskemat", "grillmat"},
			OrganizationIDPattern: "984567894",
			BaseConfidence:        0.85,
		},
		"EXTRA": {
			Name:             "Coop Extra",
			Chain:            "Coop Norge",
			Category:         model.CategoryGrocery,
			TypicalVatRate:   model.VatRateFood,
			SeasonalProducts: []string{"storpakning", "grillmat"},
			BaseConfidence:   0.90,
		},

		// Regulated alcohol retail
		"VINMONOPOLET": {
			Name:                  "Vinmonopolet",
			Chain:                 "AS Vinmonopolet",
			Category:              model.CategoryAlcohol,
			TypicalVatRate:        model.VatRateStandard,
			SeasonalProducts:      []string{"akevitt", "juleøl", "champagne"},
			OrganizationIDPattern: "985678905",
			BaseConfidence:        0.98,
			AlcoholMonopoly:       true,
		},

		// Specialty retail
		"ELKJØP": {
			Name:                  "Elkjøp",
			Chain:                 "Elkjøp Nordic",
			Category:              "electronics",
			TypicalVatRate:        model.VatRateStandard,
			SeasonalProducts:      []string{"tv", "gaming", "julegaver"},
			OrganizationIDPattern: "986789016",
			BaseConfidence:        0.95,
		},
		"XXL": {
			Name:             "XXL Sport & Villmark",
			Chain:            "XXL",
			Category:         "sports",
			TypicalVatRate:   model.VatRateStandard,
			SeasonalProducts: []string{"ski", "telt", "sykkel"},
			BaseConfidence:   0.90,
		},
		"CLAS OHLSON": {
			Name:             "Clas Ohlson",
			Chain:            "Clas Ohlson",
			Category:         "hardware",
			TypicalVatRate:   model.VatRateStandard,
			SeasonalProducts: []string{"julelys", "hagemøbler"},
			BaseConfidence:   0.90,
		},
		"NILLE": {
			Name:             "Nille",
			Chain:            "Nille",
			Category:         "household",
			TypicalVatRate:   model.VatRateStandard,
			SeasonalProducts: []string{"17. mai-pynt", "julepynt"},
			BaseConfidence:   0.85,
		},

		// Convenience, fuel and pharmacy
		"CIRCLE K": {
			Name:             "Circle K",
			Chain:            "Circle K Norge",
			Category:         "fuel",
			TypicalVatRate:   model.VatRateStandard,
			SeasonalProducts: []string{"spylervæske", "grillkull"},
			BaseConfidence:   0.90,
		},
		"NARVESEN": {
			Name:             "Narvesen",
			Chain:            "Reitan Convenience",
			Category:         "convenience",
			TypicalVatRate:   model.VatRateStandard,
			SeasonalProducts: []string{"påskekrim", "is"},
			BaseConfidence:   0.90,
		},
		"APOTEK 1": {
			Name:             "Apotek 1",
			Chain:            "Apotek 1 Gruppen",
			Category:         "pharmacy",
			TypicalVatRate:   model.VatRateStandard,
			SeasonalProducts: []string{"solkrem", "forkjølelse"},
			BaseConfidence:   0.90,
		},
	}
}
