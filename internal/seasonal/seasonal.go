// Package seasonal maps calendar dates to Norwegian seasonal purchasing context.
package seasonal

import (
	"time"

	"github.com/Veraticus/kvittering/internal/model"
)

// Cultural events referenced by seasonal profiles.
const (
	EventNationalDay  = "17. mai"
	EventChristmas    = "Jul"
	EventEaster       = "Påske"
	EventSummer       = "Sommerferie"
	EventBackToSchool = "Skolestart"
)

// ContextFor returns the seasonal profile for date. Every date maps to exactly one profile.
func ContextFor(date time.Time) model.SeasonalProfile {
	month := date.Month()

	switch {
	case month == time.May && date.Day() == 17:
		return model.SeasonalProfile{
			SeasonLabel:      "National day",
			CulturalEvent:    EventNationalDay,
			TypicalPurchases: []string{"is", "pølser", "flagg", "bunadstilbehør"},
			PriceExpectation: "High demand for party food and decorations",
		}
	case month == time.December:
		return model.SeasonalProfile{
			SeasonLabel:      "Christmas season",
			CulturalEvent:    EventChristmas,
			TypicalPurchases: []string{"ribbe", "pinnekjøtt", "julegaver", "akevitt"},
			PriceExpectation: "Elevated prices on festive food and gifts",
		}
	case month == time.March || month == time.April:
		return model.SeasonalProfile{
			SeasonLabel:      "Easter holiday",
			CulturalEvent:    EventEaster,
			TypicalPurchases: []string{"påskeegg", "appelsiner", "kvikk lunsj", "hyttemat"},
			PriceExpectation: "Campaign prices on cabin food, higher prices at mountain stores",
		}
	case month >= time.June && month <= time.August:
		return model.SeasonalProfile{
			SeasonLabel:      "Summer",
			CulturalEvent:    EventSummer,
			TypicalPurchases: []string{"grillmat", "is", "solkrem", "campingutstyr"},
			PriceExpectation: "Higher prices at tourist destinations",
		}
	case month == time.September:
		return model.SeasonalProfile{
			SeasonLabel:      "Back to school",
			CulturalEvent:    EventBackToSchool,
			TypicalPurchases: []string{"skolesekker", "skrivesaker", "matbokser"},
			PriceExpectation: "Campaign prices on school supplies",
		}
	default:
		return model.SeasonalProfile{
			SeasonLabel:      "Standard period",
			TypicalPurchases: []string{"dagligvarer"},
			PriceExpectation: "Normal price level",
		}
	}
}

// Hints returns the merchant's seasonal products when the current profile names an event.
func Hints(profile model.SeasonalProfile, merchant model.MerchantProfile) []string {
	if profile.CulturalEvent == "" || len(merchant.SeasonalProducts) == 0 {
		return nil
	}
	hints := make([]string, len(merchant.SeasonalProducts))
	copy(hints, merchant.SeasonalProducts)
	return hints
}
