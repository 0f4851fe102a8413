package history

// Purchase is one fixture row.
type Purchase struct {
	Date     string
	Merchant string
	Category string
	Amount   float64
}

// Fixture is a predefined purchase history for a test scenario.
type Fixture interface {
	Name() string
	Purchases() []Purchase
}

type fixture struct {
	name      string
	purchases []Purchase
}

func (f *fixture) Name() string          { return f.name }
func (f *fixture) Purchases() []Purchase { return f.purchases }

var (
	// FixtureAssociationYear is a year of purchases for a small association,
	// with spikes around 17. mai and Christmas.
	FixtureAssociationYear = &fixture{
		name: "AssociationYear",
		purchases: []Purchase{
			{Date: "2024-01-12", Merchant: "REMA 1000", Category: "grocery", Amount: 420},
			{Date: "2024-03-08", Merchant: "KIWI", Category: "grocery", Amount: 380},
			{Date: "2024-05-15", Merchant: "REMA 1000", Category: "grocery", Amount: 1450},
			{Date: "2024-05-16", Merchant: "Vinmonopolet", Category: "alcohol", Amount: 899},
			{Date: "2024-08-20", Merchant: "Clas Ohlson", Category: "hardware", Amount: 649},
			{Date: "2024-12-18", Merchant: "REMA 1000", Category: "grocery", Amount: 1980},
			{Date: "2024-12-19", Merchant: "Vinmonopolet", Category: "alcohol", Amount: 1299},
		},
	}

	// FixtureSingleReceipt is the smallest usable history.
	FixtureSingleReceipt = &fixture{
		name: "SingleReceipt",
		purchases: []Purchase{
			{Date: "2024-10-15", Merchant: "KIWI", Category: "grocery", Amount: 250},
		},
	}
)
