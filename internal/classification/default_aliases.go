package classification

// Alias maps a multi-word phrase to a catalog key. Phrases are uppercase.
type Alias struct {
	Phrase string
	Key    string
}

// DefaultAliases returns the hardcoded aliases in the order they are checked.
func DefaultAliases() []Alias {
	return []Alias{
		{Phrase: "DET NORSKE VINMONOPOL", Key: "VINMONOPOLET"},
		{Phrase: "STATOIL FUEL", Key: "CIRCLE K"},
		{Phrase: "ELKJOP NORGE", Key: "ELKJØP"},
		{Phrase: "APOTEK1 GRUPPEN", Key: "APOTEK 1"},
	}
}
