package model

// MarketMeta describes a venue market as discovered by a catalog
// refresh. Immutable once built; a single MarketMeta is referenced
// under every alias (slug, ticker, token id, condition id) the venue
// exposes for the same underlying market.
type MarketMeta struct {
	Label    string
	TextBlob string // lowercased, space-joined title/subtitle/description/...
	Volume   *float64
	Category *string
}

// Classification is the classifier's verdict for one market's text
// blob, plus the terms that drove each flag (useful for debugging and
// for the dashboard's "why" tooltip).
type Classification struct {
	IsNiche     bool
	IsStock     bool
	IsExcluded  bool
	IsLongDated bool

	MatchedNiche   []string
	MatchedStock   []string
	MatchedExclude []string
}
