package classify

import (
	"regexp"
	"strings"
	"time"
)

var DefaultStockKeywords = []string{
	"earnings", "eps", "revenue", "guidance", "ipo", "stock", "shares",
	"share price", "dividend", "buyback", "split", "nasdaq", "s&p",
	"spx", "dow", "dow jones",
}

var DefaultNicheKeywords = []string{
	"arrest", "indictment", "raid", "investigation", "whistleblower",
	"leak", "scandal", "coup", "assassination", "extradition",
	"sanction", "venezuela", "maduro", "bankruptcy", "default",
	"delist", "fraud", "subpoena", "sec", "doj",
}

var DefaultExcludeKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "solana", "crypto",
	"super bowl", "nfl", "nba", "mlb", "nhl", "world cup", "champion",
	"playoff", "season", "ufc", "f1", "formula 1", "olympics", "soccer",
}

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// ClassifierConfig holds the keyword lists and thresholds consulted
// by Classifier. Zero-value NicheMaxVolume (nil) disables the
// volume-based niche rule; MaxYearsAhead <= 0 disables long-dated
// detection.
type ClassifierConfig struct {
	NicheKeywords   []string
	StockKeywords   []string
	ExcludeKeywords []string
	MaxYearsAhead   int
	NicheMaxVolume  *float64
}

// Classification mirrors model.Classification; kept distinct so the
// classifier package has no import-cycle dependency on model's other
// consumers, and is converted at the call site.
type Classification struct {
	IsNiche     bool
	IsStock     bool
	IsExcluded  bool
	IsLongDated bool

	MatchedNiche   []string
	MatchedStock   []string
	MatchedExclude []string
}

// Classifier is stateless given its config and safe for concurrent
// use.
type Classifier struct {
	config ClassifierConfig
}

func NewClassifier(config ClassifierConfig) *Classifier {
	return &Classifier{config: config}
}

// Classify tags a market's lowercased text blob. volume, if present,
// feeds the niche-by-low-volume rule.
func (c *Classifier) Classify(text string, volume *float64) Classification {
	lowered := strings.ToLower(text)

	matchedNiche := matchTerms(lowered, c.config.NicheKeywords)
	matchedStock := matchTerms(lowered, c.config.StockKeywords)
	matchedExclude := matchTerms(lowered, c.config.ExcludeKeywords)
	isLongDated := c.isLongDated(lowered)

	isNiche := len(matchedNiche) > 0
	if volume != nil && c.config.NicheMaxVolume != nil && *volume <= *c.config.NicheMaxVolume {
		isNiche = true
	}

	isStock := len(matchedStock) > 0
	isExcluded := len(matchedExclude) > 0 || isLongDated

	if isExcluded {
		isNiche = false
		isStock = false
	}

	return Classification{
		IsNiche:        isNiche,
		IsStock:        isStock,
		IsExcluded:     isExcluded,
		IsLongDated:    isLongDated,
		MatchedNiche:   matchedNiche,
		MatchedStock:   matchedStock,
		MatchedExclude: matchedExclude,
	}
}

func (c *Classifier) isLongDated(text string) bool {
	if c.config.MaxYearsAhead <= 0 {
		return false
	}
	maxYear := time.Now().UTC().Year() + c.config.MaxYearsAhead
	for _, m := range yearPattern.FindAllStringSubmatch(text, -1) {
		var year int
		for _, ch := range m[1] {
			year = year*10 + int(ch-'0')
		}
		if year > maxYear {
			return true
		}
	}
	return false
}

func matchTerms(text string, terms []string) []string {
	var matches []string
	for _, term := range terms {
		if term == "" {
			continue
		}
		if termInText(term, text) {
			matches = append(matches, term)
		}
	}
	return matches
}

// termInText applies the matching rule: alphanumeric-only terms of
// length <= 3 match on word boundary (to avoid "sec" matching
// "second"); any term containing non-alphanumeric characters, or
// longer terms, match by plain substring.
func termInText(term, text string) bool {
	if isAlnum(term) && len(term) <= 3 {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
		return re.MatchString(text)
	}
	return strings.Contains(text, term)
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
