package classify

import "testing"

func TestClassifyExclusionDominance(t *testing.T) {
	c := NewClassifier(ClassifierConfig{
		NicheKeywords:   DefaultNicheKeywords,
		StockKeywords:   DefaultStockKeywords,
		ExcludeKeywords: DefaultExcludeKeywords,
		MaxYearsAhead:   1,
	})
	got := c.Classify("Will the Super Bowl MVP be arrested before 2025?", nil)
	if !got.IsExcluded {
		t.Fatal("expected excluded due to 'super bowl'")
	}
	if got.IsNiche {
		t.Error("exclusion must force is_niche false even though 'arrest' matches niche")
	}
	if got.IsStock {
		t.Error("exclusion must force is_stock false")
	}
}

func TestClassifyLongDatedExclusion(t *testing.T) {
	c := NewClassifier(ClassifierConfig{
		NicheKeywords: DefaultNicheKeywords,
		MaxYearsAhead: 1,
	})
	got := c.Classify("Maduro arrest before 2030", nil)
	if !got.IsLongDated {
		t.Fatal("expected long dated for year 2030 with max_years_ahead=1")
	}
	if !got.IsExcluded {
		t.Fatal("long dated implies excluded")
	}
	if got.IsNiche {
		t.Error("is_niche must be forced false despite 'maduro'/'arrest' matching niche")
	}
}

func TestClassifyNicheByVolume(t *testing.T) {
	c := NewClassifier(ClassifierConfig{NicheMaxVolume: floatPtr(1000)})
	vol := 500.0
	got := c.Classify("some ordinary market", &vol)
	if !got.IsNiche {
		t.Error("expected niche due to low volume even with no keyword match")
	}
}

func TestClassifyShortTermWordBoundary(t *testing.T) {
	c := NewClassifier(ClassifierConfig{NicheKeywords: []string{"sec"}})
	got := c.Classify("the second quarter report", nil)
	if len(got.MatchedNiche) != 0 {
		t.Errorf("expected no match: 'sec' must not match inside 'second', got %v", got.MatchedNiche)
	}
	got2 := c.Classify("the SEC filed a complaint", nil)
	if len(got2.MatchedNiche) != 1 {
		t.Errorf("expected 'sec' to match as its own word, got %v", got2.MatchedNiche)
	}
}

func TestClassifyLongTermSubstring(t *testing.T) {
	c := NewClassifier(ClassifierConfig{StockKeywords: []string{"earnings"}})
	got := c.Classify("quarterly earnings call scheduled", nil)
	if len(got.MatchedStock) != 1 {
		t.Errorf("expected substring match for 'earnings', got %v", got.MatchedStock)
	}
}

func floatPtr(f float64) *float64 { return &f }
