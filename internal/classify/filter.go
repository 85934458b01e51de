package classify

import "strings"

// FilterConfig restricts the event universe a catalog refresh keeps.
// Every configured list is optional; an empty list imposes no
// constraint on that dimension.
type FilterConfig struct {
	ExcludeKeywords []string
	Categories      []string
	Subcategories   []string
	Tags            []string
	IncludeKeywords []string
	CompanyTerms    []string
}

// Passes reports whether a candidate market's text blob and
// structured facets satisfy the filter predicate from §4.2: it must
// avoid every exclude keyword, and match every configured facet list
// that is non-empty.
func (f FilterConfig) Passes(textBlob string, categories, subcategories, tags []string) bool {
	lowered := strings.ToLower(textBlob)

	if matchAnyKeyword(lowered, f.ExcludeKeywords) {
		return false
	}
	if len(f.Categories) > 0 && !matchAnyValue(categories, f.Categories) {
		return false
	}
	if len(f.Subcategories) > 0 && !matchAnyValue(subcategories, f.Subcategories) {
		return false
	}
	if len(f.Tags) > 0 && !matchAnyValue(tags, f.Tags) {
		return false
	}
	if len(f.IncludeKeywords) > 0 && !matchAnyKeyword(lowered, f.IncludeKeywords) {
		return false
	}
	if len(f.CompanyTerms) > 0 && !matchAnyKeyword(lowered, f.CompanyTerms) {
		return false
	}
	return true
}

func matchAnyKeyword(text string, keywords []string) bool {
	if len(keywords) == 0 || text == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func matchAnyValue(values []string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		lowered := strings.ToLower(v)
		for _, k := range keywords {
			if strings.Contains(lowered, k) {
				return true
			}
		}
	}
	return false
}

// BuildTextBlob joins and lowercases a market's descriptive fields,
// matching the ordering used throughout the classification surface:
// title, subtitle, description, question, slugs, categories,
// subcategories, then tag names.
func BuildTextBlob(parts ...string) string {
	return strings.ToLower(strings.Join(filterEmpty(parts), " "))
}

func filterEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
