package sentiment

import (
	"strings"

	"QuantPull/internal/domain/models"
)

// legal suffixes stripped from company names before keyword matching;
// " Corporation" must precede " Corp." so both spellings collapse.
var nameSuffixes = []string{" Corporation", " Inc.", " Corp.", " Co."}

// DeriveKeywords builds the relevance terms for a symbol: the symbol itself,
// the company name with its legal suffix stripped, and the leading word of
// that name as a short form. Duplicates are removed case-insensitively and a
// missing profile degrades to the symbol alone.
func DeriveKeywords(symbol string, profile *models.CompanyProfile) []string {
	keywords := []string{symbol}
	if profile == nil {
		return keywords
	}
	name := profile.Name
	for _, suffix := range nameSuffixes {
		name = strings.ReplaceAll(name, suffix, "")
	}
	name = strings.TrimSpace(name)

	candidates := []string{name}
	if first, _, ok := strings.Cut(name, " "); ok {
		candidates = append(candidates, first)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		dup := false
		for _, kw := range keywords {
			if strings.EqualFold(kw, c) {
				dup = true
				break
			}
		}
		if !dup {
			keywords = append(keywords, c)
		}
	}
	return keywords
}

// Relevant reports whether an article belongs to the symbol: its title or
// description must mention at least one keyword and none of the blocked
// topics. Matching is case-insensitive.
func (a *Analyzer) Relevant(article *models.Article, keywords []string) bool {
	text := strings.ToLower(article.Title + " " + article.Description)

	matched := false
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, blocked := range a.cfg.Blockwords {
		if strings.Contains(text, strings.ToLower(blocked)) {
			return false
		}
	}
	return true
}
