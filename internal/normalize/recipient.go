package normalize

import "strings"

// orgStopwords are legal-form and generic tokens dropped when building a
// recipient matching key, so "The Malaria Foundation Inc" and "Malaria
// Foundation" collide.
var orgStopwords = map[string]struct{}{
	"the":          {},
	"a":            {},
	"an":           {},
	"of":           {},
	"for":          {},
	"and":          {},
	"inc":          {},
	"incorporated": {},
	"llc":          {},
	"ltd":          {},
	"limited":      {},
	"corp":         {},
	"corporation":  {},
	"co":           {},
	"company":      {},
	"foundation":   {},
	"fund":         {},
	"trust":        {},
	"institute":    {},
	"university":   {},
	"charity":      {},
	"charitable":   {},
	"org":          {},
	"organization": {},
	"organisation": {},
}

// RecipientKey builds the normalized grouping key used for cross-source
// duplicate detection: lowercase, punctuation stripped, organization
// stopwords removed, whitespace collapsed. An all-stopword name keeps its
// lowercased form rather than collapsing to the empty key.
func RecipientKey(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	var kept []string
	for _, tok := range strings.Fields(b.String()) {
		if _, stop := orgStopwords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}

	if len(kept) == 0 {
		return strings.Join(strings.Fields(b.String()), " ")
	}
	return strings.Join(kept, " ")
}
