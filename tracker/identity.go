package tracker

import "strings"

// IdentityKey computes the dedup key for a posting within its source.
// URL-first: a posting with a URL keys on the normalized URL; only when the
// URL is absent does it fall back to title+company. Case folding and
// whitespace collapse make the key resistant to formatting churn between
// fetches. Pure function.
func IdentityKey(postingURL, title, company string) string {
	if u := normalizeKeyPart(postingURL); u != "" {
		return "u:" + u
	}
	return "t:" + normalizeKeyPart(title) + "|" + normalizeKeyPart(company)
}

// normalizeKeyPart case-folds and collapses runs of whitespace to one space.
func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
