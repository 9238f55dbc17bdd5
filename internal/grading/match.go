package grading

import "strings"

// Normalize lowercases s and collapses runs of whitespace to single spaces,
// trimming the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SplitAnswers splits a packed answer field on ';' into its alternates.
// Alternates keep their original casing for display; empties are dropped.
func SplitAnswers(field string) []string {
	parts := strings.Split(field, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsCorrect reports whether a submission matches an answer field. The field
// may pack alternates separated by ';'. The submission matches when its
// normalized form equals the normalized whole field or any normalized
// alternate. An empty submission never matches.
func IsCorrect(submitted, field string) bool {
	sub := Normalize(submitted)
	if sub == "" {
		return false
	}
	if sub == Normalize(field) {
		return true
	}
	for _, alt := range SplitAnswers(field) {
		if sub == Normalize(alt) {
			return true
		}
	}
	return false
}
