package stringslices

import "strings"

// ContainsAny reports whether text contains at least one of the fragments.
func ContainsAny(text string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(text, f) {
			return true
		}
	}
	return false
}

// MatchAll returns every fragment contained in text, in fragment order.
func MatchAll(text string, fragments []string) []string {
	var hits []string
	for _, f := range fragments {
		if strings.Contains(text, f) {
			hits = append(hits, f)
		}
	}
	return hits
}
