package trigger

import (
	"strings"

	"github.com/recallhq/recall/internal/stringslices"
)

// RuleMatch is the output of the deterministic rule layer.
type RuleMatch struct {
	// Triggers lists matched rule identifiers in match order.
	Triggers []string
	// ShouldSave is true iff a keyword- or pattern-family rule matched.
	ShouldSave bool
	// ShouldSearch is true iff a question- or historical-reference rule matched.
	ShouldSearch bool
	// HighPriority marks a historical-reference hit.
	HighPriority bool
}

// Rule families, all matched against lower-cased text. Matching never
// touches the network and completes in sub-millisecond time.
var (
	saveKeywords = []string{
		"remember", "note this", "note that", "save this", "save that",
		"keep in mind", "don't forget", "memorize",
		"기억해", "저장해", "메모해",
		"merke", "notiere",
		"recuerda", "anota",
	}

	savePatterns = []string{
		"solved it by", "fixed it by", "the solution was", "the fix was",
		"turned out", "the trick is", "works if you", "resolved by",
		"해결했", "고쳤",
	}

	questionMarkers = []string{
		"how do i", "how do you", "how can i", "what is", "what's the",
		"why does", "why is", "where is", "which one", "is there a way",
		"어떻게", "무엇",
	}

	historicalReferences = []string{
		"as discussed", "as we discussed", "last time", "previously",
		"earlier we", "you mentioned", "we talked about", "before we",
		"지난번", "전에 말했",
	}
)

// MatchRules runs every rule family against the message.
func MatchRules(text string) RuleMatch {
	lower := strings.ToLower(text)

	var match RuleMatch

	for _, kw := range stringslices.MatchAll(lower, saveKeywords) {
		match.Triggers = append(match.Triggers, "keyword:"+kw)
		match.ShouldSave = true
	}
	for _, p := range stringslices.MatchAll(lower, savePatterns) {
		match.Triggers = append(match.Triggers, "pattern:"+p)
		match.ShouldSave = true
	}
	for _, q := range stringslices.MatchAll(lower, questionMarkers) {
		match.Triggers = append(match.Triggers, "question:"+q)
		match.ShouldSearch = true
	}
	if strings.Contains(text, "?") {
		match.Triggers = append(match.Triggers, "question:?")
		match.ShouldSearch = true
	}
	for _, h := range stringslices.MatchAll(lower, historicalReferences) {
		match.Triggers = append(match.Triggers, "history:"+h)
		match.ShouldSearch = true
		match.HighPriority = true
	}

	return match
}
