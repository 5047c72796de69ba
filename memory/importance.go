package memory

import (
	"strings"

	"github.com/recallhq/recall/internal/stringslices"
)

// Keyword classes feeding the importance score. Matching is
// case-insensitive substring containment.
var (
	importanceKeywords = []string{
		"critical", "important", "remember", "key", "essential",
		"must", "always", "never", "warning",
		"중요", "기억", "필수",
	}

	technicalNouns = []string{
		"function", "configuration", "config", "error", "api",
		"database", "server", "deploy", "endpoint", "schema",
		"migration", "token", "auth",
	}

	codeFences = []string{"```", "~~~"}
)

const (
	importanceBase = 0.5

	importanceKeywordWeight = 0.1
	importanceKeywordCap    = 0.2

	technicalNounWeight = 0.05
	technicalNounCap    = 0.15

	longContentThreshold = 200
	longContentBonus     = 0.1

	codeBlockBonus = 0.2
)

// Score maps record content plus its save context to a 0-1 importance
// value. It is deterministic and side-effect free.
func Score(content string, sctx *SaveContext) float64 {
	text := strings.ToLower(content)

	score := importanceBase

	keywordBonus := importanceKeywordWeight * float64(len(stringslices.MatchAll(text, importanceKeywords)))
	score += min(keywordBonus, importanceKeywordCap)

	nounBonus := technicalNounWeight * float64(len(stringslices.MatchAll(text, technicalNouns)))
	score += min(nounBonus, technicalNounCap)

	if len([]rune(content)) > longContentThreshold {
		score += longContentBonus
	}

	if (sctx != nil && sctx.FromCodeBlock) || stringslices.ContainsAny(content, codeFences) {
		score += codeBlockBonus
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
