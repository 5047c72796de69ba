package memory_test

import (
	"strings"
	"testing"

	"github.com/recallhq/recall/memory"
	"github.com/stretchr/testify/assert"
)

func TestScore_Base(t *testing.T) {
	score := memory.Score("hello there", nil)
	assert.Equal(t, 0.5, score, "plain short content stays at the base score")
}

func TestScore_ImportanceKeywords(t *testing.T) {
	score := memory.Score("remember this setting", nil)
	assert.InDelta(t, 0.6, score, 1e-9)

	// Keyword contribution is capped.
	score = memory.Score("critical: remember this essential key detail, never skip it", nil)
	assert.InDelta(t, 0.7, score, 1e-9)
}

func TestScore_TechnicalNouns(t *testing.T) {
	score := memory.Score("the function writes to the database", nil)
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestScore_LongContent(t *testing.T) {
	content := strings.Repeat("details ", 30) // > 200 runes
	score := memory.Score(content, nil)
	assert.InDelta(t, 0.6, score, 1e-9)
}

func TestScore_CodeBlockContext(t *testing.T) {
	score := memory.Score("x := 1", &memory.SaveContext{FromCodeBlock: true})
	assert.InDelta(t, 0.7, score, 1e-9)

	// A fenced block inside the content counts too.
	score = memory.Score("use this:\n```go\nx := 1\n```", nil)
	assert.InDelta(t, 0.7, score, 1e-9)
}

func TestScore_ClampedToOne(t *testing.T) {
	content := "critical! remember this key config: the function had an error in the database layer. " +
		strings.Repeat("details ", 30)
	score := memory.Score(content, &memory.SaveContext{FromCodeBlock: true})
	assert.Equal(t, 1.0, score)
}

func TestScore_Deterministic(t *testing.T) {
	content := "remember the deploy config"
	sctx := &memory.SaveContext{FromCodeBlock: true}
	assert.Equal(t, memory.Score(content, sctx), memory.Score(content, sctx))
}
