package trigger_test

import (
	"testing"
	"time"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/errors"
	"github.com/recallhq/recall/internal/mylog"
	"github.com/recallhq/recall/memory"
	"github.com/recallhq/recall/quota"
	"github.com/recallhq/recall/trigger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		SaveConfidenceThreshold:   0.7,
		SearchConfidenceThreshold: 0.5,
		MinClassifyLength:         15,
		SearchCooldown:            30 * time.Second,
		SimilarityThreshold:       0.3,
		ImportanceBoost:           0.2,
		SearchLimit:               5,
	}
}

func newTestEngine(conf *config.EngineConfig, gateway *trigger.Gateway, gate quota.Gate) (trigger.Engine, memory.Service) {
	logger := mylog.NewLogger("error", "default")
	svc := memory.NewService(
		memory.NewInMemoryStore(),
		memory.NewHashEmbedder(64),
		conf,
		&config.StoreConfig{OperationTimeout: 5 * time.Second},
		logger,
	)
	if gate == nil {
		gate = quota.NoopGate{}
	}
	return trigger.NewEngine(conf, gateway, svc, gate, logger), svc
}

func TestEngine_SaveKeywordTriggersSave(t *testing.T) {
	engine, svc := newTestEngine(testEngineConfig(), nil, nil)
	ctx := t.Context()

	decision, err := engine.ProcessMessage(ctx, "proj-a", "Remember that CORS needs Access-Control-Allow-Origin", nil)
	require.NoError(t, err)

	assert.True(t, decision.ShouldSave)
	require.NotNil(t, decision.SavedRecord)
	assert.Equal(t, "proj-a", decision.SavedRecord.Project)

	records, err := svc.ListMemories(ctx, "proj-a", 0, 0, memory.ListFilters{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestEngine_QuestionTriggersSearchOnceWithinCooldown(t *testing.T) {
	engine, _ := newTestEngine(testEngineConfig(), nil, nil)
	ctx := t.Context()

	// First question: search executes (empty store, empty results).
	first, err := engine.ProcessMessage(ctx, "proj-a", "How do I configure CORS?", nil)
	require.NoError(t, err)
	assert.True(t, first.ShouldSearch)
	assert.Empty(t, first.SkipReasons)

	// Same question again within the cooldown: shouldSearch is still
	// computed true but the search itself is suppressed.
	second, err := engine.ProcessMessage(ctx, "proj-a", "How do I configure CORS?", nil)
	require.NoError(t, err)
	assert.True(t, second.ShouldSearch)
	assert.Contains(t, second.SkipReasons, "search skipped: cooldown")
	assert.Nil(t, second.SearchResults)
}

func TestEngine_SearchFindsSavedRecord(t *testing.T) {
	engine, svc := newTestEngine(testEngineConfig(), nil, nil)
	ctx := t.Context()

	_, err := svc.CreateMemory(ctx, memory.CreateInput{
		Project: "proj-a",
		Content: "cors needs the access control allow origin header",
	})
	require.NoError(t, err)

	decision, err := engine.ProcessMessage(ctx, "proj-a", "how do i set the cors origin header?", nil)
	require.NoError(t, err)
	assert.True(t, decision.ShouldSearch)
	require.NotEmpty(t, decision.SearchResults)
}

func TestEngine_ShortMessageSkipsClassifier(t *testing.T) {
	model := &fakeModel{
		result: &trigger.ClassifierResult{Label: trigger.LabelSaveMemory, Confidence: 0.99},
	}
	gateway := trigger.NewGateway(model, time.Second, time.Second, testLogger())
	engine, _ := newTestEngine(testEngineConfig(), gateway, nil)

	decision, err := engine.ProcessMessage(t.Context(), "proj-a", "Good morning!", nil)
	require.NoError(t, err)

	// 13 runes, no rule triggers: the classifier is never consulted.
	assert.EqualValues(t, 0, model.loads.Load())
	assert.EqualValues(t, 0, model.classifies.Load())
	assert.False(t, decision.ShouldSave)
	assert.False(t, decision.ShouldSearch)
	assert.Nil(t, decision.ClassifierResult)
}

func TestEngine_ClassifierDrivenSave(t *testing.T) {
	model := &fakeModel{
		result: &trigger.ClassifierResult{Label: trigger.LabelSaveMemory, Confidence: 0.9},
	}
	gateway := trigger.NewGateway(model, time.Second, time.Second, testLogger())
	engine, _ := newTestEngine(testEngineConfig(), gateway, nil)

	// No rule trigger, but long enough to classify.
	decision, err := engine.ProcessMessage(t.Context(), "proj-a", "The database password rotation happens monthly", nil)
	require.NoError(t, err)

	require.NotNil(t, decision.ClassifierResult)
	assert.True(t, decision.ShouldSave)
	assert.NotNil(t, decision.SavedRecord)
	assert.Equal(t, 0.9, decision.FinalConfidence)
}

func TestEngine_ClassifierBelowThresholdIsIgnored(t *testing.T) {
	model := &fakeModel{
		result: &trigger.ClassifierResult{Label: trigger.LabelSaveMemory, Confidence: 0.5},
	}
	gateway := trigger.NewGateway(model, time.Second, time.Second, testLogger())
	engine, _ := newTestEngine(testEngineConfig(), gateway, nil)

	decision, err := engine.ProcessMessage(t.Context(), "proj-a", "The database password rotation happens monthly", nil)
	require.NoError(t, err)

	assert.False(t, decision.ShouldSave)
	assert.Nil(t, decision.SavedRecord)
}

func TestEngine_ClassifierUnavailableFallsBackToRules(t *testing.T) {
	model := &fakeModel{
		loadErr: errors.New("model file missing"),
	}
	gateway := trigger.NewGateway(model, time.Second, time.Second, testLogger())
	engine, _ := newTestEngine(testEngineConfig(), gateway, nil)
	ctx := t.Context()

	// Rules-only decision, no crash, no hang.
	decision, err := engine.ProcessMessage(ctx, "proj-a", "Remember that WAL mode needs a shared cache", nil)
	require.NoError(t, err)
	assert.True(t, decision.ShouldSave)
	assert.Nil(t, decision.ClassifierResult)
	assert.NotNil(t, decision.SavedRecord)

	// A trigger-less message degrades to no action.
	decision, err = engine.ProcessMessage(ctx, "proj-a", "the weather is quite nice here today", nil)
	require.NoError(t, err)
	assert.False(t, decision.ShouldSave)
	assert.False(t, decision.ShouldSearch)
}

func TestEngine_QuotaDenialSkipsSave(t *testing.T) {
	gate := quota.NewTierGate(quota.StaticUsageReader(100), 100)
	engine, svc := newTestEngine(testEngineConfig(), nil, gate)
	ctx := t.Context()

	decision, err := engine.ProcessMessage(ctx, "proj-a", "Remember that CORS needs Access-Control-Allow-Origin", nil)
	require.NoError(t, err)

	assert.True(t, decision.ShouldSave)
	assert.Nil(t, decision.SavedRecord)
	assert.Contains(t, decision.SkipReasons, "save skipped: quota")

	records, err := svc.ListMemories(ctx, "proj-a", 0, 0, memory.ListFilters{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEngine_Validation(t *testing.T) {
	engine, _ := newTestEngine(testEngineConfig(), nil, nil)

	_, err := engine.ProcessMessage(t.Context(), "", "text", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = engine.ProcessMessage(t.Context(), "proj-a", "  ", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestEngine_SaveBeforeSearch(t *testing.T) {
	engine, svc := newTestEngine(testEngineConfig(), nil, nil)
	ctx := t.Context()

	// Both a save keyword and a question marker in one message.
	decision, err := engine.ProcessMessage(ctx, "proj-a", "Remember this; also, how do I enable WAL mode?", nil)
	require.NoError(t, err)

	assert.True(t, decision.ShouldSave)
	assert.True(t, decision.ShouldSearch)
	assert.NotNil(t, decision.SavedRecord)
	assert.Empty(t, decision.SkipReasons)

	records, err := svc.ListMemories(ctx, "proj-a", 0, 0, memory.ListFilters{})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
