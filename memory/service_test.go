package memory_test

import (
	"sync"
	"testing"
	"time"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/errors"
	"github.com/recallhq/recall/internal/mylog"
	"github.com/recallhq/recall/memory"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() memory.Service {
	engineConf := &config.EngineConfig{
		SaveConfidenceThreshold:   0.7,
		SearchConfidenceThreshold: 0.5,
		MinClassifyLength:         15,
		SearchCooldown:            30 * time.Second,
		SimilarityThreshold:       0.3,
		ImportanceBoost:           0.2,
		SearchLimit:               5,
	}
	storeConf := &config.StoreConfig{
		OperationTimeout: 5 * time.Second,
	}
	return memory.NewService(
		memory.NewInMemoryStore(),
		memory.NewHashEmbedder(64),
		engineConf,
		storeConf,
		mylog.NewLogger("error", "default"),
	)
}

func TestService_CreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := t.Context()

	_, err := svc.CreateMemory(ctx, memory.CreateInput{Project: "", Content: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.CreateMemory(ctx, memory.CreateInput{Project: "proj-a", Content: "  "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = svc.CreateMemory(ctx, memory.CreateInput{
		Project:    "proj-a",
		Content:    "x",
		Importance: lo.ToPtr(1.5),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestService_CreateComputesImportance(t *testing.T) {
	svc := newTestService()

	record, err := svc.CreateMemory(t.Context(), memory.CreateInput{
		Project: "proj-a",
		Content: "remember the deploy config",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.GreaterOrEqual(t, record.Importance, 0.0)
	assert.LessOrEqual(t, record.Importance, 1.0)
	// "remember" keyword plus technical nouns lift it above the base.
	assert.Greater(t, record.Importance, 0.5)

	got, err := svc.GetMemory(t.Context(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Content, got.Content)
	assert.Equal(t, record.Project, got.Project)
	assert.Equal(t, record.Importance, got.Importance)
}

func TestService_CreateExplicitImportance(t *testing.T) {
	svc := newTestService()

	record, err := svc.CreateMemory(t.Context(), memory.CreateInput{
		Project:    "proj-a",
		Content:    "explicit importance",
		Importance: lo.ToPtr(0.95),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.95, record.Importance)
}

func TestService_UpdateEmptyInputIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := t.Context()

	record, err := svc.CreateMemory(ctx, memory.CreateInput{
		Project: "proj-a",
		Content: "original content",
		Tags:    []string{"one"},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateMemory(ctx, record.ID, memory.UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, record.Content, updated.Content)
	assert.Equal(t, record.Importance, updated.Importance)
	assert.Equal(t, record.Tags, updated.Tags)
}

func TestService_UpdateContentRecomputesEmbedding(t *testing.T) {
	svc := newTestService()
	ctx := t.Context()

	record, err := svc.CreateMemory(ctx, memory.CreateInput{
		Project: "proj-a",
		Content: "postgres connection pooling settings",
	})
	require.NoError(t, err)

	_, err = svc.UpdateMemory(ctx, record.ID, memory.UpdateInput{
		Content: lo.ToPtr("redis eviction policy tuning"),
	})
	require.NoError(t, err)

	// The record is now found by its new content, not the old one.
	results, err := svc.SearchMemories(ctx, memory.SearchInput{
		Project: "proj-a",
		Query:   "redis eviction policy",
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, record.ID, results[0].Record.ID)
}

func TestService_UpdateNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.UpdateMemory(t.Context(), "missing", memory.UpdateInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestService_SearchFindsRelatedContent(t *testing.T) {
	svc := newTestService()
	ctx := t.Context()

	record, err := svc.CreateMemory(ctx, memory.CreateInput{
		Project: "proj-a",
		Content: "cors needs the access control allow origin header",
	})
	require.NoError(t, err)

	_, err = svc.CreateMemory(ctx, memory.CreateInput{
		Project: "proj-a",
		Content: "banana smoothie recipe with oat milk",
	})
	require.NoError(t, err)

	results, err := svc.SearchMemories(ctx, memory.SearchInput{
		Project: "proj-a",
		Query:   "cors header origin",
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, record.ID, results[0].Record.ID)
	assert.Greater(t, results[0].Similarity, 0.3)
}

func TestService_SearchValidation(t *testing.T) {
	svc := newTestService()

	_, err := svc.SearchMemories(t.Context(), memory.SearchInput{Project: "proj-a", Query: " "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestService_ConcurrentUpdateAndSearch(t *testing.T) {
	svc := newTestService()
	ctx := t.Context()

	record, err := svc.CreateMemory(ctx, memory.CreateInput{
		Project: "proj-a",
		Content: "postgres connection pooling settings",
	})
	require.NoError(t, err)

	// Updates rewrite content (and so the embedding) while searches read
	// the same record. The race detector flags any shared mutable state.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				content := "postgres connection pooling settings"
				if (i+j)%2 == 0 {
					content = "redis eviction policy tuning"
				}
				_, err := svc.UpdateMemory(ctx, record.ID, memory.UpdateInput{
					Content: lo.ToPtr(content),
				})
				assert.NoError(t, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, err := svc.SearchMemories(ctx, memory.SearchInput{
					Project: "proj-a",
					Query:   "connection pooling",
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.GetMemory(ctx, record.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{
		"postgres connection pooling settings",
		"redis eviction policy tuning",
	}, got.Content)
}

func TestService_DeleteAndStats(t *testing.T) {
	svc := newTestService()
	ctx := t.Context()

	record, err := svc.CreateMemory(ctx, memory.CreateInput{
		Project:  "proj-a",
		Content:  "to be deleted",
		Category: memory.CategoryGeneral,
	})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, "proj-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalRecords)

	deleted, err := svc.DeleteMemory(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	stats, err = svc.GetStats(ctx, "proj-a")
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalRecords)
}
