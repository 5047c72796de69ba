package recall

import (
	"context"
	"log/slog"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/internal/mylog"
	"github.com/recallhq/recall/memory"
	"github.com/recallhq/recall/quota"
	"github.com/recallhq/recall/trigger"
)

type (
	// Recall wires the decision engine, the record store and their
	// collaborators into one embeddable unit.
	Recall struct {
		engine        trigger.Engine
		memoryService memory.Service
		store         memory.Store
		embedder      memory.Embedder
		gate          quota.Gate
		gateway       *trigger.Gateway
		model         trigger.Model
		logger        *slog.Logger

		logConfig        *config.LogConfig
		engineConfig     *config.EngineConfig
		storeConfig      *config.StoreConfig
		classifierConfig *config.ClassifierConfig
		quotaConfig      *config.QuotaConfig
	}

	Option func(*Recall)
)

// NewRecall assembles a memory engine. Every collaborator can be
// overridden with an Option; anything not provided is built from
// configuration.
func NewRecall(ctx context.Context, optionFuncs ...Option) (*Recall, error) {
	r := &Recall{}
	for _, f := range optionFuncs {
		f(r)
	}

	var err error
	if r.logConfig == nil {
		if r.logConfig, err = config.NewLogConfig(); err != nil {
			return nil, err
		}
	}
	if r.engineConfig == nil {
		if r.engineConfig, err = config.NewEngineConfig(); err != nil {
			return nil, err
		}
	}
	if r.storeConfig == nil {
		if r.storeConfig, err = config.NewStoreConfig(); err != nil {
			return nil, err
		}
	}
	if r.classifierConfig == nil {
		if r.classifierConfig, err = config.NewClassifierConfig(); err != nil {
			return nil, err
		}
	}
	if r.quotaConfig == nil {
		if r.quotaConfig, err = config.NewQuotaConfig(); err != nil {
			return nil, err
		}
	}

	if r.logger == nil {
		r.logger = mylog.NewLogger(r.logConfig.LogLevel, r.logConfig.LogHandler)
	}

	if r.embedder == nil {
		if r.classifierConfig.OpenAIAPIKey != "" {
			r.embedder = memory.NewOpenAIEmbedder(r.classifierConfig.OpenAIAPIKey, "", 0)
		} else {
			r.embedder = memory.NewHashEmbedder(r.storeConfig.VectorDim)
		}
	}

	if r.store == nil {
		if r.storeConfig.SqliteEnabled {
			r.store, err = memory.NewSqliteStore(r.storeConfig.SqlitePath, r.embedder.Dim())
			if err != nil {
				return nil, err
			}
		} else {
			r.store = memory.NewInMemoryStore()
		}
	}

	if r.memoryService == nil {
		r.memoryService = memory.NewService(r.store, r.embedder, r.engineConfig, r.storeConfig, r.logger)
	}

	if r.gate == nil {
		r.gate = buildGate(r.quotaConfig, r.store)
	}

	if r.model == nil && r.classifierConfig.OpenAIAPIKey != "" {
		r.model = trigger.NewOpenAIModel(r.classifierConfig.OpenAIAPIKey, r.classifierConfig.Model)
	}
	if r.gateway == nil && r.model != nil {
		r.gateway = trigger.NewGateway(
			r.model,
			r.classifierConfig.InitTimeout,
			r.classifierConfig.RequestTimeout,
			r.logger,
		)
	}

	r.engine = trigger.NewEngine(r.engineConfig, r.gateway, r.memoryService, r.gate, r.logger)

	return r, nil
}

func buildGate(conf *config.QuotaConfig, store memory.Store) quota.Gate {
	usage := quota.UsageReaderFunc(func(ctx context.Context, project string) (int64, error) {
		return store.Count(ctx, project)
	})
	switch conf.Tier {
	case "free":
		return quota.NewTierGate(usage, int64(conf.FreeTierLimit))
	case "pro":
		return quota.NewTierGate(usage, int64(conf.ProTierLimit))
	default:
		return quota.NoopGate{}
	}
}

// ProcessMessage runs the full decision pipeline for one message.
func (r *Recall) ProcessMessage(ctx context.Context, project, text string, sctx *memory.SaveContext) (*trigger.Decision, error) {
	return r.engine.ProcessMessage(ctx, project, text, sctx)
}

// CreateMemory saves explicitly, bypassing the decision engine.
func (r *Recall) CreateMemory(ctx context.Context, input memory.CreateInput) (*memory.Record, error) {
	return r.memoryService.CreateMemory(ctx, input)
}

func (r *Recall) GetMemory(ctx context.Context, id string) (*memory.Record, error) {
	return r.memoryService.GetMemory(ctx, id)
}

func (r *Recall) UpdateMemory(ctx context.Context, id string, input memory.UpdateInput) (*memory.Record, error) {
	return r.memoryService.UpdateMemory(ctx, id, input)
}

func (r *Recall) DeleteMemory(ctx context.Context, id string) (bool, error) {
	return r.memoryService.DeleteMemory(ctx, id)
}

func (r *Recall) ListMemories(ctx context.Context, project string, limit, offset int, filters memory.ListFilters) ([]*memory.Record, error) {
	return r.memoryService.ListMemories(ctx, project, limit, offset, filters)
}

func (r *Recall) SearchMemories(ctx context.Context, input memory.SearchInput) ([]memory.ScoredRecord, error) {
	return r.memoryService.SearchMemories(ctx, input)
}

func (r *Recall) GetStats(ctx context.Context, project string) (*memory.Stats, error) {
	return r.memoryService.GetStats(ctx, project)
}

// MemoryService exposes the underlying record service for adapters.
func (r *Recall) MemoryService() memory.Service {
	return r.memoryService
}

// Engine exposes the decision engine for adapters.
func (r *Recall) Engine() trigger.Engine {
	return r.engine
}

func (r *Recall) Close() error {
	return r.store.Close()
}
