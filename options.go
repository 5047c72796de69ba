package recall

import (
	"log/slog"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/memory"
	"github.com/recallhq/recall/quota"
	"github.com/recallhq/recall/trigger"
)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recall) {
		r.logger = logger
	}
}

func WithLogConfig(conf *config.LogConfig) Option {
	return func(r *Recall) {
		r.logConfig = conf
	}
}

func WithEngineConfig(conf *config.EngineConfig) Option {
	return func(r *Recall) {
		r.engineConfig = conf
	}
}

func WithStoreConfig(conf *config.StoreConfig) Option {
	return func(r *Recall) {
		r.storeConfig = conf
	}
}

func WithClassifierConfig(conf *config.ClassifierConfig) Option {
	return func(r *Recall) {
		r.classifierConfig = conf
	}
}

func WithQuotaConfig(conf *config.QuotaConfig) Option {
	return func(r *Recall) {
		r.quotaConfig = conf
	}
}

func WithStore(store memory.Store) Option {
	return func(r *Recall) {
		r.store = store
	}
}

func WithEmbedder(embedder memory.Embedder) Option {
	return func(r *Recall) {
		r.embedder = embedder
	}
}

func WithMemoryService(svc memory.Service) Option {
	return func(r *Recall) {
		r.memoryService = svc
	}
}

func WithQuotaGate(gate quota.Gate) Option {
	return func(r *Recall) {
		r.gate = gate
	}
}

// WithClassifierModel plugs in a custom classifier backing model.
func WithClassifierModel(model trigger.Model) Option {
	return func(r *Recall) {
		r.model = model
	}
}
