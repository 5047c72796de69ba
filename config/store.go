package config

import "time"

type StoreConfig struct {
	// SqlitePath is the database file. ":memory:" keeps everything in process.
	SqlitePath string `env:"RECALL_SQLITE_PATH" yaml:"sqlite_path"`

	// SqliteEnabled switches WAL-backed sqlite on. When false the engine
	// falls back to the in-memory store.
	SqliteEnabled bool `env:"RECALL_SQLITE_ENABLED" yaml:"sqlite_enabled"`

	// VectorDim is the embedding dimensionality the vec0 table is created with.
	VectorDim int `env:"RECALL_VECTOR_DIM" yaml:"vector_dim"`

	// OperationTimeout bounds individual store operations.
	OperationTimeout time.Duration `env:"RECALL_STORE_TIMEOUT" yaml:"operation_timeout"`
}

func NewStoreConfig() (*StoreConfig, error) {
	c := StoreConfig{
		SqlitePath:       ":memory:",
		SqliteEnabled:    false,
		VectorDim:        256,
		OperationTimeout: 5 * time.Second,
	}
	if err := resolveConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
