package config

import "time"

type ClassifierConfig struct {
	// OpenAIAPIKey enables the model-backed classifier. Empty means
	// rules-only operation.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" yaml:"openai_api_key"`

	// Model is the chat model used for intent classification.
	Model string `env:"RECALL_CLASSIFIER_MODEL" yaml:"model"`

	// InitTimeout bounds classifier warm-up before the engine falls back
	// to rules-only decisions.
	InitTimeout time.Duration `env:"RECALL_CLASSIFIER_INIT_TIMEOUT" yaml:"init_timeout"`

	// RequestTimeout bounds a single classification call.
	RequestTimeout time.Duration `env:"RECALL_CLASSIFIER_REQUEST_TIMEOUT" yaml:"request_timeout"`
}

func NewClassifierConfig() (*ClassifierConfig, error) {
	c := ClassifierConfig{
		Model:          "gpt-4o-mini",
		InitTimeout:    10 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
	if err := resolveConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
