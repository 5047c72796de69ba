package config

import "time"

// EngineConfig controls the decision engine: classification thresholds,
// rate limiting and ranking behavior.
type EngineConfig struct {
	// SaveConfidenceThreshold is the minimum classifier confidence required
	// to act on a save intent.
	SaveConfidenceThreshold float64 `env:"RECALL_SAVE_CONFIDENCE_THRESHOLD" yaml:"save_confidence_threshold"`

	// SearchConfidenceThreshold is the minimum classifier confidence required
	// to act on a search intent.
	SearchConfidenceThreshold float64 `env:"RECALL_SEARCH_CONFIDENCE_THRESHOLD" yaml:"search_confidence_threshold"`

	// MinClassifyLength is the minimum message length (in runes) worth
	// classifying. Shorter messages skip the classifier entirely.
	MinClassifyLength int `env:"RECALL_MIN_CLASSIFY_LENGTH" yaml:"min_classify_length"`

	// SearchCooldown is the per-project interval during which repeated
	// auto-searches are suppressed. Saves are never rate limited.
	SearchCooldown time.Duration `env:"RECALL_SEARCH_COOLDOWN" yaml:"search_cooldown"`

	// SimilarityThreshold filters out weak matches from search results.
	SimilarityThreshold float64 `env:"RECALL_SIMILARITY_THRESHOLD" yaml:"similarity_threshold"`

	// ImportanceBoost is the weight importance contributes to ranking:
	// score = similarity + ImportanceBoost*importance.
	ImportanceBoost float64 `env:"RECALL_IMPORTANCE_BOOST" yaml:"importance_boost"`

	// SearchLimit is the default number of records returned by auto-search.
	SearchLimit int `env:"RECALL_SEARCH_LIMIT" yaml:"search_limit"`
}

func NewEngineConfig() (*EngineConfig, error) {
	c := EngineConfig{
		SaveConfidenceThreshold:   0.7,
		SearchConfidenceThreshold: 0.5,
		MinClassifyLength:         15,
		SearchCooldown:            30 * time.Second,
		SimilarityThreshold:       0.3,
		ImportanceBoost:           0.2,
		SearchLimit:               5,
	}
	if err := resolveConfig(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
