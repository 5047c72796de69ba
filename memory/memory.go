package memory

import (
	"time"
)

type (
	// Record is a persisted memory unit. Records are scoped to a single
	// project and are never visible across projects.
	Record struct {
		ID         string   `json:"id"`
		Project    string   `json:"project"`
		Content    string   `json:"content"`
		Importance float64  `json:"importance"`
		Tags       []string `json:"tags,omitempty"`
		Category   Category `json:"category,omitempty"`

		CreatedAt      time.Time  `json:"created_at"`
		UpdatedAt      time.Time  `json:"updated_at"`
		AccessCount    int64      `json:"access_count"`
		LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

		Embedding []float32 `json:"-"`
	}

	Category = string

	// ScoredRecord holds a record with its raw similarity and its final
	// ranking score (similarity + importance boost).
	ScoredRecord struct {
		Record     *Record `json:"record"`
		Similarity float64 `json:"similarity"`
		Score      float64 `json:"score"`
	}

	// SaveContext carries optional structured hints about where a piece
	// of content originated.
	SaveContext struct {
		FromCodeBlock bool   `json:"from_code_block,omitempty" mapstructure:"from_code_block"`
		Language      string `json:"language,omitempty" mapstructure:"language"`
		FilePath      string `json:"file_path,omitempty" mapstructure:"file_path"`
		Source        string `json:"source,omitempty" mapstructure:"source"`
	}

	// UpdateInput is a partial update; nil fields are left unchanged.
	UpdateInput struct {
		Content    *string  `json:"content,omitempty"`
		Importance *float64 `json:"importance,omitempty"`
		Tags       []string `json:"tags,omitempty"`
		Category   *string  `json:"category,omitempty"`
	}

	// ListFilters narrows List results.
	ListFilters struct {
		Category string `json:"category,omitempty"`
		Tag      string `json:"tag,omitempty"`
	}

	// Stats summarizes a project's records.
	Stats struct {
		TotalRecords      int64            `json:"total_records"`
		CategoryBreakdown map[string]int64 `json:"category_breakdown"`
		AvgImportance     float64          `json:"avg_importance"`
		TotalAccesses     int64            `json:"total_accesses"`
	}
)

const (
	CategorySolution   Category = "solution"
	CategoryPreference Category = "preference"
	CategoryConfig     Category = "config"
	CategoryGeneral    Category = "general"
)
