package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/errors"
	"github.com/recallhq/recall/internal/mylog"
)

type (
	// CreateInput carries the fields of an explicit create call.
	// Importance is optional; when nil it is computed by the importance
	// scorer from the content and context.
	CreateInput struct {
		Project    string       `json:"project"`
		Content    string       `json:"content"`
		Importance *float64     `json:"importance,omitempty"`
		Tags       []string     `json:"tags,omitempty"`
		Category   string       `json:"category,omitempty"`
		Context    *SaveContext `json:"context,omitempty"`
	}

	// SearchInput carries the fields of an explicit search call.
	SearchInput struct {
		Project   string   `json:"project"`
		Query     string   `json:"query"`
		Limit     int      `json:"limit,omitempty"`
		Threshold *float64 `json:"threshold,omitempty"`
	}

	Service interface {
		CreateMemory(ctx context.Context, input CreateInput) (*Record, error)
		GetMemory(ctx context.Context, id string) (*Record, error)
		UpdateMemory(ctx context.Context, id string, input UpdateInput) (*Record, error)
		DeleteMemory(ctx context.Context, id string) (bool, error)
		ListMemories(ctx context.Context, project string, limit, offset int, filters ListFilters) ([]*Record, error)
		SearchMemories(ctx context.Context, input SearchInput) ([]ScoredRecord, error)
		GetStats(ctx context.Context, project string) (*Stats, error)
	}

	service struct {
		store     Store
		embedder  Embedder
		conf      *config.EngineConfig
		opTimeout time.Duration
		logger    *mylog.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(store Store, embedder Embedder, conf *config.EngineConfig, storeConf *config.StoreConfig, logger *mylog.Logger) Service {
	return &service{
		store:     store,
		embedder:  embedder,
		conf:      conf,
		opTimeout: storeConf.OperationTimeout,
		logger:    logger,
	}
}

func (s *service) CreateMemory(ctx context.Context, input CreateInput) (*Record, error) {
	if strings.TrimSpace(input.Project) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "project must not be empty")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "content must not be empty")
	}

	var importance float64
	if input.Importance != nil {
		importance = *input.Importance
		if importance < 0 || importance > 1 {
			return nil, errors.Wrapf(errors.ErrValidation, "importance must be in [0,1], got %f", importance)
		}
	} else {
		importance = Score(input.Content, input.Context)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	embeddings, err := s.embedder.Embed(ctx, []string{input.Content})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed content")
	}

	now := time.Now()
	record := &Record{
		ID:         uuid.NewString(),
		Project:    input.Project,
		Content:    input.Content,
		Importance: importance,
		Tags:       input.Tags,
		Category:   input.Category,
		CreatedAt:  now,
		UpdatedAt:  now,
		Embedding:  embeddings[0],
	}

	if err := s.store.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Debug("memory created",
		"id", record.ID,
		"project", record.Project,
		"importance", record.Importance,
	)
	return record, nil
}

func (s *service) GetMemory(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "id must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Get(ctx, id)
}

func (s *service) UpdateMemory(ctx context.Context, id string, input UpdateInput) (*Record, error) {
	if id == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "id must not be empty")
	}
	if input.Content != nil && strings.TrimSpace(*input.Content) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "content must not be empty")
	}
	if input.Importance != nil && (*input.Importance < 0 || *input.Importance > 1) {
		return nil, errors.Wrapf(errors.ErrValidation, "importance must be in [0,1], got %f", *input.Importance)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	contentChanged := false
	if input.Content != nil && *input.Content != record.Content {
		record.Content = *input.Content
		contentChanged = true
	}
	if input.Importance != nil {
		record.Importance = *input.Importance
	}
	if input.Tags != nil {
		record.Tags = input.Tags
	}
	if input.Category != nil {
		record.Category = *input.Category
	}
	record.UpdatedAt = time.Now()

	// Embedding tracks content: recompute only when content changed.
	if contentChanged {
		embeddings, err := s.embedder.Embed(ctx, []string{record.Content})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to embed content")
		}
		record.Embedding = embeddings[0]
	}

	if err := s.store.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) DeleteMemory(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errors.Wrapf(errors.ErrValidation, "id must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Delete(ctx, id)
}

func (s *service) ListMemories(ctx context.Context, project string, limit, offset int, filters ListFilters) ([]*Record, error) {
	if strings.TrimSpace(project) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "project must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.List(ctx, project, limit, offset, filters)
}

func (s *service) SearchMemories(ctx context.Context, input SearchInput) ([]ScoredRecord, error) {
	if strings.TrimSpace(input.Project) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "project must not be empty")
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "query must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	embeddings, err := s.embedder.Embed(ctx, []string{input.Query})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.conf.SearchLimit
	}
	threshold := s.conf.SimilarityThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	}

	return s.store.Search(ctx, input.Project, embeddings[0], SearchOptions{
		Limit:               limit,
		SimilarityThreshold: threshold,
		ImportanceBoost:     s.conf.ImportanceBoost,
	})
}

func (s *service) GetStats(ctx context.Context, project string) (*Stats, error) {
	if strings.TrimSpace(project) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "project must not be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.Stats(ctx, project)
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
