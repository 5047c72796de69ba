package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recallhq/recall/errors"
	"gonum.org/v1/gonum/mat"
)

type (
	// SearchOptions control ranking inside Store.Search.
	SearchOptions struct {
		// Limit truncates the ranked result set. Zero means no limit.
		Limit int
		// SimilarityThreshold discards weak matches before ranking.
		SimilarityThreshold float64
		// ImportanceBoost weights record importance into the final score:
		// score = similarity + ImportanceBoost*importance.
		ImportanceBoost float64
	}

	// Store is the persistence contract for records. All operations are
	// project-scoped except Get/Update/Delete which address by id.
	Store interface {
		Create(ctx context.Context, record *Record) error
		Get(ctx context.Context, id string) (*Record, error)
		Update(ctx context.Context, record *Record) error
		Delete(ctx context.Context, id string) (bool, error)
		List(ctx context.Context, project string, limit, offset int, filters ListFilters) ([]*Record, error)
		Search(ctx context.Context, project string, queryEmbedding []float32, opts SearchOptions) ([]ScoredRecord, error)
		Stats(ctx context.Context, project string) (*Stats, error)
		Count(ctx context.Context, project string) (int64, error)
		Close() error
	}

	// InMemoryStore is a mutex-guarded map-backed implementation, the
	// default when sqlite is disabled.
	InMemoryStore struct {
		mu      sync.RWMutex
		records map[string]*Record
	}
)

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*Record),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return errors.Wrapf(errors.ErrStore, "record with id '%s' already exists", record.ID)
	}

	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "record with id '%s' not found", id)
	}
	touchAccessed(record)
	// Callers get a copy; the stored record is only ever mutated under
	// the store lock.
	return cloneRecord(record), nil
}

func (s *InMemoryStore) Update(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; !exists {
		return errors.Wrapf(errors.ErrNotFound, "record with id '%s' not found", record.ID)
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

func (s *InMemoryStore) List(ctx context.Context, project string, limit, offset int, filters ListFilters) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Record
	for _, record := range s.records {
		if record.Project != project {
			continue
		}
		if !matchFilters(record, filters) {
			continue
		}
		results = append(results, cloneRecord(record))
	}

	// Newest first by created_at.
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(results) {
			return []*Record{}, nil
		}
		results = results[offset:]
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (s *InMemoryStore) Search(ctx context.Context, project string, queryEmbedding []float32, opts SearchOptions) ([]ScoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(queryEmbedding) == 0 {
		return nil, errors.Wrapf(errors.ErrValidation, "query embedding is empty")
	}

	// Only records with matching embedding dimensions participate in the
	// matrix calculation.
	var candidates []*Record
	for _, record := range s.records {
		if record.Project != project {
			continue
		}
		if len(record.Embedding) == len(queryEmbedding) {
			candidates = append(candidates, record)
		}
	}

	if len(candidates) == 0 {
		return []ScoredRecord{}, nil
	}

	numRecords := len(candidates)
	embeddingDim := len(queryEmbedding)

	queryVec := make([]float64, embeddingDim)
	for i, v := range queryEmbedding {
		queryVec[i] = float64(v)
	}

	// Record embeddings matrix (N x d).
	recordData := make([]float64, numRecords*embeddingDim)
	for i, record := range candidates {
		for j, v := range record.Embedding {
			recordData[i*embeddingDim+j] = float64(v)
		}
	}

	queryVector := mat.NewVecDense(embeddingDim, queryVec)
	recordMatrix := mat.NewDense(numRecords, embeddingDim, recordData)

	// recordMatrix * queryVector = similarity scores. Embeddings are
	// L2-normalized, so the inner product is cosine similarity.
	var resultVec mat.VecDense
	resultVec.MulVec(recordMatrix, queryVector)

	scored := make([]ScoredRecord, 0, numRecords)
	for i, record := range candidates {
		similarity := resultVec.AtVec(i)
		if similarity < 0 {
			similarity = 0
		}
		if similarity < opts.SimilarityThreshold {
			continue
		}
		scored = append(scored, ScoredRecord{
			Record:     record,
			Similarity: similarity,
			Score:      similarity + opts.ImportanceBoost*record.Importance,
		})
	}

	sortScored(scored)

	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}

	// Only returned hits get access bookkeeping.
	for i := range scored {
		touchAccessed(scored[i].Record)
		scored[i].Record = cloneRecord(scored[i].Record)
	}

	return scored, nil
}

func (s *InMemoryStore) Stats(ctx context.Context, project string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		CategoryBreakdown: make(map[string]int64),
	}
	var importanceSum float64
	for _, record := range s.records {
		if record.Project != project {
			continue
		}
		stats.TotalRecords++
		stats.TotalAccesses += record.AccessCount
		importanceSum += record.Importance
		if record.Category != "" {
			stats.CategoryBreakdown[record.Category]++
		}
	}
	if stats.TotalRecords > 0 {
		stats.AvgImportance = importanceSum / float64(stats.TotalRecords)
	}
	return &stats, nil
}

func (s *InMemoryStore) Count(ctx context.Context, project string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if record.Project == project {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func matchFilters(record *Record, filters ListFilters) bool {
	if filters.Category != "" && record.Category != filters.Category {
		return false
	}
	if filters.Tag != "" {
		found := false
		for _, tag := range record.Tags {
			if strings.EqualFold(tag, filters.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func touchAccessed(record *Record) {
	now := time.Now()
	record.AccessCount++
	record.LastAccessedAt = &now
}

// cloneRecord deep-copies a record so callers never share memory with
// the map entry.
func cloneRecord(record *Record) *Record {
	clone := *record
	if record.Tags != nil {
		clone.Tags = append([]string(nil), record.Tags...)
	}
	if record.Embedding != nil {
		clone.Embedding = append([]float32(nil), record.Embedding...)
	}
	if record.LastAccessedAt != nil {
		t := *record.LastAccessedAt
		clone.LastAccessedAt = &t
	}
	return &clone
}

// sortScored orders by final ranking score, descending.
func sortScored(scored []ScoredRecord) {
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}
