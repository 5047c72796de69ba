package memory

import (
	"context"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/recallhq/recall/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SqliteStore implements Store using SQLite with the sqlite-vec extension.
type SqliteStore struct {
	db     *gorm.DB
	vecDim int
}

var _ Store = (*SqliteStore)(nil)

// SqliteRecord is the database row backing a Record.
type SqliteRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Project    string `gorm:"index"`
	Content    string
	Importance float64
	Category   string `gorm:"index"`
	Tags       datatypes.JSONSlice[string]

	AccessCount    int64
	LastAccessedAt *time.Time
}

// TableName specifies the table name for GORM
func (SqliteRecord) TableName() string {
	return "records"
}

// NewSqliteStore creates a new SQLite-backed record store.
func NewSqliteStore(dbPath string, dimension int) (*SqliteStore, error) {
	// Initialize sqlite-vec extension
	sqlite_vec.Auto()

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database")
	}

	store := &SqliteStore{
		db:     db,
		vecDim: dimension,
	}

	if err := db.AutoMigrate(&SqliteRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate records table")
	}

	if err := store.createVectorTable(); err != nil {
		return nil, err
	}

	return store, nil
}

// createVectorTable creates the sqlite-vec virtual table
func (s *SqliteStore) createVectorTable() error {
	// Verify sqlite-vec is loaded
	var sqliteVersion, vecVersion string
	err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion)
	if err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	// Cosine distance keeps the similarity scale identical to the
	// in-memory store (similarity = 1 - distance).
	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS record_vectors USING vec0(
			record_id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		);
	`, s.vecDim)

	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create record_vectors table")
	}

	return nil
}

func (s *SqliteStore) Create(ctx context.Context, record *Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toSqliteRecord(record)
		if err := tx.Create(row).Error; err != nil {
			return errors.Wrapf(errors.ErrStore, "failed to create record: %v", err)
		}
		return s.saveVector(tx, record.ID, record.Embedding)
	})
}

func (s *SqliteStore) Get(ctx context.Context, id string) (*Record, error) {
	var row SqliteRecord
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(errors.ErrNotFound, "record with id '%s' not found", id)
		}
		return nil, errors.Wrapf(errors.ErrStore, "failed to fetch record: %v", err)
	}

	if err := s.bumpAccessed(ctx, []string{id}); err != nil {
		return nil, err
	}
	row.AccessCount++
	now := time.Now()
	row.LastAccessedAt = &now

	return fromSqliteRecord(&row), nil
}

func (s *SqliteStore) Update(ctx context.Context, record *Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toSqliteRecord(record)
		result := tx.Model(&SqliteRecord{}).Where("id = ?", record.ID).Updates(map[string]any{
			"content":    row.Content,
			"importance": row.Importance,
			"category":   row.Category,
			"tags":       row.Tags,
			"updated_at": time.Now(),
		})
		if result.Error != nil {
			return errors.Wrapf(errors.ErrStore, "failed to update record: %v", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.Wrapf(errors.ErrNotFound, "record with id '%s' not found", record.ID)
		}
		if len(record.Embedding) > 0 {
			return s.saveVector(tx, record.ID, record.Embedding)
		}
		return nil
	})
}

func (s *SqliteStore) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM record_vectors WHERE record_id = ?", id).Error; err != nil {
			return errors.Wrapf(errors.ErrStore, "failed to delete vector: %v", err)
		}
		result := tx.Delete(&SqliteRecord{}, "id = ?", id)
		if result.Error != nil {
			return errors.Wrapf(errors.ErrStore, "failed to delete record: %v", result.Error)
		}
		deleted = result.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (s *SqliteStore) List(ctx context.Context, project string, limit, offset int, filters ListFilters) ([]*Record, error) {
	query := s.db.WithContext(ctx).
		Model(&SqliteRecord{}).
		Where("project = ?", project).
		Order("created_at DESC")
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Tag != "" {
		query = query.Where("tags LIKE ?", fmt.Sprintf("%%%q%%", filters.Tag))
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []SqliteRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(errors.ErrStore, "failed to list records: %v", err)
	}

	results := make([]*Record, 0, len(rows))
	for i := range rows {
		results = append(results, fromSqliteRecord(&rows[i]))
	}
	return results, nil
}

func (s *SqliteStore) Search(ctx context.Context, project string, queryEmbedding []float32, opts SearchOptions) ([]ScoredRecord, error) {
	if len(queryEmbedding) == 0 {
		return nil, errors.Wrapf(errors.ErrValidation, "query embedding is empty")
	}

	// Restrict the vector scan to this project's records.
	var projectIds []string
	if err := s.db.WithContext(ctx).
		Model(&SqliteRecord{}).
		Where("project = ?", project).
		Pluck("id", &projectIds).Error; err != nil {
		return nil, errors.Wrapf(errors.ErrStore, "failed to get record ids for project: %v", err)
	}
	if len(projectIds) == 0 {
		return []ScoredRecord{}, nil
	}

	serializedQuery, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = len(projectIds)
	}

	// vec0 KNN queries require an explicit k constraint; a bound LIMIT is
	// not accepted as one.
	searchSQL := `
		SELECT record_id, distance
		FROM record_vectors
		WHERE embedding MATCH ? AND record_id IN ? AND k = ?
		ORDER BY distance
	`
	rows, err := s.db.WithContext(ctx).Raw(searchSQL, serializedQuery, projectIds, limit*2).Rows()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrStore, "failed to execute search query: %v", err)
	}
	defer rows.Close()

	distanceMap := make(map[string]float64)
	var ids []string
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan result row")
		}
		ids = append(ids, id)
		distanceMap[id] = distance
	}
	if len(ids) == 0 {
		return []ScoredRecord{}, nil
	}

	var records []SqliteRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, errors.Wrapf(errors.ErrStore, "failed to fetch records: %v", err)
	}

	scored := make([]ScoredRecord, 0, len(records))
	for i := range records {
		// Cosine distance → cosine similarity.
		similarity := 1.0 - distanceMap[records[i].ID]
		if similarity < 0 {
			similarity = 0
		}
		if similarity < opts.SimilarityThreshold {
			continue
		}
		record := fromSqliteRecord(&records[i])
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

	if len(scored) > 0 {
		hitIds := make([]string, 0, len(scored))
		now := time.Now()
		for _, hit := range scored {
			hitIds = append(hitIds, hit.Record.ID)
			hit.Record.AccessCount++
			hit.Record.LastAccessedAt = &now
		}
		if err := s.bumpAccessed(ctx, hitIds); err != nil {
			return nil, err
		}
	}

	return scored, nil
}

func (s *SqliteStore) Stats(ctx context.Context, project string) (*Stats, error) {
	stats := Stats{
		CategoryBreakdown: make(map[string]int64),
	}

	type aggregate struct {
		Total         int64
		AvgImportance float64
		TotalAccesses int64
	}
	var agg aggregate
	if err := s.db.WithContext(ctx).
		Model(&SqliteRecord{}).
		Select("COUNT(*) AS total, COALESCE(AVG(importance), 0) AS avg_importance, COALESCE(SUM(access_count), 0) AS total_accesses").
		Where("project = ?", project).
		Scan(&agg).Error; err != nil {
		return nil, errors.Wrapf(errors.ErrStore, "failed to aggregate stats: %v", err)
	}
	stats.TotalRecords = agg.Total
	stats.AvgImportance = agg.AvgImportance
	stats.TotalAccesses = agg.TotalAccesses

	type categoryCount struct {
		Category string
		Count    int64
	}
	var counts []categoryCount
	if err := s.db.WithContext(ctx).
		Model(&SqliteRecord{}).
		Select("category, COUNT(*) AS count").
		Where("project = ? AND category <> ''", project).
		Group("category").
		Scan(&counts).Error; err != nil {
		return nil, errors.Wrapf(errors.ErrStore, "failed to aggregate categories: %v", err)
	}
	for _, c := range counts {
		stats.CategoryBreakdown[c.Category] = c.Count
	}

	return &stats, nil
}

func (s *SqliteStore) Count(ctx context.Context, project string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&SqliteRecord{}).
		Where("project = ?", project).
		Count(&count).Error; err != nil {
		return 0, errors.Wrapf(errors.ErrStore, "failed to count records: %v", err)
	}
	return count, nil
}

func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStore) saveVector(tx *gorm.DB, id string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}

	// Delete existing vector (if updating)
	if err := tx.Exec("DELETE FROM record_vectors WHERE record_id = ?", id).Error; err != nil {
		return errors.Wrapf(err, "failed to delete existing vector")
	}

	serialized, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return errors.Wrapf(err, "failed to serialize embedding")
	}

	if err := tx.Exec("INSERT INTO record_vectors (record_id, embedding) VALUES (?, ?)", id, serialized).Error; err != nil {
		return errors.Wrapf(err, "failed to insert record vector")
	}
	return nil
}

func (s *SqliteStore) bumpAccessed(ctx context.Context, ids []string) error {
	if err := s.db.WithContext(ctx).
		Model(&SqliteRecord{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{
			"access_count":     gorm.Expr("access_count + 1"),
			"last_accessed_at": time.Now(),
		}).Error; err != nil {
		return errors.Wrapf(errors.ErrStore, "failed to update access bookkeeping: %v", err)
	}
	return nil
}

func toSqliteRecord(record *Record) *SqliteRecord {
	return &SqliteRecord{
		ID:             record.ID,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		Project:        record.Project,
		Content:        record.Content,
		Importance:     record.Importance,
		Category:       record.Category,
		Tags:           datatypes.NewJSONSlice(record.Tags),
		AccessCount:    record.AccessCount,
		LastAccessedAt: record.LastAccessedAt,
	}
}

func fromSqliteRecord(row *SqliteRecord) *Record {
	return &Record{
		ID:             row.ID,
		Project:        row.Project,
		Content:        row.Content,
		Importance:     row.Importance,
		Category:       row.Category,
		Tags:           row.Tags,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		AccessCount:    row.AccessCount,
		LastAccessedAt: row.LastAccessedAt,
	}
}
