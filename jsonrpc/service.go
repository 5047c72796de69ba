package jsonrpc

import (
	"net/http"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/mitchellh/mapstructure"
	"github.com/mokiat/gog"
	recall "github.com/recallhq/recall"
	"github.com/recallhq/recall/errors"
	"github.com/recallhq/recall/memory"
	"github.com/recallhq/recall/trigger"
	"github.com/samber/lo"
)

const servicePrefix = "recallhq.recall.v1"

type (
	JsonRpcService struct {
		recall *recall.Recall
	}

	RecordView struct {
		Id             string     `json:"id"`
		Project        string     `json:"project"`
		Content        string     `json:"content"`
		Importance     float64    `json:"importance"`
		Tags           []string   `json:"tags,omitempty"`
		Category       string     `json:"category,omitempty"`
		CreatedAt      time.Time  `json:"created_at"`
		UpdatedAt      time.Time  `json:"updated_at"`
		AccessCount    int64      `json:"access_count"`
		LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	}

	SearchHit struct {
		Record     *RecordView `json:"record"`
		Similarity float64     `json:"similarity"`
		Score      float64     `json:"score"`
	}

	ProcessMessageRequest struct {
		Project string         `json:"project"`
		Text    string         `json:"text"`
		Context map[string]any `json:"context,omitempty"`
	}

	ProcessMessageResponse struct {
		Triggers         []string                  `json:"triggers,omitempty"`
		ClassifierResult *trigger.ClassifierResult `json:"classifier_result,omitempty"`
		ShouldSave       bool                      `json:"should_save"`
		ShouldSearch     bool                      `json:"should_search"`
		FinalConfidence  float64                   `json:"final_confidence"`
		SavedRecord      *RecordView               `json:"saved_record,omitempty"`
		SearchResults    []*SearchHit              `json:"search_results,omitempty"`
		SkipReasons      []string                  `json:"skip_reasons,omitempty"`
	}

	CreateMemoryRequest struct {
		Project    string         `json:"project"`
		Content    string         `json:"content"`
		Importance *float64       `json:"importance,omitempty"`
		Tags       []string       `json:"tags,omitempty"`
		Category   string         `json:"category,omitempty"`
		Context    map[string]any `json:"context,omitempty"`
	}

	CreateMemoryResponse struct {
		Record *RecordView `json:"record"`
	}

	GetMemoryRequest struct {
		Id string `json:"id"`
	}

	GetMemoryResponse struct {
		Record *RecordView `json:"record"`
	}

	UpdateMemoryRequest struct {
		Id         string   `json:"id"`
		Content    *string  `json:"content,omitempty"`
		Importance *float64 `json:"importance,omitempty"`
		Tags       []string `json:"tags,omitempty"`
		Category   *string  `json:"category,omitempty"`
	}

	UpdateMemoryResponse struct {
		Record *RecordView `json:"record"`
	}

	DeleteMemoryRequest struct {
		Id string `json:"id"`
	}

	DeleteMemoryResponse struct {
		Deleted *bool `json:"deleted"`
	}

	SearchMemoryRequest struct {
		Project   string   `json:"project"`
		Query     string   `json:"query"`
		Limit     int      `json:"limit,omitempty"`
		Threshold *float64 `json:"threshold,omitempty"`
	}

	SearchMemoryResponse struct {
		Results []*SearchHit `json:"results"`
	}

	ListMemoriesRequest struct {
		Project  string `json:"project"`
		Limit    int    `json:"limit,omitempty"`
		Offset   int    `json:"offset,omitempty"`
		Category string `json:"category,omitempty"`
		Tag      string `json:"tag,omitempty"`
	}

	ListMemoriesResponse struct {
		Records []*RecordView `json:"records"`
	}

	GetStatsRequest struct {
		Project string `json:"project"`
	}

	GetStatsResponse struct {
		TotalRecords      int64            `json:"total_records"`
		CategoryBreakdown map[string]int64 `json:"category_breakdown"`
		AvgImportance     float64          `json:"avg_importance"`
		TotalAccesses     int64            `json:"total_accesses"`
	}
)

func RegisterJsonRpcService(server *rpc.Server, r *recall.Recall) error {
	svc := &JsonRpcService{recall: r}
	return errors.Wrapf(server.RegisterService(svc, servicePrefix), "failed to register jsonrpc service")
}

func (s *JsonRpcService) ProcessMessage(r *http.Request, args *ProcessMessageRequest, reply *ProcessMessageResponse) error {
	sctx, err := decodeSaveContext(args.Context)
	if err != nil {
		return err
	}

	decision, err := s.recall.ProcessMessage(r.Context(), args.Project, args.Text, sctx)
	if err != nil {
		return err
	}

	reply.Triggers = decision.Triggers
	reply.ClassifierResult = decision.ClassifierResult
	reply.ShouldSave = decision.ShouldSave
	reply.ShouldSearch = decision.ShouldSearch
	reply.FinalConfidence = decision.FinalConfidence
	reply.SkipReasons = decision.SkipReasons
	if decision.SavedRecord != nil {
		reply.SavedRecord = toRecordView(decision.SavedRecord)
	}
	reply.SearchResults = lo.Map(decision.SearchResults, func(hit memory.ScoredRecord, _ int) *SearchHit {
		return toSearchHit(hit)
	})

	return nil
}

func (s *JsonRpcService) CreateMemory(r *http.Request, args *CreateMemoryRequest, reply *CreateMemoryResponse) error {
	sctx, err := decodeSaveContext(args.Context)
	if err != nil {
		return err
	}

	record, err := s.recall.CreateMemory(r.Context(), memory.CreateInput{
		Project:    args.Project,
		Content:    args.Content,
		Importance: args.Importance,
		Tags:       args.Tags,
		Category:   args.Category,
		Context:    sctx,
	})
	if err != nil {
		return err
	}

	reply.Record = toRecordView(record)
	return nil
}

func (s *JsonRpcService) GetMemory(r *http.Request, args *GetMemoryRequest, reply *GetMemoryResponse) error {
	record, err := s.recall.GetMemory(r.Context(), args.Id)
	if err != nil {
		return err
	}

	reply.Record = toRecordView(record)
	return nil
}

func (s *JsonRpcService) UpdateMemory(r *http.Request, args *UpdateMemoryRequest, reply *UpdateMemoryResponse) error {
	record, err := s.recall.UpdateMemory(r.Context(), args.Id, memory.UpdateInput{
		Content:    args.Content,
		Importance: args.Importance,
		Tags:       args.Tags,
		Category:   args.Category,
	})
	if err != nil {
		return err
	}

	reply.Record = toRecordView(record)
	return nil
}

func (s *JsonRpcService) DeleteMemory(r *http.Request, args *DeleteMemoryRequest, reply *DeleteMemoryResponse) error {
	deleted, err := s.recall.DeleteMemory(r.Context(), args.Id)
	if err != nil {
		return err
	}

	reply.Deleted = gog.PtrOf(deleted)
	return nil
}

func (s *JsonRpcService) SearchMemory(r *http.Request, args *SearchMemoryRequest, reply *SearchMemoryResponse) error {
	results, err := s.recall.SearchMemories(r.Context(), memory.SearchInput{
		Project:   args.Project,
		Query:     args.Query,
		Limit:     args.Limit,
		Threshold: args.Threshold,
	})
	if err != nil {
		return err
	}

	reply.Results = lo.Map(results, func(hit memory.ScoredRecord, _ int) *SearchHit {
		return toSearchHit(hit)
	})
	return nil
}

func (s *JsonRpcService) ListMemories(r *http.Request, args *ListMemoriesRequest, reply *ListMemoriesResponse) error {
	records, err := s.recall.ListMemories(r.Context(), args.Project, args.Limit, args.Offset, memory.ListFilters{
		Category: args.Category,
		Tag:      args.Tag,
	})
	if err != nil {
		return err
	}

	reply.Records = lo.Map(records, func(record *memory.Record, _ int) *RecordView {
		return toRecordView(record)
	})
	return nil
}

func (s *JsonRpcService) GetStats(r *http.Request, args *GetStatsRequest, reply *GetStatsResponse) error {
	stats, err := s.recall.GetStats(r.Context(), args.Project)
	if err != nil {
		return err
	}

	reply.TotalRecords = stats.TotalRecords
	reply.CategoryBreakdown = stats.CategoryBreakdown
	reply.AvgImportance = stats.AvgImportance
	reply.TotalAccesses = stats.TotalAccesses
	return nil
}

// decodeSaveContext turns the loose JSON context map into a SaveContext.
func decodeSaveContext(raw map[string]any) (*memory.SaveContext, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var sctx memory.SaveContext
	if err := mapstructure.Decode(raw, &sctx); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "invalid context: %v", err)
	}
	return &sctx, nil
}

func toRecordView(record *memory.Record) *RecordView {
	return &RecordView{
		Id:             record.ID,
		Project:        record.Project,
		Content:        record.Content,
		Importance:     record.Importance,
		Tags:           record.Tags,
		Category:       record.Category,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		AccessCount:    record.AccessCount,
		LastAccessedAt: record.LastAccessedAt,
	}
}

func toSearchHit(hit memory.ScoredRecord) *SearchHit {
	return &SearchHit{
		Record:     toRecordView(hit.Record),
		Similarity: hit.Similarity,
		Score:      hit.Score,
	}
}
