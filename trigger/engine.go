package trigger

import (
	"context"
	"strings"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/errors"
	"github.com/recallhq/recall/internal/mylog"
	"github.com/recallhq/recall/memory"
	"github.com/recallhq/recall/quota"
)

type (
	// Decision is the per-message outcome: the fused SAVE/SEARCH flags,
	// whatever the classifier said, and the actions actually executed.
	Decision struct {
		Triggers         []string              `json:"triggers,omitempty"`
		ClassifierResult *ClassifierResult     `json:"classifier_result,omitempty"`
		ShouldSave       bool                  `json:"should_save"`
		ShouldSearch     bool                  `json:"should_search"`
		FinalConfidence  float64               `json:"final_confidence"`
		SavedRecord      *memory.Record        `json:"saved_record,omitempty"`
		SearchResults    []memory.ScoredRecord `json:"search_results,omitempty"`
		// SkipReasons explains actions that were authorized by the fusion
		// but not executed ("save skipped: quota", "search skipped: cooldown").
		SkipReasons []string `json:"skip_reasons,omitempty"`
	}

	// Engine fuses the deterministic rule layer with the classifier and
	// drives the store.
	Engine interface {
		ProcessMessage(ctx context.Context, project, text string, sctx *memory.SaveContext) (*Decision, error)
	}

	engine struct {
		conf     *config.EngineConfig
		gateway  *Gateway
		limiter  *SearchLimiter
		memories memory.Service
		gate     quota.Gate
		logger   *mylog.Logger
	}
)

var _ Engine = (*engine)(nil)

// NewEngine builds the decision engine. gateway may be nil, in which
// case every decision is rules-only.
func NewEngine(
	conf *config.EngineConfig,
	gateway *Gateway,
	memories memory.Service,
	gate quota.Gate,
	logger *mylog.Logger,
) Engine {
	return &engine{
		conf:     conf,
		gateway:  gateway,
		limiter:  NewSearchLimiter(conf.SearchCooldown),
		memories: memories,
		gate:     gate,
		logger:   logger,
	}
}

func (e *engine) ProcessMessage(ctx context.Context, project, text string, sctx *memory.SaveContext) (*Decision, error) {
	if strings.TrimSpace(project) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "project must not be empty")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrapf(errors.ErrValidation, "text must not be empty")
	}

	rules := MatchRules(text)

	decision := Decision{
		Triggers:     rules.Triggers,
		ShouldSave:   rules.ShouldSave,
		ShouldSearch: rules.ShouldSearch,
	}
	if len(rules.Triggers) > 0 {
		decision.FinalConfidence = 1.0
	}

	// The classifier is worth invoking only when a rule already fired or
	// the message is long enough to carry intent. Short trigger-less
	// messages skip the expensive path entirely.
	if e.gateway != nil && (len(rules.Triggers) > 0 || len([]rune(text)) >= e.conf.MinClassifyLength) {
		result, err := e.gateway.Classify(ctx, text)
		switch {
		case err == nil:
			decision.ClassifierResult = result
			if result.Label == LabelSaveMemory && result.Confidence >= e.conf.SaveConfidenceThreshold {
				decision.ShouldSave = true
			}
			if result.Label == LabelSearchMemory && result.Confidence >= e.conf.SearchConfidenceThreshold {
				decision.ShouldSearch = true
			}
			if result.Confidence > decision.FinalConfidence {
				decision.FinalConfidence = result.Confidence
			}
		case errors.Is(err, errors.ErrClassifierUnavailable):
			// Degrade to rules-only; never abort the message.
			e.logger.Debug("classifier unavailable, using rules only", mylog.Err(err))
		default:
			e.logger.Warn("classifier error, using rules only", mylog.Err(err))
		}
	}

	// SAVE before SEARCH.
	if decision.ShouldSave {
		if err := e.executeSave(ctx, &decision, project, text, sctx); err != nil {
			return nil, err
		}
	}

	if decision.ShouldSearch {
		if err := e.executeSearch(ctx, &decision, project, text); err != nil {
			return nil, err
		}
	}

	return &decision, nil
}

func (e *engine) executeSave(ctx context.Context, decision *Decision, project, text string, sctx *memory.SaveContext) error {
	authorized, err := e.gate.Authorize(ctx, project, int64(len(text)))
	if err != nil {
		// Quota is best-effort; a broken gate degrades the save, not the message.
		e.logger.Warn("quota check failed, skipping save", "project", project, mylog.Err(err))
		decision.SkipReasons = append(decision.SkipReasons, "save skipped: quota check failed")
		return nil
	}
	if !authorized {
		decision.SkipReasons = append(decision.SkipReasons, "save skipped: quota")
		return nil
	}

	record, err := e.memories.CreateMemory(ctx, memory.CreateInput{
		Project:  project,
		Content:  text,
		Category: memory.CategoryGeneral,
		Context:  sctx,
	})
	if err != nil {
		return errors.Wrapf(err, "auto-save failed")
	}
	decision.SavedRecord = record
	return nil
}

func (e *engine) executeSearch(ctx context.Context, decision *Decision, project, text string) error {
	restore, ok := e.limiter.Reserve(project)
	if !ok {
		decision.SkipReasons = append(decision.SkipReasons, "search skipped: cooldown")
		return nil
	}

	results, err := e.memories.SearchMemories(ctx, memory.SearchInput{
		Project: project,
		Query:   text,
		Limit:   e.conf.SearchLimit,
	})
	if err != nil {
		// The failed search must not burn the cooldown window.
		restore()
		return errors.Wrapf(err, "auto-search failed")
	}
	decision.SearchResults = results
	return nil
}
