package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/recallhq/recall/errors"
	"github.com/recallhq/recall/internal/mylog"
)

type (
	// Label is one of the three classifier classes.
	Label string

	// ClassifierResult is a classified label with its confidence.
	ClassifierResult struct {
		Label      Label   `json:"label"`
		Confidence float64 `json:"confidence"`
	}

	// Model is the backing three-class text classifier. Load is expensive;
	// Classify is cheap afterwards.
	Model interface {
		Load(ctx context.Context) error
		Classify(ctx context.Context, text string) (*ClassifierResult, error)
	}
)

const (
	LabelSaveMemory   Label = "SAVE_MEMORY"
	LabelSearchMemory Label = "SEARCH_MEMORY"
	LabelNoAction     Label = "NO_ACTION"
)

type gatewayState int

const (
	stateUninitialized gatewayState = iota
	stateLoading
	stateReady
	stateFailed
)

// Gateway wraps the classifier model behind lazy, race-safe
// initialization. Exactly one load attempt runs even when multiple
// callers race to be first; concurrent callers wait on that attempt.
// A failed load may be retried by a later call.
type Gateway struct {
	model          Model
	initTimeout    time.Duration
	requestTimeout time.Duration
	logger         *mylog.Logger

	mu      sync.Mutex
	state   gatewayState
	loading chan struct{}
}

func NewGateway(model Model, initTimeout, requestTimeout time.Duration, logger *mylog.Logger) *Gateway {
	return &Gateway{
		model:          model,
		initTimeout:    initTimeout,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Classify classifies text, lazily loading the model on first use.
// Returns ErrClassifierUnavailable on load failure, classification
// failure, or timeout; callers fall back to rules-only decisions.
func (g *Gateway) Classify(ctx context.Context, text string) (*ClassifierResult, error) {
	if err := g.ensureReady(ctx); err != nil {
		return nil, err
	}

	reqCtx := ctx
	if g.requestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, g.requestTimeout)
		defer cancel()
	}

	result, err := g.model.Classify(reqCtx, text)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrClassifierUnavailable, "classification failed: %v", err)
	}
	return result, nil
}

func (g *Gateway) ensureReady(ctx context.Context) error {
	g.mu.Lock()

	switch g.state {
	case stateReady:
		g.mu.Unlock()
		return nil

	case stateUninitialized, stateFailed:
		// This caller becomes the single loader.
		done := make(chan struct{})
		g.state = stateLoading
		g.loading = done
		g.mu.Unlock()

		go g.load(done)
		return g.wait(ctx, done)

	case stateLoading:
		done := g.loading
		g.mu.Unlock()
		return g.wait(ctx, done)

	default:
		g.mu.Unlock()
		return errors.Wrapf(errors.ErrClassifierUnavailable, "unknown gateway state")
	}
}

func (g *Gateway) load(done chan struct{}) {
	defer close(done)

	loadCtx := context.Background()
	if g.initTimeout > 0 {
		var cancel context.CancelFunc
		loadCtx, cancel = context.WithTimeout(loadCtx, g.initTimeout)
		defer cancel()
	}

	err := g.model.Load(loadCtx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = stateFailed
		g.logger.Warn("classifier model load failed", mylog.Err(err))
		return
	}
	g.state = stateReady
	g.logger.Info("classifier model loaded")
}

// wait blocks until the in-flight load completes or the caller's
// deadline expires. A timed-out waiter does not abort the load; the
// loader keeps running so a later call can find the model ready.
func (g *Gateway) wait(ctx context.Context, done chan struct{}) error {
	waitCtx := ctx
	if g.initTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.initTimeout)
		defer cancel()
	}

	select {
	case <-done:
	case <-waitCtx.Done():
		return errors.Wrapf(errors.ErrClassifierUnavailable, "timed out waiting for classifier load")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != stateReady {
		return errors.Wrapf(errors.ErrClassifierUnavailable, "classifier model failed to load")
	}
	return nil
}
