// Package session coordinates one generation at a time: prompt resolution,
// the two progress streams, and the provider cascade, with single-flight
// semantics (starting a new generation cancels the active one).
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"personagen/internal/generation"
	"personagen/internal/progress"
	"personagen/internal/tokens"
	"personagen/internal/types"
)

// Events receive everything a generation produces. Any field may be nil.
// Exactly one of OnResult / OnError / OnCancelled fires per generation, after
// which resubmission is allowed.
type Events struct {
	OnStatus    func(status string)
	OnReasoning func(text string)
	OnProgress  func(percent int)
	OnResult    func(result *types.GenerationResult)
	OnError     func(err error)
	OnCancelled func()
}

// Coordinator owns the single-flight generation lifecycle.
type Coordinator struct {
	store    *tokens.Store
	registry *generation.Registry
	logger   *zap.Logger

	statusScript    progress.Script
	reasoningScript progress.Script

	mu     sync.Mutex
	active *flight
}

// flight tracks one in-progress generation.
type flight struct {
	id              string
	cancelCtx       context.CancelFunc
	cancelStatus    progress.CancelFunc
	cancelReasoning progress.CancelFunc
	events          Events
	done            bool
}

// CoordinatorConfig configures a Coordinator. Store and Registry are
// required; zero scripts fall back to the shipped ones.
type CoordinatorConfig struct {
	Store           *tokens.Store
	Registry        *generation.Registry
	Logger          *zap.Logger
	StatusScript    progress.Script
	ReasoningScript progress.Script
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.StatusScript.Steps) == 0 {
		cfg.StatusScript = progress.GenerationScript()
	}
	if len(cfg.ReasoningScript.Steps) == 0 {
		cfg.ReasoningScript = progress.ReasoningScript()
	}
	return &Coordinator{
		store:           cfg.Store,
		registry:        cfg.Registry,
		logger:          cfg.Logger,
		statusScript:    cfg.StatusScript,
		reasoningScript: cfg.ReasoningScript,
	}
}

// Generate starts a generation and returns its request ID. A generation
// already in flight is cancelled first, both its progress streams together.
// Validation problems (unknown provider, empty prompt) are returned
// synchronously; everything later arrives through events.
func (c *Coordinator) Generate(ctx context.Context, req *types.GenerationRequest, events Events) (string, error) {
	if req == nil {
		return "", &types.ValidationError{Reason: "nil request"}
	}
	c.mu.Lock()
	registry := c.registry
	c.mu.Unlock()
	generator, err := registry.Lookup(req.Provider)
	if err != nil {
		return "", err
	}

	resolution := c.store.ResolvePrompt(req.Prompt)
	resolved := *req
	resolved.Prompt = resolution.ResolvedContent
	for _, warning := range resolution.Warnings {
		c.logger.Warn("prompt resolution", zap.String("warning", warning))
	}

	requestID := uuid.NewString()
	genCtx, cancelCtx := context.WithCancel(ctx)

	current := &flight{id: requestID, cancelCtx: cancelCtx, events: events}

	c.mu.Lock()
	if c.active != nil && !c.active.done {
		c.cancelLocked(c.active)
	}
	c.active = current
	c.mu.Unlock()

	c.logger.Info("generation started",
		zap.String("request_id", requestID),
		zap.String("provider", string(req.Provider)))

	statusSim := progress.New(c.statusScript)
	reasoningSim := progress.New(c.reasoningScript)

	current.cancelReasoning = reasoningSim.Start(progress.Callbacks{
		OnStatus: func(text string) { c.emitReasoning(current, text) },
	})
	current.cancelStatus = statusSim.Start(progress.Callbacks{
		OnStatus:   func(status string) { c.emitStatus(current, status) },
		OnProgress: func(percent int) { c.emitProgress(current, percent) },
		OnComplete: func() {
			// The simulated stream has played out; now run the real call.
			go c.run(genCtx, current, generator, &resolved)
		},
	})

	return requestID, nil
}

// SwapRegistry replaces the adapter set used by subsequent generations, for
// example after a config reload. A generation already in flight keeps the
// generator it started with.
func (c *Coordinator) SwapRegistry(registry *generation.Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry = registry
}

// Cancel stops the active generation, both streams together. No-op when
// nothing is in flight.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && !c.active.done {
		c.cancelLocked(c.active)
	}
}

// Active reports the in-flight request ID, empty when idle.
func (c *Coordinator) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.done {
		return ""
	}
	return c.active.id
}

// Close cancels any in-flight generation.
func (c *Coordinator) Close() {
	c.Cancel()
}

// run executes the provider cascade for a flight and delivers the outcome.
func (c *Coordinator) run(ctx context.Context, f *flight, generator types.Generator, req *types.GenerationRequest) {
	result, err := generator.Generate(ctx, req)

	c.mu.Lock()
	if f.done {
		// Superseded or cancelled while the call was in flight; the result
		// belongs to nobody.
		c.mu.Unlock()
		return
	}
	f.done = true
	if f.cancelReasoning != nil {
		// The narration stream has no reason to outlive the real call.
		f.cancelReasoning()
	}
	f.cancelCtx()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("generation failed",
			zap.String("request_id", f.id),
			zap.Error(err))
		if f.events.OnError != nil {
			f.events.OnError(err)
		}
		return
	}

	c.logger.Info("generation succeeded", zap.String("request_id", f.id))
	if f.events.OnResult != nil {
		f.events.OnResult(result)
	}
}

// cancelLocked tears down a flight. Callers hold c.mu.
func (c *Coordinator) cancelLocked(f *flight) {
	f.done = true
	if f.cancelStatus != nil {
		f.cancelStatus()
	}
	if f.cancelReasoning != nil {
		f.cancelReasoning()
	}
	f.cancelCtx()
	c.logger.Info("generation cancelled", zap.String("request_id", f.id))
	if f.events.OnCancelled != nil {
		go f.events.OnCancelled()
	}
}

func (c *Coordinator) emitStatus(f *flight, status string) {
	if c.flightLive(f) && f.events.OnStatus != nil {
		f.events.OnStatus(status)
	}
}

func (c *Coordinator) emitReasoning(f *flight, text string) {
	if c.flightLive(f) && f.events.OnReasoning != nil {
		f.events.OnReasoning(text)
	}
}

func (c *Coordinator) emitProgress(f *flight, percent int) {
	if c.flightLive(f) && f.events.OnProgress != nil {
		f.events.OnProgress(percent)
	}
}

// flightLive re-gates simulator callbacks against the flight state. A cancel
// landing between this check and the callback can still let one last
// emission through; consumers get at most that single stale event and then
// silence.
func (c *Coordinator) flightLive(f *flight) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !f.done
}
