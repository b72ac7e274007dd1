// Package service orchestrates the load -> build -> present pipeline.
//
// One pipeline run loads every dataset file, builds the universe and
// derives the scene, then publishes the result as an immutable Session
// through an atomic pointer swap. Per-file load errors are tolerated;
// a LayoutError is fatal for the run and leaves the previous session
// (if any) in place with the failure surfaced on Status.
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cartography/internal/config"
	"cartography/internal/loader"
	"cartography/internal/repository/sqlite"
	"cartography/internal/scene"
	"cartography/internal/universe"
)

// Pipeline runs the dataset-to-scene transformation and owns the
// current session
type Pipeline struct {
	cfg     *config.Config
	loader  *loader.Loader
	builder *universe.Builder
	repo    *sqlite.Repository
	bus     *EventBus
	logger  *zap.Logger

	current atomic.Pointer[Session]
	failure atomic.Pointer[failure]
	rebuild chan struct{}
}

type failure struct {
	Err string
	At  time.Time
}

// Status reports the pipeline state for the API
type Status struct {
	State       string    `json:"state"` // loading, ready, failed
	Error       string    `json:"error,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	Datasets    int       `json:"datasets"`
	Skipped     int       `json:"skipped"`
	FromCache   bool      `json:"from_cache,omitempty"`
	BuiltAt     time.Time `json:"built_at,omitempty"`
}

// NewPipeline creates a pipeline. repo may be nil to disable snapshot
// caching entirely.
func NewPipeline(cfg *config.Config, repo *sqlite.Repository, bus *EventBus, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		loader:  loader.New(cfg.Datasets.Dir, logger),
		builder: universe.NewBuilder(cfg.Layout),
		repo:    repo,
		bus:     bus,
		logger:  logger,
		rebuild: make(chan struct{}, 1),
	}
}

// Current returns the live session, or nil while the first build is
// still running
func (p *Pipeline) Current() *Session {
	return p.current.Load()
}

// Status reports the pipeline state
func (p *Pipeline) Status() Status {
	if f := p.failure.Load(); f != nil {
		st := Status{State: "failed", Error: f.Err}
		if s := p.current.Load(); s != nil {
			// A previous session is still being served
			st.SessionID = s.ID
			st.Fingerprint = s.Fingerprint
			st.Nodes = len(s.Universe.Nodes)
			st.Edges = len(s.Universe.Edges)
			st.Datasets = len(s.Datasets)
			st.Skipped = len(s.Skipped)
			st.BuiltAt = s.BuiltAt
		}
		return st
	}

	s := p.current.Load()
	if s == nil {
		return Status{State: "loading"}
	}
	return Status{
		State:       "ready",
		SessionID:   s.ID,
		Fingerprint: s.Fingerprint,
		Nodes:       len(s.Universe.Nodes),
		Edges:       len(s.Universe.Edges),
		Datasets:    len(s.Datasets),
		Skipped:     len(s.Skipped),
		FromCache:   s.FromCache,
		BuiltAt:     s.BuiltAt,
	}
}

// RequestRebuild asks the serve loop for another pipeline run. Safe to
// call from any goroutine; coalesces while a run is in flight.
func (p *Pipeline) RequestRebuild() {
	select {
	case p.rebuild <- struct{}{}:
	default:
	}
}

// Serve runs the initial build and then rebuilds on request until the
// context is cancelled
func (p *Pipeline) Serve(ctx context.Context) {
	if err := p.Run(ctx); err != nil {
		p.logger.Error("initial build failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.rebuild:
			if err := p.Run(ctx); err != nil {
				p.logger.Error("rebuild failed", zap.Error(err))
			}
		}
	}
}

// Run executes one load -> build -> derive pass and swaps the session
// in atomically
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.bus.Publish(Event{Type: EventBuildStarted})

	result, err := p.loader.Load()
	if err != nil {
		return p.fail(err)
	}

	session := &Session{
		ID:          uuid.NewString(),
		Datasets:    summarize(result.Datasets),
		Skipped:     result.Skipped,
		Fingerprint: result.Fingerprint,
		BuiltAt:     time.Now().UTC(),
	}

	if snap := p.cachedSnapshot(ctx, result.Fingerprint); snap != nil {
		p.logger.Info("dataset fingerprint unchanged, serving cached layout",
			zap.String("fingerprint", shortFingerprint(result.Fingerprint)))
		session.Universe = snap.Universe
		session.Datasets = summarize(snap.Datasets)
		session.FromCache = true
	} else {
		u, err := p.builder.Build(result.Datasets)
		if err != nil {
			return p.fail(err)
		}
		session.Universe = u
	}

	sceneGraph, err := scene.Derive(session.Universe, p.cfg)
	if err != nil {
		return p.fail(err)
	}
	session.Scene = sceneGraph

	p.current.Store(session)
	p.failure.Store(nil)

	p.logger.Info("universe ready",
		zap.Int("datasets", len(session.Datasets)),
		zap.Int("skipped", len(session.Skipped)),
		zap.Int("nodes", len(session.Universe.Nodes)),
		zap.Int("edges", len(session.Universe.Edges)),
		zap.Bool("from_cache", session.FromCache),
		zap.Duration("elapsed", time.Since(start)))

	p.bus.Publish(Event{Type: EventUniverseReloaded, Payload: p.Status()})

	if p.repo != nil && !session.FromCache {
		snap := &sqlite.Snapshot{
			Fingerprint: session.Fingerprint,
			BuiltAt:     session.BuiltAt,
			Datasets:    result.Datasets,
			Universe:    session.Universe,
		}
		if err := p.repo.SaveSnapshot(ctx, snap); err != nil {
			// Cache trouble never takes the session down
			p.logger.Warn("failed to save snapshot", zap.Error(err))
		}
	}

	return nil
}

func (p *Pipeline) cachedSnapshot(ctx context.Context, fingerprint string) *sqlite.Snapshot {
	if p.repo == nil {
		return nil
	}
	stored, ok, err := p.repo.Fingerprint(ctx)
	if err != nil {
		p.logger.Warn("failed to read snapshot fingerprint", zap.Error(err))
		return nil
	}
	if !ok || stored != fingerprint {
		return nil
	}
	snap, err := p.repo.LoadSnapshot(ctx)
	if err != nil {
		p.logger.Warn("failed to load snapshot", zap.Error(err))
		return nil
	}
	return snap
}

func (p *Pipeline) fail(err error) error {
	p.failure.Store(&failure{Err: err.Error(), At: time.Now().UTC()})
	p.bus.Publish(Event{Type: EventBuildFailed, Payload: map[string]string{"error": err.Error()}})
	return err
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
