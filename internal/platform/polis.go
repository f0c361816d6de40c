// Package platform owns the store lifecycle and turns scape runs into
// persisted run summaries and episode logs.
package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hideseek/internal/agent"
	"hideseek/internal/model"
	"hideseek/internal/scape"
	"hideseek/internal/storage"
)

type Config struct {
	Store storage.Store
}

// MatchScape is a scape that exposes its typed result.
type MatchScape interface {
	scape.Scape
	Run(ctx context.Context, a scape.Agent) (scape.Result, error)
}

type MatchConfig struct {
	RunID        string
	Scape        MatchScape
	Agent        scape.Agent
	HiderPolicy  string
	SeekerPolicy string
	Layout       string
	Seed         int64
	CreatedAt    time.Time
}

type MatchResult struct {
	Summary  model.RunSummary
	Episodes []model.EpisodeRecord
	Result   scape.Result
}

type Polis struct {
	store storage.Store

	mu      sync.RWMutex
	started bool
	runs    map[string]context.CancelFunc
}

func NewPolis(cfg Config) *Polis {
	return &Polis{
		store: cfg.Store,
		runs:  make(map[string]context.CancelFunc),
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return err
	}
	p.started = true
	return nil
}

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

// Stop cancels every active match and marks the polis stopped.
func (p *Polis) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, cancel := range p.runs {
		cancel()
	}
	p.runs = make(map[string]context.CancelFunc)
	p.started = false
}

// RunMatch runs one scape match and persists its summary and episodes.
func (p *Polis) RunMatch(ctx context.Context, cfg MatchConfig) (MatchResult, error) {
	if cfg.RunID == "" {
		return MatchResult{}, fmt.Errorf("run id is required")
	}
	if cfg.Scape == nil {
		return MatchResult{}, fmt.Errorf("scape is required")
	}
	if cfg.Agent == nil {
		return MatchResult{}, fmt.Errorf("agent is required")
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := p.registerRun(cfg.RunID, cancel); err != nil {
		return MatchResult{}, err
	}
	defer p.unregisterRun(cfg.RunID)

	result, err := cfg.Scape.Run(runCtx, cfg.Agent)
	if err != nil {
		return MatchResult{}, fmt.Errorf("run %s: %w", cfg.RunID, err)
	}

	createdAt := cfg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	summary := model.RunSummary{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		CreatedAt:       createdAt,
		Agent:           cfg.Agent.ID(),
		HiderPolicy:     cfg.HiderPolicy,
		SeekerPolicy:    cfg.SeekerPolicy,
		Layout:          cfg.Layout,
		Seed:            cfg.Seed,
		SimSeconds:      result.SimTime.Seconds(),
		Frames:          result.Frames,
		Captures:        result.Captures,
		Timeouts:        result.Timeouts,
		SeekingPhases:   result.SeekingPhases,
		CaptureRate:     result.CaptureRate(),
		HiderReward:     result.HiderReward,
		SeekerReward:    result.SeekerReward,
		HiderEpisodes:   result.EpisodeCount(agent.RoleHider),
		SeekerEpisodes:  result.EpisodeCount(agent.RoleSeeker),
	}
	episodes := toEpisodeRecords(cfg.RunID, result.Episodes)

	if err := p.store.SaveRun(ctx, summary); err != nil {
		return MatchResult{}, fmt.Errorf("save run %s: %w", cfg.RunID, err)
	}
	if err := p.store.SaveEpisodes(ctx, cfg.RunID, episodes); err != nil {
		return MatchResult{}, fmt.Errorf("save episodes %s: %w", cfg.RunID, err)
	}
	return MatchResult{Summary: summary, Episodes: episodes, Result: result}, nil
}

// StopRun cancels an active match.
func (p *Polis) StopRun(runID string) error {
	p.mu.RLock()
	cancel, ok := p.runs[runID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	cancel()
	return nil
}

// ActiveRuns lists matches in flight, sorted.
func (p *Polis) ActiveRuns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.runs))
	for id := range p.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Polis) Runs(ctx context.Context) ([]model.RunSummary, error) {
	if err := p.requireStarted(); err != nil {
		return nil, err
	}
	return p.store.ListRuns(ctx)
}

func (p *Polis) Run(ctx context.Context, runID string) (model.RunSummary, bool, error) {
	if err := p.requireStarted(); err != nil {
		return model.RunSummary{}, false, err
	}
	return p.store.GetRun(ctx, runID)
}

func (p *Polis) Episodes(ctx context.Context, runID string) ([]model.EpisodeRecord, bool, error) {
	if err := p.requireStarted(); err != nil {
		return nil, false, err
	}
	return p.store.GetEpisodes(ctx, runID)
}

func (p *Polis) registerRun(runID string, cancel context.CancelFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return fmt.Errorf("polis is not initialized")
	}
	if _, exists := p.runs[runID]; exists {
		return fmt.Errorf("run already active: %s", runID)
	}
	p.runs[runID] = cancel
	return nil
}

func (p *Polis) unregisterRun(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.runs, runID)
}

func (p *Polis) requireStarted() error {
	if !p.Started() {
		return fmt.Errorf("polis is not initialized")
	}
	return nil
}

func toEpisodeRecords(runID string, reports []agent.EpisodeReport) []model.EpisodeRecord {
	out := make([]model.EpisodeRecord, 0, len(reports))
	for _, r := range reports {
		out = append(out, model.EpisodeRecord{
			VersionedRecord: storage.CurrentVersion(),
			RunID:           runID,
			Role:            string(r.Role),
			Index:           r.Index,
			Reward:          r.Reward,
			Steps:           r.Steps,
			Reason:          string(r.Reason),
			Triggers:        append([]string(nil), r.Triggers...),
		})
	}
	return out
}
