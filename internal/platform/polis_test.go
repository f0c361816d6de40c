package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"hideseek/internal/agent"
	"hideseek/internal/scape"
	"hideseek/internal/storage"
)

type scriptedMatch struct {
	result  scape.Result
	err     error
	onStart func(ctx context.Context)
}

func (s scriptedMatch) Name() string { return "scripted" }

func (s scriptedMatch) Evaluate(ctx context.Context, a scape.Agent) (scape.Fitness, scape.Trace, error) {
	result, err := s.Run(ctx, a)
	return scape.Fitness(result.CaptureRate()), result.Trace(), err
}

func (s scriptedMatch) Run(ctx context.Context, _ scape.Agent) (scape.Result, error) {
	if s.onStart != nil {
		s.onStart(ctx)
	}
	if s.err != nil {
		return scape.Result{}, s.err
	}
	return s.result, nil
}

type namedAgent string

func (a namedAgent) ID() string { return string(a) }

func newPolis(t *testing.T) *Polis {
	t.Helper()
	p := NewPolis(Config{Store: storage.NewMemoryStore()})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return p
}

func TestPolisRunMatchPersistsSummaryAndEpisodes(t *testing.T) {
	p := newPolis(t)
	match := scriptedMatch{result: scape.Result{
		Frames:        1500,
		SimTime:       30 * time.Second,
		Captures:      1,
		SeekingPhases: 2,
		HiderReward:   -1.2,
		SeekerReward:  3.5,
		Episodes: []agent.EpisodeReport{
			{Role: agent.RoleSeeker, Index: 1, Reward: 3.5, Reason: agent.EndCaptured, Triggers: []string{"hider_collision"}},
			{Role: agent.RoleHider, Index: 1, Reward: -1.2, Reason: agent.EndFound},
		},
	}}

	got, err := p.RunMatch(context.Background(), MatchConfig{RunID: "run-1", Scape: match, Agent: namedAgent("pair"), Layout: "room", Seed: 9})
	if err != nil {
		t.Fatalf("run match: %v", err)
	}
	if got.Summary.CaptureRate != 0.5 || got.Summary.SeekerEpisodes != 1 || got.Summary.HiderEpisodes != 1 {
		t.Fatalf("unexpected summary %+v", got.Summary)
	}
	if got.Summary.Agent != "pair" || got.Summary.SimSeconds != 30 || got.Summary.CreatedAt.IsZero() {
		t.Fatalf("summary must carry run metadata, got %+v", got.Summary)
	}

	run, ok, err := p.Run(context.Background(), "run-1")
	if err != nil || !ok || run.Captures != 1 {
		t.Fatalf("expected stored run, ok=%t err=%v run=%+v", ok, err, run)
	}
	episodes, ok, err := p.Episodes(context.Background(), "run-1")
	if err != nil || !ok || len(episodes) != 2 {
		t.Fatalf("expected stored episodes, ok=%t err=%v episodes=%+v", ok, err, episodes)
	}
	if episodes[0].Role != "seeker" || episodes[0].Reason != "captured" || episodes[0].RunID != "run-1" {
		t.Fatalf("unexpected first episode %+v", episodes[0])
	}
	if len(p.ActiveRuns()) != 0 {
		t.Fatalf("finished runs must not stay active: %v", p.ActiveRuns())
	}
}

func TestPolisRunMatchValidation(t *testing.T) {
	p := newPolis(t)
	ctx := context.Background()
	if _, err := p.RunMatch(ctx, MatchConfig{Scape: scriptedMatch{}, Agent: namedAgent("a")}); err == nil {
		t.Fatal("expected missing run id error")
	}
	if _, err := p.RunMatch(ctx, MatchConfig{RunID: "r", Agent: namedAgent("a")}); err == nil {
		t.Fatal("expected missing scape error")
	}
	boom := errors.New("boom")
	if _, err := p.RunMatch(ctx, MatchConfig{RunID: "r", Scape: scriptedMatch{err: boom}, Agent: namedAgent("a")}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped scape error, got %v", err)
	}
	if _, ok, _ := p.Run(ctx, "r"); ok {
		t.Fatal("failed runs must not be stored")
	}
}

func TestPolisStopRunCancelsActiveMatch(t *testing.T) {
	p := newPolis(t)
	var sawCancel bool
	match := scriptedMatch{onStart: func(ctx context.Context) {
		if err := p.StopRun("run-stop"); err != nil {
			t.Errorf("stop run: %v", err)
		}
		sawCancel = errors.Is(ctx.Err(), context.Canceled)
	}}
	if _, err := p.RunMatch(context.Background(), MatchConfig{RunID: "run-stop", Scape: match, Agent: namedAgent("a")}); err != nil {
		t.Fatalf("run match: %v", err)
	}
	if !sawCancel {
		t.Fatal("StopRun must cancel the match context")
	}
	if err := p.StopRun("run-stop"); err == nil {
		t.Fatal("expected error stopping a finished run")
	}
}

func TestPolisRequiresInit(t *testing.T) {
	p := NewPolis(Config{Store: storage.NewMemoryStore()})
	if _, err := p.Runs(context.Background()); err == nil {
		t.Fatal("expected error before init")
	}
	if _, err := p.RunMatch(context.Background(), MatchConfig{RunID: "r", Scape: scriptedMatch{}, Agent: namedAgent("a")}); err == nil {
		t.Fatal("expected error before init")
	}
	if err := NewPolis(Config{}).Init(context.Background()); err == nil {
		t.Fatal("expected error without store")
	}

	started := newPolis(t)
	started.Stop()
	if started.Started() {
		t.Fatal("stop must clear started state")
	}
}
