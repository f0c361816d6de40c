// Package orchestrator runs the hiding/seeking phase machine and relays
// cross-agent events between the two reward engines.
package orchestrator

import (
	"time"

	"hideseek/internal/agent"
	"hideseek/internal/config"
	"hideseek/internal/presentation"
)

type Phase string

const (
	PhaseHiding  Phase = "hiding"
	PhaseSeeking Phase = "seeking"
)

// HiderControl is what the orchestrator needs from the hider.
type HiderControl interface {
	SeekingStarted(at time.Duration)
	SeekingStopped()
	HandleAgentFound(elapsed time.Duration)
	ObserveSeekerVisibility(canSee bool)
	EndEpisode(reason agent.EndReason)
}

// SeekerControl is what the orchestrator needs from the seeker.
type SeekerControl interface {
	Activate()
	Deactivate()
	AddReward(r float64)
	EndEpisode(reason agent.EndReason)
	SetEvents(events agent.SeekerEvents)
}

type Config struct {
	Tuning    config.PhaseTuning
	Hider     HiderControl
	Seeker    SeekerControl
	Clock     agent.Clock
	Indicator presentation.Indicator
}

type Orchestrator struct {
	tuning    config.PhaseTuning
	hider     HiderControl
	seeker    SeekerControl
	clock     agent.Clock
	indicator presentation.Indicator

	phase    Phase
	elapsed  time.Duration
	started  bool
	captures int
	timeouts int
	cycles   int
}

// New wires the orchestrator as the seeker's event subscriber.
func New(cfg Config) *Orchestrator {
	indicator := cfg.Indicator
	if indicator == nil {
		indicator = presentation.Nop{}
	}
	o := &Orchestrator{
		tuning:    cfg.Tuning,
		hider:     cfg.Hider,
		seeker:    cfg.Seeker,
		clock:     cfg.Clock,
		indicator: indicator,
		phase:     PhaseHiding,
	}
	o.seeker.SetEvents(o)
	return o
}

// Start enters the initial hiding phase.
func (o *Orchestrator) Start() {
	o.started = true
	o.enterHiding()
}

// Update advances phase time by dt and performs due transitions.
func (o *Orchestrator) Update(dt time.Duration) {
	if !o.started {
		o.Start()
	}
	o.elapsed += dt
	switch o.phase {
	case PhaseHiding:
		if o.elapsed >= o.tuning.HidingTime {
			o.enterSeeking()
		}
	case PhaseSeeking:
		if o.elapsed >= o.tuning.SeekingTime {
			o.timeouts++
			o.seeker.EndEpisode(agent.EndTimeout)
			o.hider.EndEpisode(agent.EndTimeout)
			o.enterHiding()
		}
	}
}

func (o *Orchestrator) enterHiding() {
	o.seeker.Deactivate()
	o.hider.SeekingStopped()
	o.elapsed = 0
	o.phase = PhaseHiding
}

func (o *Orchestrator) enterSeeking() {
	o.seeker.Activate()
	var now time.Duration
	if o.clock != nil {
		now = o.clock.Now()
	}
	o.hider.SeekingStarted(now)
	o.elapsed = 0
	o.phase = PhaseSeeking
	o.cycles++
}

// OpponentVisibility relays the seeker's visibility broadcast to the hider.
func (o *Orchestrator) OpponentVisibility(visible bool) {
	o.hider.ObserveSeekerVisibility(visible)
}

// OpponentCaptured handles the seeker's found event and short-circuits the
// seeking phase.
func (o *Orchestrator) OpponentCaptured(episode int) {
	o.captures++
	o.seeker.AddReward(o.tuning.CatchReward)
	o.hider.HandleAgentFound(o.elapsed)
	o.indicator.Show(presentation.ForEpisode(episode))
	o.enterHiding()
}

func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Elapsed is the time spent in the current phase.
func (o *Orchestrator) Elapsed() time.Duration {
	return o.elapsed
}

func (o *Orchestrator) Captures() int {
	return o.captures
}

func (o *Orchestrator) Timeouts() int {
	return o.timeouts
}

// SeekingPhases counts how many seeking phases have begun.
func (o *Orchestrator) SeekingPhases() int {
	return o.cycles
}
