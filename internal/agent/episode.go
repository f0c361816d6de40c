package agent

import "hideseek/internal/ledger"

type Role string

const (
	RoleHider  Role = "hider"
	RoleSeeker Role = "seeker"
)

type EndReason string

const (
	EndCaptured EndReason = "captured"
	EndFound    EndReason = "found"
	EndTimeout  EndReason = "timeout"
	EndStopped  EndReason = "stopped"
	EndWall     EndReason = "wall"
)

// Episode is one bounded trial of an agent.
type Episode struct {
	Index    int
	Reward   float64
	Steps    int
	Terminal bool
	Reason   EndReason
}

type EpisodeReport struct {
	Role     Role
	Index    int
	Reward   float64
	Steps    int
	Reason   EndReason
	Triggers []string
}

// EpisodeSink receives every ended episode; it is the learning backend's
// view of episode boundaries and accumulated reward.
type EpisodeSink interface {
	EpisodeEnded(report EpisodeReport)
}

type EpisodeSinkFunc func(EpisodeReport)

func (f EpisodeSinkFunc) EpisodeEnded(report EpisodeReport) { f(report) }

// episodic owns the lifecycle shared by both reward engines. An episode
// ends at most once; the next one begins on the agent's next interaction,
// so several end requests inside one tick collapse into one.
type episodic struct {
	role    Role
	sink    EpisodeSink
	current Episode
	started bool
	ledger  *ledger.Ledger
	onBegin func()
}

func newEpisodic(role Role, sink EpisodeSink) episodic {
	return episodic{role: role, sink: sink, ledger: ledger.New()}
}

func (e *episodic) ensure() {
	if e.started && !e.current.Terminal {
		return
	}
	e.current = Episode{Index: e.current.Index + 1}
	e.started = true
	e.ledger.Reset()
	if e.onBegin != nil {
		e.onBegin()
	}
}

func (e *episodic) add(r float64) {
	e.current.Reward += r
}

// markReason records why the episode is about to end; the first reason wins.
func (e *episodic) markReason(reason EndReason) {
	if e.current.Reason == "" {
		e.current.Reason = reason
	}
}

func (e *episodic) end(reason EndReason) {
	if !e.started || e.current.Terminal {
		return
	}
	e.markReason(reason)
	e.current.Terminal = true
	if e.sink == nil {
		return
	}
	e.sink.EpisodeEnded(EpisodeReport{
		Role:     e.role,
		Index:    e.current.Index,
		Reward:   e.current.Reward,
		Steps:    e.current.Steps,
		Reason:   e.current.Reason,
		Triggers: e.ledger.Names(),
	})
}

// BeginEpisode starts a fresh episode if none is running.
func (e *episodic) BeginEpisode() {
	e.ensure()
}

func (e *episodic) AddReward(r float64) {
	e.ensure()
	e.add(r)
}

func (e *episodic) EndEpisode(reason EndReason) {
	e.end(reason)
}

func (e *episodic) Episode() Episode {
	return e.current
}

// Fired reports whether a one-shot trigger fired in the current episode.
func (e *episodic) Fired(trigger ledger.Trigger) bool {
	return e.ledger.Fired(trigger)
}
