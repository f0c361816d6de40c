package agent

import (
	"math"
	"time"

	"hideseek/internal/config"
	"hideseek/internal/geom"
	"hideseek/internal/ledger"
	"hideseek/internal/perception"
)

const (
	TriggerFirstSight ledger.Trigger = "first_sight"
	TriggerCapture    ledger.Trigger = "hider_collision"
	TriggerSeekerWall ledger.Trigger = "seeker_wall_collision"
)

// SeekerObservationSize is fixed regardless of the seeker being active.
const SeekerObservationSize = 10

// distanceUnset marks the first distance measurement of an episode.
const distanceUnset = -1.0

// SeekerEvents receives the seeker's cross-agent signals. Dispatch is
// synchronous: handlers run inline within the publishing step.
type SeekerEvents interface {
	OpponentVisibility(visible bool)
	OpponentCaptured(episode int)
}

type nopEvents struct{}

func (nopEvents) OpponentVisibility(bool) {}
func (nopEvents) OpponentCaptured(int)    {}

type SeekerConfig struct {
	Tuning config.SeekerTuning
	Motion config.MotionTuning
	Body   Body
	Sensor perception.RaySensor
	Sink   EpisodeSink
}

// Seeker is the reward engine of the seeking agent. It only acts while the
// orchestrator keeps it active.
type Seeker struct {
	episodic

	tuning config.SeekerTuning
	motion config.MotionTuning
	body   Body
	sensor perception.RaySensor
	events SeekerEvents

	// pursuit holds the sighting latch, which survives episodes until a capture.
	pursuit *ledger.Ledger

	active           bool
	gotOpponent      bool
	canSee           bool
	opponentPosition geom.Vec3
	closestEver      float64
	bestAlignment    float64
	previousDistance float64
	capturePending   bool
	wallPending      bool
}

func NewSeeker(cfg SeekerConfig) *Seeker {
	s := &Seeker{
		episodic:         newEpisodic(RoleSeeker, cfg.Sink),
		tuning:           cfg.Tuning,
		motion:           cfg.Motion,
		body:             cfg.Body,
		sensor:           cfg.Sensor,
		events:           nopEvents{},
		pursuit:          ledger.New(),
		closestEver:      math.MaxFloat64,
		previousDistance: distanceUnset,
	}
	s.onBegin = s.beginEpisode
	return s
}

// SetEvents subscribes events to the seeker's visibility and capture signals.
func (s *Seeker) SetEvents(events SeekerEvents) {
	if events == nil {
		events = nopEvents{}
	}
	s.events = events
}

func (s *Seeker) beginEpisode() {
	s.capturePending = false
	s.wallPending = false
	s.body.Reset(s.motion.SeekerStart, geom.Identity)
	s.previousDistance = distanceUnset
	if s.gotOpponent {
		s.closestEver = math.MaxFloat64
		s.bestAlignment = 0
		s.opponentPosition = geom.Zero
		s.pursuit.Reset()
		s.gotOpponent = false
	}
}

// EpisodeCounter is the number of episodes begun so far.
func (s *Seeker) EpisodeCounter() int {
	return s.current.Index
}

func (s *Seeker) Active() bool {
	return s.active
}

func (s *Seeker) Sighted() bool {
	return s.pursuit.Fired(TriggerFirstSight)
}

func (s *Seeker) OpponentPosition() geom.Vec3 {
	return s.opponentPosition
}

func (s *Seeker) ClosestDistance() float64 {
	return s.closestEver
}

func (s *Seeker) BestAlignment() float64 {
	return s.bestAlignment
}

func (s *Seeker) Activate() {
	s.active = true
}

// Deactivate stops action processing and ends the running episode.
func (s *Seeker) Deactivate() {
	s.active = false
	s.end(EndStopped)
}

// Observe returns position, orientation and last known opponent position,
// normalized. An inactive seeker yields zeros of the same shape.
func (s *Seeker) Observe() []float64 {
	s.ensure()
	obs := make([]float64, 0, SeekerObservationSize)
	if !s.active {
		return append(obs, make([]float64, SeekerObservationSize)...)
	}
	obs = append(obs, s.body.Position().Normalized().Slice()...)
	obs = append(obs, s.body.Rotation().Normalized().Slice()...)
	opponent := geom.Zero
	if s.Sighted() {
		opponent = s.opponentPosition.Normalized()
	}
	return append(obs, opponent.Slice()...)
}

// Step applies one action vector and evaluates the seeker reward rules. It
// is a no-op while the seeker is inactive.
func (s *Seeker) Step(a Actions, dt time.Duration) {
	s.ensure()
	if !s.active {
		return
	}
	s.current.Steps++
	applyActions(s.body, a, s.motion, dt)

	s.perceive()
	if !s.Sighted() {
		return
	}

	position := s.body.Position()
	distance := geom.Distance(position, s.opponentPosition)
	s.rewardClosestDistance(distance)
	s.rewardApproach(distance)
	s.rewardAlignment(position)
}

func (s *Seeker) perceive() {
	s.canSee = false
	if hit, ok := perception.FirstHit(s.sensor, perception.TagHider); ok {
		if s.pursuit.Fire(TriggerFirstSight) {
			// Reported only by the episode that paid for the sighting.
			s.ledger.Fire(TriggerFirstSight)
			s.add(s.tuning.FirstSightReward)
		}
		s.canSee = true
		s.opponentPosition = hit.Position
		s.add(s.tuning.SightTrickle)
	}
	s.events.OpponentVisibility(s.canSee)
}

func (s *Seeker) rewardClosestDistance(distance float64) {
	if distance+s.tuning.ClosestMargin < s.closestEver {
		s.closestEver = distance
		s.add(s.tuning.ClosestReward)
	}
}

func (s *Seeker) rewardApproach(distance float64) {
	if s.previousDistance == distanceUnset {
		s.previousDistance = distance
		return
	}
	if closed := s.previousDistance - distance; closed >= s.tuning.ApproachStep {
		s.add(closed * s.tuning.ApproachScale)
		s.previousDistance = distance
	}
}

func (s *Seeker) rewardAlignment(position geom.Vec3) {
	direction := s.opponentPosition.Sub(position).Normalized()
	alignment := geom.Clamp01(s.body.Forward().Dot(direction))
	if alignment <= s.bestAlignment {
		return
	}
	s.bestAlignment = alignment
	s.add(s.tuning.AlignmentReward)
	if alignment > s.tuning.AlignmentBonusThreshold {
		s.add(alignment * s.tuning.AlignmentBonusScale)
	}
}

func (s *Seeker) OnCollisionEnter(tag perception.Tag) {
	if !s.active {
		return
	}
	switch tag {
	case perception.TagWall:
		if !s.ledger.Fired(TriggerSeekerWall) {
			s.wallPending = true
		}
	case perception.TagHider:
		if !s.ledger.Fired(TriggerCapture) {
			s.capturePending = true
		}
	}
}

// FixedUpdate applies latched collisions. A capture raises the found event
// before the episode ends so the orchestrator's catch reward lands in it.
func (s *Seeker) FixedUpdate() {
	if s.capturePending && s.live() {
		s.capturePending = false
		if s.ledger.Fire(TriggerCapture) {
			s.add(s.tuning.CaptureReward)
			s.gotOpponent = true
			s.markReason(EndCaptured)
			s.events.OpponentCaptured(s.current.Index)
			s.end(EndCaptured)
		}
	}
	if s.wallPending && s.live() {
		s.wallPending = false
		if s.ledger.Fire(TriggerSeekerWall) {
			s.add(s.tuning.WallPenalty)
			s.end(EndWall)
		}
	}
}

// live reports whether collisions may still apply to the running episode.
func (s *Seeker) live() bool {
	return s.active && s.started && !s.current.Terminal
}
