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
	TriggerHidden        ledger.Trigger = "hidden"
	TriggerNotHidden     ledger.Trigger = "not_hidden_while_seeking"
	TriggerFacingSeeker  ledger.Trigger = "facing_seeker"
	TriggerNotFacing     ledger.Trigger = "not_facing_seeker"
	TriggerApproachCover ledger.Trigger = "approach_cover"
	TriggerRelocation    ledger.Trigger = "relocation"
	TriggerHiderWall     ledger.Trigger = "hider_wall_collision"
)

// Clock reports simulation time since the environment started.
type Clock interface {
	Now() time.Duration
}

type HiderConfig struct {
	Tuning   config.HiderTuning
	Motion   config.MotionTuning
	Body     Body
	Sensor   perception.RaySensor
	World    perception.World
	Opponent Positioned
	Spot     *HidingSpot
	Clock    Clock
	Sink     EpisodeSink
}

// Hider is the reward engine of the hiding agent.
type Hider struct {
	episodic

	tuning   config.HiderTuning
	motion   config.MotionTuning
	body     Body
	sensor   perception.RaySensor
	world    perception.World
	opponent Positioned
	spot     *HidingSpot
	clock    Clock

	seeking          bool
	seekingStartedAt time.Duration
	wasFound         bool
	sawEachOther     bool
	seenBySeeker     bool
	previousDistance float64
	previousPosition geom.Vec3
	wallPending      bool
}

func NewHider(cfg HiderConfig) *Hider {
	spot := cfg.Spot
	if spot == nil {
		spot = NewHidingSpot(geom.Zero)
	}
	h := &Hider{
		episodic: newEpisodic(RoleHider, cfg.Sink),
		tuning:   cfg.Tuning,
		motion:   cfg.Motion,
		body:     cfg.Body,
		sensor:   cfg.Sensor,
		world:    cfg.World,
		opponent: cfg.Opponent,
		spot:     spot,
		clock:    cfg.Clock,
		// No survival bonus before the first episode.
		wasFound:         true,
		previousDistance: math.MaxFloat64,
	}
	h.onBegin = h.beginEpisode
	return h
}

func (h *Hider) beginEpisode() {
	if !h.wasFound {
		h.add(h.tuning.SurvivedBonus)
	}
	h.wasFound = false
	h.sawEachOther = false
	h.seenBySeeker = false
	h.previousDistance = math.MaxFloat64
	h.wallPending = false
	h.body.Reset(h.motion.HiderStart, geom.Identity)
	h.previousPosition = h.body.Position()
}

// Hidden reports whether the hider reached cover in the current episode.
func (h *Hider) Hidden() bool {
	return h.ledger.Fired(TriggerHidden)
}

func (h *Hider) Seeking() bool {
	return h.seeking
}

func (h *Hider) SawEachOther() bool {
	return h.sawEachOther
}

// SeekingStarted tells the hider the seeking phase began at the given time.
func (h *Hider) SeekingStarted(at time.Duration) {
	h.seeking = true
	h.seekingStartedAt = at
}

// SeekingStopped ends the seeking phase. An inactive seeker broadcasts no
// visibility, so the last broadcast is dropped with it.
func (h *Hider) SeekingStopped() {
	h.seeking = false
	h.seenBySeeker = false
}

// ObserveSeekerVisibility receives the seeker's per-step visibility broadcast.
func (h *Hider) ObserveSeekerVisibility(canSee bool) {
	h.seenBySeeker = canSee
	if canSee && perception.Detects(h.sensor, perception.TagSeeker) {
		h.sawEachOther = true
	}
}

// HandleAgentFound ends the episode after a capture that happened elapsed
// into the seeking phase, punishing captures that came too early.
func (h *Hider) HandleAgentFound(elapsed time.Duration) {
	h.ensure()
	if elapsed <= h.tuning.MinHiddenDuration {
		h.add(h.tuning.EarlyCapturePenalty)
	}
	h.wasFound = true
	h.end(EndFound)
}

func (h *Hider) OnCollisionEnter(tag perception.Tag) {
	if tag == perception.TagWall && !h.ledger.Fired(TriggerHiderWall) {
		h.wallPending = true
	}
}

// FixedUpdate applies a latched wall collision, once per episode.
func (h *Hider) FixedUpdate() {
	if !h.wallPending || !h.started || h.current.Terminal {
		return
	}
	h.wallPending = false
	if h.ledger.Fire(TriggerHiderWall) {
		h.add(h.tuning.WallPenalty)
	}
}

// Observe returns the normalized local position and orientation.
func (h *Hider) Observe() []float64 {
	h.ensure()
	obs := make([]float64, 0, 7)
	obs = append(obs, h.body.Position().Normalized().Slice()...)
	obs = append(obs, h.body.Rotation().Normalized().Slice()...)
	return obs
}

// Step applies one action vector and evaluates every hider reward rule.
func (h *Hider) Step(a Actions, dt time.Duration) {
	h.ensure()
	h.current.Steps++
	applyActions(h.body, a, h.motion, dt)

	h.checkHidden()
	h.punishNotHidden()
	h.rewardRunningAway()
	h.rewardStayingHidden()
	h.rewardApproachingCover()
	h.rewardRelocation()
	h.rewardFacingSeeker()
	h.punishNotFacingSeeker()
}

func (h *Hider) checkHidden() {
	position := h.body.Position()
	seekerDetected := perception.Detects(h.sensor, perception.TagSeeker)
	stationary := geom.Distance(position, h.previousPosition) < h.tuning.StationaryEpsilon
	h.previousPosition = position

	if h.seeking || seekerDetected || !stationary || h.Hidden() {
		return
	}
	if !perception.Occluded(h.world, position, h.opponent.Position(), h.tuning.OcclusionDistance, perception.TagHidingWall) {
		return
	}
	if h.ledger.Fire(TriggerHidden) {
		h.add(h.tuning.HiddenReward)
	}
}

func (h *Hider) punishNotHidden() {
	if h.seeking && !h.Hidden() && h.ledger.Fire(TriggerNotHidden) {
		h.add(h.tuning.NotHiddenPenalty)
	}
}

func (h *Hider) rewardRunningAway() {
	if !h.sawEachOther || !h.seenBySeeker || !h.seeking || !h.Hidden() {
		return
	}
	distance := geom.Distance(h.body.Position(), h.opponent.Position())
	if distance > h.tuning.RunningAwayFloor || distance > h.previousDistance {
		h.add(h.tuning.RunningAwayBonus)
	}
	h.previousDistance = distance
}

func (h *Hider) rewardStayingHidden() {
	if h.Hidden() && !h.seenBySeeker {
		h.add(h.tuning.HiddenTrickle)
	}
}

func (h *Hider) rewardApproachingCover() {
	if h.seeking || h.ledger.Fired(TriggerApproachCover) {
		return
	}
	if perception.NearAny(h.world, h.body.Position(), h.tuning.ApproachCoverRadius, perception.TagHidingWall) {
		h.ledger.Fire(TriggerApproachCover)
		h.add(h.tuning.ApproachCoverReward)
	}
}

func (h *Hider) rewardRelocation() {
	if !h.Hidden() || !h.seeking || h.ledger.Fired(TriggerRelocation) {
		return
	}
	if h.clock == nil || h.clock.Now()-h.seekingStartedAt >= h.tuning.RelocationWindow {
		return
	}
	position := h.body.Position()
	if geom.Distance(position, h.spot.Position()) <= h.tuning.RelocationRadius {
		return
	}
	h.ledger.Fire(TriggerRelocation)
	h.add(h.tuning.RelocationBonus)
	h.spot.Set(position)
}

func (h *Hider) rewardFacingSeeker() {
	if !h.Hidden() || h.seeking || h.ledger.Fired(TriggerFacingSeeker) {
		return
	}
	toSeeker := h.opponent.Position().Sub(h.body.Position())
	if geom.Angle(h.body.Forward(), toSeeker) < h.tuning.FacingAngle {
		h.ledger.Fire(TriggerFacingSeeker)
		h.add(h.tuning.FacingReward)
	}
}

func (h *Hider) punishNotFacingSeeker() {
	if !h.Hidden() || !h.seeking || h.ledger.Fired(TriggerFacingSeeker) {
		return
	}
	if h.ledger.Fire(TriggerNotFacing) {
		h.add(h.tuning.NotFacingPenalty)
	}
}
