// Package config holds the reward shaping and phase timing constants of the
// hide-and-seek environment and loads overrides for them.
package config

import (
	"errors"
	"fmt"
	"time"

	"hideseek/internal/geom"
)

var ErrInvalidTuning = errors.New("invalid tuning")

type Tuning struct {
	Phase  PhaseTuning
	Motion MotionTuning
	Hider  HiderTuning
	Seeker SeekerTuning
}

type PhaseTuning struct {
	HidingTime  time.Duration
	SeekingTime time.Duration
	// CatchReward is granted to the Seeker by the orchestrator on capture,
	// on top of the Seeker's own CaptureReward.
	CatchReward float64
}

type MotionTuning struct {
	FixedDelta    time.Duration
	MovementSpeed float64 // units per second
	RotationSpeed float64 // degrees per second
	HiderStart    geom.Vec3
	SeekerStart   geom.Vec3
}

type HiderTuning struct {
	HiddenReward        float64
	NotHiddenPenalty    float64
	RunningAwayBonus    float64
	RunningAwayFloor    float64
	HiddenTrickle       float64
	ApproachCoverReward float64
	ApproachCoverRadius float64
	RelocationBonus     float64
	RelocationRadius    float64
	RelocationWindow    time.Duration
	FacingReward        float64
	FacingAngle         float64 // degrees
	NotFacingPenalty    float64
	WallPenalty         float64
	SurvivedBonus       float64
	EarlyCapturePenalty float64
	MinHiddenDuration   time.Duration
	StationaryEpsilon   float64
	OcclusionDistance   float64
}

type SeekerTuning struct {
	FirstSightReward        float64
	SightTrickle            float64
	ClosestReward           float64
	ClosestMargin           float64
	ApproachStep            float64
	ApproachScale           float64
	AlignmentReward         float64
	AlignmentBonusThreshold float64
	AlignmentBonusScale     float64
	CaptureReward           float64
	WallPenalty             float64
}

func Default() Tuning {
	return Tuning{
		Phase: PhaseTuning{
			HidingTime:  10 * time.Second,
			SeekingTime: 20 * time.Second,
			CatchReward: 1,
		},
		Motion: MotionTuning{
			FixedDelta:    20 * time.Millisecond,
			MovementSpeed: 3,
			RotationSpeed: 180,
			HiderStart:    geom.V(0, 0.25, 0),
			SeekerStart:   geom.V(-1, 0.25, 2),
		},
		Hider: HiderTuning{
			HiddenReward:        1,
			NotHiddenPenalty:    -0.5,
			RunningAwayBonus:    0.0001,
			RunningAwayFloor:    1,
			HiddenTrickle:       0.001,
			ApproachCoverReward: 0.001,
			ApproachCoverRadius: 0.5,
			RelocationBonus:     1,
			RelocationRadius:    4,
			RelocationWindow:    22 * time.Millisecond,
			FacingReward:        0.001,
			FacingAngle:         20,
			NotFacingPenalty:    -0.5,
			WallPenalty:         -0.5,
			SurvivedBonus:       2,
			EarlyCapturePenalty: -0.7,
			MinHiddenDuration:   10 * time.Second,
			StationaryEpsilon:   0.05,
			OcclusionDistance:   3,
		},
		Seeker: SeekerTuning{
			FirstSightReward:        0.5,
			SightTrickle:            0.0003,
			ClosestReward:           0.2,
			ClosestMargin:           0.5,
			ApproachStep:            0.5,
			ApproachScale:           0.02,
			AlignmentReward:         0.01,
			AlignmentBonusThreshold: 0.7,
			AlignmentBonusScale:     0.01,
			CaptureReward:           2,
			WallPenalty:             -0.5,
		},
	}
}

func (t Tuning) Validate() error {
	if t.Phase.HidingTime <= 0 {
		return fmt.Errorf("%w: hiding time must be > 0, got %s", ErrInvalidTuning, t.Phase.HidingTime)
	}
	if t.Phase.SeekingTime <= 0 {
		return fmt.Errorf("%w: seeking time must be > 0, got %s", ErrInvalidTuning, t.Phase.SeekingTime)
	}
	if t.Motion.FixedDelta <= 0 {
		return fmt.Errorf("%w: fixed delta must be > 0, got %s", ErrInvalidTuning, t.Motion.FixedDelta)
	}
	if t.Motion.MovementSpeed < 0 || t.Motion.RotationSpeed < 0 {
		return fmt.Errorf("%w: speeds must be >= 0", ErrInvalidTuning)
	}
	if t.Hider.StationaryEpsilon <= 0 || t.Hider.OcclusionDistance <= 0 {
		return fmt.Errorf("%w: stationary epsilon and occlusion distance must be > 0", ErrInvalidTuning)
	}
	// The first step after seeking starts is one fixed delta later.
	if t.Hider.RelocationBonus != 0 && t.Motion.FixedDelta >= t.Hider.RelocationWindow {
		return fmt.Errorf("%w: relocation window %s must exceed fixed delta %s or the relocation bonus never fires",
			ErrInvalidTuning, t.Hider.RelocationWindow, t.Motion.FixedDelta)
	}
	return nil
}
