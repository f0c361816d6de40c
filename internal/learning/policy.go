// Package learning holds stand-ins for the external learning backend:
// policies that turn observations into discrete actions.
package learning

import (
	"fmt"
	"math/rand"

	"hideseek/internal/agent"
	"hideseek/internal/geom"
)

// Policy chooses the next action vector from an observation.
type Policy interface {
	Act(observation []float64) agent.Actions
}

// RandomPolicy samples both discrete branches uniformly.
type RandomPolicy struct {
	rng *rand.Rand
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) Act([]float64) agent.Actions {
	return agent.ParseActions([]int{p.rng.Intn(3), p.rng.Intn(3)})
}

// HoldPolicy always returns the same action, the no-op by default.
type HoldPolicy struct {
	Actions agent.Actions
}

func (p HoldPolicy) Act([]float64) agent.Actions {
	return p.Actions
}

// ChaseHeuristic steers a body towards a target position, turning until
// the target lies within Tolerance degrees of its forward axis and then
// moving forward. With Flee set it steers away instead.
type ChaseHeuristic struct {
	Self      agent.Body
	Target    func() (geom.Vec3, bool)
	Tolerance float64
	Flee      bool
}

func (h ChaseHeuristic) Act([]float64) agent.Actions {
	if h.Self == nil || h.Target == nil {
		return agent.Actions{}
	}
	target, ok := h.Target()
	if !ok {
		// Nothing to chase: sweep in place.
		return agent.Actions{Turn: agent.TurnRight}
	}
	toTarget := target.Sub(h.Self.Position())
	toTarget.Y = 0
	if h.Flee {
		toTarget = toTarget.Scale(-1)
	}
	tolerance := h.Tolerance
	if tolerance <= 0 {
		tolerance = 10
	}
	forward := h.Self.Forward()
	if geom.Angle(forward, toTarget) <= tolerance {
		return agent.Actions{Move: agent.MoveForward}
	}
	// Positive yaw turns forward towards +X; the sign of the cross product's
	// Y component tells which side the target is on.
	side := forward.Z*toTarget.X - forward.X*toTarget.Z
	if side >= 0 {
		return agent.Actions{Turn: agent.TurnRight}
	}
	return agent.Actions{Turn: agent.TurnLeft}
}

// New builds a named policy for a role. Heuristic policies need the body
// they control and a target source.
func New(kind string, seed int64, self agent.Body, target func() (geom.Vec3, bool), flee bool) (Policy, error) {
	switch kind {
	case "", "random":
		return NewRandomPolicy(seed), nil
	case "hold":
		return HoldPolicy{}, nil
	case "heuristic":
		return ChaseHeuristic{Self: self, Target: target, Flee: flee}, nil
	default:
		return nil, fmt.Errorf("unsupported policy: %s", kind)
	}
}
