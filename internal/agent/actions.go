package agent

import (
	"time"

	"hideseek/internal/config"
	"hideseek/internal/geom"
)

type Move int

const (
	MoveNone Move = iota
	MoveForward
	MoveBackward
)

type Turn int

const (
	TurnNone Turn = iota
	TurnRight
	TurnLeft
)

// Actions is one discrete action vector from the learning backend.
type Actions struct {
	Move Move
	Turn Turn
}

// ParseActions decodes a raw discrete branch vector. Missing or
// out-of-range branches decode to no-op.
func ParseActions(discrete []int) Actions {
	var a Actions
	if len(discrete) > 0 && discrete[0] >= int(MoveNone) && discrete[0] <= int(MoveBackward) {
		a.Move = Move(discrete[0])
	}
	if len(discrete) > 1 && discrete[1] >= int(TurnNone) && discrete[1] <= int(TurnLeft) {
		a.Turn = Turn(discrete[1])
	}
	return a
}

// Body is the physics collaborator's handle on an agent's transform.
type Body interface {
	Position() geom.Vec3
	Rotation() geom.Quat
	Forward() geom.Vec3
	// Translate moves the body by delta expressed in its local frame.
	Translate(delta geom.Vec3)
	// Rotate turns the body by deg degrees about the up axis.
	Rotate(deg float64)
	// Reset teleports the body and zeroes linear and angular velocity.
	Reset(position geom.Vec3, rotation geom.Quat)
}

// Positioned is anything with a world position, typically the opponent's Body.
type Positioned interface {
	Position() geom.Vec3
}

func applyActions(body Body, a Actions, motion config.MotionTuning, dt time.Duration) {
	seconds := dt.Seconds()
	var move geom.Vec3
	switch a.Move {
	case MoveForward:
		move = geom.Forward.Scale(motion.MovementSpeed * seconds)
	case MoveBackward:
		move = geom.Forward.Scale(-motion.MovementSpeed * seconds)
	}
	var turn float64
	switch a.Turn {
	case TurnRight:
		turn = motion.RotationSpeed * seconds
	case TurnLeft:
		turn = -motion.RotationSpeed * seconds
	}
	body.Rotate(turn)
	body.Translate(move)
}
