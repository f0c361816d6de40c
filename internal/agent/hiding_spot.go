package agent

import "hideseek/internal/geom"

// HidingSpot is the last rewarded hiding position. It outlives episodes and
// is owned by the environment root, which injects it into the Hider.
type HidingSpot struct {
	position geom.Vec3
}

func NewHidingSpot(initial geom.Vec3) *HidingSpot {
	return &HidingSpot{position: initial}
}

func (s *HidingSpot) Position() geom.Vec3 {
	return s.position
}

func (s *HidingSpot) Set(p geom.Vec3) {
	s.position = p
}
