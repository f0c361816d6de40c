package perception

import "hideseek/internal/geom"

// Tag classifies arena objects for perception and collision callbacks.
type Tag string

const (
	TagNone       Tag = ""
	TagWall       Tag = "Wall"
	TagHidingWall Tag = "HidingWall"
	TagHider      Tag = "Hider"
	TagSeeker     Tag = "Seeker"
)

// Hit is the nearest object struck by a ray.
type Hit struct {
	Tag      Tag
	Point    geom.Vec3
	Distance float64
	Position geom.Vec3
}

// World is the physics collaborator's query surface.
type World interface {
	Raycast(origin, direction geom.Vec3, maxDistance float64) (Hit, bool)
	OverlapSphere(center geom.Vec3, radius float64, mask Tag) []Hit
}

// RaySensor exposes the hits of a forward ray fan as computed by the
// physics collaborator during the last perception update. Rays that hit
// nothing are omitted.
type RaySensor interface {
	Hits() []Hit
}

// Detects reports whether any ray of sensor currently hits an object tagged tag.
// A nil sensor detects nothing.
func Detects(sensor RaySensor, tag Tag) bool {
	_, ok := FirstHit(sensor, tag)
	return ok
}

// FirstHit returns the first ray hit tagged tag, in sensor order.
func FirstHit(sensor RaySensor, tag Tag) (Hit, bool) {
	if sensor == nil {
		return Hit{}, false
	}
	for _, hit := range sensor.Hits() {
		if hit.Tag == tag {
			return hit, true
		}
	}
	return Hit{}, false
}

// Occluded reports whether the nearest object on the ray from "from" towards
// "to", within maxDistance, is tagged occluder.
func Occluded(world World, from, to geom.Vec3, maxDistance float64, occluder Tag) bool {
	if world == nil {
		return false
	}
	hit, ok := world.Raycast(from, to.Sub(from), maxDistance)
	if !ok {
		return false
	}
	return hit.Tag == occluder
}

// NearAny reports whether any object tagged mask overlaps the sphere.
func NearAny(world World, center geom.Vec3, radius float64, mask Tag) bool {
	if world == nil {
		return false
	}
	return len(world.OverlapSphere(center, radius, mask)) > 0
}
