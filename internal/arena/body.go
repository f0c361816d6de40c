package arena

import (
	"hideseek/internal/geom"
	"hideseek/internal/perception"
)

// Body is a circular agent body. It satisfies agent.Body.
type Body struct {
	arena    *Arena
	tag      perception.Tag
	radius   float64
	position geom.Vec3
	rotation geom.Quat
	previous geom.Vec3
	onEnter  func(perception.Tag)
}

func (b *Body) Tag() perception.Tag { return b.tag }
func (b *Body) Radius() float64     { return b.radius }

func (b *Body) Position() geom.Vec3 {
	return b.position
}

func (b *Body) Rotation() geom.Quat {
	return b.rotation
}

func (b *Body) Forward() geom.Vec3 {
	return b.rotation.Rotate(geom.Forward)
}

// Translate moves the body by a delta expressed in its local frame. Wall
// blocking happens in ResolveCollisions.
func (b *Body) Translate(local geom.Vec3) {
	b.position = b.position.Add(b.rotation.Rotate(local))
}

func (b *Body) Rotate(degrees float64) {
	b.rotation = geom.Yaw(degrees).Mul(b.rotation).Normalized()
}

func (b *Body) Reset(position geom.Vec3, rotation geom.Quat) {
	b.position = position
	b.previous = position
	b.rotation = rotation
}

// OnCollisionEnter registers the callback receiving the tag of every
// object this body starts touching.
func (b *Body) OnCollisionEnter(fn func(perception.Tag)) {
	b.onEnter = fn
}
