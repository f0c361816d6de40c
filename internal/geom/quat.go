package geom

import "math"

// Quat is a rotation quaternion. Bodies in the arena only ever rotate about
// the up axis, but observations carry the full four components.
type Quat struct {
	X, Y, Z, W float64
}

var Identity = Quat{W: 1}

// Yaw builds a rotation of deg degrees about the up axis.
func Yaw(deg float64) Quat {
	half := deg * math.Pi / 360
	return Quat{Y: math.Sin(half), W: math.Cos(half)}
}

func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l < 1e-15 {
		return Identity
	}
	return Quat{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{X: q.X, Y: q.Y, Z: q.Z}
	t := cross(u, v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(cross(u, t))
}

// YawDegrees recovers the rotation about the up axis.
func (q Quat) YawDegrees() float64 {
	return 2 * math.Atan2(q.Y, q.W) * 180 / math.Pi
}

func (q Quat) Slice() []float64 {
	return []float64{q.X, q.Y, q.Z, q.W}
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}
