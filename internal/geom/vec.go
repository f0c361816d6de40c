package geom

import "math"

// Vec3 is a point or direction in arena space. Y is up; agents move on the XZ plane.
type Vec3 struct {
	X, Y, Z float64
}

var (
	Zero    = Vec3{}
	Up      = Vec3{Y: 1}
	Forward = Vec3{Z: 1}
)

func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalized returns the unit vector in the direction of v, or the zero
// vector when v is too short to have a direction.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l < 1e-5 {
		return Zero
	}
	return v.Scale(1 / l)
}

func (v Vec3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

func Distance(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Angle returns the unsigned angle between a and b in degrees.
func Angle(a, b Vec3) float64 {
	denom := a.Len() * b.Len()
	if denom < 1e-15 {
		return 0
	}
	return math.Acos(Clamp(a.Dot(b)/denom, -1, 1)) * 180 / math.Pi
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}
