package arena

import (
	"hideseek/internal/geom"
	"hideseek/internal/perception"
)

// Sensor is a forward fan of rays cast from a body. Hits are refreshed by
// Update and read by the reward engines through perception.RaySensor.
type Sensor struct {
	arena  *Arena
	body   *Body
	rays   int
	spread float64
	length float64
	hits   []perception.Hit
}

// NewSensor attaches a fan of rays rays wide spanning spread degrees.
func (a *Arena) NewSensor(body *Body, rays int, spread, length float64) *Sensor {
	if rays < 1 {
		rays = 1
	}
	return &Sensor{arena: a, body: body, rays: rays, spread: spread, length: length}
}

// Update recasts every ray from the body's current pose.
func (s *Sensor) Update() {
	s.hits = s.hits[:0]
	origin := s.body.Position()
	for _, angle := range s.angles() {
		direction := geom.Yaw(angle).Mul(s.body.Rotation()).Rotate(geom.Forward)
		if hit, ok := s.arena.Raycast(origin, direction, s.length); ok {
			s.hits = append(s.hits, hit)
		}
	}
}

func (s *Sensor) Hits() []perception.Hit {
	return s.hits
}

// angles lists ray offsets centre-first, then alternating right and left.
func (s *Sensor) angles() []float64 {
	out := []float64{0}
	if s.rays == 1 {
		return out
	}
	pairs := (s.rays - 1) / 2
	if pairs == 0 {
		return out
	}
	step := s.spread / 2 / float64(pairs)
	for i := 1; i <= pairs; i++ {
		out = append(out, float64(i)*step, -float64(i)*step)
	}
	return out
}
