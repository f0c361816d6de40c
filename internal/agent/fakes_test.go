package agent

import (
	"math"
	"time"

	"hideseek/internal/config"
	"hideseek/internal/geom"
	"hideseek/internal/perception"
)

type fakeBody struct {
	position geom.Vec3
	yaw      float64
	resets   int
}

func (b *fakeBody) Position() geom.Vec3 { return b.position }
func (b *fakeBody) Rotation() geom.Quat { return geom.Yaw(b.yaw) }
func (b *fakeBody) Forward() geom.Vec3  { return geom.Yaw(b.yaw).Rotate(geom.Forward) }
func (b *fakeBody) Translate(delta geom.Vec3) {
	b.position = b.position.Add(geom.Yaw(b.yaw).Rotate(delta))
}
func (b *fakeBody) Rotate(deg float64) { b.yaw += deg }
func (b *fakeBody) Reset(position geom.Vec3, rotation geom.Quat) {
	b.position = position
	b.yaw = rotation.YawDegrees()
	b.resets++
}

type fakeSensor struct {
	hits []perception.Hit
}

func (s *fakeSensor) Hits() []perception.Hit { return s.hits }

type fakeWorld struct {
	rayHit  perception.Hit
	hasHit  bool
	overlap []perception.Hit
}

func (w *fakeWorld) Raycast(_, _ geom.Vec3, _ float64) (perception.Hit, bool) {
	return w.rayHit, w.hasHit
}

func (w *fakeWorld) OverlapSphere(_ geom.Vec3, _ float64, mask perception.Tag) []perception.Hit {
	var out []perception.Hit
	for _, h := range w.overlap {
		if h.Tag == mask {
			out = append(out, h)
		}
	}
	return out
}

type manualClock struct {
	now time.Duration
}

func (c *manualClock) Now() time.Duration { return c.now }

type recordingSink struct {
	reports []EpisodeReport
}

func (s *recordingSink) EpisodeEnded(report EpisodeReport) {
	s.reports = append(s.reports, report)
}

func (s *recordingSink) last() EpisodeReport {
	if len(s.reports) == 0 {
		return EpisodeReport{}
	}
	return s.reports[len(s.reports)-1]
}

type recordingEvents struct {
	visibility []bool
	captures   []int
	onCapture  func(int)
}

func (e *recordingEvents) OpponentVisibility(visible bool) {
	e.visibility = append(e.visibility, visible)
}

func (e *recordingEvents) OpponentCaptured(episode int) {
	e.captures = append(e.captures, episode)
	if e.onCapture != nil {
		e.onCapture(episode)
	}
}

const fixedDelta = 20 * time.Millisecond

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

type hiderRig struct {
	hider    *Hider
	body     *fakeBody
	opponent *fakeBody
	sensor   *fakeSensor
	world    *fakeWorld
	clock    *manualClock
	spot     *HidingSpot
	sink     *recordingSink
	tuning   config.Tuning
}

func newHiderRig() *hiderRig {
	tuning := config.Default()
	r := &hiderRig{
		body:     &fakeBody{},
		opponent: &fakeBody{position: geom.V(0, 0.25, -5)},
		sensor:   &fakeSensor{},
		world:    &fakeWorld{},
		clock:    &manualClock{},
		spot:     NewHidingSpot(geom.Zero),
		sink:     &recordingSink{},
		tuning:   tuning,
	}
	r.hider = NewHider(HiderConfig{
		Tuning:   tuning.Hider,
		Motion:   tuning.Motion,
		Body:     r.body,
		Sensor:   r.sensor,
		World:    r.world,
		Opponent: r.opponent,
		Spot:     r.spot,
		Clock:    r.clock,
		Sink:     r.sink,
	})
	return r
}

// hide drives the hider into cover behind a hiding wall during the hiding phase.
func (r *hiderRig) hide() {
	r.world.rayHit = perception.Hit{Tag: perception.TagHidingWall}
	r.world.hasHit = true
	r.hider.Step(Actions{}, fixedDelta)
}

func (r *hiderRig) reward() float64 {
	return r.hider.Episode().Reward
}

type seekerRig struct {
	seeker *Seeker
	body   *fakeBody
	sensor *fakeSensor
	sink   *recordingSink
	events *recordingEvents
	tuning config.Tuning
}

func newSeekerRig() *seekerRig {
	tuning := config.Default()
	r := &seekerRig{
		body:   &fakeBody{},
		sensor: &fakeSensor{},
		sink:   &recordingSink{},
		events: &recordingEvents{},
		tuning: tuning,
	}
	r.seeker = NewSeeker(SeekerConfig{
		Tuning: tuning.Seeker,
		Motion: tuning.Motion,
		Body:   r.body,
		Sensor: r.sensor,
		Sink:   r.sink,
	})
	r.seeker.SetEvents(r.events)
	return r
}

func (r *seekerRig) reward() float64 {
	return r.seeker.Episode().Reward
}

func (r *seekerRig) seeHiderAt(p geom.Vec3) {
	r.sensor.hits = []perception.Hit{{Tag: perception.TagHider, Position: p}}
}
