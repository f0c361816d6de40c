package agent

import (
	"testing"

	"hideseek/internal/geom"
	"hideseek/internal/perception"
)

func TestSeekerInactiveStepIsNoOp(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Step(Actions{Move: MoveForward, Turn: TurnLeft}, fixedDelta)

	if r.body.position != r.tuning.Motion.SeekerStart {
		t.Fatalf("inactive seeker must not move, got %+v", r.body.position)
	}
	if r.seeker.Episode().Steps != 0 || r.reward() != 0 {
		t.Fatalf("inactive step must not count: %+v", r.seeker.Episode())
	}
	if len(r.events.visibility) != 0 {
		t.Fatalf("inactive seeker must not broadcast visibility, got %v", r.events.visibility)
	}
}

func TestSeekerObservationShapeInvariant(t *testing.T) {
	r := newSeekerRig()
	inactive := r.seeker.Observe()
	for i, v := range inactive {
		if v != 0 {
			t.Fatalf("inactive observation[%d]=%f, want 0", i, v)
		}
	}

	r.seeker.Activate()
	unsighted := r.seeker.Observe()
	r.seeHiderAt(geom.V(3, 0.25, 4))
	r.seeker.Step(Actions{}, fixedDelta)
	sighted := r.seeker.Observe()

	for name, obs := range map[string][]float64{"inactive": inactive, "unsighted": unsighted, "sighted": sighted} {
		if len(obs) != SeekerObservationSize {
			t.Fatalf("%s observation has %d values, want %d", name, len(obs), SeekerObservationSize)
		}
	}
	for i := 7; i < 10; i++ {
		if unsighted[i] != 0 {
			t.Fatalf("unsighted opponent slot %d must be zero, got %f", i, unsighted[i])
		}
	}
	want := geom.V(3, 0.25, 4).Normalized()
	if !approxEqual(sighted[7], want.X) || !approxEqual(sighted[9], want.Z) {
		t.Fatalf("unexpected opponent observation %v", sighted[7:])
	}
}

func TestSeekerFirstSightingRewardedOnce(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeHiderAt(geom.V(-1, 0.25, 10))

	r.seeker.Step(Actions{}, fixedDelta)
	st := r.tuning.Seeker
	// sighting, trickle, first closest distance, alignment 1 with bonus
	want := st.FirstSightReward + st.SightTrickle + st.ClosestReward + st.AlignmentReward + st.AlignmentBonusScale
	if !approxEqual(r.reward(), want) {
		t.Fatalf("expected %f, got %f", want, r.reward())
	}

	before := r.reward()
	r.seeker.Step(Actions{}, fixedDelta)
	if delta := r.reward() - before; !approxEqual(delta, st.SightTrickle) {
		t.Fatalf("second sighting only earns trickle, delta=%f", delta)
	}

	r.sensor.hits = []perception.Hit{{Tag: perception.TagWall}}
	r.seeker.Step(Actions{}, fixedDelta)
	if got := r.events.visibility; len(got) != 3 || !got[0] || !got[1] || got[2] {
		t.Fatalf("unexpected visibility broadcasts %v", got)
	}
	if r.seeker.OpponentPosition() != geom.V(-1, 0.25, 10) {
		t.Fatalf("last known position must survive losing sight, got %+v", r.seeker.OpponentPosition())
	}
}

func TestSeekerFirstSightReportedOnlyInPayingEpisode(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeHiderAt(geom.V(-1, 0.25, 10))
	r.seeker.Step(Actions{}, fixedDelta)
	r.seeker.EndEpisode(EndTimeout)

	r.sensor.hits = nil
	r.seeker.Step(Actions{}, fixedDelta)
	r.seeker.EndEpisode(EndTimeout)

	if len(r.sink.reports) != 2 {
		t.Fatalf("expected two reports, got %d", len(r.sink.reports))
	}
	if !containsName(r.sink.reports[0].Triggers, string(TriggerFirstSight)) {
		t.Fatalf("sighting episode must report first_sight, got %v", r.sink.reports[0].Triggers)
	}
	if containsName(r.sink.reports[1].Triggers, string(TriggerFirstSight)) {
		t.Fatalf("later episode paid no sighting reward, got %v", r.sink.reports[1].Triggers)
	}
	if !r.seeker.Sighted() {
		t.Fatal("sighting latch must survive until a capture")
	}
}

func containsName(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

func TestSeekerNoDistanceRewardsBeforeSighting(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	for i := 0; i < 5; i++ {
		r.seeker.Step(Actions{Move: MoveForward}, fixedDelta)
	}
	if r.reward() != 0 {
		t.Fatalf("no reward before first sighting, got %f", r.reward())
	}
	if r.seeker.ClosestDistance() <= 1e300 {
		t.Fatalf("closest distance must stay unset, got %f", r.seeker.ClosestDistance())
	}
}

func TestSeekerDistanceAndApproachRewards(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeHiderAt(geom.V(-1, 0.25, 10))
	r.seeker.Step(Actions{}, fixedDelta)
	r.sensor.hits = nil
	st := r.tuning.Seeker

	steps := []struct {
		z    float64
		want float64
	}{
		// 8 -> 7: closer than best by more than the margin, closed 1.0
		{z: 3, want: st.ClosestReward + 1.0*st.ApproachScale},
		// 7 -> 6.8: neither margin nor step reached
		{z: 3.2, want: 0},
		// 7 -> 6.4: comparator did not move, closed 0.6
		{z: 3.6, want: st.ClosestReward + 0.6*st.ApproachScale},
	}
	for i, step := range steps {
		r.body.position = geom.V(-1, 0.25, step.z)
		before := r.reward()
		r.seeker.Step(Actions{}, fixedDelta)
		if delta := r.reward() - before; !approxEqual(delta, step.want) {
			t.Fatalf("step %d: delta=%f want %f", i, delta, step.want)
		}
	}
	if !approxEqual(r.seeker.ClosestDistance(), 6.4) {
		t.Fatalf("expected closest distance 6.4, got %f", r.seeker.ClosestDistance())
	}
}

func TestSeekerAlignmentRewardsOnlyImprovements(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeker.BeginEpisode()
	// turn to face the opponent straight along +X
	r.seeHiderAt(geom.V(9, 0.25, 2))
	r.body.yaw = 90
	r.seeker.Step(Actions{}, fixedDelta)
	if !approxEqual(r.seeker.BestAlignment(), 1) {
		t.Fatalf("expected full alignment, got %f", r.seeker.BestAlignment())
	}

	r.sensor.hits = nil
	r.body.yaw = 45
	before := r.reward()
	r.seeker.Step(Actions{}, fixedDelta)
	if delta := r.reward() - before; delta != 0 {
		t.Fatalf("worse alignment must not be rewarded, delta=%f", delta)
	}
}

func TestSeekerAlignmentBonusAboveThreshold(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeker.BeginEpisode()
	st := r.tuning.Seeker

	// opponent 60 degrees off the forward axis: alignment 0.5, below the bonus threshold
	r.seeHiderAt(geom.V(-1+8*0.8660254037844386, 0.25, 2+8*0.5))
	r.seeker.Step(Actions{}, fixedDelta)
	want := st.FirstSightReward + st.SightTrickle + st.ClosestReward + st.AlignmentReward
	if !approxEqual(r.reward(), want) {
		t.Fatalf("expected no alignment bonus, reward=%f want=%f", r.reward(), want)
	}
}

func TestSeekerCaptureRaisesFoundEventAndEndsEpisode(t *testing.T) {
	r := newSeekerRig()
	r.events.onCapture = func(int) {
		r.seeker.AddReward(1)
		r.seeker.Deactivate()
	}
	r.seeker.Activate()
	r.seeker.BeginEpisode()

	r.seeker.OnCollisionEnter(perception.TagHider)
	r.seeker.OnCollisionEnter(perception.TagHider)
	r.seeker.FixedUpdate()

	if len(r.events.captures) != 1 || r.events.captures[0] != 1 {
		t.Fatalf("expected one capture event for episode 1, got %v", r.events.captures)
	}
	if len(r.sink.reports) != 1 {
		t.Fatalf("expected one ended episode, got %+v", r.sink.reports)
	}
	report := r.sink.reports[0]
	if report.Reason != EndCaptured {
		t.Fatalf("expected captured reason, got %q", report.Reason)
	}
	if !approxEqual(report.Reward, r.tuning.Seeker.CaptureReward+1) {
		t.Fatalf("catch reward must land in the captured episode, got %f", report.Reward)
	}
	if r.seeker.Active() {
		t.Fatal("expected seeker to be deactivated by the handler")
	}
}

func TestSeekerCaptureResetsPursuitOnNextEpisode(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeHiderAt(geom.V(-1, 0.25, 6))
	r.seeker.Step(Actions{}, fixedDelta)
	r.sensor.hits = nil

	// a non-capture ending keeps the pursuit state
	r.seeker.EndEpisode(EndTimeout)
	r.seeker.BeginEpisode()
	if !r.seeker.Sighted() || r.seeker.OpponentPosition() == geom.Zero {
		t.Fatal("pursuit state must survive episodes without capture")
	}

	r.seeker.OnCollisionEnter(perception.TagHider)
	r.seeker.FixedUpdate()
	r.seeker.BeginEpisode()
	if r.seeker.Sighted() || r.seeker.OpponentPosition() != geom.Zero || r.seeker.BestAlignment() != 0 {
		t.Fatal("pursuit state must reset after a capture")
	}
	if r.seeker.EpisodeCounter() != 3 {
		t.Fatalf("expected third episode, got %d", r.seeker.EpisodeCounter())
	}
	if r.body.position != r.tuning.Motion.SeekerStart {
		t.Fatalf("expected start pose, got %+v", r.body.position)
	}
}

func TestSeekerWallCollisionPenaltyEndsEpisode(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeker.BeginEpisode()
	r.seeker.OnCollisionEnter(perception.TagWall)
	r.seeker.OnCollisionEnter(perception.TagWall)
	r.seeker.FixedUpdate()
	r.seeker.FixedUpdate()

	if len(r.sink.reports) != 1 {
		t.Fatalf("expected one ended episode, got %+v", r.sink.reports)
	}
	report := r.sink.last()
	if report.Reason != EndWall || !approxEqual(report.Reward, r.tuning.Seeker.WallPenalty) {
		t.Fatalf("unexpected wall report %+v", report)
	}
}

func TestSeekerIgnoresCollisionsWhileInactive(t *testing.T) {
	r := newSeekerRig()
	r.seeker.BeginEpisode()
	r.seeker.OnCollisionEnter(perception.TagHider)
	r.seeker.OnCollisionEnter(perception.TagWall)
	r.seeker.Activate()
	r.seeker.FixedUpdate()
	if len(r.events.captures) != 0 || len(r.sink.reports) != 0 {
		t.Fatalf("collisions before activation must be ignored: captures=%v reports=%v", r.events.captures, r.sink.reports)
	}
}

func TestSeekerDeactivateEndsEpisodeOnce(t *testing.T) {
	r := newSeekerRig()
	r.seeker.Activate()
	r.seeker.BeginEpisode()
	r.seeker.Deactivate()
	r.seeker.Deactivate()
	if len(r.sink.reports) != 1 || r.sink.reports[0].Reason != EndStopped {
		t.Fatalf("expected a single stopped report, got %+v", r.sink.reports)
	}
	r.seeker.Observe()
	if r.seeker.EpisodeCounter() != 2 {
		t.Fatalf("expected counter 2 after next begin, got %d", r.seeker.EpisodeCounter())
	}
}

func TestParseActions(t *testing.T) {
	cases := []struct {
		in   []int
		want Actions
	}{
		{in: []int{1, 2}, want: Actions{Move: MoveForward, Turn: TurnLeft}},
		{in: []int{2, 1}, want: Actions{Move: MoveBackward, Turn: TurnRight}},
		{in: []int{7, -1}, want: Actions{}},
		{in: nil, want: Actions{}},
	}
	for _, tc := range cases {
		if got := ParseActions(tc.in); got != tc.want {
			t.Fatalf("ParseActions(%v)=%+v want %+v", tc.in, got, tc.want)
		}
	}
}
