package learning

import (
	"testing"

	"hideseek/internal/agent"
	"hideseek/internal/geom"
)

type poseBody struct {
	position geom.Vec3
	yaw      float64
}

func (b *poseBody) Position() geom.Vec3 { return b.position }
func (b *poseBody) Rotation() geom.Quat { return geom.Yaw(b.yaw) }
func (b *poseBody) Forward() geom.Vec3  { return geom.Yaw(b.yaw).Rotate(geom.Forward) }
func (b *poseBody) Rotate(deg float64)  { b.yaw += deg }

func (b *poseBody) Translate(delta geom.Vec3) {
	b.position = b.position.Add(geom.Yaw(b.yaw).Rotate(delta))
}

func (b *poseBody) Reset(p geom.Vec3, q geom.Quat) {
	b.position, b.yaw = p, q.YawDegrees()
}

func TestRandomPolicyIsDeterministicPerSeed(t *testing.T) {
	a := NewRandomPolicy(7)
	b := NewRandomPolicy(7)
	for i := 0; i < 50; i++ {
		x, y := a.Act(nil), b.Act(nil)
		if x != y {
			t.Fatalf("step %d: seeded policies diverged: %+v vs %+v", i, x, y)
		}
		if x.Move < agent.MoveNone || x.Move > agent.MoveBackward || x.Turn < agent.TurnNone || x.Turn > agent.TurnLeft {
			t.Fatalf("step %d: out of range action %+v", i, x)
		}
	}
}

func TestChaseHeuristicSteering(t *testing.T) {
	body := &poseBody{}
	target := geom.V(0, 0, 5)
	h := ChaseHeuristic{Self: body, Target: func() (geom.Vec3, bool) { return target, true }}

	if got := h.Act(nil); got.Move != agent.MoveForward || got.Turn != agent.TurnNone {
		t.Fatalf("target ahead should move forward, got %+v", got)
	}
	target = geom.V(5, 0, 0)
	if got := h.Act(nil); got.Turn != agent.TurnRight {
		t.Fatalf("target on +X should turn right, got %+v", got)
	}
	target = geom.V(-5, 0, 0)
	if got := h.Act(nil); got.Turn != agent.TurnLeft {
		t.Fatalf("target on -X should turn left, got %+v", got)
	}

	flee := ChaseHeuristic{Self: body, Target: func() (geom.Vec3, bool) { return geom.V(0, 0, -5), true }, Flee: true}
	if got := flee.Act(nil); got.Move != agent.MoveForward {
		t.Fatalf("fleeing from a target behind should move forward, got %+v", got)
	}

	blind := ChaseHeuristic{Self: body, Target: func() (geom.Vec3, bool) { return geom.Vec3{}, false }}
	if got := blind.Act(nil); got.Turn != agent.TurnRight || got.Move != agent.MoveNone {
		t.Fatalf("without a target the heuristic sweeps, got %+v", got)
	}
}

func TestNewPolicy(t *testing.T) {
	for _, kind := range []string{"", "random", "hold", "heuristic"} {
		if _, err := New(kind, 1, &poseBody{}, nil, false); err != nil {
			t.Fatalf("kind %q: %v", kind, err)
		}
	}
	if _, err := New("neural", 1, nil, nil, false); err == nil {
		t.Fatal("expected unsupported policy error")
	}
}
