package scape

import (
	"context"
	"fmt"
	"time"

	"hideseek/internal/agent"
	"hideseek/internal/arena"
	"hideseek/internal/config"
	"hideseek/internal/geom"
	"hideseek/internal/learning"
	"hideseek/internal/orchestrator"
	"hideseek/internal/perception"
	"hideseek/internal/presentation"
)

const (
	bodyRadius          = 0.25
	defaultSensorRays   = 7
	defaultSensorSpread = 90.0
	defaultSensorLength = 10.0
)

// Bindings exposes the live environment to policy factories so heuristic
// policies can steer the bodies they control.
type Bindings struct {
	HiderBody  agent.Body
	SeekerBody agent.Body
	Hider      *agent.Hider
	Seeker     *agent.Seeker
}

// PolicyAgent supplies a policy for each role.
type PolicyAgent interface {
	Agent
	Policies(b Bindings) (hider, seeker learning.Policy, err error)
}

// NamedPolicies builds built-in policies by kind: random, hold or heuristic.
type NamedPolicies struct {
	Name   string
	Hider  string
	Seeker string
	Seed   int64
}

func (p NamedPolicies) ID() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("%s-vs-%s", kindOrDefault(p.Hider), kindOrDefault(p.Seeker))
}

func (p NamedPolicies) Policies(b Bindings) (learning.Policy, learning.Policy, error) {
	seekerBody := b.SeekerBody
	hider, err := learning.New(p.Hider, p.Seed, b.HiderBody, func() (geom.Vec3, bool) {
		return seekerBody.Position(), true
	}, true)
	if err != nil {
		return nil, nil, fmt.Errorf("hider policy: %w", err)
	}
	seeker, err := learning.New(p.Seeker, p.Seed+1, b.SeekerBody, func() (geom.Vec3, bool) {
		if !b.Seeker.Sighted() {
			return geom.Vec3{}, false
		}
		return b.Seeker.OpponentPosition(), true
	}, false)
	if err != nil {
		return nil, nil, fmt.Errorf("seeker policy: %w", err)
	}
	return hider, seeker, nil
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return "random"
	}
	return kind
}

// HideSeekScape runs both reward engines and the phase machine in the
// reference arena for a fixed amount of simulated time.
type HideSeekScape struct {
	Tuning       config.Tuning
	Layout       arena.Layout
	Duration     time.Duration
	SensorRays   int
	SensorSpread float64
	SensorLength float64
	Indicator    presentation.Indicator
	// Sink, when set, also receives every ended episode.
	Sink agent.EpisodeSink
}

// Result is the typed outcome of one scape run.
type Result struct {
	Frames        int
	SimTime       time.Duration
	Captures      int
	Timeouts      int
	SeekingPhases int
	HiderReward   float64
	SeekerReward  float64
	Episodes      []agent.EpisodeReport
	Indicator     []presentation.State
}

// CaptureRate is captures per seeking phase begun.
func (r Result) CaptureRate() float64 {
	if r.SeekingPhases == 0 {
		return 0
	}
	return float64(r.Captures) / float64(r.SeekingPhases)
}

// EpisodeCount counts ended episodes of one role.
func (r Result) EpisodeCount(role agent.Role) int {
	n := 0
	for _, e := range r.Episodes {
		if e.Role == role {
			n++
		}
	}
	return n
}

func (HideSeekScape) Name() string {
	return "hide-and-seek"
}

func (s HideSeekScape) Evaluate(ctx context.Context, a Agent) (Fitness, Trace, error) {
	result, err := s.Run(ctx, a)
	if err != nil {
		return 0, nil, err
	}
	return Fitness(result.CaptureRate()), result.Trace(), nil
}

// Trace flattens the result for generic scape consumers.
func (r Result) Trace() Trace {
	return Trace{
		"frames":          r.Frames,
		"sim_seconds":     r.SimTime.Seconds(),
		"captures":        r.Captures,
		"timeouts":        r.Timeouts,
		"seeking_phases":  r.SeekingPhases,
		"hider_reward":    r.HiderReward,
		"seeker_reward":   r.SeekerReward,
		"hider_episodes":  r.EpisodeCount(agent.RoleHider),
		"seeker_episodes": r.EpisodeCount(agent.RoleSeeker),
		"capture_rate":    r.CaptureRate(),
	}
}

// Run simulates the configured duration. Every episode still open when
// time runs out is ended with reason stopped.
func (s HideSeekScape) Run(ctx context.Context, a Agent) (Result, error) {
	pa, ok := a.(PolicyAgent)
	if !ok {
		return Result{}, fmt.Errorf("agent %s does not supply hide-and-seek policies", a.ID())
	}
	tuning := s.Tuning
	if tuning == (config.Tuning{}) {
		tuning = config.Default()
	}
	if err := tuning.Validate(); err != nil {
		return Result{}, err
	}
	if s.Duration <= 0 {
		return Result{}, fmt.Errorf("scape duration must be positive, got %s", s.Duration)
	}
	layout := s.Layout
	if len(layout.Boxes) == 0 {
		layout = arena.DefaultLayout()
	}
	world, err := arena.New(layout)
	if err != nil {
		return Result{}, fmt.Errorf("build arena: %w", err)
	}

	rays, spread, length := s.SensorRays, s.SensorSpread, s.SensorLength
	if rays <= 0 {
		rays = defaultSensorRays
	}
	if spread <= 0 {
		spread = defaultSensorSpread
	}
	if length <= 0 {
		length = defaultSensorLength
	}
	hiderBody := world.AddBody(perception.TagHider, bodyRadius, tuning.Motion.HiderStart)
	seekerBody := world.AddBody(perception.TagSeeker, bodyRadius, tuning.Motion.SeekerStart)
	hiderSensor := world.NewSensor(hiderBody, rays, spread, length)
	seekerSensor := world.NewSensor(seekerBody, rays, spread, length)

	var result Result
	sink := agent.EpisodeSinkFunc(func(report agent.EpisodeReport) {
		result.Episodes = append(result.Episodes, report)
		switch report.Role {
		case agent.RoleHider:
			result.HiderReward += report.Reward
		case agent.RoleSeeker:
			result.SeekerReward += report.Reward
		}
		if s.Sink != nil {
			s.Sink.EpisodeEnded(report)
		}
	})
	recorder := &presentation.Recorder{}
	indicator := presentation.Indicator(recorder)
	if s.Indicator != nil {
		indicator = presentation.Multi{recorder, s.Indicator}
	}

	env := orchestrator.NewEnvironment(orchestrator.EnvironmentConfig{
		Tuning:       tuning,
		HiderBody:    hiderBody,
		SeekerBody:   seekerBody,
		HiderSensor:  hiderSensor,
		SeekerSensor: seekerSensor,
		World:        world,
		Indicator:    indicator,
		Sink:         sink,
	})
	hider, seeker, orch := env.Hider(), env.Seeker(), env.Orchestrator()
	hiderBody.OnCollisionEnter(hider.OnCollisionEnter)
	seekerBody.OnCollisionEnter(seeker.OnCollisionEnter)

	hiderPolicy, seekerPolicy, err := pa.Policies(Bindings{
		HiderBody:  hiderBody,
		SeekerBody: seekerBody,
		Hider:      hider,
		Seeker:     seeker,
	})
	if err != nil {
		return Result{}, err
	}

	dt := tuning.Motion.FixedDelta
	frames := int(s.Duration / dt)
	orch.Start()
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		env.Clock().Advance(dt)
		hiderSensor.Update()
		seekerSensor.Update()

		hider.Step(hiderPolicy.Act(hider.Observe()), dt)
		seeker.Step(seekerPolicy.Act(seeker.Observe()), dt)

		world.ResolveCollisions()
		env.EndFrame(dt)
		result.Frames++
	}
	hider.EndEpisode(agent.EndStopped)
	seeker.EndEpisode(agent.EndStopped)

	result.SimTime = env.Clock().Now()
	result.Captures = orch.Captures()
	result.Timeouts = orch.Timeouts()
	result.SeekingPhases = orch.SeekingPhases()
	result.Indicator = recorder.States()
	return result, nil
}
