package orchestrator

import (
	"time"

	"hideseek/internal/agent"
	"hideseek/internal/config"
	"hideseek/internal/geom"
	"hideseek/internal/perception"
	"hideseek/internal/presentation"
)

type EnvironmentConfig struct {
	Tuning       config.Tuning
	HiderBody    agent.Body
	SeekerBody   agent.Body
	HiderSensor  perception.RaySensor
	SeekerSensor perception.RaySensor
	World        perception.World
	Indicator    presentation.Indicator
	Sink         agent.EpisodeSink
}

// Environment is the root that owns state shared across episodes: the
// simulation clock and the previous hiding spot. It builds both reward
// engines and the orchestrator and wires their event channels.
type Environment struct {
	clock        *SimClock
	spot         *agent.HidingSpot
	hider        *agent.Hider
	seeker       *agent.Seeker
	orchestrator *Orchestrator
}

func NewEnvironment(cfg EnvironmentConfig) *Environment {
	clock := &SimClock{}
	spot := agent.NewHidingSpot(geom.Zero)
	seeker := agent.NewSeeker(agent.SeekerConfig{
		Tuning: cfg.Tuning.Seeker,
		Motion: cfg.Tuning.Motion,
		Body:   cfg.SeekerBody,
		Sensor: cfg.SeekerSensor,
		Sink:   cfg.Sink,
	})
	hider := agent.NewHider(agent.HiderConfig{
		Tuning:   cfg.Tuning.Hider,
		Motion:   cfg.Tuning.Motion,
		Body:     cfg.HiderBody,
		Sensor:   cfg.HiderSensor,
		World:    cfg.World,
		Opponent: cfg.SeekerBody,
		Spot:     spot,
		Clock:    clock,
		Sink:     cfg.Sink,
	})
	orch := New(Config{
		Tuning:    cfg.Tuning.Phase,
		Hider:     hider,
		Seeker:    seeker,
		Clock:     clock,
		Indicator: cfg.Indicator,
	})
	return &Environment{
		clock:        clock,
		spot:         spot,
		hider:        hider,
		seeker:       seeker,
		orchestrator: orch,
	}
}

func (e *Environment) Clock() *SimClock            { return e.clock }
func (e *Environment) Hider() *agent.Hider         { return e.hider }
func (e *Environment) Seeker() *agent.Seeker       { return e.seeker }
func (e *Environment) Orchestrator() *Orchestrator { return e.orchestrator }

// FixedUpdate applies both agents' latched collisions, hider first.
func (e *Environment) FixedUpdate() {
	e.hider.FixedUpdate()
	e.seeker.FixedUpdate()
}

// EndFrame advances phase time by dt and then applies latched collisions,
// so a capture is judged against phase time that includes its own frame.
func (e *Environment) EndFrame(dt time.Duration) {
	e.orchestrator.Update(dt)
	e.FixedUpdate()
}
