// Package presentation drives the visual capture feedback shown on the arena
// ground.
package presentation

import (
	"fmt"
	"io"
	"sync"

	"github.com/ttacon/chalk"
)

type State string

const (
	StateDefault State = "default"
	StateWin     State = "win"
)

// ForEpisode selects the indicator for a capture in the given seeker
// episode: even episodes show the win indicator, odd ones the default.
func ForEpisode(episode int) State {
	if episode%2 == 0 {
		return StateWin
	}
	return StateDefault
}

type Indicator interface {
	Show(state State)
}

type Nop struct{}

func (Nop) Show(State) {}

// Recorder keeps every shown state, mostly for tests and traces.
type Recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *Recorder) Show(state State) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

func (r *Recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *Recorder) Last() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return StateDefault
	}
	return r.states[len(r.states)-1]
}

// Terminal writes a coloured ground marker line per capture.
type Terminal struct {
	w io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Show(state State) {
	switch state {
	case StateWin:
		fmt.Fprintln(t.w, chalk.Green.Color("ground: win"))
	default:
		fmt.Fprintln(t.w, chalk.White.Color("ground: default"))
	}
}

// Multi fans a state out to several indicators.
type Multi []Indicator

func (m Multi) Show(state State) {
	for _, indicator := range m {
		indicator.Show(state)
	}
}
