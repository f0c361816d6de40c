// Package ledger tracks per-episode one-shot reward triggers.
//
// A trigger fires at most once between two calls to Reset. Reward engines
// consult the ledger instead of keeping one boolean per reward, so every
// latch an engine owns can be enumerated and asserted on.
package ledger

import "sort"

type Trigger string

type Ledger struct {
	fired map[Trigger]bool
	order []Trigger
}

func New() *Ledger {
	return &Ledger{fired: make(map[Trigger]bool)}
}

// Fire marks trigger and reports whether this call was the first in the
// current episode. Callers apply the guarded reward only when Fire returns true.
func (l *Ledger) Fire(trigger Trigger) bool {
	if l.fired[trigger] {
		return false
	}
	l.fired[trigger] = true
	l.order = append(l.order, trigger)
	return true
}

// Fired reports whether trigger has fired since the last Reset.
func (l *Ledger) Fired(trigger Trigger) bool {
	return l.fired[trigger]
}

// Names lists the fired triggers sorted by name.
func (l *Ledger) Names() []string {
	out := make([]string, 0, len(l.order))
	for _, trigger := range l.order {
		out = append(out, string(trigger))
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) Reset() {
	clear(l.fired)
	l.order = l.order[:0]
}
