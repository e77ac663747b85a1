// Package onboarding models the guided setup flow as an explicit finite
// state machine: an ordered list of named steps with a transition table
// over the actions Advance, Retreat and Skip. Route paths are a view over
// this state, never the state itself, so the displayed step and the
// navigable URL cannot diverge.
package onboarding

import (
	"context"

	"go.uber.org/zap"
)

// Step is one stop in the flow. Skippable steps may be jumped over; the
// final step never is, because leaving it is what completes the flow.
type Step struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Skippable bool   `json:"skippable"`
}

// Action is an input to the transition table.
type Action int

const (
	Advance Action = iota // move forward; on the last step, complete and exit
	Retreat               // move backward; no-op on the first step
	Skip                  // jump the current skippable step; never exits
)

// Transition is the outcome of applying an action.
type Transition struct {
	Index     int    // resulting step index; -1 after exiting the flow
	Path      string // route to present for the resulting state
	Completes bool   // whether this transition triggers the completion side effect
}

// Exited reports whether the transition left the flow.
func (t Transition) Exited() bool { return t.Index < 0 }

// Flow is an immutable step sequence plus the exit route shown once the
// flow completes.
type Flow struct {
	steps    []Step
	exitPath string
}

// NewFlow builds a flow. At least one step is required.
func NewFlow(exitPath string, steps ...Step) *Flow {
	if len(steps) == 0 {
		panic("onboarding flow needs at least one step")
	}
	return &Flow{steps: steps, exitPath: exitPath}
}

// DefaultFlow is the product's four-step setup sequence.
func DefaultFlow() *Flow {
	return NewFlow("/dashboard",
		Step{Name: "welcome", Path: "/onboarding/welcome", Skippable: true},
		Step{Name: "property", Path: "/onboarding/property"},
		Step{Name: "ai-agent", Path: "/onboarding/ai-agent"},
		Step{Name: "features", Path: "/onboarding/features", Skippable: true},
	)
}

// Steps returns a copy of the step sequence.
func (f *Flow) Steps() []Step {
	out := make([]Step, len(f.steps))
	copy(out, f.steps)
	return out
}

// Len is the number of steps.
func (f *Flow) Len() int { return len(f.steps) }

// ExitPath is the route presented after completion.
func (f *Flow) ExitPath() string { return f.exitPath }

// IndexByPath resolves a route path to its step index, for callers that
// surface the state as a URL. Unknown paths resolve to the first step.
func (f *Flow) IndexByPath(path string) int {
	for i, s := range f.steps {
		if s.Path == path {
			return i
		}
	}
	return 0
}

// Apply runs the transition table. Out-of-range current indexes clamp into
// the sequence first, so a stale caller can never escape the flow
// sideways. Invalid actions are no-ops that stay on the current step.
func (f *Flow) Apply(current int, a Action) Transition {
	if current < 0 {
		current = 0
	}
	if current >= len(f.steps) {
		current = len(f.steps) - 1
	}
	last := len(f.steps) - 1

	switch a {
	case Advance:
		if current == last {
			return Transition{Index: -1, Path: f.exitPath, Completes: true}
		}
		return f.at(current + 1)
	case Retreat:
		if current == 0 {
			return f.at(0)
		}
		return f.at(current - 1)
	case Skip:
		if f.steps[current].Skippable && current != last {
			return f.at(current + 1)
		}
		return f.at(current)
	default:
		return f.at(current)
	}
}

func (f *Flow) at(i int) Transition {
	return Transition{Index: i, Path: f.steps[i].Path}
}

// CompleteFunc is the completion side effect fired when the final Advance
// exits the flow.
type CompleteFunc func(ctx context.Context) error

// Navigator binds a Flow to its completion side effect. The side effect is
// best-effort and non-blocking by contract: its failure is logged and the
// exit transition proceeds anyway, so a flaky backend can never trap the
// user inside the flow. Do not tighten this into a blocking dependency.
type Navigator struct {
	flow     *Flow
	complete CompleteFunc
	log      *zap.Logger
}

// NewNavigator wires a flow to its completion callback.
func NewNavigator(flow *Flow, complete CompleteFunc, log *zap.Logger) *Navigator {
	return &Navigator{flow: flow, complete: complete, log: log}
}

// Do applies an action and fires the completion side effect when the
// transition calls for it.
func (n *Navigator) Do(ctx context.Context, current int, a Action) Transition {
	t := n.flow.Apply(current, a)
	if t.Completes && n.complete != nil {
		if err := n.complete(ctx); err != nil && n.log != nil {
			n.log.Warn("onboarding completion side effect failed, navigation continues",
				zap.Error(err))
		}
	}
	return t
}
