// Package statemachine evaluates transitions of a finite state machine whose
// current state lives elsewhere, typically in a database row.
//
// A Machine is an immutable-after-setup transition table. Fire takes the
// current state explicitly, runs the transition's guards and actions against
// the caller's data and returns the target state, so one Machine serves every
// entity concurrently.
//
//	m := statemachine.New[State, Event, *Account]().
//		Permit(Disabled, Begin, Pending, statemachine.WithGuard(hasPassword)).
//		Reject(Enabled, Begin, ErrAlreadyEnabled)
//
//	next, err := m.Fire(ctx, current, Begin, account)
package statemachine

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoTransition is matched by every *NoTransitionError.
	ErrNoTransition = errors.New("statemachine: no transition available")
	// ErrActionFailed wraps errors returned by actions.
	ErrActionFailed = errors.New("statemachine: action failed")
)

// Guard vetoes a transition by returning a non-nil error, which Fire returns unchanged.
type Guard[D any] func(ctx context.Context, data D) error

// Action runs after all guards pass and before the new state is reported.
type Action[D any] func(ctx context.Context, data D) error

// NoTransitionError reports an event that has no transition from a state.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from state %q on event %q", e.State, e.Event)
}

// Is makes errors.Is(err, ErrNoTransition) hold.
func (e *NoTransitionError) Is(target error) bool { return target == ErrNoTransition }

type transition[S comparable, D any] struct {
	to      S
	guards  []Guard[D]
	actions []Action[D]
	reject  error
}

// Machine maps (state, event) pairs to transitions.
type Machine[S, E comparable, D any] struct {
	table map[S]map[E]transition[S, D]
}

// New returns an empty machine.
func New[S, E comparable, D any]() *Machine[S, E, D] {
	return &Machine[S, E, D]{table: make(map[S]map[E]transition[S, D])}
}

// TransitionOption configures a permitted transition.
type TransitionOption[D any] func(*transitionOptions[D])

type transitionOptions[D any] struct {
	guards  []Guard[D]
	actions []Action[D]
}

// WithGuard adds a guard. Guards run in registration order.
func WithGuard[D any](g Guard[D]) TransitionOption[D] {
	return func(o *transitionOptions[D]) {
		if g != nil {
			o.guards = append(o.guards, g)
		}
	}
}

// WithAction adds an action. Actions run in registration order; the first
// failure stops the transition.
func WithAction[D any](a Action[D]) TransitionOption[D] {
	return func(o *transitionOptions[D]) {
		if a != nil {
			o.actions = append(o.actions, a)
		}
	}
}

// Permit registers from --event--> to, replacing any previous entry.
func (m *Machine[S, E, D]) Permit(from S, event E, to S, opts ...TransitionOption[D]) *Machine[S, E, D] {
	var o transitionOptions[D]
	for _, opt := range opts {
		opt(&o)
	}
	m.set(from, event, transition[S, D]{to: to, guards: o.guards, actions: o.actions})
	return m
}

// Reject makes event in state from fail with err instead of the generic
// NoTransitionError.
func (m *Machine[S, E, D]) Reject(from S, event E, err error) *Machine[S, E, D] {
	m.set(from, event, transition[S, D]{reject: err})
	return m
}

func (m *Machine[S, E, D]) set(from S, event E, t transition[S, D]) {
	events, ok := m.table[from]
	if !ok {
		events = make(map[E]transition[S, D])
		m.table[from] = events
	}
	events[event] = t
}

// CanFire reports whether a transition is permitted, without running guards.
func (m *Machine[S, E, D]) CanFire(from S, event E) bool {
	t, ok := m.table[from][event]
	return ok && t.reject == nil
}

// Fire runs the transition for event from state from and returns the target
// state. On any error the returned state is from.
func (m *Machine[S, E, D]) Fire(ctx context.Context, from S, event E, data D) (S, error) {
	t, ok := m.table[from][event]
	if !ok {
		return from, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	if t.reject != nil {
		return from, t.reject
	}

	for _, g := range t.guards {
		if err := g(ctx, data); err != nil {
			return from, err
		}
	}
	for _, a := range t.actions {
		if err := a(ctx, data); err != nil {
			return from, errors.Join(ErrActionFailed, err)
		}
	}
	return t.to, nil
}
