// Package fsm is a small table-driven finite state machine.
//
// A Machine maps (state, event) to a Transition holding the target state, an
// optional guard and an optional after hook. Fire evaluates the guard,
// moves the subject, lets the caller persist it and then runs the hook. Any
// failure after the move puts the subject back in its original state.
package fsm

import (
	"context"

	"github.com/diewo77/go-membership/internal/apperr"
)

// Guard decides whether a transition may fire. When it refuses it returns a
// reason code that ends up in the GuardRejected error.
type Guard[T any] func(ctx context.Context, subject T) (ok bool, reason string)

// Hook runs after the subject has moved to the target state.
type Hook[T any] func(ctx context.Context, subject T) error

// Transition is one row of the table.
type Transition[S ~string, T any] struct {
	From  []S
	To    S
	Guard Guard[T]
	After Hook[T]
}

type entry[S ~string, T any] struct {
	to    S
	guard Guard[T]
	after Hook[T]
}

type key[S ~string, E ~string] struct {
	from  S
	event E
}

// Machine is immutable once built and safe for concurrent use.
type Machine[S ~string, E ~string, T any] struct {
	initial S
	get     func(T) S
	set     func(T, S)
	table   map[key[S, E]]entry[S, T]
	states  []S
	events  []E
}

// New creates a machine whose subjects expose their state through get/set.
func New[S ~string, E ~string, T any](initial S, get func(T) S, set func(T, S)) *Machine[S, E, T] {
	return &Machine[S, E, T]{
		initial: initial,
		get:     get,
		set:     set,
		table:   make(map[key[S, E]]entry[S, T]),
		states:  []S{initial},
	}
}

// On registers transitions for event. Registering the same (from, event)
// pair twice panics: the table must be unambiguous.
func (m *Machine[S, E, T]) On(event E, transitions ...Transition[S, T]) *Machine[S, E, T] {
	m.events = append(m.events, event)
	for _, tr := range transitions {
		m.addState(tr.To)
		for _, from := range tr.From {
			m.addState(from)
			k := key[S, E]{from: from, event: event}
			if _, dup := m.table[k]; dup {
				panic("fsm: duplicate transition " + string(event) + " from " + string(from))
			}
			m.table[k] = entry[S, T]{to: tr.To, guard: tr.Guard, after: tr.After}
		}
	}
	return m
}

func (m *Machine[S, E, T]) addState(s S) {
	for _, known := range m.states {
		if known == s {
			return
		}
	}
	m.states = append(m.states, s)
}

func (m *Machine[S, E, T]) Initial() S { return m.initial }

// States lists every state in registration order, initial first.
func (m *Machine[S, E, T]) States() []S { return append([]S(nil), m.states...) }

func (m *Machine[S, E, T]) Events() []E { return append([]E(nil), m.events...) }

// Target returns the state event leads to from from, ignoring guards.
func (m *Machine[S, E, T]) Target(from S, event E) (S, bool) {
	e, ok := m.table[key[S, E]{from: from, event: event}]
	return e.to, ok
}

// May reports whether event could fire for subject right now, guards included.
func (m *Machine[S, E, T]) May(ctx context.Context, subject T, event E) bool {
	e, ok := m.table[key[S, E]{from: m.get(subject), event: event}]
	if !ok {
		return false
	}
	if e.guard != nil {
		allowed, _ := e.guard(ctx, subject)
		return allowed
	}
	return true
}

// Permitted lists the events that may fire for subject, in registration order.
func (m *Machine[S, E, T]) Permitted(ctx context.Context, subject T) []E {
	var out []E
	for _, ev := range m.events {
		if m.May(ctx, subject, ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Fire moves subject along event. persist is called after the state has
// been set and before the after hook; it may be nil. On any error the
// subject keeps (or gets back) its original state.
func (m *Machine[S, E, T]) Fire(ctx context.Context, subject T, event E, persist func(context.Context, T) error) (S, error) {
	from := m.get(subject)
	e, ok := m.table[key[S, E]{from: from, event: event}]
	if !ok {
		return from, apperr.InvalidTransition(string(event), string(from))
	}
	if e.guard != nil {
		if allowed, reason := e.guard(ctx, subject); !allowed {
			return from, apperr.GuardRejected(string(event), string(from), reason)
		}
	}
	m.set(subject, e.to)
	if persist != nil {
		if err := persist(ctx, subject); err != nil {
			m.set(subject, from)
			return from, err
		}
	}
	if e.after != nil {
		if err := e.after(ctx, subject); err != nil {
			m.set(subject, from)
			return from, err
		}
	}
	return e.to, nil
}
