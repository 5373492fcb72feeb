package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-membership/internal/apperr"
)

type light struct {
	state  string
	locked bool
	log    []string
}

func newLightMachine() *Machine[string, string, *light] {
	m := New[string, string, *light]("off",
		func(l *light) string { return l.state },
		func(l *light, s string) { l.state = s })
	m.On("switch_on", Transition[string, *light]{
		From: []string{"off"},
		To:   "on",
		Guard: func(_ context.Context, l *light) (bool, string) {
			if l.locked {
				return false, "locked"
			}
			return true, ""
		},
		After: func(_ context.Context, l *light) error {
			l.log = append(l.log, "on")
			return nil
		},
	})
	m.On("switch_off", Transition[string, *light]{From: []string{"on", "broken"}, To: "off"})
	m.On("break", Transition[string, *light]{
		From:  []string{"on"},
		To:    "broken",
		After: func(context.Context, *light) error { return errors.New("bulb exploded") },
	})
	return m
}

func TestFire(t *testing.T) {
	m := newLightMachine()
	l := &light{state: "off"}

	to, err := m.Fire(context.Background(), l, "switch_on", nil)
	require.NoError(t, err)
	assert.Equal(t, "on", to)
	assert.Equal(t, "on", l.state)
	assert.Equal(t, []string{"on"}, l.log)
}

func TestFire_InvalidTransition(t *testing.T) {
	m := newLightMachine()
	l := &light{state: "off"}

	_, err := m.Fire(context.Background(), l, "switch_off", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	assert.Equal(t, "off", l.state)
}

func TestFire_GuardRejected(t *testing.T) {
	m := newLightMachine()
	l := &light{state: "off", locked: true}

	_, err := m.Fire(context.Background(), l, "switch_on", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrGuardRejected))
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "locked", ae.Metadata["reason"])
	assert.Equal(t, "off", l.state)
	assert.Empty(t, l.log)
}

func TestFire_PersistAndHookFailuresRestoreState(t *testing.T) {
	m := newLightMachine()

	l := &light{state: "off"}
	persistErr := errors.New("db down")
	_, err := m.Fire(context.Background(), l, "switch_on", func(context.Context, *light) error { return persistErr })
	assert.ErrorIs(t, err, persistErr)
	assert.Equal(t, "off", l.state)
	assert.Empty(t, l.log, "after hook must not run when persist fails")

	l = &light{state: "on"}
	var persisted string
	_, err = m.Fire(context.Background(), l, "break", func(_ context.Context, l *light) error {
		persisted = l.state
		return nil
	})
	assert.EqualError(t, err, "bulb exploded")
	assert.Equal(t, "broken", persisted, "persist sees the target state")
	assert.Equal(t, "on", l.state)
}

func TestIntrospection(t *testing.T) {
	m := newLightMachine()
	assert.Equal(t, "off", m.Initial())
	assert.Equal(t, []string{"off", "on", "broken"}, m.States())
	assert.Equal(t, []string{"switch_on", "switch_off", "break"}, m.Events())

	to, ok := m.Target("broken", "switch_off")
	assert.True(t, ok)
	assert.Equal(t, "off", to)
	_, ok = m.Target("off", "break")
	assert.False(t, ok)

	assert.Equal(t, []string{"switch_off", "break"}, m.Permitted(context.Background(), &light{state: "on"}))
	assert.Empty(t, m.Permitted(context.Background(), &light{state: "off", locked: true}))
}

func TestOn_DuplicatePanics(t *testing.T) {
	m := newLightMachine()
	assert.Panics(t, func() {
		m.On("switch_on", Transition[string, *light]{From: []string{"off"}, To: "on"})
	})
}
