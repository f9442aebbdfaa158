// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shedsolar/heatercontrol/pkg/scheduler"
)

type testState int

const (
	stOff testState = iota
	stOn
	stCooling
)

type testEvent int

const (
	evTurnOn testEvent = iota
	evTurnOff
	evCooled
)

func newTestMachine(t *testing.T, opts ...Option[testState, testEvent]) *Machine[testState, testEvent] {
	t.Helper()

	base := []Option[testState, testEvent]{
		WithName[testState, testEvent]("test"),
		WithInitialState[testState, testEvent](stOff),
		WithState[testState, testEvent](StateDef[testState]{Name: stOff}),
		WithState[testState, testEvent](StateDef[testState]{Name: stOn}),
		WithState[testState, testEvent](StateDef[testState]{Name: stCooling}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{From: stOff, To: stOn, Event: evTurnOn}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{From: stOn, To: stCooling, Event: evTurnOff}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{From: stCooling, To: stOff, Event: evCooled}),
	}
	cfg := NewConfig(append(base, opts...)...)

	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m
}

func TestFireTransitionsState(t *testing.T) {
	m := newTestMachine(t)

	if got := m.CurrentState(); got != stOff {
		t.Fatalf("initial state = %v, want %v", got, stOff)
	}

	if err := m.Fire(context.Background(), evTurnOn); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if got := m.CurrentState(); got != stOn {
		t.Fatalf("state after TurnOn = %v, want %v", got, stOn)
	}
}

func TestFireDiscardsUnknownEvent(t *testing.T) {
	m := newTestMachine(t)

	if err := m.Fire(context.Background(), evCooled); err != nil {
		t.Fatalf("Fire should discard silently, got error: %v", err)
	}
	if got := m.CurrentState(); got != stOff {
		t.Fatalf("state changed on discarded event: %v", got)
	}
}

func TestEntryExitActionsRun(t *testing.T) {
	var entered, exited atomic.Int32

	cfg := NewConfig[testState, testEvent](
		WithName[testState, testEvent]("actions"),
		WithInitialState[testState, testEvent](stOff),
		WithState[testState, testEvent](StateDef[testState]{
			Name:   stOff,
			OnExit: func(ctx context.Context) error { exited.Add(1); return nil },
		}),
		WithState[testState, testEvent](StateDef[testState]{
			Name:    stOn,
			OnEntry: func(ctx context.Context) error { entered.Add(1); return nil },
		}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{From: stOff, To: stOn, Event: evTurnOn}),
	)
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Fire(context.Background(), evTurnOn); err != nil {
		t.Fatalf("Fire: %v", err)
	}

	if exited.Load() != 1 || entered.Load() != 1 {
		t.Fatalf("entered=%d exited=%d, want 1,1", entered.Load(), exited.Load())
	}
}

func TestGuardedTransitionRespectsGuard(t *testing.T) {
	allow := false

	cfg := NewConfig[testState, testEvent](
		WithName[testState, testEvent]("guarded"),
		WithInitialState[testState, testEvent](stOff),
		WithState[testState, testEvent](StateDef[testState]{Name: stOff}),
		WithState[testState, testEvent](StateDef[testState]{Name: stOn}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{
			From: stOff, To: stOn, Event: evTurnOn,
			Guard: func(ctx context.Context) bool { return allow },
		}),
	)
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.Fire(context.Background(), evTurnOn); err == nil {
		t.Fatal("expected guard to reject transition")
	}
	if got := m.CurrentState(); got != stOff {
		t.Fatalf("state changed despite failed guard: %v", got)
	}

	allow = true
	if err := m.Fire(context.Background(), evTurnOn); err != nil {
		t.Fatalf("Fire after guard opened: %v", err)
	}
	if got := m.CurrentState(); got != stOn {
		t.Fatalf("state = %v, want %v", got, stOn)
	}
}

func TestScheduleEventCanceledByStateExit(t *testing.T) {
	sched, err := scheduler.New(scheduler.NewConfig(scheduler.WithWorkers(2)))
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Close()

	m := newTestMachine(t, WithScheduler[testState, testEvent](sched))

	if err := m.Fire(context.Background(), evTurnOn); err != nil {
		t.Fatalf("Fire TurnOn: %v", err)
	}

	if _, err := m.ScheduleEvent(context.Background(), evTurnOff, 30*time.Millisecond); err != nil {
		t.Fatalf("ScheduleEvent: %v", err)
	}

	// Leave stOn immediately via a direct, unscheduled TurnOff before the
	// scheduled one fires; the scheduled TurnOff must not then re-fire once
	// the machine has moved past stOn into stCooling.
	if err := m.Fire(context.Background(), evTurnOff); err != nil {
		t.Fatalf("Fire TurnOff: %v", err)
	}
	if err := m.Fire(context.Background(), evCooled); err != nil {
		t.Fatalf("Fire Cooled: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if got := m.CurrentState(); got != stOff {
		t.Fatalf("state = %v, want %v (cancelled scheduled event must not fire)", got, stOff)
	}
}

func TestValidateRejectsUnreachableState(t *testing.T) {
	cfg := NewConfig[testState, testEvent](
		WithName[testState, testEvent]("bad"),
		WithInitialState[testState, testEvent](stOff),
		WithState[testState, testEvent](StateDef[testState]{Name: stOff}),
		WithState[testState, testEvent](StateDef[testState]{Name: stOn}),
	)
	if _, err := New(cfg); err == nil {
		t.Fatal("expected unreachable-state validation error")
	}
}

func TestValidateRejectsDuplicateTransition(t *testing.T) {
	cfg := NewConfig[testState, testEvent](
		WithName[testState, testEvent]("dup"),
		WithInitialState[testState, testEvent](stOff),
		WithState[testState, testEvent](StateDef[testState]{Name: stOff}),
		WithState[testState, testEvent](StateDef[testState]{Name: stOn}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{From: stOff, To: stOn, Event: evTurnOn}),
		WithTransition[testState, testEvent](TransitionDef[testState, testEvent]{From: stOff, To: stOn, Event: evTurnOn}),
	)
	if _, err := New(cfg); err == nil {
		t.Fatal("expected duplicate-transition validation error")
	}
}
