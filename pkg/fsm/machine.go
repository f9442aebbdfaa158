// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	schedpkg "github.com/shedsolar/heatercontrol/pkg/scheduler"
)

// Machine is a running instance of a Config. It is safe for concurrent use;
// all Fire calls on one Machine are serialized by seq, satisfying the
// "events delivered serially within one FSM" ordering requirement (§5).
//
// seq and mu are deliberately two different locks. seq spans an entire Fire
// call, including the synchronous entry/exit/transition actions the
// underlying stateless.StateMachine invokes before FireCtx returns — those
// actions routinely call ScheduleEvent (most OnEntry actions in
// service/heatermgr do). ScheduleEvent must therefore never try to reacquire seq: it only
// takes the short-lived mu, which guards bookkeeping (started, scheduled)
// and is never held across a call into m.sm. Using one lock for both would
// deadlock the moment an entry action scheduled an event.
type Machine[S comparable, E comparable] struct {
	cfg    *Config[S, E]
	sm     *stateless.StateMachine
	tracer trace.Tracer

	seq sync.Mutex

	mu        sync.Mutex
	started   bool
	scheduled map[S][]*schedpkg.Handle
}

// New constructs a Machine from cfg. Construction fails fatally (returning an
// error rather than aborting the process) if cfg.Validate reports an
// unreachable state, a duplicate transition, or a missing declaration.
func New[S comparable, E comparable](cfg *Config[S, E]) (*Machine[S, E], error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Machine[S, E]{
		cfg:       cfg,
		scheduled: make(map[S][]*schedpkg.Handle, len(cfg.States)),
	}

	if cfg.EnableTracing {
		m.tracer = otel.Tracer("fsm")
	}

	m.sm = stateless.NewStateMachine(any(cfg.InitialState))

	for _, s := range cfg.States {
		m.configureState(s)
	}
	for _, t := range cfg.Transitions {
		m.configureTransition(t)
	}

	return m, nil
}

func (m *Machine[S, E]) configureState(s StateDef[S]) {
	sc := m.sm.Configure(any(s.Name))

	if s.OnEntry != nil {
		entry := s.OnEntry
		sc.OnEntry(func(ctx context.Context, _ ...any) error {
			return entry(ctx)
		})
	}

	// Every state's exit cancels whatever it scheduled, regardless of
	// whether the state declares its own exit action (spec §4.1: "entering
	// any state cancels timeouts scheduled by its predecessor"). Wiring
	// this into OnExit, rather than after FireCtx returns in Fire, means
	// cancellation always targets the state stateless says is actually
	// being left, never a value cached by the wrapper.
	name := s.Name
	exit := s.OnExit
	sc.OnExit(func(ctx context.Context, _ ...any) error {
		m.cancelScheduled(name)
		if exit != nil {
			return exit(ctx)
		}
		return nil
	})
}

func (m *Machine[S, E]) configureTransition(t TransitionDef[S, E]) {
	sc := m.sm.Configure(any(t.From))

	if t.Guard != nil {
		guard := t.Guard
		to := t.To
		sc.PermitDynamic(any(t.Event), func(ctx context.Context, _ ...any) (any, error) {
			if guard(ctx) {
				return any(to), nil
			}
			return nil, fmt.Errorf("%w: guard rejected %v -> %v", ErrTransitionFailed, t.From, t.To)
		})
	} else {
		sc.Permit(any(t.Event), any(t.To))
	}

	if t.Action != nil {
		action := t.Action
		from, to, event := t.From, t.To, t.Event
		toCfg := m.sm.Configure(any(to))
		toCfg.OnEntryFrom(any(event), func(ctx context.Context, _ ...any) error {
			return action(ctx, from, to)
		})
	}
}

// Start places the machine in its initial state and, if a seed event was
// configured, delivers it exactly once.
func (m *Machine[S, E]) Start(ctx context.Context) error {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrMachineAlreadyStarted
	}
	m.started = true
	hasSeed := m.cfg.HasSeedEvent
	seed := m.cfg.SeedEvent
	m.mu.Unlock()

	if hasSeed {
		return m.fireLocked(ctx, seed)
	}
	return nil
}

// CurrentState returns the machine's current state.
func (m *Machine[S, E]) CurrentState() S {
	raw, err := m.sm.State(context.Background())
	if err != nil {
		var zero S
		return zero
	}
	return raw.(S)
}

// Fire delivers event e to the machine. If no transition exists for
// (current, e) the event is discarded silently, per the engine's contract,
// and logged at debug level. Runtime errors from guards or actions are
// logged and contained: the machine remains in whatever state it reached.
//
// Fire calls are serialized against one another (and against Start) by seq,
// but a Fire triggered re-entrantly from within an action or entry/exit
// callback of an in-flight Fire — e.g. "events originating within an action
// see the post-transition state; action A on entry to S' may call on_event
// to trigger another transition immediately" (§4.1) — would deadlock on
// seq. Controllers in this module never do that (they schedule follow-up
// events instead), so this is a documented constraint, not a workaround.
func (m *Machine[S, E]) Fire(ctx context.Context, e E) error {
	m.seq.Lock()
	defer m.seq.Unlock()
	return m.fireLocked(ctx, e)
}

// fireLocked is Fire's body, callable from Start without re-acquiring seq.
func (m *Machine[S, E]) fireLocked(ctx context.Context, e E) error {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()
	if !started {
		return ErrMachineNotStarted
	}

	if listener := m.cfg.OnEvent; listener != nil {
		listener(ctx, e)
	}

	ok, _ := m.sm.CanFire(any(e))
	if !ok {
		slog.DebugContext(ctx, "fsm: event has no transition, discarding",
			"machine", m.cfg.Name, "state", fmt.Sprintf("%v", m.CurrentState()), "event", fmt.Sprintf("%v", e))
		return nil
	}

	previous := m.CurrentState()
	var span trace.Span
	if m.tracer != nil {
		ctx, span = m.tracer.Start(ctx, "fsm.Fire", trace.WithAttributes(
			attribute.String("fsm.name", m.cfg.Name),
			attribute.String("fsm.state.from", fmt.Sprintf("%v", previous)),
			attribute.String("fsm.event", fmt.Sprintf("%v", e)),
		))
		defer span.End()
	}

	if err := m.sm.FireCtx(ctx, any(e)); err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrTransitionFailed, err)
		if span != nil {
			span.RecordError(wrapped)
		}
		slog.ErrorContext(ctx, "fsm: transition action failed",
			"machine", m.cfg.Name, "state", fmt.Sprintf("%v", previous), "event", fmt.Sprintf("%v", e), "error", err)
		return wrapped
	}

	next := m.CurrentState()
	if span != nil {
		span.SetAttributes(attribute.String("fsm.state.to", fmt.Sprintf("%v", next)))
	}
	if listener := m.cfg.OnStateChange; listener != nil {
		listener(ctx, previous, next, e)
	}

	return nil
}

// cancelScheduled cancels and forgets every handle scheduled while s was
// current.
func (m *Machine[S, E]) cancelScheduled(s S) {
	m.mu.Lock()
	pending := m.scheduled[s]
	delete(m.scheduled, s)
	m.mu.Unlock()

	for _, h := range pending {
		h.Cancel()
	}
}

// ScheduleEvent submits e for delivery after delay, bound to whichever state
// is current at the moment of the call. If the machine leaves that state
// before delay elapses, the pending delivery is cancelled and e is never
// fired. Calling ScheduleEvent from within a state's OnEntry action binds
// the scheduled event to that (already current, per stateless's internal
// bookkeeping) state, giving the "set_timeout bound to the target state"
// behavior the engine's contract describes for actions taken during a
// transition. ScheduleEvent never takes seq: it is called synchronously
// from inside Fire's own entry/exit callbacks, and must not try to
// reacquire a lock Fire is already holding.
func (m *Machine[S, E]) ScheduleEvent(ctx context.Context, e E, delay time.Duration) (*schedpkg.Handle, error) {
	m.mu.Lock()
	started := m.started
	sched := m.cfg.Scheduler
	m.mu.Unlock()
	if !started {
		return nil, ErrMachineNotStarted
	}
	if sched == nil {
		return nil, ErrNoScheduler
	}

	boundState := m.CurrentState()

	h, err := sched.ScheduleOnce(delay, func(fireCtx context.Context) {
		if m.CurrentState() != boundState {
			return
		}
		_ = m.Fire(fireCtx, e)
	})
	if err != nil {
		return nil, err
	}

	// The state may already have moved on between reading boundState above
	// and this point (an action further down the same transition, or a
	// concurrent Fire queued right behind this one) if this isn't guaranteed
	// sequential; check once more before registering for cancellation.
	m.mu.Lock()
	stillBound := m.CurrentState() == boundState
	if stillBound {
		m.scheduled[boundState] = append(m.scheduled[boundState], h)
	}
	m.mu.Unlock()

	if !stillBound {
		h.Cancel()
	}

	return h, nil
}

// PermittedEvents returns the events that can currently be fired, mainly
// useful for debugging and tests.
func (m *Machine[S, E]) PermittedEvents() []E {
	triggers, err := m.sm.PermittedTriggers()
	if err != nil {
		return nil
	}
	out := make([]E, 0, len(triggers))
	for _, t := range triggers {
		if e, ok := t.(E); ok {
			out = append(out, e)
		}
	}
	return out
}
