// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"fmt"

	"github.com/shedsolar/heatercontrol/pkg/scheduler"
)

// StateDef describes one state's optional entry and exit actions.
type StateDef[S comparable] struct {
	Name    S
	OnEntry func(ctx context.Context) error
	OnExit  func(ctx context.Context) error
}

// TransitionDef describes one (From, Event) -> To edge, with an optional
// guard and an optional action run once the transition is taken.
type TransitionDef[S comparable, E comparable] struct {
	From   S
	To     S
	Event  E
	Guard  func(ctx context.Context) bool
	Action func(ctx context.Context, from, to S) error
}

// StateChangeListener observes every committed transition, after the new
// state's entry action has run.
type StateChangeListener[S comparable, E comparable] func(ctx context.Context, from, to S, event E)

// EventListener observes every externally supplied event, whether or not it
// produced a transition.
type EventListener[E comparable] func(ctx context.Context, event E)

// Config holds the declarative definition of a state machine.
type Config[S comparable, E comparable] struct {
	Name         string
	InitialState S
	HasSeedEvent bool
	SeedEvent    E
	States       []StateDef[S]
	Transitions  []TransitionDef[S, E]

	Scheduler     *scheduler.Scheduler
	EnableTracing bool

	OnStateChange StateChangeListener[S, E]
	OnEvent       EventListener[E]
}

// Option configures a Config.
type Option[S comparable, E comparable] interface {
	apply(*Config[S, E])
}

type optionFunc[S comparable, E comparable] func(*Config[S, E])

func (f optionFunc[S, E]) apply(c *Config[S, E]) { f(c) }

// WithName sets the machine's name, used in logs and traces.
func WithName[S comparable, E comparable](name string) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.Name = name })
}

// WithInitialState sets the state the machine starts in.
func WithInitialState[S comparable, E comparable](s S) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.InitialState = s })
}

// WithSeedEvent configures an event delivered exactly once, immediately
// after Start places the machine in its initial state.
func WithSeedEvent[S comparable, E comparable](e E) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) {
		c.HasSeedEvent = true
		c.SeedEvent = e
	})
}

// WithState adds a state definition.
func WithState[S comparable, E comparable](def StateDef[S]) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.States = append(c.States, def) })
}

// WithTransition adds a transition definition.
func WithTransition[S comparable, E comparable](def TransitionDef[S, E]) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.Transitions = append(c.Transitions, def) })
}

// WithScheduler attaches the shared scheduler used for ScheduleEvent.
func WithScheduler[S comparable, E comparable](s *scheduler.Scheduler) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.Scheduler = s })
}

// WithTracing enables an OpenTelemetry span around every Fire call.
func WithTracing[S comparable, E comparable](enabled bool) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.EnableTracing = enabled })
}

// WithStateChangeListener sets the listener invoked after each transition.
func WithStateChangeListener[S comparable, E comparable](l StateChangeListener[S, E]) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.OnStateChange = l })
}

// WithEventListener sets the listener invoked for every delivered event.
func WithEventListener[S comparable, E comparable](l EventListener[E]) Option[S, E] {
	return optionFunc[S, E](func(c *Config[S, E]) { c.OnEvent = l })
}

// NewConfig builds a Config from the given options.
func NewConfig[S comparable, E comparable](opts ...Option[S, E]) *Config[S, E] {
	cfg := &Config[S, E]{}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

// Validate checks the configuration for the fatal construction-time errors
// called out in the engine's failure semantics: an unreachable state, a
// duplicate (from, event) transition, or a transition naming a state that
// was never declared.
func (c *Config[S, E]) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
	}
	if len(c.States) == 0 {
		return fmt.Errorf("%w: at least one state must be defined", ErrInvalidConfig)
	}

	known := make(map[S]struct{}, len(c.States))
	for _, s := range c.States {
		if _, dup := known[s.Name]; dup {
			return fmt.Errorf("%w: duplicate state %v", ErrInvalidConfig, s.Name)
		}
		known[s.Name] = struct{}{}
	}
	if _, ok := known[c.InitialState]; !ok {
		return fmt.Errorf("%w: initial state %v not declared", ErrInvalidConfig, c.InitialState)
	}

	seen := make(map[string]struct{}, len(c.Transitions))
	reached := map[S]struct{}{c.InitialState: {}}
	for _, t := range c.Transitions {
		if _, ok := known[t.From]; !ok {
			return fmt.Errorf("%w: transition from undeclared state %v", ErrInvalidConfig, t.From)
		}
		if _, ok := known[t.To]; !ok {
			return fmt.Errorf("%w: transition to undeclared state %v", ErrInvalidConfig, t.To)
		}
		key := fmt.Sprintf("%v|%v", t.From, t.Event)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: from %v on %v", ErrDuplicateTransition, t.From, t.Event)
		}
		seen[key] = struct{}{}
		reached[t.To] = struct{}{}
	}

	for _, s := range c.States {
		if _, ok := reached[s.Name]; !ok {
			return fmt.Errorf("%w: %v", ErrUnreachableState, s.Name)
		}
	}

	return nil
}
