// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"

	"github.com/shedsolar/heatercontrol/pkg/scheduler"
)

// Service is the long-running process wrapper around a HeaterSupervisor:
// it starts the shared scheduler's worker pool and a one-child supervision
// tree running the tick loop concurrently, the same
// nursery.RunConcurrentlyWithContext(supervise, spawnProcs) shape
// service/operator's Operator.Run uses, adapted to a single NATS-free
// child instead of a dynamically discovered service.Service set.
type Service struct {
	name       string
	supervisor *HeaterSupervisor
	scheduler  *scheduler.Scheduler
	tickTime   time.Duration
	logger     *slog.Logger
}

// NewService builds a Service. tickTime should match the SupervisorConfig
// the supervisor was built with.
func NewService(name string, supervisor *HeaterSupervisor, sched *scheduler.Scheduler, tickTime time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		name:       name,
		supervisor: supervisor,
		scheduler:  sched,
		tickTime:   tickTime,
		logger:     logger,
	}
}

// Name returns the service's name, for use in a supervision tree one level
// up.
func (s *Service) Name() string {
	return s.name
}

// Run starts the shared scheduler, registers the supervisor tick as a fixed
// rate job on it, and blocks until ctx is cancelled. A panic escaping a tick
// (as opposed to a panic inside a controller, which HeaterSupervisor.Tick
// already contains) is converted to an error and the scheduling loop is
// restarted by the supervision tree's transient strategy, the same
// oversight.Transient/oversight.Timeout pairing service/operator's
// Operator.Run uses per supervised child.
func (s *Service) Run(ctx context.Context) error {
	if err := s.supervisor.Start(ctx); err != nil {
		return fmt.Errorf("starting heater supervisor: %w", err)
	}

	s.scheduler.Start(ctx)

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
	)

	scheduleLoop := func(ctx context.Context) error {
		tickFailed := make(chan error, 1)
		tick := func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					select {
					case tickFailed <- fmt.Errorf("heatermgr tick panicked: %v", r):
					default:
					}
				}
			}()
			if err := s.supervisor.Tick(ctx); err != nil {
				s.logger.ErrorContext(ctx, "heatermgr: tick failed", "error", err)
			}
		}

		handle, err := s.scheduler.ScheduleFixedRate(0, s.tickTime, tick)
		if err != nil {
			return fmt.Errorf("scheduling heatermgr tick: %w", err)
		}
		defer handle.Cancel()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-tickFailed:
			return err
		}
	}

	if err := tree.Add(scheduleLoop, oversight.Transient(), oversight.Timeout(2*s.tickTime), s.name+"-tick"); err != nil {
		return fmt.Errorf("adding heatermgr tick loop to supervision tree: %w", err)
	}

	runScheduler := func(ctx context.Context, c chan error) {
		<-ctx.Done()
		s.scheduler.Close()
		c <- nil
	}
	runSupervision := func(ctx context.Context, c chan error) {
		c <- tree.Start(ctx)
	}

	return nursery.RunConcurrentlyWithContext(ctx, runScheduler, runSupervision)
}
