package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/realmsync/internal/core/clock"
	coresys "github.com/l1jgo/realmsync/internal/core/system"
)

// TickRunner executes one tick. *coresys.Runner satisfies it.
type TickRunner interface {
	Tick(t coresys.Tick)
}

// Scheduler drives a TickRunner at a fixed rate on a fixed time grid.
// Slots that pass while a tick is still running are skipped, never queued.
type Scheduler struct {
	clock    clock.Clock
	interval time.Duration
	runner   TickRunner
	log      *zap.Logger

	seq     uint64
	next    time.Time // earliest start of the next tick
	last    time.Time // start of the previous tick
	skipped uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func New(clk clock.Clock, interval time.Duration, runner TickRunner, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Scheduler{
		clock:    clk,
		interval: interval,
		runner:   runner,
		log:      log,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Seq is the number of ticks executed so far.
func (s *Scheduler) Seq() uint64 { return s.seq }

// Skipped is the number of grid slots dropped, either slept through by a
// late poll or overrun by a long tick.
func (s *Scheduler) Skipped() uint64 { return s.skipped }

// Step runs one tick if its slot has arrived and reports whether it did.
// Must be called from a single goroutine.
func (s *Scheduler) Step() bool {
	now := s.clock.Now()
	if s.seq > 0 && now.Before(s.next) {
		return false
	}

	dt := s.interval
	if s.seq > 0 {
		dt = now.Sub(s.last)
	} else {
		s.next = now
	}
	s.seq++
	s.last = now
	s.runner.Tick(coresys.Tick{Seq: s.seq, Now: now, DT: dt})

	end := s.clock.Now()
	s.next = s.next.Add(s.interval)
	var missed uint64
	// slots the loop slept through
	for !s.next.After(now) {
		s.next = s.next.Add(s.interval)
		missed++
	}
	// slots that opened while the tick was still running; a tick that
	// takes exactly one interval lands on its successor and drops nothing
	for s.next.Before(end) {
		s.next = s.next.Add(s.interval)
		missed++
	}
	if missed > 0 {
		s.skipped += missed
		s.log.Warn("tick slots skipped",
			zap.Uint64("tick", s.seq),
			zap.Duration("took", end.Sub(now)),
			zap.Uint64("skipped", missed),
		)
	}
	return true
}

// Until returns how long until the next slot opens.
func (s *Scheduler) Until() time.Duration {
	if s.seq == 0 {
		return 0
	}
	d := s.next.Sub(s.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Run ticks until ctx is cancelled or Stop is called. The in-flight tick
// always completes before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-timer.C:
		}
		s.Step()
		timer.Reset(s.Until())
	}
}

// Stop asks Run to return after the current tick and waits for it. Safe to
// call more than once. It must not be called before Run has started.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}
