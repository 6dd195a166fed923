package system

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Runner executes systems in phase order each tick.
type Runner struct {
	systems []System
	sorted  bool
	log     *zap.Logger
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every registered system once. A panicking system is logged and
// skipped for this tick; the remaining systems still run.
func (r *Runner) Tick(t Tick) {
	r.ensureSorted()
	for _, s := range r.systems {
		r.safeUpdate(s, t)
	}
}

// TickPhase runs only the systems registered for phase.
func (r *Runner) TickPhase(phase Phase, t Tick) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			r.safeUpdate(s, t)
		}
	}
}

func (r *Runner) safeUpdate(s System, t Tick) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("system panic recovered",
				zap.String("system", fmt.Sprintf("%T", s)),
				zap.String("phase", s.Phase().String()),
				zap.Uint64("tick", t.Seq),
				zap.Any("panic", rec),
			)
		}
	}()
	s.Update(t)
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		// stable keeps registration order within a phase
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
