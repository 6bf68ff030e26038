package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// saga runs an ordered list of (action, compensating action) pairs. When a
// step fails, already-applied steps are unwound in reverse order so a partial
// multi-entity write does not leave orphaned rows. Compensation is best
// effort: a failed compensation is logged and unwinding continues.
type saga struct {
	log   zerolog.Logger
	steps []sagaStep
}

type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

func newSaga(log zerolog.Logger) *saga {
	return &saga{log: log}
}

// add appends a step. compensate may be nil for steps that need no undo
// (e.g. the final step of the sequence).
func (s *saga) add(name string, run, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, sagaStep{name: name, run: run, compensate: compensate})
}

func (s *saga) run(ctx context.Context) error {
	applied := make([]sagaStep, 0, len(s.steps))
	for _, st := range s.steps {
		if err := st.run(ctx); err != nil {
			s.unwind(ctx, applied)
			return fmt.Errorf("%s: %w", st.name, err)
		}
		applied = append(applied, st)
	}
	return nil
}

func (s *saga) unwind(ctx context.Context, applied []sagaStep) {
	for i := len(applied) - 1; i >= 0; i-- {
		st := applied[i]
		if st.compensate == nil {
			continue
		}
		if err := st.compensate(ctx); err != nil {
			s.log.Error().
				Err(err).
				Str("step", st.name).
				Msg("saga compensation failed")
		}
	}
}
