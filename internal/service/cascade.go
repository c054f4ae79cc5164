package service

import (
	"context"

	"github.com/rs/zerolog"
)

// cleanupStep is one idempotent part of a best-effort cascade.
type cleanupStep struct {
	name string
	run  func(ctx context.Context) error
}

// runCleanup executes every step in order. A failing step is logged and the rest still run.
func runCleanup(ctx context.Context, log zerolog.Logger, steps []cleanupStep) []string {
	var failed []string
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			log.Warn().Err(err).Str("step", step.name).Msg("cleanup step failed")
			failed = append(failed, step.name)
			continue
		}
		log.Debug().Str("step", step.name).Msg("cleanup step done")
	}
	return failed
}
