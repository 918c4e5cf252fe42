package sim

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/fibersim/internal/config"
)

// Ensemble runs the same configuration with consecutive noise seeds, each on
// its own engine and goroutine.
type Ensemble struct {
	base      *config.Config
	numRuns   int
	seedStart int64
	log       logrus.FieldLogger
}

func NewEnsemble(base *config.Config, numRuns int, seedStart int64, log logrus.FieldLogger) *Ensemble {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ensemble{base: base, numRuns: numRuns, seedStart: seedStart, log: log}
}

// Run returns one result per seed, in seed order. newMetrics, if set, is
// called once per run so that runs never share metric state.
func (e *Ensemble) Run(ctx context.Context, newMetrics func() []Metric) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfg := *e.base
			cfg.Grid.Seed = e.seedStart + int64(idx)
			cfg.Run.Interval = 0

			log := e.log.WithField("seed", cfg.Grid.Seed)
			eng, backend, err := NewEngine(&cfg, log)
			if err != nil {
				errs[idx] = err
				return
			}
			defer backend.Cleanup()

			s := New(eng, log)
			if newMetrics != nil {
				for _, m := range newMetrics() {
					s.AddMetric(m)
				}
			}
			results[idx], errs[idx] = s.Run(ctx, RunConfig(&cfg))
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
