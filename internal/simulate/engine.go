// Package simulate runs the Monte Carlo scenario engine: N independent
// fund lifecycles over P periods each, parallelized across a bounded worker
// pool with a deterministic, counter-based RNG stream per scenario.
package simulate

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/portfolio"
	"vcfundsim/internal/simerr"
)

// maxWorkers bounds parallelism regardless of GOMAXPROCS; scenarios are
// cheap enough that the bottleneck is rarely CPU count.
const maxWorkers = 16

// Run executes cfg.NumIterations independent scenarios (spec §4.5) and
// returns one ScenarioResult per scenario, indexed identically across runs.
// ctx is polled cooperatively between scenarios (spec §5): on cancellation
// or deadline, Run returns a *simerr.RuntimeError{Kind: CANCELLED} carrying
// the count of scenarios that finished before the signal was observed, and
// no partial aggregation.
func Run(ctx context.Context, cfg *fundconfig.Config) ([]portfolio.ScenarioResult, error) {
	n := cfg.NumIterations
	results := make([]portfolio.ScenarioResult, n)

	workers := maxWorkers
	if n < workers {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	var cancelled atomic.Bool
	var completed atomic.Int64

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if cancelled.Load() {
					continue
				}
				select {
				case <-ctx.Done():
					cancelled.Store(true)
					continue
				default:
				}
				results[idx] = runOne(cfg, idx)
				completed.Add(1)
			}
		}()
	}

	for i := 0; i < n; i++ {
		if cancelled.Load() {
			break
		}
		work <- i
	}
	close(work)
	wg.Wait()

	if cancelled.Load() || ctx.Err() != nil {
		return nil, simerr.NewCancelled(int(completed.Load()))
	}
	return results, nil
}

// runOne executes a single scenario: a fresh Fund seeded from cfg's initial
// checks, stepped across cfg.NumPeriods in fixed period-then-company order
// (spec §4.5's ordering guarantee), then summarized.
func runOne(cfg *fundconfig.Config, scenarioIndex int) portfolio.ScenarioResult {
	rng := rand.New(rand.NewSource(int64(mixSeed(cfg.Seed, uint64(scenarioIndex)))))

	f := portfolio.NewFund(cfg, scenarioIndex)
	var skips portfolio.ProRataSkipTally

	for period := 0; period < cfg.NumPeriods; period++ {
		for _, c := range f.Portfolio {
			outcome := c.Step(rng, cfg.Market, f)
			switch outcome.ProRataSkipReason {
			case portfolio.SkipStageTooLate:
				skips.StageTooLate++
			case portfolio.SkipReserveExhausted:
				skips.ReserveExhausted++
			}
		}
	}

	return f.Summarize(skips)
}

// mixSeed derives a scenario-local stream seed via splitmix64, giving every
// scenario an independent reproducible stream regardless of execution order
// or worker count — the determinism contract of spec §4.5 requires results
// to be bit-exact across runs and worker-pool sizes.
func mixSeed(seed, index uint64) uint64 {
	z := seed + index*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
