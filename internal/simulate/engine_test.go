package simulate

import (
	"context"
	"reflect"
	"testing"
	"time"

	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/market"
)

func singleStageConfig(t *testing.T, iters, periods int, seed uint64) *fundconfig.Config {
	t.Helper()
	req := fundconfig.Request{
		MarketPreset:               market.MarketRate,
		FundSizeM:                  50,
		ManagementFeePct:           0.02,
		FeeDurationYears:           10,
		RecycledCapitalPct:         0.20,
		DryPowderReserveForProRata: 0.1,
		ProRataMaxValuation:        1e9,
		StageAllocations: []fundconfig.StageAllocationInput{
			{Stage: "Seed", Pct: 100, CheckSize: 2.0},
		},
		NumPeriods:    periods,
		NumIterations: iters,
		Seed:          seed,
		HasSeed:       true,
	}
	cfg, err := fundconfig.New(req)
	if err != nil {
		t.Fatalf("fundconfig.New failed: %v", err)
	}
	return cfg
}

func TestRun_DeterministicAcrossRepeatedCalls(t *testing.T) {
	cfg := singleStageConfig(t, 64, 8, 0xC0FFEE)

	r1, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	r2, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(r1) != len(r2) {
		t.Fatalf("length mismatch: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if !reflect.DeepEqual(r1[i].Moic, r2[i].Moic) {
			t.Fatalf("scenario %d MOIC differs across runs: %v vs %v", i, r1[i].Moic, r2[i].Moic)
		}
		if r1[i].AliveCount != r2[i].AliveCount || r1[i].FailedCount != r2[i].FailedCount {
			t.Fatalf("scenario %d portfolio composition differs across runs", i)
		}
	}
}

func TestRun_DifferentSeedsProduceDifferentStreams(t *testing.T) {
	cfgA := singleStageConfig(t, 32, 8, 1)
	cfgB := singleStageConfig(t, 32, 8, 2)

	rA, err := Run(context.Background(), cfgA)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	rB, err := Run(context.Background(), cfgB)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	differs := false
	for i := range rA {
		if !reflect.DeepEqual(rA[i].Moic, rB[i].Moic) {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("expected distinct seeds to produce at least one diverging scenario")
	}
}

func TestRun_ReturnsOneResultPerIteration(t *testing.T) {
	cfg := singleStageConfig(t, 200, 8, 42)
	results, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(results) != 200 {
		t.Fatalf("len(results) = %d, want 200", len(results))
	}
}

func TestRun_CancelledContextReturnsRuntimeError(t *testing.T) {
	cfg := singleStageConfig(t, 5000, 8, 42)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled before Run starts

	_, err := Run(ctx, cfg)
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
}

func TestRun_DeadlineExceededReturnsRuntimeError(t *testing.T) {
	cfg := singleStageConfig(t, 5000, 50, 42)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := Run(ctx, cfg)
	if err == nil {
		t.Fatal("expected a deadline-exceeded cancellation error")
	}
}

func TestMixSeed_DistinctIndicesProduceDistinctSeeds(t *testing.T) {
	seen := map[uint64]bool{}
	for i := uint64(0); i < 100; i++ {
		s := mixSeed(0xC0FFEE, i)
		if seen[s] {
			t.Fatalf("collision at index %d", i)
		}
		seen[s] = true
	}
}
