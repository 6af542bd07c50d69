package aggregate

import (
	"context"
	"testing"

	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/market"
	"vcfundsim/internal/portfolio"
	"vcfundsim/internal/simerr"
	"vcfundsim/internal/simulate"
)

func baseConfig(t *testing.T, iters int) *fundconfig.Config {
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
		NumPeriods:    8,
		NumIterations: iters,
		Seed:          0xC0FFEE,
		HasSeed:       true,
	}
	cfg, err := fundconfig.New(req)
	if err != nil {
		t.Fatalf("fundconfig.New failed: %v", err)
	}
	return cfg
}

func TestSummarize_ProducesOrderedPercentiles(t *testing.T) {
	cfg := baseConfig(t, 500)
	results, err := simulate.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report, err := Summarize(results, cfg)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	p := report.MoicPercentiles
	if !(p.P25 <= p.P50 && p.P50 <= p.P75 && p.P75 <= p.P90) {
		t.Errorf("percentiles not monotone: %+v", p)
	}
	if len(report.Histogram) != 24 {
		t.Errorf("histogram len = %d, want 24", len(report.Histogram))
	}
	total := 0
	for _, bin := range report.Histogram {
		total += bin.Count
	}
	if total != report.NumScenarios-report.NumZeroCapitalSkipped {
		t.Errorf("histogram total count = %d, want %d", total, report.NumScenarios-report.NumZeroCapitalSkipped)
	}
	if len(report.PercentileSnapshots) != 5 {
		t.Errorf("expected 5 percentile snapshots (25/50/75/90/95), got %d", len(report.PercentileSnapshots))
	}
	if report.NumScenarios != 500 {
		t.Errorf("NumScenarios = %d, want 500", report.NumScenarios)
	}
}

func TestSummarize_AllZeroCapitalReturnsNoDeployableCapitalError(t *testing.T) {
	cfg := baseConfig(t, 100)
	cfg.InitialChecks = nil // force zero-company portfolios -> zero capital deployed

	results, err := simulate.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	_, err = Summarize(results, cfg)
	if err == nil {
		t.Fatal("expected NoDeployableCapital error")
	}
	re, ok := err.(*simerr.RuntimeError)
	if !ok || re.Kind != simerr.KindNoDeployableCapital {
		t.Errorf("expected RuntimeError{Kind: NoDeployableCapital}, got %v", err)
	}
}

func TestPercentileValue_ClampsAtUpperBound(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if got := percentileValue(sorted, 100); got != 4 {
		t.Errorf("percentileValue(100) = %v, want 4 (clamped)", got)
	}
	if got := percentileValue(sorted, 0); got != 1 {
		t.Errorf("percentileValue(0) = %v, want 1", got)
	}
}

func TestBuildHistogram_ValuesAtOrAboveTenFallInFinalBin(t *testing.T) {
	obs := []observation{{index: 0, moic: 9.99}, {index: 1, moic: 10.0}, {index: 2, moic: 500.0}}
	results := make([]portfolio.ScenarioResult, 3)
	bins := buildHistogram(results, obs)
	if bins[23].Count != 3 {
		t.Errorf("final bin count = %d, want 3 (all values >= lower bound of last bin)", bins[23].Count)
	}
}
