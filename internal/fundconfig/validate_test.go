package fundconfig

import (
	"math"
	"testing"

	"vcfundsim/internal/market"
	"vcfundsim/internal/simerr"
)

func baseRequest() Request {
	return Request{
		MarketPreset:               market.MarketRate,
		FundSizeM:                  50,
		ManagementFeePct:           0.02,
		FeeDurationYears:           10,
		RecycledCapitalPct:         0.20,
		DryPowderReserveForProRata: 0,
		ProRataMaxValuation:        500,
		StageAllocations: []StageAllocationInput{
			{Stage: "Seed", Pct: 100, CheckSize: 2.0},
		},
		NumPeriods:    8,
		NumIterations: 10000,
	}
}

func TestNew_S1_SingleStageSeedFund(t *testing.T) {
	cfg, err := New(baseRequest())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	// deployable = 50 - 50*0.02*10 + 50*0.20 = 50 - 10 + 10 = 50
	if math.Abs(cfg.DeployableCapital-50) > 1e-9 {
		t.Errorf("DeployableCapital = %v, want 50", cfg.DeployableCapital)
	}
	if len(cfg.InitialChecks) != 1 {
		t.Fatalf("expected 1 initial-check row, got %d", len(cfg.InitialChecks))
	}
	if got := cfg.InitialChecks[0].Count; got != 25 {
		t.Errorf("check count = %d, want 25 (floor(50/2.0))", got)
	}
}

func TestNew_RejectsAllocationSumNot100(t *testing.T) {
	req := baseRequest()
	req.StageAllocations = []StageAllocationInput{
		{Stage: "Seed", Pct: 60, CheckSize: 2.0},
		{Stage: "Series A", Pct: 30, CheckSize: 5.0},
	}
	_, err := New(req)
	if err == nil {
		t.Fatal("expected AllocationSum error")
	}
	ce, ok := err.(*simerr.ConfigError)
	if !ok || ce.Kind != simerr.KindAllocationSum {
		t.Errorf("expected ConfigError{Kind: AllocationSum}, got %v", err)
	}
}

func TestNew_RejectsUnknownStage(t *testing.T) {
	req := baseRequest()
	req.StageAllocations = []StageAllocationInput{{Stage: "Series Z", Pct: 100, CheckSize: 2.0}}
	_, err := New(req)
	ce, ok := err.(*simerr.ConfigError)
	if !ok || ce.Kind != simerr.KindUnknownStage {
		t.Errorf("expected ConfigError{Kind: UnknownStage}, got %v", err)
	}
}

func TestNew_RejectsZeroIterations(t *testing.T) {
	req := baseRequest()
	req.NumIterations = 0
	_, err := New(req)
	ce, ok := err.(*simerr.ConfigError)
	if !ok || ce.Kind != simerr.KindFieldRange {
		t.Errorf("expected ConfigError{Kind: FieldRange} for num_iterations=0, got %v", err)
	}
}

func TestNew_RejectsReserveOutOfRange(t *testing.T) {
	req := baseRequest()
	req.DryPowderReserveForProRata = 0.95
	_, err := New(req)
	if err == nil {
		t.Fatal("expected FieldRange error for reserve > 0.9")
	}
}

func TestNew_MergesDuplicateStageRowsByShareWeightedCheckSize(t *testing.T) {
	req := baseRequest()
	req.StageAllocations = []StageAllocationInput{
		{Stage: "Seed", Pct: 30, CheckSize: 1.0},
		{Stage: "Seed", Pct: 20, CheckSize: 3.0},
		{Stage: "Series A", Pct: 50, CheckSize: 5.0},
	}
	cfg, err := New(req)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(cfg.InitialChecks) != 2 {
		t.Fatalf("expected 2 merged rows, got %d", len(cfg.InitialChecks))
	}
	// weighted avg check size for Seed = (30*1 + 20*3)/50 = 1.8
	var seedCheck float64
	for _, c := range cfg.InitialChecks {
		if c.Stage == "Seed" {
			seedCheck = c.CheckSize
		}
	}
	if math.Abs(seedCheck-1.8) > 1e-9 {
		t.Errorf("merged Seed check size = %v, want 1.8", seedCheck)
	}
}

func TestNew_ReinvestUnusedReserveFoldsRemainderIntoReserve(t *testing.T) {
	req := baseRequest()
	req.ReinvestUnusedReserve = true
	req.StageAllocations = []StageAllocationInput{{Stage: "Seed", Pct: 100, CheckSize: 3.0}} // 50/3 = 16 checks, remainder 2
	cfg, err := New(req)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if cfg.Reserve <= 0 {
		t.Errorf("expected remainder folded into reserve, got reserve=%v", cfg.Reserve)
	}
}

func TestNew_DiscardsRemainderWhenReinvestDisabled(t *testing.T) {
	req := baseRequest()
	req.ReinvestUnusedReserve = false
	req.StageAllocations = []StageAllocationInput{{Stage: "Seed", Pct: 100, CheckSize: 3.0}}
	cfg, err := New(req)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if cfg.Reserve != 0 {
		t.Errorf("expected reserve to stay 0 when reinvest disabled, got %v", cfg.Reserve)
	}
}

func TestNew_OwnershipAtEntryUsesEffectiveValuation(t *testing.T) {
	req := baseRequest()
	req.Overrides = &market.Overlay{Valuation: map[market.Stage]float64{"Seed": 40}}
	cfg, err := New(req)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	got := cfg.InitialChecks[0].OwnershipAtEntry
	want := 2.0 / 40.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("OwnershipAtEntry = %v, want %v", got, want)
	}
}
