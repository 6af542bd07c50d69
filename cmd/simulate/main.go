// Command simulate runs one fund-simulation request from a YAML file and
// prints a condensed report to stdout, mirroring the teacher's one-shot
// cmd/pipeline runner but over the fund-simulation engine instead of the
// EDGAR extraction pipeline.
package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"vcfundsim/internal/aggregate"
	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/market"
	"vcfundsim/internal/simulate"
)

// fileRequest mirrors pkg/models.Request's shape for YAML instead of JSON,
// since a fund-construction file is hand-edited far more often than posted.
type fileRequest struct {
	MarketScenario string `yaml:"market_scenario"`

	FundSizeM                  float64 `yaml:"fund_size_m"`
	ManagementFeePct           float64 `yaml:"management_fee_pct"`
	FeeDurationYears           int     `yaml:"fee_duration_years"`
	RecycledCapitalPct         float64 `yaml:"recycled_capital_pct"`
	DryPowderReserveForProRata float64 `yaml:"dry_powder_reserve_for_pro_rata"`
	ReinvestUnusedReserve      bool    `yaml:"reinvest_unused_reserve"`
	ProRataMaxValuation        float64 `yaml:"pro_rata_max_valuation"`

	StageAllocations []struct {
		Stage     string  `yaml:"stage"`
		Pct       int     `yaml:"pct"`
		CheckSize float64 `yaml:"check_size_m"`
	} `yaml:"stage_allocations"`

	NumPeriods    int    `yaml:"num_periods"`
	NumIterations int    `yaml:"num_iterations"`
	Seed          uint64 `yaml:"seed"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: simulate <fund-config.yaml>")
	}
	path := os.Args[1]

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	var fr fileRequest
	if err := yaml.Unmarshal(raw, &fr); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}

	allocations := make([]fundconfig.StageAllocationInput, len(fr.StageAllocations))
	for i, a := range fr.StageAllocations {
		allocations[i] = fundconfig.StageAllocationInput{
			Stage:     market.Stage(a.Stage),
			Pct:       a.Pct,
			CheckSize: a.CheckSize,
		}
	}

	req := fundconfig.Request{
		MarketPreset:               market.Preset(fr.MarketScenario),
		FundSizeM:                  fr.FundSizeM,
		ManagementFeePct:           fr.ManagementFeePct,
		FeeDurationYears:           fr.FeeDurationYears,
		RecycledCapitalPct:         fr.RecycledCapitalPct,
		DryPowderReserveForProRata: fr.DryPowderReserveForProRata,
		ReinvestUnusedReserve:      fr.ReinvestUnusedReserve,
		ProRataMaxValuation:        fr.ProRataMaxValuation,
		StageAllocations:           allocations,
		NumPeriods:                 fr.NumPeriods,
		NumIterations:              fr.NumIterations,
		Seed:                       fr.Seed,
		HasSeed:                    fr.Seed != 0,
	}

	cfg, err := fundconfig.New(req)
	if err != nil {
		log.Fatalf("invalid fund config: %v", err)
	}

	fmt.Printf("[SIMULATE] running %d iterations x %d periods (seed=%d)\n", cfg.NumIterations, cfg.NumPeriods, cfg.Seed)
	results, err := simulate.Run(context.Background(), cfg)
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	report, err := aggregate.Summarize(results, cfg)
	if err != nil {
		log.Fatalf("aggregation failed: %v", err)
	}

	fmt.Printf("\nMOIC  P25=%.2fx P50=%.2fx P75=%.2fx P90=%.2fx mean=%.2fx median=%.2fx\n",
		report.MoicPercentiles.P25, report.MoicPercentiles.P50, report.MoicPercentiles.P75,
		report.MoicPercentiles.P90, report.MoicPercentiles.Mean, report.MoicPercentiles.Median)
	fmt.Printf("TVPI  P25=%.2fx P50=%.2fx P75=%.2fx P90=%.2fx mean=%.2fx median=%.2fx\n",
		report.TvpiPercentiles.P25, report.TvpiPercentiles.P50, report.TvpiPercentiles.P75,
		report.TvpiPercentiles.P90, report.TvpiPercentiles.Mean, report.TvpiPercentiles.Median)
	fmt.Printf("Portfolio (avg): %.1f companies, %.1f failed, %.1f active, %.1f acquired\n",
		report.AvgTotalCompanies, report.AvgFailedCompanies, report.AvgActiveCompanies, report.AvgAcquiredCompanies)
	fmt.Printf("Pro-rata skipped: %d (valuation cap), %d (reserve exhausted)\n",
		report.ProRataSkipsStageTooLate, report.ProRataSkipsReserveExhausted)
	fmt.Printf("Scenarios: %d run, %d with zero deployable capital\n", report.NumScenarios, report.NumZeroCapitalSkipped)
}
