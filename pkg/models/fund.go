// Package models holds the JSON wire types for the fund-simulation API: the
// inbound Request and the outbound FundReport.
package models

import (
	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/market"
	"vcfundsim/internal/portfolio"
)

// StageAllocation is one row of a Request's stage_allocations list.
type StageAllocation struct {
	Stage     market.Stage `json:"stage"`
	Pct       int          `json:"pct"`
	CheckSize float64      `json:"check_size_m"`
}

// MarketOverrides mirrors market.Overlay for the wire format: any field left
// nil/empty means "use the preset's value."
type MarketOverrides struct {
	Valuation   map[market.Stage]float64       `json:"stage_valuations,omitempty"`
	Dilution    map[market.Stage]float64       `json:"dilution,omitempty"`
	Transitions map[market.Stage]market.Transition `json:"graduation_rates,omitempty"`
	Mna         []market.MnaOutcome             `json:"m_and_a_outcomes,omitempty"`
}

func (o *MarketOverrides) toOverlay() *market.Overlay {
	if o == nil {
		return nil
	}
	return &market.Overlay{
		Valuation:   o.Valuation,
		Dilution:    o.Dilution,
		Transitions: o.Transitions,
		Mna:         o.Mna,
	}
}

// ToFundConfigRequest converts the wire Request into fundconfig's validated
// input shape, resolving the optional Seed pointer to fundconfig's
// Seed/HasSeed pair and flattening stage allocations.
func (r Request) ToFundConfigRequest() fundconfig.Request {
	allocations := make([]fundconfig.StageAllocationInput, len(r.StageAllocations))
	for i, a := range r.StageAllocations {
		allocations[i] = fundconfig.StageAllocationInput{
			Stage:     a.Stage,
			Pct:       a.Pct,
			CheckSize: a.CheckSize,
		}
	}

	req := fundconfig.Request{
		MarketPreset:               r.MarketPreset,
		Overrides:                  r.Overrides.toOverlay(),
		FundSizeM:                  r.FundSizeM,
		ManagementFeePct:           r.ManagementFeePct,
		FeeDurationYears:           r.FeeDurationYears,
		RecycledCapitalPct:         r.RecycledCapitalPct,
		DryPowderReserveForProRata: r.DryPowderReserveForProRata,
		ReinvestUnusedReserve:      r.ReinvestUnusedReserve,
		ProRataMaxValuation:        r.ProRataMaxValuation,
		StageAllocations:           allocations,
		NumPeriods:                 r.NumPeriods,
		NumIterations:              r.NumIterations,
	}
	if r.Seed != nil {
		req.Seed = *r.Seed
		req.HasSeed = true
	}
	return req
}

// Request is the inbound fund-simulation request (spec.md §3 FundConfig).
type Request struct {
	MarketPreset market.Preset    `json:"market_scenario"`
	Overrides    *MarketOverrides `json:"overrides,omitempty"`

	FundSizeM                  float64 `json:"fund_size_m"`
	ManagementFeePct           float64 `json:"management_fee_pct"`
	FeeDurationYears           int     `json:"fee_duration_years,omitempty"`
	RecycledCapitalPct         float64 `json:"recycled_capital_pct"`
	DryPowderReserveForProRata float64 `json:"dry_powder_reserve_for_pro_rata"`
	ReinvestUnusedReserve      bool    `json:"reinvest_unused_reserve"`
	ProRataMaxValuation        float64 `json:"pro_rata_max_valuation"`

	StageAllocations []StageAllocation `json:"stage_allocations"`

	NumPeriods    int `json:"num_periods,omitempty"`
	NumIterations int `json:"num_iterations"`

	Seed *uint64 `json:"seed,omitempty"`

	// IncludeFullDistribution controls whether MoicDistribution in the
	// response carries every scenario's MOIC. When false, MoicDistribution
	// is left empty (null); no sample of the values is returned.
	IncludeFullDistribution bool `json:"include_full_distribution,omitempty"`
}

// Percentiles carries P25/P50/P75/P90 plus separately reported mean/median
// (spec.md §4.6: "Median and mean are reported separately").
type Percentiles struct {
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P90    float64 `json:"p90"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// HistogramBin is one bucket of the 24-bin MOIC distribution over [0, 10].
type HistogramBin struct {
	LowerBound float64             `json:"lower_bound"`
	UpperBound float64             `json:"upper_bound"`
	Count      int                 `json:"count"`
	Segments   []portfolio.Segment `json:"segments"`
}

// PercentileSnapshot is the verbatim portfolio composition of the scenario
// nearest a requested percentile (spec.md §4.6).
type PercentileSnapshot struct {
	Percentile int                 `json:"percentile"`
	Moic       float64             `json:"moic"`
	Segments   []portfolio.Segment `json:"segments"`
}

// FundReport is the complete output of one simulation request (spec.md §2,
// §4.6). Narrative is populated only when internal/narrative successfully
// produced a summary, rendered to HTML (or the raw summary text when HTML
// rendering fails); its absence is never an error.
type FundReport struct {
	MoicPercentiles Percentiles `json:"moic_percentiles"`
	TvpiPercentiles Percentiles `json:"tvpi_percentiles"`

	Histogram           []HistogramBin       `json:"histogram"`
	PercentileSnapshots []PercentileSnapshot `json:"percentile_snapshots"`

	FundSizeM        float64 `json:"fund_size_m"`
	CommittedCapitalM float64 `json:"committed_capital_m"`

	AvgTotalCompanies    float64 `json:"avg_total_companies"`
	AvgFailedCompanies   float64 `json:"avg_failed_companies"`
	AvgActiveCompanies   float64 `json:"avg_active_companies"`
	AvgAcquiredCompanies float64 `json:"avg_acquired_companies"`
	AvgEntryOwnershipPct float64 `json:"avg_entry_ownership_pct"`
	AvgPrimaryInvestedM  float64 `json:"avg_primary_invested_m"`
	AvgFollowOnInvestedM float64 `json:"avg_follow_on_invested_m"`

	ProRataSkipsStageTooLate     int `json:"pro_rata_skips_stage_too_late"`
	ProRataSkipsReserveExhausted int `json:"pro_rata_skips_reserve_exhausted"`

	NumScenarios         int `json:"num_scenarios"`
	NumZeroCapitalSkipped int `json:"num_zero_capital_skipped"`

	MoicDistribution []float64 `json:"moic_distribution"`

	Narrative string `json:"narrative,omitempty"`
}
