// Package fundconfig validates a fund-construction request and derives the
// dollar-denominated quantities (deployable capital, reserve, primary pool,
// initial check counts, entry ownership) the simulation engine consumes.
// Centralizing derivation here keeps the engine itself stateless with
// respect to dollars: per-scenario code never re-solves check counts.
package fundconfig

import "vcfundsim/internal/market"

// StageAllocationInput is one row of the request's ordered stage-allocation
// list. Duplicate stages are permitted; New merges them into a single
// share-weighted row before deriving check counts.
type StageAllocationInput struct {
	Stage     market.Stage
	Pct       int // integer percentage points; all rows must sum to exactly 100
	CheckSize float64
}

// MarketOverrides carries the request's optional per-field MarketModel
// overrides (graduation_rates, stage_valuations, m_and_a_outcomes in the
// external request shape — see pkg/models.Request).
type MarketOverrides = market.Overlay

// Request is the validated input to New. It mirrors the external request
// shape (pkg/models.Request) but with stage-allocation percentages already
// parsed into ints and the market preset already resolved to a name.
type Request struct {
	MarketPreset market.Preset
	Overrides    *MarketOverrides

	FundSizeM               float64
	ManagementFeePct        float64
	FeeDurationYears        int // default 10 if zero
	RecycledCapitalPct      float64
	DryPowderReserveForProRata float64
	ReinvestUnusedReserve   bool
	ProRataMaxValuation     float64

	StageAllocations []StageAllocationInput

	NumPeriods    int // default 8 if zero
	NumIterations int

	Seed     uint64
	HasSeed  bool
}

// InitialCheck describes the checks to be written at t=0 for one
// (merged) stage-allocation row.
type InitialCheck struct {
	Stage            market.Stage
	Count            int
	CheckSize        float64
	OwnershipAtEntry float64
}

// Config is the validated, derived fund construction. Immutable once built;
// the simulation engine never mutates it.
type Config struct {
	FundSizeM float64

	DeployableCapital float64
	Reserve           float64
	PrimaryPool       float64

	InitialChecks []InitialCheck

	ReinvestUnusedReserve bool
	ProRataMaxValuation   float64

	NumPeriods    int
	NumIterations int
	Seed          uint64

	Market *market.Model
}

// EffectiveMarket returns the MarketModel this config was derived against
// (base preset with any request overrides applied).
func (c *Config) EffectiveMarket() *market.Model { return c.Market }
