package portfolio

import (
	"fmt"
	"math"

	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/market"
)

// Fund is the portfolio container for one scenario: a flat vector of
// Companies plus the shared capital-accounting state (primary/follow-on
// deployment, remaining reserve). A Fund is exclusively owned by one
// scenario and is created fresh for every iteration.
type Fund struct {
	Portfolio []*Company

	PrimaryDeployedM  float64
	FollowOnDeployedM float64
	ReserveRemainingM float64

	proRataMaxValuation float64
	committedM          float64
}

var _ ProRataFunder = (*Fund)(nil)

// NewFund initializes the portfolio from the config's initial-check plan
// (spec §4.4): one Company per check, with PrimaryDeployedM accumulating
// the dollars actually written.
func NewFund(cfg *fundconfig.Config, scenarioIndex int) *Fund {
	f := &Fund{
		ReserveRemainingM:   cfg.Reserve,
		proRataMaxValuation: cfg.ProRataMaxValuation,
		committedM:          cfg.FundSizeM,
	}

	seq := 0
	for _, check := range cfg.InitialChecks {
		ownership := check.OwnershipAtEntry
		valuation := cfg.Market.Valuation(check.Stage)
		for i := 0; i < check.Count; i++ {
			id := fmt.Sprintf("s%d-c%d", scenarioIndex, seq)
			seq++
			f.Portfolio = append(f.Portfolio, NewCompany(id, check.Stage, valuation, ownership, check.CheckSize))
			f.PrimaryDeployedM += check.CheckSize
		}
	}
	return f
}

func (f *Fund) ProRataMaxValuation() float64 { return f.proRataMaxValuation }
func (f *Fund) ReserveRemaining() float64    { return f.ReserveRemainingM }

// TryProRata invests up to desired against the shared reserve. Callers
// (Company.promote) only invoke this after confirming desired > 0 and
// ReserveRemaining() > 0.
func (f *Fund) TryProRata(desired float64) (float64, bool) {
	if desired <= 0 || f.ReserveRemainingM <= 0 {
		return 0, false
	}
	invested := math.Min(desired, f.ReserveRemainingM)
	f.ReserveRemainingM -= invested
	f.FollowOnDeployedM += invested
	return invested, true
}

// CapitalDeployedM is the denominator of MOIC: every dollar actually
// written, primary plus follow-on.
func (f *Fund) CapitalDeployedM() float64 { return f.PrimaryDeployedM + f.FollowOnDeployedM }

// Segment is one row of a portfolio composition breakdown: the count and
// total value of companies of a given state at a given stage.
type Segment struct {
	Type      State
	Stage     market.Stage
	Count     int
	ValueM    float64
}

// Breakdown aggregates the current portfolio into {stage x state} segments,
// used by the Aggregator for per-bin and per-percentile portfolio
// composition reporting (spec §4.6).
func (f *Fund) Breakdown() []Segment {
	type key struct {
		state State
		stage market.Stage
	}
	counts := map[key]int{}
	values := map[key]float64{}
	order := make([]key, 0)

	for _, c := range f.Portfolio {
		k := key{state: c.State, stage: c.Stage}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
		values[k] += c.TerminalValueM()
	}

	segments := make([]Segment, 0, len(order))
	for _, k := range order {
		segments = append(segments, Segment{Type: k.state, Stage: k.stage, Count: counts[k], ValueM: values[k]})
	}
	return segments
}

// Summarize computes the scenario's terminal ScenarioResult (spec §4.4,
// §3). proRataSkips tallies the per-period skip reasons the engine observed
// while stepping this fund's companies (SPEC_FULL.md §4's supplement).
func (f *Fund) Summarize(proRataSkips ProRataSkipTally) ScenarioResult {
	var totalValue, valueFromAlive, valueFromAcquired float64
	var aliveN, acquiredN, failedN, proRataEvents int
	entryStageCounts := map[market.Stage]int{}
	finalStageCounts := map[market.Stage]int{}
	var weightedOwnership, totalCheckDollars float64

	for _, c := range f.Portfolio {
		v := c.TerminalValueM()
		totalValue += v
		switch c.State {
		case Alive:
			aliveN++
			valueFromAlive += v
		case Acquired:
			acquiredN++
			valueFromAcquired += v
		case Failed:
			failedN++
		}
		entryStageCounts[c.EntryStage]++
		finalStageCounts[c.Stage]++
		proRataEvents += c.ProRataEvents

		weightedOwnership += c.OwnershipAtEntry * c.InvestedPrimaryM
		totalCheckDollars += c.InvestedPrimaryM
	}

	result := ScenarioResult{
		TotalCompanies:           len(f.Portfolio),
		EntryStageCounts:         entryStageCounts,
		FinalStageCounts:         finalStageCounts,
		AliveCount:               aliveN,
		AcquiredCount:            acquiredN,
		FailedCount:              failedN,
		ValueFromAliveM:          valueFromAlive,
		ValueFromAcquiredM:       valueFromAcquired,
		ProRataEventsTotal:       proRataEvents,
		ProRataSkipsStageTooLate: proRataSkips.StageTooLate,
		ProRataSkipsReserveExhausted: proRataSkips.ReserveExhausted,
		PrimaryDeployedM:         f.PrimaryDeployedM,
		FollowOnDeployedM:        f.FollowOnDeployedM,
		Breakdown:                f.Breakdown(),
	}

	if totalCheckDollars > 0 {
		result.AvgEntryOwnershipPct = weightedOwnership / totalCheckDollars
	}

	capitalDeployed := f.CapitalDeployedM()
	if capitalDeployed > 0 {
		moic := totalValue / capitalDeployed
		result.Moic = &moic
	}
	if f.committedM > 0 {
		tvpi := totalValue / f.committedM
		result.Tvpi = &tvpi
	}
	return result
}

// ProRataSkipTally accumulates the two skip reasons observed while
// stepping a scenario's companies.
type ProRataSkipTally struct {
	StageTooLate     int
	ReserveExhausted int
}

// ScenarioResult is the terminal observation of one scenario (spec §3). Nil
// Moic means "zero capital deployed"; the Aggregator excludes such a
// scenario from aggregation (spec §4.4, §7). Tvpi is nil only when
// committed capital is zero.
type ScenarioResult struct {
	Moic *float64
	Tvpi *float64

	TotalCompanies   int
	EntryStageCounts map[market.Stage]int
	FinalStageCounts map[market.Stage]int

	AliveCount    int
	AcquiredCount int
	FailedCount   int

	ValueFromAcquiredM float64
	ValueFromAliveM    float64

	AvgEntryOwnershipPct float64
	ProRataEventsTotal   int

	ProRataSkipsStageTooLate     int
	ProRataSkipsReserveExhausted int

	PrimaryDeployedM  float64
	FollowOnDeployedM float64

	Breakdown []Segment
}
