package fundconfig

import (
	"math"
	"strconv"

	"vcfundsim/internal/market"
	"vcfundsim/internal/simerr"
)

const defaultFeeDurationYears = 10
const defaultNumPeriods = 8

// New validates req, normalizes stage allocations, derives the dollar
// quantities, and resolves the effective MarketModel (preset + overrides).
// It is the only place dollars get solved; the simulation engine treats the
// returned Config as opaque, already-correct input.
func New(req Request) (*Config, error) {
	if req.FundSizeM <= 0 {
		return nil, simerr.NewConfigError(simerr.KindFieldRange, "fund_size_m", "must be > 0, got %v", req.FundSizeM)
	}
	if req.NumIterations < 100 {
		return nil, simerr.NewConfigError(simerr.KindFieldRange, "num_iterations", "must be >= 100, got %v", req.NumIterations)
	}
	numPeriods := req.NumPeriods
	if numPeriods == 0 {
		numPeriods = defaultNumPeriods
	}
	if numPeriods < 1 {
		return nil, simerr.NewConfigError(simerr.KindFieldRange, "num_periods", "must be >= 1, got %v", numPeriods)
	}
	if req.DryPowderReserveForProRata < 0 || req.DryPowderReserveForProRata > 0.9 {
		return nil, simerr.NewConfigError(simerr.KindFieldRange, "dry_powder_reserve_for_pro_rata",
			"must be within [0, 0.9], got %v", req.DryPowderReserveForProRata)
	}
	if len(req.StageAllocations) == 0 {
		return nil, simerr.NewConfigError(simerr.KindFieldRange, "stage_allocations", "must not be empty")
	}

	pctSum := 0
	for i, a := range req.StageAllocations {
		if a.CheckSize <= 0 {
			return nil, simerr.NewConfigError(simerr.KindFieldRange, fieldPath(i, "check_size"),
				"must be > 0, got %v", a.CheckSize)
		}
		pctSum += a.Pct
	}
	if pctSum != 100 {
		return nil, simerr.NewConfigError(simerr.KindAllocationSum, "stage_allocations", "percentages sum to %d, must be exactly 100", pctSum)
	}

	base, err := market.NewPreset(req.MarketPreset)
	if err != nil {
		return nil, simerr.NewConfigError(simerr.KindProbabilities, "market_scenario", "%v", err)
	}
	effective, err := market.Apply(base, req.Overrides)
	if err != nil {
		if cfgErr, ok := err.(*simerr.ConfigError); ok {
			return nil, cfgErr
		}
		return nil, simerr.NewConfigError(simerr.KindMnaMixture, "overrides", "%v", err)
	}

	for i, a := range req.StageAllocations {
		if market.IndexOf(effective.Order(), a.Stage) < 0 {
			return nil, simerr.NewConfigError(simerr.KindUnknownStage, fieldPath(i, "stage"), "unknown stage %q", a.Stage)
		}
	}

	feeYears := req.FeeDurationYears
	if feeYears == 0 {
		feeYears = defaultFeeDurationYears
	}

	fees := req.FundSizeM * req.ManagementFeePct * float64(feeYears)
	recycled := req.FundSizeM * req.RecycledCapitalPct
	deployable := req.FundSizeM - fees + recycled
	reserve := req.FundSizeM * req.DryPowderReserveForProRata
	primaryPool := deployable - reserve

	merged := mergeAllocations(req.StageAllocations)

	checks := make([]InitialCheck, 0, len(merged))
	for _, a := range merged {
		numChecks := int(math.Floor(allocatedDollars(primaryPool, a.Pct) / a.CheckSize))
		deployed := float64(numChecks) * a.CheckSize
		remainder := allocatedDollars(primaryPool, a.Pct) - deployed
		if req.ReinvestUnusedReserve {
			reserve += remainder
		}
		// else: remainder is discarded, per the spec's fixed remainder policy.

		checks = append(checks, InitialCheck{
			Stage:            a.Stage,
			Count:            numChecks,
			CheckSize:        a.CheckSize,
			OwnershipAtEntry: a.CheckSize / effective.Valuation(a.Stage),
		})
	}

	cfg := &Config{
		FundSizeM:             req.FundSizeM,
		DeployableCapital:     deployable,
		Reserve:               reserve,
		PrimaryPool:           primaryPool,
		InitialChecks:         checks,
		ReinvestUnusedReserve: req.ReinvestUnusedReserve,
		ProRataMaxValuation:   req.ProRataMaxValuation,
		NumPeriods:            numPeriods,
		NumIterations:         req.NumIterations,
		Seed:                  req.Seed,
		Market:                effective,
	}
	if !req.HasSeed {
		cfg.Seed = defaultSeed
	}
	return cfg, nil
}

// defaultSeed is used when the request carries no explicit seed. It is a
// fixed constant, never derived from wall-clock time (determinism
// contract, spec §9).
const defaultSeed uint64 = 0xC0FFEE

type mergedAllocation struct {
	Stage     market.Stage
	Pct       int
	CheckSize float64
}

// mergeAllocations folds duplicate stage rows into one row per stage, using
// a share-weighted average check size (weighted by each duplicate row's
// pct, as spec.md §3 requires).
func mergeAllocations(rows []StageAllocationInput) []mergedAllocation {
	order := make([]market.Stage, 0, len(rows))
	pctByStage := map[market.Stage]int{}
	weightedCheckSum := map[market.Stage]float64{}

	for _, r := range rows {
		if _, seen := pctByStage[r.Stage]; !seen {
			order = append(order, r.Stage)
		}
		pctByStage[r.Stage] += r.Pct
		weightedCheckSum[r.Stage] += float64(r.Pct) * r.CheckSize
	}

	out := make([]mergedAllocation, 0, len(order))
	for _, s := range order {
		pct := pctByStage[s]
		checkSize := r0(weightedCheckSum[s], pct)
		out = append(out, mergedAllocation{Stage: s, Pct: pct, CheckSize: checkSize})
	}
	return out
}

func r0(weightedSum float64, pct int) float64 {
	if pct == 0 {
		return 0
	}
	return weightedSum / float64(pct)
}

func allocatedDollars(primaryPool float64, pct int) float64 {
	return primaryPool * float64(pct) / 100.0
}

func fieldPath(index int, field string) string {
	return "stage_allocations[" + strconv.Itoa(index) + "]." + field
}
