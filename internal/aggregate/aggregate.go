// Package aggregate implements the Aggregator (spec.md §4.6): it reduces a
// vector of per-scenario terminal observations into percentiles, a
// histogram, and per-bin/per-percentile portfolio composition snapshots.
package aggregate

import (
	"math"
	"sort"

	"vcfundsim/internal/fundconfig"
	"vcfundsim/internal/market"
	"vcfundsim/internal/portfolio"
	"vcfundsim/internal/simerr"
	"vcfundsim/pkg/models"
)

const histogramBins = 24
const histogramMax = 10.0
const binWidth = histogramMax / histogramBins

var requiredPercentiles = []int{25, 50, 75, 90}
var snapshotPercentiles = []int{25, 50, 75, 90, 95}

type observation struct {
	index int
	moic  float64
}

// Summarize reduces results into a FundReport (spec.md §4.6). Scenarios
// with nil Moic (zero capital deployed) are excluded from every
// percentile/histogram/mean computation but still counted in
// NumZeroCapitalSkipped. If every scenario has nil Moic, Summarize returns
// simerr.NewNoDeployableCapital() (spec.md §7).
func Summarize(results []portfolio.ScenarioResult, cfg *fundconfig.Config) (models.FundReport, error) {
	moicObs := make([]observation, 0, len(results))
	tvpiObs := make([]observation, 0, len(results))

	var totalCompanies, failedCompanies, activeCompanies, acquiredCompanies float64
	var weightedOwnership, totalPrimary, totalFollowOn float64
	var skipStageTooLate, skipReserveExhausted int
	zeroCapital := 0

	for i, r := range results {
		if r.Moic == nil {
			zeroCapital++
			continue
		}
		moicObs = append(moicObs, observation{index: i, moic: *r.Moic})
		if r.Tvpi != nil {
			tvpiObs = append(tvpiObs, observation{index: i, moic: *r.Tvpi})
		}

		totalCompanies += float64(r.TotalCompanies)
		failedCompanies += float64(r.FailedCount)
		activeCompanies += float64(r.AliveCount)
		acquiredCompanies += float64(r.AcquiredCount)
		weightedOwnership += r.AvgEntryOwnershipPct
		totalPrimary += r.PrimaryDeployedM
		totalFollowOn += r.FollowOnDeployedM
		skipStageTooLate += r.ProRataSkipsStageTooLate
		skipReserveExhausted += r.ProRataSkipsReserveExhausted
	}

	if len(moicObs) == 0 {
		return models.FundReport{}, simerr.NewNoDeployableCapital()
	}

	n := float64(len(moicObs))
	report := models.FundReport{
		MoicPercentiles: computePercentiles(moicObs),
		TvpiPercentiles: computePercentiles(tvpiObs),

		Histogram:           buildHistogram(results, moicObs),
		PercentileSnapshots: buildSnapshots(results, moicObs),

		FundSizeM:         cfg.FundSizeM,
		CommittedCapitalM: cfg.FundSizeM,

		AvgTotalCompanies:    totalCompanies / n,
		AvgFailedCompanies:   failedCompanies / n,
		AvgActiveCompanies:   activeCompanies / n,
		AvgAcquiredCompanies: acquiredCompanies / n,
		AvgEntryOwnershipPct: weightedOwnership / n,
		AvgPrimaryInvestedM:  totalPrimary / n,
		AvgFollowOnInvestedM: totalFollowOn / n,

		ProRataSkipsStageTooLate:     skipStageTooLate,
		ProRataSkipsReserveExhausted: skipReserveExhausted,

		NumScenarios:          len(results),
		NumZeroCapitalSkipped: zeroCapital,

		MoicDistribution: moicDistribution(moicObs),
	}
	return report, nil
}

// percentileValue implements spec.md §4.6's definition exactly:
// sorted[floor(p/100 * len)] clamped to len-1.
func percentileValue(sorted []float64, p int) float64 {
	idx := int(math.Floor(float64(p) / 100.0 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func computePercentiles(obs []observation) models.Percentiles {
	values := make([]float64, len(obs))
	var sum float64
	for i, o := range obs {
		values[i] = o.moic
		sum += o.moic
	}
	sort.Float64s(values)

	return models.Percentiles{
		P25:    percentileValue(values, 25),
		P50:    percentileValue(values, 50),
		P75:    percentileValue(values, 75),
		P90:    percentileValue(values, 90),
		Mean:   sum / float64(len(values)),
		Median: percentileValue(values, 50),
	}
}

// buildHistogram groups MOIC observations into 24 uniform bins over [0, 10]
// (spec.md §4.6). Values >= 10 fall into the final bin. Each bin's
// portfolio segments are the mean count/value of the underlying scenarios'
// breakdowns, grouped by (stage, state); the mean count is rounded to the
// nearest whole company.
func buildHistogram(results []portfolio.ScenarioResult, obs []observation) []models.HistogramBin {
	bins := make([]models.HistogramBin, histogramBins)
	byBin := make([][]int, histogramBins)
	for i := range bins {
		bins[i].LowerBound = float64(i) * binWidth
		bins[i].UpperBound = float64(i+1) * binWidth
	}

	for _, o := range obs {
		idx := int(o.moic / binWidth)
		if idx >= histogramBins {
			idx = histogramBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
		byBin[idx] = append(byBin[idx], o.index)
	}

	for i := range bins {
		bins[i].Segments = meanSegments(results, byBin[i])
	}
	return bins
}

// meanSegments averages the per-scenario Breakdown() segments (grouped by
// stage x state) across the scenario indices listed, producing the
// count_mean/value_mean rows spec.md §4.6 calls for. Segment.Count is an
// int, so the mean count is rounded to the nearest integer; ValueM is the
// unrounded mean.
func meanSegments(results []portfolio.ScenarioResult, indices []int) []portfolio.Segment {
	if len(indices) == 0 {
		return nil
	}
	type key struct {
		state portfolio.State
		stage market.Stage
	}
	counts := map[key]int{}
	values := map[key]float64{}
	order := make([]key, 0)

	for _, idx := range indices {
		for _, seg := range results[idx].Breakdown {
			k := key{state: seg.Type, stage: seg.Stage}
			if _, seen := counts[k]; !seen {
				order = append(order, k)
			}
			counts[k] += seg.Count
			values[k] += seg.ValueM
		}
	}

	n := float64(len(indices))
	out := make([]portfolio.Segment, 0, len(order))
	for _, k := range order {
		out = append(out, portfolio.Segment{
			Type:   k.state,
			Stage:  k.stage,
			Count:  int(math.Round(float64(counts[k]) / n)),
			ValueM: values[k] / n,
		})
	}
	return out
}

// buildSnapshots finds, for each of P25/P50/P75/P90/P95, the scenario whose
// MOIC is nearest that percentile's value (ties broken toward the first
// occurrence in ascending sort order), and reports its portfolio
// composition verbatim (spec.md §4.6).
func buildSnapshots(results []portfolio.ScenarioResult, obs []observation) []models.PercentileSnapshot {
	sorted := make([]observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].moic < sorted[j].moic })

	values := make([]float64, len(sorted))
	for i, o := range sorted {
		values[i] = o.moic
	}

	snapshots := make([]models.PercentileSnapshot, 0, len(snapshotPercentiles))
	for _, p := range snapshotPercentiles {
		target := percentileValue(values, p)
		nearest := nearestByValue(sorted, target)
		snapshots = append(snapshots, models.PercentileSnapshot{
			Percentile: p,
			Moic:       nearest.moic,
			Segments:   results[nearest.index].Breakdown,
		})
	}
	return snapshots
}

func nearestByValue(sorted []observation, target float64) observation {
	best := sorted[0]
	bestDiff := math.Abs(best.moic - target)
	for _, o := range sorted[1:] {
		diff := math.Abs(o.moic - target)
		if diff < bestDiff {
			best, bestDiff = o, diff
		}
	}
	return best
}

// moicDistribution returns the raw per-scenario MOIC values in scenario
// index order (spec.md §4.6's "raw moic_distribution").
func moicDistribution(obs []observation) []float64 {
	sorted := make([]observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].index < sorted[j].index })
	out := make([]float64, len(sorted))
	for i, o := range sorted {
		out[i] = o.moic
	}
	return out
}
