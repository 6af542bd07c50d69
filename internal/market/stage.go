package market

// Stage is a funding-stage identifier. Stages form a total order; index 0 is
// the earliest stage, the last index is terminal (no further promotion).
type Stage string

// CanonicalStages is the default stage order used by every preset. A
// MarketModel's valuation/dilution/transition tables must be indexed in
// exactly this order.
var CanonicalStages = []Stage{
	"Pre-seed",
	"Seed",
	"Series A",
	"Series B",
	"Series C",
	"Series D",
	"Series E",
	"Series F",
	"Series G",
}

// IndexOf returns the position of stage in order, or -1 if not found.
func IndexOf(order []Stage, stage Stage) int {
	for i, s := range order {
		if s == stage {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether stage is the last stage in order.
func IsTerminal(order []Stage, stage Stage) bool {
	idx := IndexOf(order, stage)
	return idx >= 0 && idx == len(order)-1
}
