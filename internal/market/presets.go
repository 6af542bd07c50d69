package market

// Preset identifies one of the three built-in market scenarios a request can
// select via market_scenario.
type Preset string

const (
	BelowMarket Preset = "BELOW_MARKET"
	MarketRate  Preset = "MARKET"
	AboveMarket Preset = "ABOVE_MARKET"
)

// baselineValuation and baselineDilution are shared by all three presets;
// only transition probabilities shift between a below/at/above-market
// environment (valuations and dilution are assumed stable across cycles in
// this model — see spec Open Questions, none of which touch this).
var baselineValuation = map[Stage]float64{
	"Pre-seed":  15,
	"Seed":      30,
	"Series A":  70,
	"Series B":  200,
	"Series C":  500,
	"Series D":  750,
	"Series E":  1500,
	"Series F":  5000,
	"Series G":  10000,
}

var baselineDilution = map[Stage]float64{
	"Pre-seed":  0,
	"Seed":      0.20,
	"Series A":  0.22,
	"Series B":  0.20,
	"Series C":  0.15,
	"Series D":  0.10,
	"Series E":  0.08,
	"Series F":  0.08,
	"Series G":  0.08,
}

var marketTransitions = map[Stage]Transition{
	"Pre-seed": {Promote: 0.50, Fail: 0.35, Mna: 0.15},
	"Seed":     {Promote: 0.50, Fail: 0.35, Mna: 0.15},
	"Series A": {Promote: 0.50, Fail: 0.30, Mna: 0.20},
	"Series B": {Promote: 0.50, Fail: 0.25, Mna: 0.25},
	"Series C": {Promote: 0.50, Fail: 0.25, Mna: 0.25},
	"Series D": {Promote: 0.50, Fail: 0.25, Mna: 0.25},
	"Series E": {Promote: 0.40, Fail: 0.30, Mna: 0.30},
	"Series F": {Promote: 0.30, Fail: 0.30, Mna: 0.30},
	"Series G": {Promote: 0, Fail: 0, Mna: 0},
}

var baselineMna = []MnaOutcome{
	{Weight: 0.01, Multiplier: 10},
	{Weight: 0.05, Multiplier: 5},
	{Weight: 0.60, Multiplier: 1},
	{Weight: 0.34, Multiplier: 0.1},
}

// scaleRates multiplies each stage's promote probability by promoteFactor
// and its fail probability by failFactor, then rescales the pair so that
// promote+fail (and so the total eventful probability promote+fail+mna) is
// unchanged, to model a below/above-market cycle. promoteFactor >
// failFactor tilts toward promotion (above-market); promoteFactor <
// failFactor tilts toward failure (below-market).
func scaleRates(base map[Stage]Transition, promoteFactor, failFactor float64) map[Stage]Transition {
	out := make(map[Stage]Transition, len(base))
	for stage, t := range base {
		if t.sum() == 0 {
			out[stage] = t // terminal stage, never rescaled
			continue
		}
		np := t.Promote * promoteFactor
		nf := t.Fail * failFactor
		// Keep mna fixed and renormalize promote+fail to preserve the
		// original total event probability for the stage.
		total := t.Promote + t.Fail
		newTotal := np + nf
		if newTotal > 0 && total > 0 {
			scale := total / newTotal
			np *= scale
			nf *= scale
		}
		out[stage] = Transition{Promote: np, Fail: nf, Mna: t.Mna}
	}
	return out
}

// NewPreset builds the Model for one of the three built-in presets.
func NewPreset(p Preset) (*Model, error) {
	var transitions map[Stage]Transition
	switch p {
	case MarketRate, "":
		transitions = marketTransitions
	case BelowMarket:
		transitions = scaleRates(marketTransitions, 0.75, 1.30)
	case AboveMarket:
		transitions = scaleRates(marketTransitions, 1.25, 0.75)
	default:
		return nil, &unknownPresetError{preset: p}
	}
	return New(CanonicalStages, baselineValuation, baselineDilution, transitions, baselineMna)
}

type unknownPresetError struct{ preset Preset }

func (e *unknownPresetError) Error() string {
	return "market: unknown preset " + string(e.preset)
}
