package market

import (
	"fmt"
	"math/rand"
)

// Transition is the per-period per-stage outcome distribution. Remaining
// probability mass (1 - Promote - Fail - Mna) means "stays Alive, no stage
// change this period."
type Transition struct {
	Promote float64
	Fail    float64
	Mna     float64
}

func (t Transition) sum() float64 { return t.Promote + t.Fail + t.Mna }

// MnaOutcome is one weighted multiplier in the M&A exit mixture.
type MnaOutcome struct {
	Weight     float64
	Multiplier float64
}

// Model is an immutable, per-request market model: one row per stage of
// valuation, dilution, and transition probabilities, plus a shared M&A
// multiplier mixture. Construct with New, never by zero-value.
type Model struct {
	order       []Stage
	valuation   map[Stage]float64
	dilution    map[Stage]float64
	transitions map[Stage]Transition
	mna         []MnaOutcome
	mnaCum      []float64 // cumulative weights, same length/order as mna
}

const probEpsilon = 1e-9
const mnaWeightEpsilon = 1e-6

// New validates and constructs a Model. order defines the canonical stage
// sequence; valuation/dilution/transitions must each have exactly one entry
// per stage in order. The terminal stage (last in order) must carry
// Promote == 0.
func New(order []Stage, valuation, dilution map[Stage]float64, transitions map[Stage]Transition, mna []MnaOutcome) (*Model, error) {
	if len(order) == 0 {
		return nil, fmt.Errorf("market: stage order must not be empty")
	}
	for _, s := range order {
		if _, ok := valuation[s]; !ok {
			return nil, fmt.Errorf("market: missing valuation for stage %q", s)
		}
		if _, ok := dilution[s]; !ok {
			return nil, fmt.Errorf("market: missing dilution for stage %q", s)
		}
		t, ok := transitions[s]
		if !ok {
			return nil, fmt.Errorf("market: missing transition for stage %q", s)
		}
		if t.Promote < 0 || t.Fail < 0 || t.Mna < 0 {
			return nil, fmt.Errorf("market: negative transition probability at stage %q", s)
		}
		if t.sum() > 1+probEpsilon {
			return nil, fmt.Errorf("market: transition probabilities sum to %.6f > 1 at stage %q", t.sum(), s)
		}
	}
	terminal := order[len(order)-1]
	if transitions[terminal].Promote != 0 {
		return nil, fmt.Errorf("market: terminal stage %q must have promote probability 0", terminal)
	}

	if len(mna) == 0 {
		return nil, fmt.Errorf("market: m&a mixture must not be empty")
	}
	var wsum float64
	cum := make([]float64, len(mna))
	for i, o := range mna {
		if o.Multiplier < 0 {
			return nil, fmt.Errorf("market: negative m&a multiplier %v", o.Multiplier)
		}
		wsum += o.Weight
		cum[i] = wsum
	}
	if wsum < 1-mnaWeightEpsilon || wsum > 1+mnaWeightEpsilon {
		return nil, fmt.Errorf("market: m&a mixture weights sum to %.6f, expected 1", wsum)
	}

	return &Model{
		order:       order,
		valuation:   valuation,
		dilution:    dilution,
		transitions: transitions,
		mna:         mna,
		mnaCum:      cum,
	}, nil
}

// Order returns the canonical stage sequence.
func (m *Model) Order() []Stage { return m.order }

// Valuation returns the post-money valuation ($M) for stage.
func (m *Model) Valuation(stage Stage) float64 { return m.valuation[stage] }

// Dilution returns the dilution fraction suffered on promotion into stage.
func (m *Model) Dilution(stage Stage) float64 { return m.dilution[stage] }

// TransitionAt returns the (promote, fail, mna) triple for stage.
func (m *Model) TransitionAt(stage Stage) Transition { return m.transitions[stage] }

// IsTerminal reports whether stage is the last stage in the model's order.
func (m *Model) IsTerminal(stage Stage) bool { return IsTerminal(m.order, stage) }

// NextStage returns the stage one index beyond stage. Callers must check
// IsTerminal first; calling NextStage on the terminal stage is a modeling
// bug (it cannot happen because Promote == 0 there, see New).
func (m *Model) NextStage(stage Stage) Stage {
	idx := IndexOf(m.order, stage)
	if idx < 0 || idx == len(m.order)-1 {
		return stage
	}
	return m.order[idx+1]
}

// SampleMnaMultiplier draws u ~ U[0,1) from rng and walks the cumulative
// weights of the mixture, returning the multiplier of the first bin whose
// cumulative weight exceeds u (ties broken toward the lower index).
func (m *Model) SampleMnaMultiplier(rng *rand.Rand) float64 {
	u := rng.Float64()
	for i, c := range m.mnaCum {
		if u < c {
			return m.mna[i].Multiplier
		}
	}
	// Floating-point residue: u landed past the last cumulative bin.
	return m.mna[len(m.mna)-1].Multiplier
}
