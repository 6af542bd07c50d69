// Package portfolio implements the per-scenario entity model: a single
// Company's stochastic lifecycle and the Fund that owns a flat vector of
// them, enforces the capital-accounting invariants, and produces the
// scenario's terminal ScenarioResult.
package portfolio

import (
	"math/rand"

	"vcfundsim/internal/market"
)

// State is a Company's lifecycle state. Alive is the only non-terminal
// state; once a Company leaves it, no further mutation is permitted.
type State int

const (
	Alive State = iota
	Acquired
	Failed
)

func (s State) String() string {
	switch s {
	case Alive:
		return "alive"
	case Acquired:
		return "acquired"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SkipReason categorizes why a pro-rata check was not taken on an
// otherwise-eligible promotion.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipStageTooLate     SkipReason = "stage_too_late"
	SkipReserveExhausted SkipReason = "reserve_exhausted"
)

// ProRataFunder is the capital-accounting side of the pro-rata rule (spec
// §4.4), implemented by Fund. Separating it from Company keeps the
// company's state machine free of direct knowledge of the shared reserve.
type ProRataFunder interface {
	ProRataMaxValuation() float64
	ReserveRemaining() float64
	// TryProRata invests up to desired (already known > 0) against the
	// shared reserve and reports what was actually invested.
	TryProRata(desired float64) (invested float64, ok bool)
}

// Company is one portfolio position, exclusively owned by a Fund.
type Company struct {
	ID                string
	EntryStage        market.Stage
	Stage             market.Stage
	State             State
	ExitValuationM    float64 // meaningful only when State == Acquired
	ValuationM        float64
	OwnershipFrac     float64
	OwnershipAtEntry  float64 // set once in NewCompany; never mutated afterward
	InvestedPrimaryM  float64
	InvestedFollowOnM float64
	AgePeriods        int
	ProRataEvents     int
}

// NewCompany creates a Company at t=0: entry stage, entry valuation, entry
// ownership, and its primary check recorded as invested.
func NewCompany(id string, stage market.Stage, valuationM, ownershipFrac, checkSize float64) *Company {
	return &Company{
		ID:               id,
		EntryStage:       stage,
		Stage:            stage,
		State:            Alive,
		ValuationM:       valuationM,
		OwnershipFrac:    ownershipFrac,
		OwnershipAtEntry: ownershipFrac,
		InvestedPrimaryM: checkSize,
	}
}

// StepOutcome reports what happened to a company during one period, for the
// scenario-level pro-rata tallies (spec §4.4's skip_reason, supplemented —
// see SPEC_FULL.md §4).
type StepOutcome struct {
	Promoted          bool
	ProRataTaken       bool
	ProRataSkipReason SkipReason
}

// Step evaluates one period of the lifecycle (spec §4.3). If the company is
// not Alive, Step is a no-op: "once state != Alive, no further mutations."
func (c *Company) Step(rng *rand.Rand, m *market.Model, funder ProRataFunder) StepOutcome {
	if c.State != Alive {
		return StepOutcome{}
	}

	u := rng.Float64()
	t := m.TransitionAt(c.Stage)

	var outcome StepOutcome
	switch {
	case u < t.Fail:
		c.fail()
	case u < t.Fail+t.Mna:
		c.mAndA(m, rng)
	case u < t.Fail+t.Mna+t.Promote:
		outcome = c.promote(m, funder)
	default:
		// Remaining probability mass: stays Alive, no stage change.
	}

	c.AgePeriods++
	return outcome
}

func (c *Company) fail() {
	c.State = Failed
	c.ValuationM = 0
}

func (c *Company) mAndA(m *market.Model, rng *rand.Rand) {
	k := m.SampleMnaMultiplier(rng)
	c.ExitValuationM = c.ValuationM * k
	c.State = Acquired
}

// promote advances the company to the next stage, applies dilution, and
// evaluates the pro-rata rule. If the model is already at its terminal
// stage this is a silent no-op (spec §4.3's standardized resolution of the
// "promote past the last stage" open question) — it cannot actually be
// reached because the terminal stage carries Promote == 0 (market.New
// enforces this), so this branch exists only as a defensive guard.
func (c *Company) promote(m *market.Model, funder ProRataFunder) StepOutcome {
	if m.IsTerminal(c.Stage) {
		return StepOutcome{}
	}

	next := m.NextStage(c.Stage)
	thetaPreDilution := c.OwnershipFrac
	thetaPostDilution := thetaPreDilution * (1 - m.Dilution(next))

	c.Stage = next
	c.ValuationM = m.Valuation(next)
	c.OwnershipFrac = thetaPostDilution

	outcome := StepOutcome{Promoted: true}

	desiredCheck := (thetaPreDilution - thetaPostDilution) * c.ValuationM
	if desiredCheck <= 0 {
		return outcome
	}
	if c.ValuationM > funder.ProRataMaxValuation() {
		outcome.ProRataSkipReason = SkipStageTooLate
		return outcome
	}
	if funder.ReserveRemaining() <= 0 {
		outcome.ProRataSkipReason = SkipReserveExhausted
		return outcome
	}

	invested, ok := funder.TryProRata(desiredCheck)
	if !ok {
		outcome.ProRataSkipReason = SkipReserveExhausted
		return outcome
	}

	c.OwnershipFrac = thetaPostDilution + invested/c.ValuationM
	c.InvestedFollowOnM += invested
	c.ProRataEvents++
	outcome.ProRataTaken = true
	return outcome
}

// TerminalValueM is this company's contribution to total portfolio value at
// the end of the simulation (spec §4.4's terminal accounting).
func (c *Company) TerminalValueM() float64 {
	switch c.State {
	case Alive:
		return c.ValuationM * c.OwnershipFrac
	case Acquired:
		return c.ExitValuationM * c.OwnershipFrac
	default: // Failed
		return 0
	}
}
