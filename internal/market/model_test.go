package market

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewPreset_MarketRate_TerminalStageHasNoPromotion(t *testing.T) {
	m, err := NewPreset(MarketRate)
	if err != nil {
		t.Fatalf("NewPreset(MARKET) failed: %v", err)
	}
	terminal := Stage("Series G")
	if !m.IsTerminal(terminal) {
		t.Fatalf("expected %q to be terminal", terminal)
	}
	tr := m.TransitionAt(terminal)
	if tr.Promote != 0 {
		t.Errorf("terminal stage promote = %v, want 0", tr.Promote)
	}
}

func TestNew_RejectsNegativeTransition(t *testing.T) {
	order := []Stage{"A", "B"}
	valuation := map[Stage]float64{"A": 1, "B": 2}
	dilution := map[Stage]float64{"A": 0, "B": 0.1}
	transitions := map[Stage]Transition{
		"A": {Promote: -0.1, Fail: 0.2, Mna: 0.1},
		"B": {Promote: 0, Fail: 0, Mna: 0},
	}
	_, err := New(order, valuation, dilution, transitions, []MnaOutcome{{Weight: 1, Multiplier: 1}})
	if err == nil {
		t.Fatal("expected error for negative transition probability")
	}
}

func TestNew_RejectsTransitionSumAboveOne(t *testing.T) {
	order := []Stage{"A", "B"}
	valuation := map[Stage]float64{"A": 1, "B": 2}
	dilution := map[Stage]float64{"A": 0, "B": 0.1}
	transitions := map[Stage]Transition{
		"A": {Promote: 0.6, Fail: 0.3, Mna: 0.3},
		"B": {Promote: 0, Fail: 0, Mna: 0},
	}
	_, err := New(order, valuation, dilution, transitions, []MnaOutcome{{Weight: 1, Multiplier: 1}})
	if err == nil {
		t.Fatal("expected error for transition sum > 1")
	}
}

func TestNew_RejectsBadMnaMixture(t *testing.T) {
	order := []Stage{"A"}
	valuation := map[Stage]float64{"A": 1}
	dilution := map[Stage]float64{"A": 0}
	transitions := map[Stage]Transition{"A": {Promote: 0, Fail: 0, Mna: 0}}

	if _, err := New(order, valuation, dilution, transitions, []MnaOutcome{{Weight: 0.5, Multiplier: 1}}); err == nil {
		t.Error("expected error: mixture weights sum to 0.5, not 1")
	}
	if _, err := New(order, valuation, dilution, transitions, []MnaOutcome{{Weight: 1, Multiplier: -2}}); err == nil {
		t.Error("expected error: negative multiplier")
	}
}

func TestNew_RejectsNonZeroPromoteAtLastStage(t *testing.T) {
	order := []Stage{"A", "B"}
	valuation := map[Stage]float64{"A": 1, "B": 2}
	dilution := map[Stage]float64{"A": 0, "B": 0.1}
	transitions := map[Stage]Transition{
		"A": {Promote: 0.5, Fail: 0.3, Mna: 0.2},
		"B": {Promote: 0.1, Fail: 0, Mna: 0}, // terminal but promote != 0
	}
	_, err := New(order, valuation, dilution, transitions, []MnaOutcome{{Weight: 1, Multiplier: 1}})
	if err == nil {
		t.Fatal("expected error: terminal stage must have promote == 0")
	}
}

func TestSampleMnaMultiplier_RespectsCumulativeBins(t *testing.T) {
	m, err := NewPreset(MarketRate)
	if err != nil {
		t.Fatalf("NewPreset failed: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	counts := map[float64]int{}
	const trials = 20000
	for i := 0; i < trials; i++ {
		k := m.SampleMnaMultiplier(rng)
		counts[k]++
	}
	// 1x weight is 0.60, by far the most common outcome.
	onexShare := float64(counts[1.0]) / float64(trials)
	if math.Abs(onexShare-0.60) > 0.03 {
		t.Errorf("1x multiplier share = %.3f, want ~0.60", onexShare)
	}
}

func TestScaleRates_BelowMarketIsMorePessimisticThanAbove(t *testing.T) {
	below, err := NewPreset(BelowMarket)
	if err != nil {
		t.Fatalf("below market: %v", err)
	}
	above, err := NewPreset(AboveMarket)
	if err != nil {
		t.Fatalf("above market: %v", err)
	}
	stage := Stage("Series A")
	if below.TransitionAt(stage).Fail <= above.TransitionAt(stage).Fail {
		t.Errorf("expected below-market fail rate (%v) > above-market fail rate (%v) at %q",
			below.TransitionAt(stage).Fail, above.TransitionAt(stage).Fail, stage)
	}
	if below.TransitionAt(stage).Promote >= above.TransitionAt(stage).Promote {
		t.Errorf("expected below-market promote rate (%v) < above-market promote rate (%v) at %q",
			below.TransitionAt(stage).Promote, above.TransitionAt(stage).Promote, stage)
	}
}

func TestApplyOverlay_OverridesOnlyNamedFields(t *testing.T) {
	base, err := NewPreset(MarketRate)
	if err != nil {
		t.Fatalf("NewPreset failed: %v", err)
	}
	ov := &Overlay{Valuation: map[Stage]float64{"Seed": 45}}
	merged, err := Apply(base, ov)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if merged.Valuation("Seed") != 45 {
		t.Errorf("Seed valuation = %v, want 45", merged.Valuation("Seed"))
	}
	if merged.Valuation("Series A") != base.Valuation("Series A") {
		t.Errorf("Series A valuation changed unexpectedly: %v", merged.Valuation("Series A"))
	}
}

func TestParseOverlayHjson_ParsesCommentsAndUnquotedKeys(t *testing.T) {
	doc := []byte(`{
		# friendlier seed valuation for this what-if
		valuation: {
			Seed: 45
		}
	}`)
	ov, err := ParseOverlayHjson(doc)
	if err != nil {
		t.Fatalf("ParseOverlayHjson failed: %v", err)
	}
	if ov.Valuation["Seed"] != 45 {
		t.Errorf("Seed override = %v, want 45", ov.Valuation["Seed"])
	}
}
