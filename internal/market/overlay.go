package market

import (
	"fmt"

	hjson "github.com/hjson/hjson-go/v4"

	"vcfundsim/internal/simerr"
)

// Overlay holds partial market-field overrides as they arrive from the
// request body (spec.md §3: "Optional per-request overrides for any
// MarketModel field") or from an analyst-maintained Hjson file on disk.
// Nil or empty fields mean "no override"; a stage present as a key in a map
// is an explicit override, a stage absent from it keeps the base value.
type Overlay struct {
	Valuation   map[Stage]float64
	Dilution    map[Stage]float64
	Transitions map[Stage]Transition
	Mna         []MnaOutcome
}

// ParseOverlayHjson parses a human-edited Hjson overlay document (comments,
// unquoted keys, optional commas allowed) into an Overlay. This is the
// format an analyst hand-edits to try a custom graduation-rate table
// without touching the UI; it is never required, and malformed documents
// are rejected rather than silently ignored.
func ParseOverlayHjson(doc []byte) (*Overlay, error) {
	var raw struct {
		Valuation   map[string]float64 `json:"valuation"`
		Dilution    map[string]float64 `json:"dilution"`
		Transitions map[string]struct {
			Promote float64 `json:"promote"`
			Fail    float64 `json:"fail"`
			Mna     float64 `json:"mna"`
		} `json:"transitions"`
		Mna []struct {
			Weight     float64 `json:"weight"`
			Multiplier float64 `json:"multiplier"`
		} `json:"mna"`
	}
	if err := hjson.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("market: overlay hjson parse failed: %w", err)
	}

	ov := &Overlay{
		Valuation:   make(map[Stage]float64, len(raw.Valuation)),
		Dilution:    make(map[Stage]float64, len(raw.Dilution)),
		Transitions: make(map[Stage]Transition, len(raw.Transitions)),
	}
	for k, v := range raw.Valuation {
		ov.Valuation[Stage(k)] = v
	}
	for k, v := range raw.Dilution {
		ov.Dilution[Stage(k)] = v
	}
	for k, v := range raw.Transitions {
		ov.Transitions[Stage(k)] = Transition{Promote: v.Promote, Fail: v.Fail, Mna: v.Mna}
	}
	for _, m := range raw.Mna {
		ov.Mna = append(ov.Mna, MnaOutcome{Weight: m.Weight, Multiplier: m.Multiplier})
	}
	return ov, nil
}

// Apply merges an overlay onto a base preset, returning a new validated
// Model. Unset overlay fields fall through to the base model's values. Any
// stage key in the overlay that is not part of base's canonical order is
// rejected (spec.md §9: "unknown keys are rejected to preserve
// forward-compatibility guarantees") rather than silently accepted as a
// new, uncontrolled stage.
func Apply(base *Model, ov *Overlay) (*Model, error) {
	if ov == nil {
		return base, nil
	}
	if err := rejectUnknownStages(base, ov); err != nil {
		return nil, err
	}

	valuation := make(map[Stage]float64, len(base.valuation))
	for k, v := range base.valuation {
		valuation[k] = v
	}
	for k, v := range ov.Valuation {
		valuation[k] = v
	}

	dilution := make(map[Stage]float64, len(base.dilution))
	for k, v := range base.dilution {
		dilution[k] = v
	}
	for k, v := range ov.Dilution {
		dilution[k] = v
	}

	transitions := make(map[Stage]Transition, len(base.transitions))
	for k, v := range base.transitions {
		transitions[k] = v
	}
	for k, v := range ov.Transitions {
		transitions[k] = v
	}

	mna := base.mna
	if len(ov.Mna) > 0 {
		mna = ov.Mna
	}

	return New(base.order, valuation, dilution, transitions, mna)
}

// rejectUnknownStages checks every stage key named in ov's Valuation,
// Dilution and Transitions maps against base's canonical order.
func rejectUnknownStages(base *Model, ov *Overlay) error {
	for s := range ov.Valuation {
		if IndexOf(base.order, s) < 0 {
			return simerr.NewConfigError(simerr.KindUnknownOverride, "overrides.stage_valuations", "unknown stage %q", s)
		}
	}
	for s := range ov.Dilution {
		if IndexOf(base.order, s) < 0 {
			return simerr.NewConfigError(simerr.KindUnknownOverride, "overrides.dilution", "unknown stage %q", s)
		}
	}
	for s := range ov.Transitions {
		if IndexOf(base.order, s) < 0 {
			return simerr.NewConfigError(simerr.KindUnknownOverride, "overrides.graduation_rates", "unknown stage %q", s)
		}
	}
	return nil
}
