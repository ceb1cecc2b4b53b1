// Package layers implements the per-layer score evaluators. Each evaluator
// is a pure function of (subject, snapshot): no internal mutable state, safe
// for high-fan-out concurrent invocation.
package layers

import (
	"fmt"

	"calengine/domain/calibration"
	"calengine/internal/registry"
)

// Evaluator produces one layer's score for a subject.
type Evaluator interface {
	Layer() calibration.LayerID
	Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error)
}

// ForLayer selects the evaluator implementation for a layer id. Dispatch is
// a lookup, not an inheritance hierarchy; Question/Dimension/Policy share
// one evaluator shape parameterized by axis.
func ForLayer(id calibration.LayerID) (Evaluator, error) {
	switch id {
	case calibration.LayerBase:
		return baseEvaluator{}, nil
	case calibration.LayerUnit:
		return unitEvaluator{}, nil
	case calibration.LayerQuestion:
		return contextualEvaluator{layer: id, axis: calibration.AxisQuestion}, nil
	case calibration.LayerDimension:
		return contextualEvaluator{layer: id, axis: calibration.AxisDimension}, nil
	case calibration.LayerPolicy:
		return contextualEvaluator{layer: id, axis: calibration.AxisPolicy}, nil
	case calibration.LayerCongruence:
		return congruenceEvaluator{}, nil
	case calibration.LayerChain:
		return chainEvaluator{}, nil
	case calibration.LayerMeta:
		return metaEvaluator{}, nil
	}
	return nil, fmt.Errorf("no evaluator for layer %q", id)
}

// rung is one step of a discrete rule ladder: ordered (predicate, score)
// pairs evaluated top-down, first match wins.
type rung[E any] struct {
	name    string
	score   float64
	matches func(ev E) (bool, string)
}

// climb walks the ladder and returns the first matching rung's score, name,
// and reason. The last rung must always match.
func climb[E any](ladder []rung[E], ev E) (float64, string, string) {
	for _, r := range ladder {
		if ok, reason := r.matches(ev); ok {
			return r.score, r.name, reason
		}
	}
	// Unreachable when ladders end with a catch-all rung.
	return 0, "unmatched", "no ladder rung matched"
}
