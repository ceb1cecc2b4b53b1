package layers

import (
	"fmt"
	"math"

	"calengine/domain/calibration"
	"calengine/internal/registry"
)

// Ramp breakpoints: below rampAbort the unit aborts, above rampSaturate the
// transform saturates at 1.
const (
	rampAbort    = 0.3
	rampSaturate = 0.8
)

// unitEvaluator maps the context's unit quality U through the method's
// configured transform g_M. Every variant is monotonic non-decreasing in U
// and bounded [0,1]; the unit property test verifies this over a dense grid.
type unitEvaluator struct{}

func (unitEvaluator) Layer() calibration.LayerID { return calibration.LayerUnit }

func (unitEvaluator) Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error) {
	rec, err := snap.Method(subject.Method)
	if err != nil {
		return calibration.LayerScore{}, err
	}
	u := subject.Context.UnitQuality
	value, formula := ApplyUnitTransform(rec.UnitTransform, u)

	return calibration.LayerScore{
		Layer: calibration.LayerUnit,
		Value: value,
		Evidence: map[string]string{
			"unit_quality": fmt.Sprintf("%.6f", u),
			"transform":    string(rec.UnitTransform),
		},
		Formula: formula,
	}, nil
}

// ApplyUnitTransform computes g_M(U) for the selected transform variant.
// Exported for the monotonicity property test.
func ApplyUnitTransform(kind registry.UnitTransformKind, u float64) (float64, string) {
	switch kind {
	case registry.UnitTransformIdentity:
		return clamp01(u), fmt.Sprintf("x_u = U = %.6f", u)
	case registry.UnitTransformSigmoid:
		// Clamped so the exponential tail below U=0.5 cannot leave [0,1].
		v := clamp01(1 - math.Exp(-5*(u-0.5)))
		return v, fmt.Sprintf("x_u = clamp(1 - exp(-5*(%.4f-0.5))) = %.6f", u, v)
	default: // ramp
		switch {
		case u < rampAbort:
			return 0, fmt.Sprintf("x_u = 0 (U=%.4f < %.1f, abort)", u, rampAbort)
		case u < rampSaturate:
			v := 2*u - 0.6
			return v, fmt.Sprintf("x_u = 2*%.4f - 0.6 = %.6f", u, v)
		default:
			return 1, fmt.Sprintf("x_u = 1 (U=%.4f >= %.1f, saturated)", u, rampSaturate)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
