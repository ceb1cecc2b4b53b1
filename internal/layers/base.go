package layers

import (
	"fmt"

	"calengine/domain/calibration"
	"calengine/internal/registry"
)

// baseEvaluator scores intrinsic code quality from the method's registered
// theory/implementation/deployment scores:
//
//	x_b = w_th*b_theory + w_imp*b_impl + w_dep*b_deploy
//
// The weights form a convex combination (validated at snapshot load), so the
// result is bounded [0,1] by construction.
type baseEvaluator struct{}

func (baseEvaluator) Layer() calibration.LayerID { return calibration.LayerBase }

func (baseEvaluator) Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error) {
	rec, err := snap.Method(subject.Method)
	if err != nil {
		return calibration.LayerScore{}, err
	}
	b := rec.Base
	value := b.Combined()

	return calibration.LayerScore{
		Layer: calibration.LayerBase,
		Value: value,
		Evidence: map[string]string{
			"b_theory": fmt.Sprintf("%.6f", b.Theory),
			"b_impl":   fmt.Sprintf("%.6f", b.Impl),
			"b_deploy": fmt.Sprintf("%.6f", b.Deploy),
		},
		Formula: fmt.Sprintf("x_b = %.4f*%.4f + %.4f*%.4f + %.4f*%.4f = %.6f",
			b.WTheory, b.Theory, b.WImpl, b.Impl, b.WDeploy, b.Deploy, value),
	}, nil
}
