package layers

import (
	"fmt"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/internal/registry"
)

// contextualEvaluator scores contextual fit on one axis (question, dimension
// or policy) from the compatibility registry. One evaluator shape serves all
// three layers. An undeclared pairing scores the default penalty, which is a
// score in its own right, not an absence of score.
type contextualEvaluator struct {
	layer calibration.LayerID
	axis  calibration.ContextAxis
}

func (e contextualEvaluator) Layer() calibration.LayerID { return e.layer }

func (e contextualEvaluator) Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error) {
	var value string
	switch e.axis {
	case calibration.AxisQuestion:
		if subject.Context.QuestionID == nil {
			return calibration.LayerScore{}, core.NewEvaluationError(
				string(e.layer),
				fmt.Sprintf("method=%s", subject.Method),
				"context.question is null but the question layer is required")
		}
		value = *subject.Context.QuestionID
	case calibration.AxisDimension:
		value = subject.Context.DimensionID
	case calibration.AxisPolicy:
		value = subject.Context.PolicyID
	}

	level, err := snap.Compatibility(subject.Method, e.axis, value)
	if err != nil {
		return calibration.LayerScore{}, err
	}
	score := level.Score()

	return calibration.LayerScore{
		Layer: e.layer,
		Value: score,
		Evidence: map[string]string{
			string(e.axis): value,
			"declaration":  string(level),
		},
		Formula: fmt.Sprintf("x_%s = compat(%s, %s=%s) = %s -> %.2f",
			e.layer, subject.Method, e.axis, value, level, score),
	}, nil
}
