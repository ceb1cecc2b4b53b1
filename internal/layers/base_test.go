package layers

import (
	"math"
	"testing"

	"calengine/domain/calibration"
	"calengine/domain/core"
)

func TestBaseEvaluator_ConvexCombination(t *testing.T) {
	// b_theory=0.9, b_impl=0.9, b_deploy=0.85 under weights 0.4/0.35/0.25:
	// 0.36 + 0.315 + 0.2125 = 0.8875.
	snap := testSnapshot(t)
	subject := testSubject(t)

	ev, err := ForLayer(calibration.LayerBase)
	if err != nil {
		t.Fatal(err)
	}
	score, err := ev.Evaluate(subject, snap)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score.Value-0.8875) > 1e-9 {
		t.Errorf("x_b = %f, want 0.8875", score.Value)
	}
	if score.Formula == "" {
		t.Error("base score must export its formula")
	}
	if score.Evidence["b_theory"] == "" {
		t.Error("base score must carry its raw inputs as evidence")
	}
}

func TestBaseEvaluator_UnknownMethod(t *testing.T) {
	snap := testSnapshot(t)
	subject := testSubject(t)
	subject.Method = "phantom"

	ev, _ := ForLayer(calibration.LayerBase)
	if _, err := ev.Evaluate(subject, snap); !core.IsValidationError(err) {
		t.Fatalf("expected validation error for unregistered method, got %v", err)
	}
}
