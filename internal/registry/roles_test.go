package registry

import (
	"testing"

	"calengine/domain/calibration"
	"calengine/domain/core"
)

func TestRequiredLayers_Table(t *testing.T) {
	tests := []struct {
		role calibration.Role
		want []calibration.LayerID
	}{
		{calibration.RoleQuestionScoring, calibration.AllLayers()},
		{calibration.RoleIngestion, []calibration.LayerID{
			calibration.LayerBase, calibration.LayerUnit, calibration.LayerChain, calibration.LayerMeta}},
		{calibration.RoleAggregation, []calibration.LayerID{
			calibration.LayerBase, calibration.LayerDimension, calibration.LayerPolicy,
			calibration.LayerCongruence, calibration.LayerChain, calibration.LayerMeta}},
		{calibration.RoleReporting, []calibration.LayerID{
			calibration.LayerBase, calibration.LayerCongruence, calibration.LayerChain, calibration.LayerMeta}},
		{calibration.RoleMetaTooling, []calibration.LayerID{
			calibration.LayerBase, calibration.LayerChain, calibration.LayerMeta}},
		{calibration.RoleTransformation, []calibration.LayerID{
			calibration.LayerBase, calibration.LayerChain, calibration.LayerMeta}},
	}
	for _, tt := range tests {
		got, err := RequiredLayers(tt.role)
		if err != nil {
			t.Fatalf("%s: %v", tt.role, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("%s: %d required layers, want %d", tt.role, len(got), len(tt.want))
			continue
		}
		for _, l := range tt.want {
			if !got.Contains(l) {
				t.Errorf("%s: missing required layer %s", tt.role, l)
			}
		}
	}
}

func TestRequiredLayers_UnknownRole(t *testing.T) {
	if _, err := RequiredLayers("janitor"); !core.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequiredLayers_ReturnsCopy(t *testing.T) {
	a, _ := RequiredLayers(calibration.RoleMetaTooling)
	delete(a, calibration.LayerChain)
	b, _ := RequiredLayers(calibration.RoleMetaTooling)
	if !b.Contains(calibration.LayerChain) {
		t.Error("mutating a returned set must not affect the shared table")
	}
}
