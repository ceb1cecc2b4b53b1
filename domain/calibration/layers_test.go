package calibration

import "testing"

func TestLayerSet_Operations(t *testing.T) {
	s := NewLayerSet(LayerBase, LayerChain, LayerMeta)
	if !s.Contains(LayerChain) || s.Contains(LayerUnit) {
		t.Error("membership broken")
	}

	sub := NewLayerSet(LayerBase, LayerMeta)
	if !s.Superset(sub) {
		t.Error("superset should hold")
	}
	if s.Superset(NewLayerSet(LayerBase, LayerUnit)) {
		t.Error("superset should fail on absent layer")
	}

	missing := sub.Missing(s)
	if len(missing) != 1 || missing[0] != LayerChain {
		t.Errorf("missing = %v", missing)
	}

	sorted := s.Sorted()
	want := []LayerID{LayerBase, LayerChain, LayerMeta}
	for i, l := range want {
		if sorted[i] != l {
			t.Fatalf("sorted = %v", sorted)
		}
	}
}

func TestLayerScore_Validate(t *testing.T) {
	if err := (LayerScore{Layer: LayerBase, Value: 0.5}).Validate(); err != nil {
		t.Error(err)
	}
	if err := (LayerScore{Layer: LayerBase, Value: 1.2}).Validate(); err == nil {
		t.Error("score above 1 must fail")
	}
	if err := (LayerScore{Layer: LayerBase, Value: -0.1}).Validate(); err == nil {
		t.Error("negative score must fail")
	}
}

func TestIsValidLayerAndRole(t *testing.T) {
	if !IsValidLayer(LayerCongruence) || IsValidLayer("aura") {
		t.Error("layer validity broken")
	}
	if !IsValidRole(RoleAggregation) || IsValidRole("janitor") {
		t.Error("role validity broken")
	}
}
