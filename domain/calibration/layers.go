package calibration

import (
	"fmt"
	"sort"
)

// LayerID identifies one orthogonal quality layer. Every layer produces a
// score in [0,1]; the fusion aggregator only ever sees layers named here.
type LayerID string

const (
	LayerBase       LayerID = "base"
	LayerUnit       LayerID = "unit"
	LayerQuestion   LayerID = "question"
	LayerDimension  LayerID = "dimension"
	LayerPolicy     LayerID = "policy"
	LayerCongruence LayerID = "congruence"
	LayerChain      LayerID = "chain"
	LayerMeta       LayerID = "meta"
)

// AllLayers returns every layer id in canonical order.
func AllLayers() []LayerID {
	return []LayerID{
		LayerBase, LayerUnit, LayerQuestion, LayerDimension,
		LayerPolicy, LayerCongruence, LayerChain, LayerMeta,
	}
}

// IsValidLayer reports whether id names a known layer.
func IsValidLayer(id LayerID) bool {
	for _, l := range AllLayers() {
		if l == id {
			return true
		}
	}
	return false
}

// LayerSet is a set of layer ids.
type LayerSet map[LayerID]struct{}

// NewLayerSet builds a set from the given ids.
func NewLayerSet(ids ...LayerID) LayerSet {
	s := make(LayerSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s LayerSet) Contains(id LayerID) bool {
	_, ok := s[id]
	return ok
}

// Superset reports whether s contains every element of other.
func (s LayerSet) Superset(other LayerSet) bool {
	for id := range other {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Missing returns the elements of required absent from s, sorted.
func (s LayerSet) Missing(required LayerSet) []LayerID {
	var missing []LayerID
	for id := range required {
		if !s.Contains(id) {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

// Sorted returns the members in canonical order.
func (s LayerSet) Sorted() []LayerID {
	out := make([]LayerID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LayerScore is one evaluator's output for a subject.
type LayerScore struct {
	Layer    LayerID           `json:"layer"`
	Value    float64           `json:"value"`
	Evidence map[string]string `json:"evidence,omitempty"`
	Formula  string            `json:"formula"`
}

// Validate checks the [0,1] bound.
func (s LayerScore) Validate() error {
	if s.Value < 0 || s.Value > 1 {
		return fmt.Errorf("layer %s score %f outside [0,1]", s.Layer, s.Value)
	}
	return nil
}
