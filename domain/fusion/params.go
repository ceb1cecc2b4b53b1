// Package fusion implements the two-additive Choquet fusion of layer scores.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats/scalar"

	"calengine/domain/calibration"
	"calengine/domain/core"
)

// NormalizationTolerance is the allowed deviation of a profile's full weight
// sum from 1.
const NormalizationTolerance = 1e-6

// PairKey names an unordered layer pair. Construct with NewPairKey so the
// ordering is canonical regardless of declaration order.
type PairKey struct {
	A calibration.LayerID
	B calibration.LayerID
}

// NewPairKey returns the canonical key for the pair (a, b).
func NewPairKey(a, b calibration.LayerID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// String renders the key as "a*b" for breakdown maps and provenance ids.
func (k PairKey) String() string {
	return string(k.A) + "*" + string(k.B)
}

// ParsePairKey parses "a*b" back into a canonical PairKey.
func ParsePairKey(s string) (PairKey, error) {
	parts := strings.Split(s, "*")
	if len(parts) != 2 {
		return PairKey{}, fmt.Errorf("malformed pair key %q", s)
	}
	a, b := calibration.LayerID(parts[0]), calibration.LayerID(parts[1])
	if !calibration.IsValidLayer(a) || !calibration.IsValidLayer(b) {
		return PairKey{}, fmt.Errorf("pair key %q names unknown layer", s)
	}
	return NewPairKey(a, b), nil
}

// Parameters is one role's fusion profile: linear weights per required layer
// plus pairwise interaction weights over pairs inside the required set.
// Profiles are pre-normalized and role-scoped; the engine never renormalizes
// at runtime. Loaded once, validated, then frozen.
type Parameters struct {
	Role          calibration.Role
	Weights       map[calibration.LayerID]float64
	Interactions  map[PairKey]float64
	Source        string
	Version       string
	Justification map[string]string // param id -> rationale, optional
}

// DefaultInteractionWeights are the documented default pairwise weights. The
// registry uses them when a role profile omits interactions, keeping only the
// pairs inside the role's required set; the profile's linear weights must
// absorb the remainder so the full sum still normalizes.
func DefaultInteractionWeights() map[PairKey]float64 {
	return map[PairKey]float64{
		NewPairKey(calibration.LayerUnit, calibration.LayerChain):         0.15,
		NewPairKey(calibration.LayerChain, calibration.LayerCongruence):   0.12,
		NewPairKey(calibration.LayerQuestion, calibration.LayerDimension): 0.08,
		NewPairKey(calibration.LayerDimension, calibration.LayerPolicy):   0.05,
	}
}

// Validate checks the profile against its role's required layer set:
// non-negative weights, layers and pairs scoped to the required set, and the
// full weight sum equal to 1 within NormalizationTolerance.
func (p *Parameters) Validate(required calibration.LayerSet) error {
	if len(p.Weights) == 0 {
		return core.NewConfigurationError(string(p.Role), "profile has no linear weights")
	}

	sum := 0.0
	for layer, w := range p.Weights {
		if !calibration.IsValidLayer(layer) {
			return core.NewConfigurationError(string(p.Role), fmt.Sprintf("unknown layer %q", layer))
		}
		if !required.Contains(layer) {
			return core.NewConfigurationError(string(p.Role),
				fmt.Sprintf("layer %s not in role's required set", layer))
		}
		if w < 0 {
			return fmt.Errorf("%w: a_%s = %f in role %s", core.ErrWeightOutOfRange, layer, w, p.Role)
		}
		sum += w
	}
	for pair, w := range p.Interactions {
		if !required.Contains(pair.A) || !required.Contains(pair.B) {
			return core.NewConfigurationError(string(p.Role),
				fmt.Sprintf("interaction %s not scoped to role's required set", pair))
		}
		if pair.A == pair.B {
			return core.NewConfigurationError(string(p.Role),
				fmt.Sprintf("degenerate interaction %s", pair))
		}
		if w < 0 {
			return fmt.Errorf("%w: a_%s = %f in role %s", core.ErrWeightOutOfRange, pair, w, p.Role)
		}
		sum += w
	}

	if !scalar.EqualWithinAbs(sum, 1.0, NormalizationTolerance) {
		return fmt.Errorf("%w: role %s sums to %.9f", core.ErrNormalizationViolated, p.Role, sum)
	}
	return nil
}

// SortedLayers returns the weighted layers in canonical order.
func (p *Parameters) SortedLayers() []calibration.LayerID {
	layers := make([]calibration.LayerID, 0, len(p.Weights))
	for l := range p.Weights {
		layers = append(layers, l)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i] < layers[j] })
	return layers
}

// SortedPairs returns the interaction pairs in canonical order.
func (p *Parameters) SortedPairs() []PairKey {
	pairs := make([]PairKey, 0, len(p.Interactions))
	for k := range p.Interactions {
		pairs = append(pairs, k)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	return pairs
}

// CanonicalString renders the profile deterministically for config hashing.
func (p *Parameters) CanonicalString() string {
	var b strings.Builder
	b.WriteString("profile:")
	b.WriteString(string(p.Role))
	for _, l := range p.SortedLayers() {
		fmt.Fprintf(&b, "|a_%s=%.17g", l, p.Weights[l])
	}
	for _, pair := range p.SortedPairs() {
		fmt.Fprintf(&b, "|a_%s=%.17g", pair, p.Interactions[pair])
	}
	fmt.Fprintf(&b, "|src=%s|ver=%s", p.Source, p.Version)
	return b.String()
}
