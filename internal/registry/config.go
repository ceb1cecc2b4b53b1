package registry

import (
	"fmt"

	"calengine/domain/calibration"
	"calengine/domain/core"
)

// BaseScores are a method's intrinsic quality inputs and their convex
// combination weights.
type BaseScores struct {
	Theory float64 `json:"b_theory"`
	Impl   float64 `json:"b_impl"`
	Deploy float64 `json:"b_deploy"`

	WTheory float64 `json:"w_theory"`
	WImpl   float64 `json:"w_impl"`
	WDeploy float64 `json:"w_deploy"`
}

// Validate checks score ranges and that the weights form a convex combination.
func (b BaseScores) Validate() error {
	for name, v := range map[string]float64{
		"b_theory": b.Theory, "b_impl": b.Impl, "b_deploy": b.Deploy,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s = %f", core.ErrScoreOutOfRange, name, v)
		}
	}
	for name, w := range map[string]float64{
		"w_theory": b.WTheory, "w_impl": b.WImpl, "w_deploy": b.WDeploy,
	} {
		if w < 0 {
			return fmt.Errorf("%w: %s = %f", core.ErrWeightOutOfRange, name, w)
		}
	}
	sum := b.WTheory + b.WImpl + b.WDeploy
	if sum < 1-1e-6 || sum > 1+1e-6 {
		return fmt.Errorf("%w: base weights sum to %f", core.ErrNormalizationViolated, sum)
	}
	return nil
}

// Combined returns the convex combination; bounded [0,1] by construction.
func (b BaseScores) Combined() float64 {
	return b.WTheory*b.Theory + b.WImpl*b.Impl + b.WDeploy*b.Deploy
}

// JustificationRecord waives one missing required layer for a method. Only
// approved records count during registration.
type JustificationRecord struct {
	Layer      calibration.LayerID `json:"layer"`
	Approved   bool                `json:"approved"`
	ApprovedBy string              `json:"approved_by,omitempty"`
	Rationale  string              `json:"rationale"`
}

// UnitTransformKind selects the unit-quality transform g_M.
type UnitTransformKind string

const (
	UnitTransformIdentity UnitTransformKind = "identity"
	UnitTransformRamp     UnitTransformKind = "ramp"
	UnitTransformSigmoid  UnitTransformKind = "sigmoid"
)

// MethodConfig is one method's entry in the configuration set.
type MethodConfig struct {
	ID             core.MethodID                            `json:"id"`
	Role           calibration.Role                         `json:"role"`
	ActiveLayers   []calibration.LayerID                    `json:"active_layers"`
	Base           BaseScores                               `json:"base"`
	UnitTransform  UnitTransformKind                        `json:"unit_transform,omitempty"`
	Justifications []JustificationRecord                    `json:"justifications,omitempty"`
	Compatibility  map[calibration.ContextAxis]Declarations `json:"compatibility,omitempty"`
}

// Declarations maps a context value id to the declared compatibility level.
type Declarations map[string]calibration.CompatibilityLevel

// CostThresholds parameterize the meta layer's cost ladder.
type CostThresholds struct {
	FastMillis       float64 `json:"fast_ms"`
	AcceptableMillis float64 `json:"acceptable_ms"`
	NormalMemoryMB   float64 `json:"normal_memory_mb"`
}

// DefaultCostThresholds are used when the configuration set leaves the cost
// ladder unparameterized.
func DefaultCostThresholds() CostThresholds {
	return CostThresholds{FastMillis: 1000, AcceptableMillis: 5000, NormalMemoryMB: 512}
}

// ProfileConfig is the serialized form of one role's fusion profile.
// Interactions maps "a*b" pair keys to weights. Leaving the key out of the
// JSON entirely selects the default pairwise weights scoped to the role;
// an explicit empty object means no interaction terms at all.
type ProfileConfig struct {
	Role         calibration.Role                `json:"role"`
	Weights      map[calibration.LayerID]float64 `json:"weights"`
	Interactions map[string]float64              `json:"interactions,omitempty"`
	Source       string                          `json:"source,omitempty"`
	Version      string                          `json:"version,omitempty"`
}

// ConfigurationSet is the whole versioned configuration: methods, fusion
// profiles, context universes, and cost thresholds. It is validated as a
// unit; any violation rejects the whole set.
type ConfigurationSet struct {
	Version    string          `json:"version"`
	Methods    []MethodConfig  `json:"methods"`
	Profiles   []ProfileConfig `json:"profiles"`
	Questions  []string        `json:"questions"`
	Dimensions []string        `json:"dimensions"`
	Policies   []string        `json:"policies"`
	Cost       *CostThresholds `json:"cost_thresholds,omitempty"`
}
