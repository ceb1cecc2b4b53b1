package calibration

import "fmt"

// CompatibilityLevel is a method's declared fit for one context axis value.
type CompatibilityLevel string

const (
	CompatPrimary      CompatibilityLevel = "primary"
	CompatSecondary    CompatibilityLevel = "secondary"
	CompatCompatible   CompatibilityLevel = "compatible"
	CompatIncompatible CompatibilityLevel = "incompatible"
	// CompatUndeclared is a default penalty, not an absence of score.
	CompatUndeclared CompatibilityLevel = "undeclared"
)

// Score maps a declaration level to its contextual layer score.
func (l CompatibilityLevel) Score() float64 {
	switch l {
	case CompatPrimary:
		return 1.0
	case CompatSecondary:
		return 0.7
	case CompatCompatible:
		return 0.3
	case CompatIncompatible:
		return 0.0
	default:
		return 0.1
	}
}

// ParseCompatibilityLevel parses a declaration string. Empty input means
// undeclared; anything else unknown is a configuration mistake.
func ParseCompatibilityLevel(s string) (CompatibilityLevel, error) {
	switch CompatibilityLevel(s) {
	case CompatPrimary, CompatSecondary, CompatCompatible, CompatIncompatible, CompatUndeclared:
		return CompatibilityLevel(s), nil
	case "":
		return CompatUndeclared, nil
	}
	return "", fmt.Errorf("unknown compatibility level %q", s)
}

// ContextAxis names one axis of the evaluation context.
type ContextAxis string

const (
	AxisQuestion  ContextAxis = "question"
	AxisDimension ContextAxis = "dimension"
	AxisPolicy    ContextAxis = "policy"
)
