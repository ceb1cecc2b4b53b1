package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error taxonomy
var (
	// Configuration errors are fatal at startup and block serving.
	ErrConfiguration         = errors.New("configuration error")
	ErrNormalizationViolated = fmt.Errorf("%w: profile weights do not sum to 1", ErrConfiguration)
	ErrAntiUniversality      = fmt.Errorf("%w: anti-universality violated", ErrConfiguration)
	ErrWeightOutOfRange      = fmt.Errorf("%w: weight out of range", ErrConfiguration)
	ErrScoreOutOfRange       = fmt.Errorf("%w: score out of range", ErrConfiguration)

	// Validation errors are fatal per method and exclude it until fixed.
	ErrValidation      = errors.New("validation error")
	ErrMissingLayer    = fmt.Errorf("%w: required layer not active", ErrValidation)
	ErrUnknownRole     = fmt.Errorf("%w: unknown functional role", ErrValidation)
	ErrMethodNotFound  = fmt.Errorf("%w: method not registered", ErrValidation)
	ErrProfileNotFound = fmt.Errorf("%w: no fusion profile for role", ErrValidation)

	// Evaluation errors fail one subject's calibration with a structured reason.
	ErrEvaluation      = errors.New("evaluation error")
	ErrMissingEvidence = fmt.Errorf("%w: required evidence absent", ErrEvaluation)
	ErrGraphNotFound   = fmt.Errorf("%w: computation graph unavailable", ErrEvaluation)

	// Manifest integrity errors are reported, never auto-corrected.
	ErrManifestIntegrity = errors.New("manifest integrity error")
	ErrSignatureMismatch = fmt.Errorf("%w: recomputed MAC does not match", ErrManifestIntegrity)

	ErrNotFound            = errors.New("resource not found")
	ErrCertificateNotFound = fmt.Errorf("%w: certificate", ErrNotFound)
)

// Error constructors with context

func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, reason)
}

// NewEvaluationError records which layer failed, the raw inputs considered,
// and a human-readable rationale.
func NewEvaluationError(layer string, inputs string, rationale string) error {
	return fmt.Errorf("%w: layer %s: %s (inputs: %s)", ErrEvaluation, layer, rationale, inputs)
}

func NewMissingEvidenceError(layer string, field string) error {
	return fmt.Errorf("%w: layer %s requires evidence field %q", ErrMissingEvidence, layer, field)
}

// Error checking helpers

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsEvaluationError(err error) bool {
	return errors.Is(err, ErrEvaluation)
}

func IsManifestIntegrityError(err error) bool {
	return errors.Is(err, ErrManifestIntegrity)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
