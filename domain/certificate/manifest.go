package certificate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/domain/fusion"
)

// ValidatorVersion tags every certificate with the engine release that
// produced it.
const ValidatorVersion = "calengine/1.0.0"

// spotcheckEpsilon is the bump used by the monotonicity self-check.
const spotcheckEpsilon = 1e-3

// Builder assembles and seals certificates. The zero clock uses core.Now;
// tests inject a fixed clock to assert byte-identical bodies.
type Builder struct {
	now func() core.Timestamp
}

// NewBuilder creates a builder with the real clock.
func NewBuilder() *Builder {
	return &Builder{now: core.Now}
}

// NewBuilderWithClock creates a builder with an injected clock.
func NewBuilderWithClock(now func() core.Timestamp) *Builder {
	return &Builder{now: now}
}

// BuildInput is everything the builder needs for one certificate.
type BuildInput struct {
	Subject    calibration.Subject
	Scores     []calibration.LayerScore
	Fusion     fusion.Result
	Profile    *fusion.Parameters
	Required   calibration.LayerSet
	ConfigHash core.ConfigHash
}

// Build assembles the unsealed certificate body and re-runs the validation
// self-checks. It never mutates its inputs.
func (b *Builder) Build(in BuildInput) (Certificate, error) {
	if in.Profile == nil {
		return Certificate{}, core.NewValidationError("certificate", "fusion profile missing")
	}

	layerBreakdown := make(map[string]LayerEntry, len(in.Scores))
	scoreMap := make(map[calibration.LayerID]float64, len(in.Scores))
	for _, s := range in.Scores {
		layerBreakdown[string(s.Layer)] = LayerEntry{
			Score:    s.Value,
			Evidence: s.Evidence,
			Formula:  s.Formula,
		}
		scoreMap[s.Layer] = s.Value
	}

	interactions := make(map[string]InteractionEntry, len(in.Fusion.Interactions))
	for _, term := range in.Fusion.Interactions {
		interactions[term.ID] = InteractionEntry{
			Contribution: term.Contribution,
			Formula:      term.Formula,
		}
	}

	provenance := make(map[string]ParameterProvenance, len(in.Profile.Weights)+len(in.Profile.Interactions))
	for _, layer := range in.Profile.SortedLayers() {
		id := "a_" + string(layer)
		provenance[id] = ParameterProvenance{
			Value:         in.Profile.Weights[layer],
			Source:        in.Profile.Source,
			Justification: in.Profile.Justification[id],
		}
	}
	for _, pair := range in.Profile.SortedPairs() {
		id := "a_" + pair.String()
		provenance[id] = ParameterProvenance{
			Value:         in.Profile.Interactions[pair],
			Source:        in.Profile.Source,
			Justification: in.Profile.Justification[id],
		}
	}

	cert := Certificate{
		InstanceID:           in.Subject.Instance,
		Method:               in.Subject.Method,
		Node:                 in.Subject.Node,
		Context:              in.Subject.Context,
		CalibrationScore:     in.Fusion.Cal,
		LayerBreakdown:       layerBreakdown,
		InteractionBreakdown: interactions,
		FusionFormula: FusionFormula{
			Symbolic:         in.Fusion.Symbolic,
			Expanded:         in.Fusion.Expanded,
			ComputationTrace: in.Fusion.Trace,
		},
		ParameterProvenance: provenance,
		ValidationChecks:    b.runChecks(scoreMap, in),
		AuditTrail: AuditTrail{
			Timestamp:        b.now(),
			ConfigHash:       in.ConfigHash,
			GraphHash:        in.Subject.Graph.Hash(),
			ValidatorVersion: ValidatorVersion,
		},
	}
	return cert, nil
}

// runChecks re-verifies the certificate-level guarantees from the final
// artifacts, independent of how the scores were produced.
func (b *Builder) runChecks(scores map[calibration.LayerID]float64, in BuildInput) ValidationChecks {
	checks := ValidationChecks{
		Normalization: in.Profile.Validate(in.Required) == nil,
		Completeness:  true,
		Boundedness:   in.Fusion.Cal >= 0 && in.Fusion.Cal <= 1,
	}

	for layer := range in.Required {
		if _, ok := scores[layer]; !ok {
			checks.Completeness = false
		}
	}
	for _, x := range scores {
		if x < 0 || x > 1 {
			checks.Boundedness = false
		}
	}

	checks.MonotonicitySpotcheck = b.spotcheckMonotonicity(scores, in)
	return checks
}

// spotcheckMonotonicity bumps each layer score by epsilon (clamped at 1) and
// confirms the fused score never decreases.
func (b *Builder) spotcheckMonotonicity(scores map[calibration.LayerID]float64, in BuildInput) bool {
	for layer := range scores {
		bumped := make(map[calibration.LayerID]float64, len(scores))
		for k, v := range scores {
			bumped[k] = v
		}
		bumped[layer] = math.Min(1, bumped[layer]+spotcheckEpsilon)

		res, err := fusion.Aggregate(bumped, in.Profile)
		if err != nil {
			return false
		}
		if res.Cal < in.Fusion.Cal-1e-12 {
			return false
		}
	}
	return true
}

// Seal computes the keyed MAC over the canonical body and stamps it into the
// audit trail.
func Seal(cert Certificate, secret []byte) (Certificate, error) {
	if len(secret) == 0 {
		return Certificate{}, core.NewValidationError("seal", "secret cannot be empty")
	}
	body, err := cert.CanonicalBody()
	if err != nil {
		return Certificate{}, fmt.Errorf("canonical serialization failed: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	cert.AuditTrail.Signature = hex.EncodeToString(mac.Sum(nil))
	return cert, nil
}

// Verify recomputes the MAC over the canonical body and compares it with the
// stored signature in constant time. A mismatch is reported, never corrected.
func Verify(cert Certificate, secret []byte) (bool, error) {
	if cert.AuditTrail.Signature == "" {
		return false, fmt.Errorf("%w: certificate is unsealed", core.ErrManifestIntegrity)
	}
	body, err := cert.CanonicalBody()
	if err != nil {
		return false, fmt.Errorf("canonical serialization failed: %w", err)
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(cert.AuditTrail.Signature)) {
		return false, core.ErrSignatureMismatch
	}
	return true, nil
}
