// Package app wires the calibration engine together: the orchestrator façade
// that sequences resolution, evaluation, fusion and sealing for one subject.
package app

import (
	"context"
	"fmt"

	"calengine/domain/calibration"
	"calengine/domain/certificate"
	"calengine/domain/core"
	"calengine/domain/fusion"
	"calengine/internal"
	"calengine/internal/layers"
	"calengine/internal/registry"
)

// State is the orchestrator's position in the calibration lifecycle.
type State string

const (
	StateInitialized     State = "initialized"
	StateLayersResolved  State = "layers_resolved"
	StateLayersEvaluated State = "layers_evaluated"
	StateFused           State = "fused"
	StateCertified       State = "certified"
	StateSealed          State = "sealed"
	// StateFailed is terminal and reachable from any step.
	StateFailed State = "failed"
)

// Result is one calibration run's outcome. On failure the partial layer
// trace is retained for diagnostics; the certificate is only set in the
// sealed state.
type Result struct {
	State       State
	Certificate *certificate.Certificate
	Partial     []calibration.LayerScore
	FailedLayer calibration.LayerID
	Reason      string
}

// CalibrationService is the orchestrator façade. It holds only read-only
// state (the frozen snapshot and the sealing secret), so one service serves
// hundreds of concurrent subjects.
type CalibrationService struct {
	snap    *registry.Snapshot
	builder *certificate.Builder
	secret  []byte
	logger  *internal.Logger
}

// NewCalibrationService creates the façade over a frozen snapshot.
func NewCalibrationService(snap *registry.Snapshot, builder *certificate.Builder, secret []byte, logger *internal.Logger) (*CalibrationService, error) {
	if snap == nil {
		return nil, core.NewConfigurationError("service", "snapshot is required")
	}
	if len(secret) == 0 {
		return nil, core.NewConfigurationError("service", "sealing secret is required")
	}
	if builder == nil {
		builder = certificate.NewBuilder()
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &CalibrationService{snap: snap, builder: builder, secret: secret, logger: logger}, nil
}

// Calibrate runs the full state machine for one subject. Cancellation is
// all-or-nothing: a cancelled subject discards partially computed scores and
// lands in the failed state.
func (s *CalibrationService) Calibrate(ctx context.Context, subject calibration.Subject) (certificate.Certificate, error) {
	res, err := s.Run(ctx, subject)
	if err != nil {
		return certificate.Certificate{}, err
	}
	return *res.Certificate, nil
}

// Run is Calibrate with the full run result, including the failure trace.
func (s *CalibrationService) Run(ctx context.Context, subject calibration.Subject) (*Result, error) {
	res := &Result{State: StateInitialized}

	if core.ID(subject.Instance).IsEmpty() {
		subject.Instance = core.InstanceID(core.NewID())
	}
	if err := subject.Validate(); err != nil {
		return s.fail(res, "", err)
	}
	rec, err := s.snap.Method(subject.Method)
	if err != nil {
		return s.fail(res, "", err)
	}
	if rec.Role != subject.Role {
		return s.fail(res, "", fmt.Errorf("%w: subject role %q but method %s registered as %q",
			core.ErrValidation, subject.Role, subject.Method, rec.Role))
	}

	required, err := registry.RequiredLayers(subject.Role)
	if err != nil {
		return s.fail(res, "", err)
	}
	// Waived layers are excused from evaluation; fusion profiles for the role
	// still validated against the full required set at load time.
	toEvaluate := make(calibration.LayerSet, len(required))
	for l := range required {
		if _, waived := rec.WaivedLayers[l]; !waived {
			toEvaluate[l] = struct{}{}
		}
	}
	res.State = StateLayersResolved

	scores := make([]calibration.LayerScore, 0, len(toEvaluate))
	scoreMap := make(map[calibration.LayerID]float64, len(toEvaluate))
	for _, layerID := range toEvaluate.Sorted() {
		if err := ctx.Err(); err != nil {
			res.Partial = nil // cancelled subjects discard partial scores
			return s.fail(res, layerID, fmt.Errorf("calibration cancelled: %w", err))
		}
		eval, err := layers.ForLayer(layerID)
		if err != nil {
			return s.fail(res, layerID, err)
		}
		score, err := eval.Evaluate(subject, s.snap)
		if err != nil {
			return s.fail(res, layerID, err)
		}
		if err := score.Validate(); err != nil {
			return s.fail(res, layerID, err)
		}
		scores = append(scores, score)
		scoreMap[score.Layer] = score.Value
		res.Partial = append(res.Partial, score)
	}
	res.State = StateLayersEvaluated

	profile, err := s.snap.Profile(subject.Role)
	if err != nil {
		return s.fail(res, "", err)
	}
	// A waived layer still appears in the role profile; it enters fusion as a
	// zero score so its absence is visible in the certificate, never padded.
	for l := range required {
		if _, ok := scoreMap[l]; !ok {
			scoreMap[l] = 0
			scores = append(scores, calibration.LayerScore{
				Layer:    l,
				Value:    0,
				Evidence: map[string]string{"waived": rec.WaivedLayers[l].Rationale},
				Formula:  fmt.Sprintf("x_%s = 0 (layer waived by approved justification)", l),
			})
		}
	}

	fused, err := fusion.Aggregate(scoreMap, profile)
	if err != nil {
		return s.fail(res, "", err)
	}
	res.State = StateFused

	cert, err := s.builder.Build(certificate.BuildInput{
		Subject:    subject,
		Scores:     scores,
		Fusion:     fused,
		Profile:    profile,
		Required:   required,
		ConfigHash: s.snap.ConfigHash(),
	})
	if err != nil {
		return s.fail(res, "", err)
	}
	res.State = StateCertified

	sealed, err := certificate.Seal(cert, s.secret)
	if err != nil {
		return s.fail(res, "", err)
	}
	res.State = StateSealed
	res.Certificate = &sealed

	s.logger.Debug("sealed certificate %s for method %s (Cal=%.6f)",
		sealed.InstanceID, sealed.Method, sealed.CalibrationScore)
	return res, nil
}

// Verify recomputes the MAC over a certificate with the service secret.
func (s *CalibrationService) Verify(cert certificate.Certificate) (bool, error) {
	return certificate.Verify(cert, s.secret)
}

func (s *CalibrationService) fail(res *Result, layer calibration.LayerID, err error) (*Result, error) {
	res.State = StateFailed
	res.FailedLayer = layer
	res.Reason = err.Error()
	s.logger.Warn("calibration failed at layer %q: %v", layer, err)
	return res, err
}
