package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/domain/graph"
	"calengine/internal/registry"
)

func serviceConfigSet() registry.ConfigurationSet {
	return registry.ConfigurationSet{
		Version: "svc-test-1",
		Methods: []registry.MethodConfig{
			{
				ID:           "scorer",
				Role:         calibration.RoleQuestionScoring,
				ActiveLayers: calibration.AllLayers(),
				Base: registry.BaseScores{
					Theory: 0.9, Impl: 0.9, Deploy: 0.85,
					WTheory: 0.4, WImpl: 0.35, WDeploy: 0.25,
				},
				UnitTransform: registry.UnitTransformRamp,
				Compatibility: map[calibration.ContextAxis]registry.Declarations{
					calibration.AxisQuestion:  {"q1": calibration.CompatPrimary},
					calibration.AxisDimension: {"d1": calibration.CompatSecondary},
					calibration.AxisPolicy:    {"p1": calibration.CompatCompatible},
				},
			},
			{
				ID:           "waivedscorer",
				Role:         calibration.RoleQuestionScoring,
				ActiveLayers: allLayersExcept(calibration.LayerCongruence),
				Base: registry.BaseScores{
					Theory: 0.8, Impl: 0.8, Deploy: 0.8,
					WTheory: 0.4, WImpl: 0.35, WDeploy: 0.25,
				},
				UnitTransform: registry.UnitTransformIdentity,
				Justifications: []registry.JustificationRecord{
					{
						Layer:      calibration.LayerCongruence,
						Approved:   true,
						ApprovedBy: "governance-board",
						Rationale:  "method never participates in interplays",
					},
				},
				Compatibility: map[calibration.ContextAxis]registry.Declarations{
					calibration.AxisQuestion: {"q1": calibration.CompatPrimary},
				},
			},
		},
		Profiles: []registry.ProfileConfig{
			{
				Role: calibration.RoleQuestionScoring,
				Weights: map[calibration.LayerID]float64{
					calibration.LayerBase:       0.12,
					calibration.LayerUnit:       0.08,
					calibration.LayerQuestion:   0.08,
					calibration.LayerDimension:  0.07,
					calibration.LayerPolicy:     0.05,
					calibration.LayerCongruence: 0.08,
					calibration.LayerChain:      0.07,
					calibration.LayerMeta:       0.05,
				},
				Interactions: map[string]float64{
					"unit*chain":         0.15,
					"chain*congruence":   0.12,
					"question*dimension": 0.08,
					"dimension*policy":   0.05,
				},
			},
		},
		Questions:  []string{"q1", "q2"},
		Dimensions: []string{"d1", "d2"},
		Policies:   []string{"p1", "p2"},
	}
}

func allLayersExcept(skip calibration.LayerID) []calibration.LayerID {
	out := make([]calibration.LayerID, 0, 7)
	for _, l := range calibration.AllLayers() {
		if l != skip {
			out = append(out, l)
		}
	}
	return out
}

func newTestService(t *testing.T) *CalibrationService {
	t.Helper()
	snap, err := registry.NewSnapshot(serviceConfigSet())
	require.NoError(t, err)
	svc, err := NewCalibrationService(snap, nil, []byte("test-sealing-secret"), nil)
	require.NoError(t, err)
	return svc
}

func serviceSubject(t *testing.T, method core.MethodID) calibration.Subject {
	t.Helper()
	g := graph.New("g-svc")
	g.AddNode(method)
	require.NoError(t, g.Validate())

	q := "q1"
	return calibration.Subject{
		Instance: "inst-svc-1",
		Method:   method,
		Role:     calibration.RoleQuestionScoring,
		Node:     0,
		Graph:    g,
		Context: calibration.ContextTuple{
			QuestionID:  &q,
			DimensionID: "d1",
			PolicyID:    "p1",
			UnitQuality: 0.9,
		},
		Evidence: calibration.EvidenceBag{
			Chain: &calibration.ChainEvidence{
				Inputs: []calibration.InputContract{
					{Name: "rows", Status: calibration.ContractOK, Required: true, Available: true},
				},
			},
			Transparency: &calibration.TransparencyEvidence{
				FormulaExported: true, TraceCaptured: true, LogsConformant: true,
			},
			Governance: &calibration.GovernanceEvidence{
				VersionTagged: true, ConfigHashMatches: true, SignatureValid: true,
			},
			Cost: &calibration.CostEvidence{RuntimeMillis: 150, MemoryMB: 80},
		},
	}
}

func TestCalibrationService_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "scorer")

	res, err := svc.Run(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, StateSealed, res.State)
	require.NotNil(t, res.Certificate)

	cert := *res.Certificate
	assert.Greater(t, cert.CalibrationScore, 0.0)
	assert.LessOrEqual(t, cert.CalibrationScore, 1.0)
	assert.Len(t, cert.LayerBreakdown, 8)
	assert.True(t, cert.ValidationChecks.AllPassed())
	assert.NotEmpty(t, cert.AuditTrail.Signature)
	assert.NotEmpty(t, cert.AuditTrail.ConfigHash)
	assert.NotEmpty(t, cert.AuditTrail.GraphHash)

	ok, err := svc.Verify(cert)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCalibrationService_ContextChangesScore(t *testing.T) {
	// The same method in a declared versus undeclared context must fuse to
	// different scores; calibration is never a constant function.
	svc := newTestService(t)
	ctx := context.Background()

	declared := serviceSubject(t, "scorer")
	certA, err := svc.Calibrate(ctx, declared)
	require.NoError(t, err)

	undeclared := serviceSubject(t, "scorer")
	undeclared.Context.DimensionID = "d2"
	undeclared.Context.PolicyID = "p2"
	certB, err := svc.Calibrate(ctx, undeclared)
	require.NoError(t, err)

	assert.NotEqual(t, certA.CalibrationScore, certB.CalibrationScore)
	assert.Greater(t, certA.CalibrationScore, certB.CalibrationScore,
		"declared compatibility should outscore undeclared")
}

func TestCalibrationService_MissingEvidenceFailsWithPartialTrace(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "scorer")
	subject.Evidence.Chain = nil

	res, err := svc.Run(context.Background(), subject)
	require.Error(t, err)
	assert.True(t, core.IsEvaluationError(err))
	assert.Equal(t, StateFailed, res.State)
	assert.Nil(t, res.Certificate)
	assert.Equal(t, calibration.LayerChain, res.FailedLayer)
	// Layers evaluated before the failure stay in the trace for diagnostics.
	require.NotEmpty(t, res.Partial)
	assert.Equal(t, calibration.LayerBase, res.Partial[0].Layer)
}

func TestCalibrationService_CancellationDiscardsPartials(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "scorer")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Run(ctx, subject)
	require.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.Nil(t, res.Certificate)
	assert.Nil(t, res.Partial, "cancelled subjects must not leak partial scores")
}

func TestCalibrationService_RoleMismatch(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "scorer")
	subject.Role = calibration.RoleIngestion

	_, err := svc.Run(context.Background(), subject)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestCalibrationService_UnknownMethod(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "phantom")

	_, err := svc.Run(context.Background(), subject)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestCalibrationService_WaivedLayerEntersFusionAsZero(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "waivedscorer")

	res, err := svc.Run(context.Background(), subject)
	require.NoError(t, err)
	require.NotNil(t, res.Certificate)

	entry, ok := res.Certificate.LayerBreakdown[string(calibration.LayerCongruence)]
	require.True(t, ok, "waived layer must stay visible in the breakdown")
	assert.Zero(t, entry.Score)
	assert.Contains(t, entry.Formula, "waived")
}

func TestCalibrationService_AssignsInstanceID(t *testing.T) {
	svc := newTestService(t)
	subject := serviceSubject(t, "scorer")
	subject.Instance = ""

	cert, err := svc.Calibrate(context.Background(), subject)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.InstanceID)
}

func TestNewCalibrationService_RequiresSnapshotAndSecret(t *testing.T) {
	snap, err := registry.NewSnapshot(serviceConfigSet())
	require.NoError(t, err)

	_, err = NewCalibrationService(nil, nil, []byte("s"), nil)
	assert.True(t, core.IsConfigurationError(err))

	_, err = NewCalibrationService(snap, nil, nil, nil)
	assert.True(t, core.IsConfigurationError(err))
}
