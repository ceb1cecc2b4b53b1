package layers

import (
	"testing"

	"calengine/domain/calibration"
	"calengine/domain/graph"
	"calengine/internal/registry"
)

// testConfigSet registers one question-scoring method with the intrinsic
// scores used across the layer tests, plus an ingestion method for the
// reduced-role paths.
func testConfigSet() registry.ConfigurationSet {
	return registry.ConfigurationSet{
		Version: "test-1",
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
				ID:   "ingestor",
				Role: calibration.RoleIngestion,
				ActiveLayers: []calibration.LayerID{
					calibration.LayerBase, calibration.LayerChain,
					calibration.LayerUnit, calibration.LayerMeta,
				},
				Base: registry.BaseScores{
					Theory: 0.8, Impl: 0.7, Deploy: 0.6,
					WTheory: 0.4, WImpl: 0.35, WDeploy: 0.25,
				},
				UnitTransform: registry.UnitTransformIdentity,
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
			{
				Role: calibration.RoleIngestion,
				Weights: map[calibration.LayerID]float64{
					calibration.LayerBase:  0.30,
					calibration.LayerUnit:  0.20,
					calibration.LayerChain: 0.25,
					calibration.LayerMeta:  0.10,
				},
				Interactions: map[string]float64{"unit*chain": 0.15},
			},
		},
		Questions:  []string{"q1", "q2"},
		Dimensions: []string{"d1", "d2"},
		Policies:   []string{"p1", "p2"},
	}
}

func testSnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()
	snap, err := registry.NewSnapshot(testConfigSet())
	if err != nil {
		t.Fatalf("fixture snapshot rejected: %v", err)
	}
	return snap
}

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New("g-test")
	g.AddNode("scorer")
	g.AddNode("ingestor")
	if err := g.AddEdge(1, 0, "feeds", "rows/v1"); err != nil {
		t.Fatal(err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("fixture graph rejected: %v", err)
	}
	return g
}

func cleanEvidence() calibration.EvidenceBag {
	return calibration.EvidenceBag{
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
		Cost: &calibration.CostEvidence{RuntimeMillis: 120, MemoryMB: 64},
	}
}

func testSubject(t *testing.T) calibration.Subject {
	t.Helper()
	q := "q1"
	s := calibration.Subject{
		Instance: "inst-1",
		Method:   "scorer",
		Role:     calibration.RoleQuestionScoring,
		Node:     0,
		Graph:    testGraph(t),
		Context: calibration.ContextTuple{
			QuestionID:  &q,
			DimensionID: "d1",
			PolicyID:    "p1",
			UnitQuality: 0.9,
		},
		Evidence: cleanEvidence(),
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("fixture subject invalid: %v", err)
	}
	return s
}
