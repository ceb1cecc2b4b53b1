package layers

import (
	"testing"

	"calengine/domain/calibration"
	"calengine/domain/core"
)

func evaluateChain(t *testing.T, ev calibration.ChainEvidence) calibration.LayerScore {
	t.Helper()
	snap := testSnapshot(t)
	subject := testSubject(t)
	subject.Evidence.Chain = &ev

	e, _ := ForLayer(calibration.LayerChain)
	score, err := e.Evaluate(subject, snap)
	if err != nil {
		t.Fatal(err)
	}
	return score
}

func TestChainEvaluator_Ladder(t *testing.T) {
	tests := []struct {
		name string
		ev   calibration.ChainEvidence
		want float64
		rung string
	}{
		{
			name: "type incompatible input",
			ev: calibration.ChainEvidence{Inputs: []calibration.InputContract{
				{Name: "rows", Status: calibration.ContractIncompatible, Required: true, Available: true},
			}},
			want: 0.0,
			rung: "hard_mismatch",
		},
		{
			name: "required input unavailable",
			ev: calibration.ChainEvidence{Inputs: []calibration.InputContract{
				{Name: "rows", Status: calibration.ContractOK, Required: true, Available: false},
			}},
			want: 0.0,
			rung: "hard_mismatch",
		},
		{
			name: "critical optional input missing",
			ev: calibration.ChainEvidence{Inputs: []calibration.InputContract{
				{Name: "rows", Status: calibration.ContractOK, Required: true, Available: true},
				{Name: "hints", Status: calibration.ContractOK, Critical: true, Available: false},
			}},
			want: 0.3,
			rung: "critical_missing",
		},
		{
			name: "weak schema mismatch",
			ev: calibration.ChainEvidence{Inputs: []calibration.InputContract{
				{Name: "rows", Status: calibration.ContractWeakMismatch, Required: true, Available: true},
			}},
			want: 0.6,
			rung: "soft_violation",
		},
		{
			name: "beneficial optional input missing",
			ev: calibration.ChainEvidence{Inputs: []calibration.InputContract{
				{Name: "rows", Status: calibration.ContractOK, Required: true, Available: true},
				{Name: "cache", Status: calibration.ContractOK, Beneficial: true, Available: false},
			}},
			want: 0.6,
			rung: "soft_violation",
		},
		{
			name: "contracts pass with warnings",
			ev: calibration.ChainEvidence{
				Inputs: []calibration.InputContract{
					{Name: "rows", Status: calibration.ContractOK, Required: true, Available: true},
				},
				Warnings: []string{"schema version drift"},
			},
			want: 0.8,
			rung: "warnings",
		},
		{
			name: "clean",
			ev: calibration.ChainEvidence{Inputs: []calibration.InputContract{
				{Name: "rows", Status: calibration.ContractOK, Required: true, Available: true},
			}},
			want: 1.0,
			rung: "clean",
		},
		{
			name: "hard mismatch wins over softer rungs",
			ev: calibration.ChainEvidence{
				Inputs: []calibration.InputContract{
					{Name: "rows", Status: calibration.ContractIncompatible, Required: true, Available: true},
					{Name: "hints", Status: calibration.ContractWeakMismatch, Available: true},
				},
				Warnings: []string{"noise"},
			},
			want: 0.0,
			rung: "hard_mismatch",
		},
		{
			name: "no inputs at all is clean",
			ev:   calibration.ChainEvidence{},
			want: 1.0,
			rung: "clean",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := evaluateChain(t, tt.ev)
			if score.Value != tt.want {
				t.Errorf("x_chain = %f, want %f", score.Value, tt.want)
			}
			if score.Evidence["rung"] != tt.rung {
				t.Errorf("rung = %q, want %q", score.Evidence["rung"], tt.rung)
			}
		})
	}
}

func TestChainEvaluator_NilEvidenceFails(t *testing.T) {
	snap := testSnapshot(t)
	subject := testSubject(t)
	subject.Evidence.Chain = nil

	e, _ := ForLayer(calibration.LayerChain)
	if _, err := e.Evaluate(subject, snap); !core.IsEvaluationError(err) {
		t.Fatalf("expected evaluation error for absent chain evidence, got %v", err)
	}
}
