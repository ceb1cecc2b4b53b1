package layers

import (
	"fmt"
	"strings"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/internal/registry"
)

// chainEvaluator scores data-flow integrity through a discrete rule ladder,
// first match wins. A hard mismatch is an ordinary zero-valued score; zero
// then propagates through the weighted sum and every min interaction term
// without any separate override mechanism.
type chainEvaluator struct{}

func (chainEvaluator) Layer() calibration.LayerID { return calibration.LayerChain }

var chainLadder = []rung[calibration.ChainEvidence]{
	{
		name:  "hard_mismatch",
		score: 0.0,
		matches: func(ev calibration.ChainEvidence) (bool, string) {
			for _, in := range ev.Inputs {
				if in.Status == calibration.ContractIncompatible {
					return true, fmt.Sprintf("input %q type-incompatible with declared schema", in.Name)
				}
				if in.Required && !in.Available {
					return true, fmt.Sprintf("required input %q unavailable", in.Name)
				}
			}
			return false, ""
		},
	},
	{
		name:  "critical_missing",
		score: 0.3,
		matches: func(ev calibration.ChainEvidence) (bool, string) {
			for _, in := range ev.Inputs {
				if !in.Required && in.Critical && !in.Available {
					return true, fmt.Sprintf("critical-but-optional input %q missing", in.Name)
				}
			}
			return false, ""
		},
	},
	{
		name:  "soft_violation",
		score: 0.6,
		matches: func(ev calibration.ChainEvidence) (bool, string) {
			for _, in := range ev.Inputs {
				if in.Status == calibration.ContractWeakMismatch {
					return true, fmt.Sprintf("input %q weakly incompatible", in.Name)
				}
				if in.Beneficial && !in.Available {
					return true, fmt.Sprintf("beneficial optional input %q missing", in.Name)
				}
			}
			return false, ""
		},
	},
	{
		name:  "warnings",
		score: 0.8,
		matches: func(ev calibration.ChainEvidence) (bool, string) {
			if len(ev.Warnings) > 0 {
				return true, "contracts pass with warnings: " + strings.Join(ev.Warnings, "; ")
			}
			return false, ""
		},
	},
	{
		name:  "clean",
		score: 1.0,
		matches: func(calibration.ChainEvidence) (bool, string) {
			return true, "all contracts pass with no warnings"
		},
	},
}

func (chainEvaluator) Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error) {
	if subject.Evidence.Chain == nil {
		return calibration.LayerScore{}, core.NewMissingEvidenceError(
			string(calibration.LayerChain), "chain")
	}
	ev := *subject.Evidence.Chain
	score, rungName, reason := climb(chainLadder, ev)

	return calibration.LayerScore{
		Layer: calibration.LayerChain,
		Value: score,
		Evidence: map[string]string{
			"rung":     rungName,
			"reason":   reason,
			"inputs":   fmt.Sprintf("%d", len(ev.Inputs)),
			"warnings": fmt.Sprintf("%d", len(ev.Warnings)),
		},
		Formula: fmt.Sprintf("x_chain = %.1f (%s: %s)", score, rungName, reason),
	}, nil
}
