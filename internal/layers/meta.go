package layers

import (
	"fmt"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/internal/registry"
)

// metaEvaluator scores governance, transparency and cost:
//
//	x_m = 0.5*m_transp + 0.4*m_gov + 0.1*m_cost
//
// Runtime and memory describe the evaluated method and are supplied by
// collaborators, never measured here.
type metaEvaluator struct{}

func (metaEvaluator) Layer() calibration.LayerID { return calibration.LayerMeta }

const (
	metaTranspWeight = 0.5
	metaGovWeight    = 0.4
	metaCostWeight   = 0.1
)

var transpScores = [4]float64{0, 0.4, 0.7, 1.0}
var govScores = [4]float64{0, 0.33, 0.66, 1.0}

// costInput bundles the cost evidence with the snapshot thresholds so the
// ladder predicates stay pure.
type costInput struct {
	ev calibration.CostEvidence
	th registry.CostThresholds
}

var costLadder = []rung[costInput]{
	{
		name:  "exhausted",
		score: 0.0,
		matches: func(in costInput) (bool, string) {
			if in.ev.TimedOut {
				return true, "timeout"
			}
			if in.ev.OutOfMemory {
				return true, "out of memory"
			}
			return false, ""
		},
	},
	{
		name:  "slow_or_heavy",
		score: 0.5,
		matches: func(in costInput) (bool, string) {
			if in.ev.RuntimeMillis >= in.th.AcceptableMillis {
				return true, fmt.Sprintf("runtime %.0fms >= acceptable %.0fms", in.ev.RuntimeMillis, in.th.AcceptableMillis)
			}
			if in.ev.MemoryMB > in.th.NormalMemoryMB {
				return true, fmt.Sprintf("memory %.0fMB exceeds normal %.0fMB", in.ev.MemoryMB, in.th.NormalMemoryMB)
			}
			return false, ""
		},
	},
	{
		name:  "acceptable",
		score: 0.8,
		matches: func(in costInput) (bool, string) {
			if in.ev.RuntimeMillis >= in.th.FastMillis {
				return true, fmt.Sprintf("runtime %.0fms between fast %.0fms and acceptable %.0fms",
					in.ev.RuntimeMillis, in.th.FastMillis, in.th.AcceptableMillis)
			}
			return false, ""
		},
	},
	{
		name:  "fast",
		score: 1.0,
		matches: func(in costInput) (bool, string) {
			return true, fmt.Sprintf("runtime %.0fms below fast threshold", in.ev.RuntimeMillis)
		},
	},
}

func (metaEvaluator) Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error) {
	ev := subject.Evidence
	if ev.Transparency == nil {
		return calibration.LayerScore{}, core.NewMissingEvidenceError(string(calibration.LayerMeta), "transparency")
	}
	if ev.Governance == nil {
		return calibration.LayerScore{}, core.NewMissingEvidenceError(string(calibration.LayerMeta), "governance")
	}
	if ev.Cost == nil {
		return calibration.LayerScore{}, core.NewMissingEvidenceError(string(calibration.LayerMeta), "cost")
	}

	transpCount := countTrue(ev.Transparency.FormulaExported, ev.Transparency.TraceCaptured, ev.Transparency.LogsConformant)
	govCount := countTrue(ev.Governance.VersionTagged, ev.Governance.ConfigHashMatches, ev.Governance.SignatureValid)
	mTransp := transpScores[transpCount]
	mGov := govScores[govCount]

	mCost, costRung, costReason := climb(costLadder, costInput{ev: *ev.Cost, th: snap.Cost()})

	value := metaTranspWeight*mTransp + metaGovWeight*mGov + metaCostWeight*mCost

	return calibration.LayerScore{
		Layer: calibration.LayerMeta,
		Value: value,
		Evidence: map[string]string{
			"m_transp":   fmt.Sprintf("%.2f (%d/3 conditions)", mTransp, transpCount),
			"m_gov":      fmt.Sprintf("%.2f (%d/3 conditions)", mGov, govCount),
			"m_cost":     fmt.Sprintf("%.1f (%s: %s)", mCost, costRung, costReason),
			"runtime_ms": fmt.Sprintf("%.1f", ev.Cost.RuntimeMillis),
			"memory_mb":  fmt.Sprintf("%.1f", ev.Cost.MemoryMB),
		},
		Formula: fmt.Sprintf("x_m = 0.5*%.2f + 0.4*%.2f + 0.1*%.1f = %.6f", mTransp, mGov, mCost, value),
	}, nil
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
