package fusion

import (
	"fmt"
	"math"
	"strings"

	"calengine/domain/calibration"
	"calengine/domain/core"
)

// Term is one contribution to the fused score: either a linear layer term or
// a pairwise min-interaction term.
type Term struct {
	ID           string  `json:"id"` // "a_base" or "a_chain*unit"
	Weight       float64 `json:"weight"`
	Input        float64 `json:"input"` // x_l, or min(x_l, x_k) for pairs
	Contribution float64 `json:"contribution"`
	Formula      string  `json:"formula"`
}

// Result is the full fusion outcome with its audit trace.
type Result struct {
	Cal          float64  `json:"cal"`
	Linear       []Term   `json:"linear"`
	Interactions []Term   `json:"interactions"`
	Symbolic     string   `json:"symbolic"`
	Expanded     string   `json:"expanded"`
	Trace        []string `json:"trace"`
}

// Aggregate fuses the layer scores under the role-scoped profile:
//
//	Cal = Σ a_l·x_l + Σ a_lk·min(x_l, x_k)
//
// Boundedness holds by construction (every term is ≤ weight·1 and the
// validated weights sum to 1) and Cal is monotone non-decreasing in each x_l.
// A zero-valued hard-gated layer propagates through both the weighted sum and
// every min term touching it; there is no override channel.
func Aggregate(scores map[calibration.LayerID]float64, p *Parameters) (Result, error) {
	for layer, x := range scores {
		if x < 0 || x > 1 {
			return Result{}, fmt.Errorf("%w: x_%s = %f", core.ErrScoreOutOfRange, layer, x)
		}
	}

	res := Result{}
	var symbolic, expanded []string

	for _, layer := range p.SortedLayers() {
		x, ok := scores[layer]
		if !ok {
			return Result{}, core.NewEvaluationError(string(layer),
				fmt.Sprintf("scores=%v", scores),
				"profile weights a layer with no evaluated score")
		}
		w := p.Weights[layer]
		contrib := w * x
		term := Term{
			ID:           "a_" + string(layer),
			Weight:       w,
			Input:        x,
			Contribution: contrib,
			Formula:      fmt.Sprintf("%.6f * x_%s", w, layer),
		}
		res.Linear = append(res.Linear, term)
		res.Cal += contrib
		symbolic = append(symbolic, fmt.Sprintf("a_%s*x_%s", layer, layer))
		expanded = append(expanded, fmt.Sprintf("%.6f*%.6f", w, x))
		res.Trace = append(res.Trace,
			fmt.Sprintf("linear %s: %.6f * %.6f = %.6f", layer, w, x, contrib))
	}

	for _, pair := range p.SortedPairs() {
		xa, aok := scores[pair.A]
		xb, bok := scores[pair.B]
		if !aok || !bok {
			return Result{}, core.NewEvaluationError(pair.String(),
				fmt.Sprintf("scores=%v", scores),
				"interaction pair references a layer with no evaluated score")
		}
		w := p.Interactions[pair]
		m := math.Min(xa, xb)
		contrib := w * m
		term := Term{
			ID:           "a_" + pair.String(),
			Weight:       w,
			Input:        m,
			Contribution: contrib,
			Formula:      fmt.Sprintf("%.6f * min(x_%s, x_%s)", w, pair.A, pair.B),
		}
		res.Interactions = append(res.Interactions, term)
		res.Cal += contrib
		symbolic = append(symbolic, fmt.Sprintf("a_%s*min(x_%s,x_%s)", pair, pair.A, pair.B))
		expanded = append(expanded, fmt.Sprintf("%.6f*min(%.6f,%.6f)", w, xa, xb))
		res.Trace = append(res.Trace,
			fmt.Sprintf("interaction %s: %.6f * min(%.6f, %.6f) = %.6f", pair, w, xa, xb, contrib))
	}

	// Clamp float drift only; the convex combination already bounds the sum.
	if res.Cal > 1 {
		res.Cal = 1
	}
	if res.Cal < 0 {
		res.Cal = 0
	}

	res.Symbolic = "Cal = " + strings.Join(symbolic, " + ")
	res.Expanded = "Cal = " + strings.Join(expanded, " + ")
	res.Trace = append(res.Trace, fmt.Sprintf("Cal = %.6f", res.Cal))
	return res, nil
}
