package layers

import (
	"fmt"
	"strings"

	"calengine/domain/calibration"
	"calengine/domain/graph"
	"calengine/internal/registry"
)

// congruenceEvaluator validates cross-method coherence inside an interplay
// subgraph: score = c_scale * c_sem * c_fusion. A subject outside any
// interplay is vacuously congruent and scores 1.0.
type congruenceEvaluator struct{}

func (congruenceEvaluator) Layer() calibration.LayerID { return calibration.LayerCongruence }

func (congruenceEvaluator) Evaluate(subject calibration.Subject, snap *registry.Snapshot) (calibration.LayerScore, error) {
	ip, ok := subject.Graph.InterplayOf(subject.Node)
	if !ok {
		return calibration.LayerScore{
			Layer:    calibration.LayerCongruence,
			Value:    1.0,
			Evidence: map[string]string{"interplay": "none"},
			Formula:  "x_C = 1.0 (subject not in any interplay)",
		}, nil
	}

	members := make([]graph.Node, 0, len(ip.Members))
	for _, id := range ip.Members {
		n, ok := subject.Graph.Node(id)
		if !ok {
			return calibration.LayerScore{}, fmt.Errorf(
				"interplay %s references node %d missing from graph %s", ip.ID, id, subject.Graph.ID)
		}
		members = append(members, n)
	}

	cScale, scaleReason := scaleCongruence(ip, members)
	cSem := semanticOverlap(members)
	cFusion, fusionReason := fusionCongruence(ip, members)
	value := cScale * cSem * cFusion

	return calibration.LayerScore{
		Layer: calibration.LayerCongruence,
		Value: value,
		Evidence: map[string]string{
			"interplay": ip.ID,
			"c_scale":   fmt.Sprintf("%.2f (%s)", cScale, scaleReason),
			"c_sem":     fmt.Sprintf("%.6f", cSem),
			"c_fusion":  fmt.Sprintf("%.2f (%s)", cFusion, fusionReason),
		},
		Formula: fmt.Sprintf("x_C = %.2f * %.6f * %.2f = %.6f", cScale, cSem, cFusion, value),
	}, nil
}

// scaleCongruence: 1.0 when all participating outputs share an identical
// range, 0.8 when every differing pair is convertible via a declared
// transform, else 0.
func scaleCongruence(ip graph.Interplay, members []graph.Node) (float64, string) {
	ranges := make(map[string]struct{})
	for _, n := range members {
		ranges[n.OutputRange] = struct{}{}
	}
	if len(ranges) <= 1 {
		return 1.0, "identical ranges"
	}

	distinct := make([]string, 0, len(ranges))
	for r := range ranges {
		distinct = append(distinct, r)
	}
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			a, b := distinct[i], distinct[j]
			if _, ok := ip.RangeTransforms[a+"->"+b]; ok {
				continue
			}
			if _, ok := ip.RangeTransforms[b+"->"+a]; ok {
				continue
			}
			return 0, fmt.Sprintf("no transform between %q and %q", a, b)
		}
	}
	return 0.8, "ranges convertible via declared transforms"
}

// semanticOverlap is the Jaccard overlap of declared concept tags across all
// participating nodes: |intersection| / |union|. No declared tags anywhere
// means no semantic congruence evidence and scores 0.
func semanticOverlap(members []graph.Node) float64 {
	union := make(map[string]struct{})
	counts := make(map[string]int)
	for _, n := range members {
		seen := make(map[string]struct{}, len(n.ConceptTags))
		for _, tag := range n.ConceptTags {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			union[tag] = struct{}{}
			counts[tag]++
		}
	}
	if len(union) == 0 {
		return 0
	}
	intersection := 0
	for _, c := range counts {
		if c == len(members) {
			intersection++
		}
	}
	return float64(intersection) / float64(len(union))
}

// fusionCongruence: 1.0 when a fusion rule is declared and every required
// input is contributed by a member method, 0.5 when the rule is declared but
// inputs are missing, 0 when no rule is declared.
func fusionCongruence(ip graph.Interplay, members []graph.Node) (float64, string) {
	if ip.FusionRule == "" {
		return 0, "no fusion rule declared"
	}
	contributed := make(map[string]struct{}, len(members))
	for _, n := range members {
		contributed[string(n.Method)] = struct{}{}
	}
	var missing []string
	for _, req := range ip.RequiredInputs {
		if _, ok := contributed[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return 0.5, fmt.Sprintf("rule %q missing inputs: %s", ip.FusionRule, strings.Join(missing, ","))
	}
	return 1.0, fmt.Sprintf("rule %q fully supplied", ip.FusionRule)
}
