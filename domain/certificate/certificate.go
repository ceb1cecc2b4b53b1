// Package certificate defines the sealed, reproducible audit record of one
// calibration and the builder that assembles it.
package certificate

import (
	"encoding/json"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/domain/graph"
)

// LayerEntry is one layer's line in the certificate breakdown.
type LayerEntry struct {
	Score    float64           `json:"score"`
	Evidence map[string]string `json:"evidence,omitempty"`
	Formula  string            `json:"formula"`
}

// InteractionEntry is one pairwise interaction's line in the breakdown.
type InteractionEntry struct {
	Contribution float64 `json:"contribution"`
	Formula      string  `json:"formula"`
}

// FusionFormula captures the symbolic and fully expanded fusion expression
// plus the step-by-step computation trace.
type FusionFormula struct {
	Symbolic         string   `json:"symbolic"`
	Expanded         string   `json:"expanded"`
	ComputationTrace []string `json:"computation_trace"`
}

// ParameterProvenance records where one fusion parameter came from.
type ParameterProvenance struct {
	Value         float64 `json:"value"`
	Source        string  `json:"source"`
	Justification string  `json:"justification,omitempty"`
}

// ValidationChecks are the per-certificate self-checks re-run at build time.
type ValidationChecks struct {
	Boundedness           bool `json:"boundedness"`
	MonotonicitySpotcheck bool `json:"monotonicity_spotcheck"`
	Normalization         bool `json:"normalization"`
	Completeness          bool `json:"completeness"`
}

// AllPassed reports whether every self-check held.
func (v ValidationChecks) AllPassed() bool {
	return v.Boundedness && v.MonotonicitySpotcheck && v.Normalization && v.Completeness
}

// AuditTrail anchors the certificate to its configuration and graph
// snapshots. Signature is the keyed MAC over the canonical body.
type AuditTrail struct {
	Timestamp        core.Timestamp  `json:"timestamp"`
	ConfigHash       core.ConfigHash `json:"config_hash"`
	GraphHash        core.GraphHash  `json:"graph_hash"`
	ValidatorVersion string          `json:"validator_version"`
	Signature        string          `json:"signature"`
}

// Certificate is the complete calibration audit record. The body (everything
// except AuditTrail.Signature) serializes canonically; identical subject and
// configuration snapshot produce a byte-identical body.
type Certificate struct {
	InstanceID           core.InstanceID                `json:"instance_id"`
	Method               core.MethodID                  `json:"method"`
	Node                 graph.NodeID                   `json:"node"`
	Context              calibration.ContextTuple       `json:"context"`
	CalibrationScore     float64                        `json:"calibration_score"`
	LayerBreakdown       map[string]LayerEntry          `json:"layer_breakdown"`
	InteractionBreakdown map[string]InteractionEntry    `json:"interaction_breakdown"`
	FusionFormula        FusionFormula                  `json:"fusion_formula"`
	ParameterProvenance  map[string]ParameterProvenance `json:"parameter_provenance"`
	ValidationChecks     ValidationChecks               `json:"validation_checks"`
	AuditTrail           AuditTrail                     `json:"audit_trail"`
}

// CanonicalBody returns the deterministic serialization that the MAC seals:
// the full certificate with the signature field blanked. encoding/json emits
// struct fields in declaration order and map keys sorted, so the bytes are
// stable for identical content.
func (c Certificate) CanonicalBody() ([]byte, error) {
	unsealed := c
	unsealed.AuditTrail.Signature = ""
	return json.Marshal(unsealed)
}
