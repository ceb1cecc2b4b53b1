package calibration

import (
	"fmt"

	"calengine/domain/core"
	"calengine/domain/graph"
)

// ContextTuple is the evaluation context a subject is calibrated against.
// QuestionID is nil for subjects whose role never touches question scoring.
type ContextTuple struct {
	QuestionID  *string `json:"question,omitempty"`
	DimensionID string  `json:"dimension"`
	PolicyID    string  `json:"policy"`
	UnitQuality float64 `json:"unit_quality"`
}

// Validate checks the context ranges.
func (c ContextTuple) Validate() error {
	if c.DimensionID == "" {
		return core.NewValidationError("context.dimension", "cannot be empty")
	}
	if c.PolicyID == "" {
		return core.NewValidationError("context.policy", "cannot be empty")
	}
	if c.UnitQuality < 0 || c.UnitQuality > 1 {
		return core.NewValidationError("context.unit_quality",
			fmt.Sprintf("%f outside [0,1]", c.UnitQuality))
	}
	return nil
}

// Subject is one (method, node, graph, context) tuple being calibrated.
// Subjects are created per request and discarded after certificate emission.
type Subject struct {
	Instance core.InstanceID `json:"instance_id"`
	Method   core.MethodID   `json:"method"`
	Role     Role            `json:"role"`
	Node     graph.NodeID    `json:"node"`
	Graph    *graph.Graph    `json:"-"`
	Context  ContextTuple    `json:"context"`
	Evidence EvidenceBag     `json:"-"`
}

// Validate checks the subject descriptor before any evaluator runs.
func (s Subject) Validate() error {
	if core.ID(s.Method).IsEmpty() {
		return core.NewValidationError("subject.method", "cannot be empty")
	}
	if !IsValidRole(s.Role) {
		return fmt.Errorf("%w: %q", core.ErrUnknownRole, s.Role)
	}
	if s.Graph == nil {
		return core.ErrGraphNotFound
	}
	if _, ok := s.Graph.Node(s.Node); !ok {
		return core.NewValidationError("subject.node",
			fmt.Sprintf("node %d not in graph %s", s.Node, s.Graph.ID))
	}
	return s.Context.Validate()
}
