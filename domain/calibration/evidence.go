package calibration

// EvidenceBag carries everything collaborators supply about the evaluated
// method instance. Sub-structs are pointers on purpose: a nil pointer means
// the evidence was never supplied, and evaluators that need it must fail the
// subject rather than fall back to a silent default.
type EvidenceBag struct {
	Chain        *ChainEvidence        `json:"chain,omitempty"`
	Transparency *TransparencyEvidence `json:"transparency,omitempty"`
	Governance   *GovernanceEvidence   `json:"governance,omitempty"`
	Cost         *CostEvidence         `json:"cost,omitempty"`

	// TestCoverage and StabilityCoefficient describe the method historically.
	// They travel in the certificate evidence payload for audit; the layer
	// formulas themselves consume the registry's intrinsic scores.
	TestCoverage         *float64 `json:"test_coverage,omitempty"`
	StabilityCoefficient *float64 `json:"stability_coefficient,omitempty"`
}

// InputContractStatus classifies one inbound edge against the declared
// input schema.
type InputContractStatus string

const (
	ContractOK           InputContractStatus = "ok"
	ContractWeakMismatch InputContractStatus = "weak_mismatch"
	ContractIncompatible InputContractStatus = "incompatible"
)

// InputContract is the contract check outcome for one inbound edge or
// expected input of the subject node.
type InputContract struct {
	Name       string              `json:"name"`
	EdgeKind   string              `json:"edge_kind,omitempty"`
	Status     InputContractStatus `json:"status"`
	Required   bool                `json:"required"`
	Critical   bool                `json:"critical"`   // critical-but-optional when Required is false
	Beneficial bool                `json:"beneficial"` // nice-to-have optional input
	Available  bool                `json:"available"`
}

// ChainEvidence is the data-flow integrity input for the chain layer.
type ChainEvidence struct {
	Inputs   []InputContract `json:"inputs"`
	Warnings []string        `json:"warnings,omitempty"`
}

// TransparencyEvidence holds the three transparency conditions of the meta
// layer.
type TransparencyEvidence struct {
	FormulaExported bool `json:"formula_exported"`
	TraceCaptured   bool `json:"trace_captured"`
	LogsConformant  bool `json:"logs_conformant"`
}

// GovernanceEvidence holds the three governance conditions of the meta layer.
type GovernanceEvidence struct {
	VersionTagged     bool `json:"version_tagged"`
	ConfigHashMatches bool `json:"config_hash_matches"`
	SignatureValid    bool `json:"signature_valid"`
}

// CostEvidence describes the evaluated method's measured footprint. These are
// supplied by collaborators, never measured by the engine itself.
type CostEvidence struct {
	RuntimeMillis float64 `json:"runtime_ms"`
	MemoryMB      float64 `json:"memory_mb"`
	TimedOut      bool    `json:"timed_out"`
	OutOfMemory   bool    `json:"out_of_memory"`
}
