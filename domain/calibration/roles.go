package calibration

// Role is the functional role of a method inside the computation graph.
// The role determines which layers its calibration must evaluate.
type Role string

const (
	RoleIngestion           Role = "ingestion"
	RoleStructureExtraction Role = "structure-extraction"
	RoleGenericExtraction   Role = "generic-extraction"
	RoleQuestionScoring     Role = "question-scoring"
	RoleAggregation         Role = "aggregation"
	RoleReporting           Role = "reporting"
	RoleMetaTooling         Role = "meta-tooling"
	RoleTransformation      Role = "transformation"
)

// AllRoles returns every role in canonical order.
func AllRoles() []Role {
	return []Role{
		RoleIngestion, RoleStructureExtraction, RoleGenericExtraction,
		RoleQuestionScoring, RoleAggregation, RoleReporting,
		RoleMetaTooling, RoleTransformation,
	}
}

// IsValidRole reports whether r names a known role.
func IsValidRole(r Role) bool {
	for _, role := range AllRoles() {
		if role == r {
			return true
		}
	}
	return false
}
