package registry

import (
	"calengine/domain/calibration"
	"calengine/domain/core"
)

// roleRequirements is the fixed role -> mandatory layer table. There are no
// silent defaults: an unknown role is an error, never an empty set.
var roleRequirements = map[calibration.Role]calibration.LayerSet{
	calibration.RoleQuestionScoring: calibration.NewLayerSet(calibration.AllLayers()...),
	calibration.RoleIngestion: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerUnit, calibration.LayerMeta),
	calibration.RoleStructureExtraction: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerUnit, calibration.LayerMeta),
	calibration.RoleGenericExtraction: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerUnit, calibration.LayerMeta),
	calibration.RoleAggregation: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerDimension,
		calibration.LayerPolicy, calibration.LayerCongruence, calibration.LayerMeta),
	calibration.RoleReporting: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerCongruence, calibration.LayerMeta),
	calibration.RoleMetaTooling: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerMeta),
	calibration.RoleTransformation: calibration.NewLayerSet(
		calibration.LayerBase, calibration.LayerChain, calibration.LayerMeta),
}

// RequiredLayers resolves a role to its mandatory layer set.
func RequiredLayers(role calibration.Role) (calibration.LayerSet, error) {
	req, ok := roleRequirements[role]
	if !ok {
		return nil, core.ErrUnknownRole
	}
	// Copy so callers cannot mutate the shared table.
	out := make(calibration.LayerSet, len(req))
	for l := range req {
		out[l] = struct{}{}
	}
	return out, nil
}
