package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/internal/registry"
)

// CompatibilitySource supplies compatibility declarations from an external
// artifact (e.g. the curated matrix workbook) to merge into the set before
// the snapshot freezes.
type CompatibilitySource interface {
	LoadDeclarations(ctx context.Context) (map[core.MethodID]map[calibration.ContextAxis]registry.Declarations, error)
}

// LoadConfigurationSet reads the versioned JSON configuration set from path.
// Range and schema validation happens in registry.NewSnapshot; this only
// parses.
func LoadConfigurationSet(path string) (registry.ConfigurationSet, error) {
	var set registry.ConfigurationSet
	data, err := os.ReadFile(path)
	if err != nil {
		return set, core.NewConfigurationError(path, fmt.Sprintf("cannot read configuration set: %v", err))
	}
	if err := json.Unmarshal(data, &set); err != nil {
		return set, core.NewConfigurationError(path, fmt.Sprintf("malformed configuration set: %v", err))
	}
	return set, nil
}

// MergeDeclarations overlays externally sourced compatibility declarations
// onto the set. File declarations win on conflict; the merged set is still
// validated as a unit when the snapshot is built, so a merge can never
// smuggle in an anti-universality violation.
func MergeDeclarations(set registry.ConfigurationSet, extra map[core.MethodID]map[calibration.ContextAxis]registry.Declarations) registry.ConfigurationSet {
	for i := range set.Methods {
		overlay, ok := extra[set.Methods[i].ID]
		if !ok {
			continue
		}
		if set.Methods[i].Compatibility == nil {
			set.Methods[i].Compatibility = make(map[calibration.ContextAxis]registry.Declarations, len(overlay))
		}
		for axis, decls := range overlay {
			merged := make(registry.Declarations, len(decls))
			for id, level := range decls {
				merged[id] = level
			}
			for id, level := range set.Methods[i].Compatibility[axis] {
				merged[id] = level
			}
			set.Methods[i].Compatibility[axis] = merged
		}
	}
	return set
}
