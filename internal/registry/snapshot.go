// Package registry holds the load-once-and-freeze configuration snapshot the
// whole engine reads: method records, compatibility declarations, role
// requirements, and fusion profiles. A snapshot is validated as a unit at
// construction and never mutated afterwards, so concurrent readers need no
// locking.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"calengine/domain/calibration"
	"calengine/domain/core"
	"calengine/domain/fusion"
)

// universalityThreshold: a declaration level counts toward universality when
// its score is at or above this bound.
const universalityThreshold = 0.9

// MethodRecord is the frozen registration of one method.
type MethodRecord struct {
	ID            core.MethodID
	Role          calibration.Role
	ActiveLayers  calibration.LayerSet
	Base          BaseScores
	UnitTransform UnitTransformKind
	// WaivedLayers are required layers excused by an approved justification.
	WaivedLayers map[calibration.LayerID]JustificationRecord
	compat       map[calibration.ContextAxis]Declarations
}

// Snapshot is the immutable configuration view passed by reference to every
// evaluator call. There is no process-wide singleton; tests construct
// alternate snapshots freely.
type Snapshot struct {
	methods    map[core.MethodID]MethodRecord
	profiles   map[calibration.Role]*fusion.Parameters
	questions  []string
	dimensions []string
	policies   []string
	cost       CostThresholds
	version    string
	configHash core.ConfigHash
}

// NewSnapshot validates the configuration set and freezes it. Any violation
// (range, normalization, completeness, anti-universality) rejects the whole
// set with a ConfigurationError or ValidationError.
func NewSnapshot(cfg ConfigurationSet) (*Snapshot, error) {
	s := &Snapshot{
		methods:    make(map[core.MethodID]MethodRecord, len(cfg.Methods)),
		profiles:   make(map[calibration.Role]*fusion.Parameters, len(cfg.Profiles)),
		questions:  append([]string(nil), cfg.Questions...),
		dimensions: append([]string(nil), cfg.Dimensions...),
		policies:   append([]string(nil), cfg.Policies...),
		cost:       DefaultCostThresholds(),
		version:    cfg.Version,
	}
	if cfg.Cost != nil {
		s.cost = *cfg.Cost
	}
	if s.cost.FastMillis <= 0 || s.cost.AcceptableMillis < s.cost.FastMillis || s.cost.NormalMemoryMB <= 0 {
		return nil, core.NewConfigurationError("cost_thresholds", "thresholds must be positive and ordered")
	}

	for _, mc := range cfg.Methods {
		rec, err := buildMethodRecord(mc)
		if err != nil {
			return nil, err
		}
		if _, dup := s.methods[rec.ID]; dup {
			return nil, core.NewConfigurationError(string(rec.ID), "duplicate method registration")
		}
		s.methods[rec.ID] = rec
	}

	s.deriveUniverses()
	for _, rec := range s.methods {
		if err := s.checkAntiUniversality(rec); err != nil {
			return nil, err
		}
	}

	for _, pc := range cfg.Profiles {
		required, err := RequiredLayers(pc.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: profile role %q", core.ErrUnknownRole, pc.Role)
		}
		profile, err := buildProfile(pc, required)
		if err != nil {
			return nil, err
		}
		if err := profile.Validate(required); err != nil {
			return nil, err
		}
		if _, dup := s.profiles[profile.Role]; dup {
			return nil, core.NewConfigurationError(string(profile.Role), "duplicate fusion profile")
		}
		s.profiles[profile.Role] = profile
	}

	// Every registered method's role must have a usable profile.
	for _, rec := range s.methods {
		if _, ok := s.profiles[rec.Role]; !ok {
			return nil, fmt.Errorf("%w: role %q (method %s)", core.ErrProfileNotFound, rec.Role, rec.ID)
		}
	}

	s.configHash = s.computeConfigHash()
	return s, nil
}

func buildMethodRecord(mc MethodConfig) (MethodRecord, error) {
	if core.ID(mc.ID).IsEmpty() {
		return MethodRecord{}, core.NewConfigurationError("method.id", "cannot be empty")
	}
	if !calibration.IsValidRole(mc.Role) {
		return MethodRecord{}, fmt.Errorf("%w: %q (method %s)", core.ErrUnknownRole, mc.Role, mc.ID)
	}
	if err := mc.Base.Validate(); err != nil {
		return MethodRecord{}, fmt.Errorf("method %s: %w", mc.ID, err)
	}

	transform := mc.UnitTransform
	if transform == "" {
		transform = UnitTransformRamp
	}
	switch transform {
	case UnitTransformIdentity, UnitTransformRamp, UnitTransformSigmoid:
	default:
		return MethodRecord{}, core.NewConfigurationError(string(mc.ID),
			fmt.Sprintf("unknown unit transform %q", transform))
	}

	active := calibration.NewLayerSet(mc.ActiveLayers...)
	for _, l := range mc.ActiveLayers {
		if !calibration.IsValidLayer(l) {
			return MethodRecord{}, core.NewConfigurationError(string(mc.ID),
				fmt.Sprintf("unknown layer %q", l))
		}
	}

	required, err := RequiredLayers(mc.Role)
	if err != nil {
		return MethodRecord{}, fmt.Errorf("%w: %q", core.ErrUnknownRole, mc.Role)
	}

	waived := make(map[calibration.LayerID]JustificationRecord)
	for _, j := range mc.Justifications {
		if j.Approved {
			waived[j.Layer] = j
		}
	}

	// Active-layer completeness: every required layer is active or carries an
	// approved justification. Anything else fails registration.
	for _, missing := range active.Missing(required) {
		if _, ok := waived[missing]; !ok {
			return MethodRecord{}, fmt.Errorf(
				"%w: method %s (role %s) misses layer %s without approved justification",
				core.ErrMissingLayer, mc.ID, mc.Role, missing)
		}
	}

	compat := make(map[calibration.ContextAxis]Declarations, 3)
	for axis, decls := range mc.Compatibility {
		switch axis {
		case calibration.AxisQuestion, calibration.AxisDimension, calibration.AxisPolicy:
		default:
			return MethodRecord{}, core.NewConfigurationError(string(mc.ID),
				fmt.Sprintf("unknown context axis %q", axis))
		}
		copied := make(Declarations, len(decls))
		for id, level := range decls {
			if _, err := calibration.ParseCompatibilityLevel(string(level)); err != nil {
				return MethodRecord{}, core.NewConfigurationError(string(mc.ID), err.Error())
			}
			copied[id] = level
		}
		compat[axis] = copied
	}

	return MethodRecord{
		ID:            mc.ID,
		Role:          mc.Role,
		ActiveLayers:  active,
		Base:          mc.Base,
		UnitTransform: transform,
		WaivedLayers:  waived,
		compat:        compat,
	}, nil
}

// buildProfile materializes one role's fusion profile. A config that leaves
// the interactions key out entirely inherits DefaultInteractionWeights,
// restricted to pairs inside the role's required set; an explicit empty map
// declares a purely linear profile.
func buildProfile(pc ProfileConfig, required calibration.LayerSet) (*fusion.Parameters, error) {
	p := &fusion.Parameters{
		Role:         pc.Role,
		Weights:      make(map[calibration.LayerID]float64, len(pc.Weights)),
		Interactions: make(map[fusion.PairKey]float64, len(pc.Interactions)),
		Source:       pc.Source,
		Version:      pc.Version,
	}
	if p.Source == "" {
		p.Source = "configuration-set"
	}
	for l, w := range pc.Weights {
		p.Weights[l] = w
	}
	if pc.Interactions == nil {
		for pair, w := range fusion.DefaultInteractionWeights() {
			if required.Contains(pair.A) && required.Contains(pair.B) {
				p.Interactions[pair] = w
			}
		}
		return p, nil
	}
	for key, w := range pc.Interactions {
		pair, err := fusion.ParsePairKey(key)
		if err != nil {
			return nil, core.NewConfigurationError(string(pc.Role), err.Error())
		}
		if _, dup := p.Interactions[pair]; dup {
			return nil, core.NewConfigurationError(string(pc.Role),
				fmt.Sprintf("duplicate interaction %s", pair))
		}
		p.Interactions[pair] = w
	}
	return p, nil
}

// deriveUniverses fills empty axis universes with the union of declared ids,
// so anti-universality is checked against everything any method mentions.
func (s *Snapshot) deriveUniverses() {
	union := func(axis calibration.ContextAxis, existing []string) []string {
		if len(existing) > 0 {
			return existing
		}
		set := make(map[string]struct{})
		for _, rec := range s.methods {
			for id := range rec.compat[axis] {
				set[id] = struct{}{}
			}
		}
		out := make([]string, 0, len(set))
		for id := range set {
			out = append(out, id)
		}
		sort.Strings(out)
		return out
	}
	s.questions = union(calibration.AxisQuestion, s.questions)
	s.dimensions = union(calibration.AxisDimension, s.dimensions)
	s.policies = union(calibration.AxisPolicy, s.policies)
}

// checkAntiUniversality rejects a method declared at >= 0.9-equivalent level
// for every question AND every dimension AND every policy simultaneously.
func (s *Snapshot) checkAntiUniversality(rec MethodRecord) error {
	if len(s.questions) == 0 || len(s.dimensions) == 0 || len(s.policies) == 0 {
		return nil
	}
	covers := func(axis calibration.ContextAxis, universe []string) bool {
		for _, id := range universe {
			if rec.lookup(axis, id).Score() < universalityThreshold {
				return false
			}
		}
		return true
	}
	if covers(calibration.AxisQuestion, s.questions) &&
		covers(calibration.AxisDimension, s.dimensions) &&
		covers(calibration.AxisPolicy, s.policies) {
		return fmt.Errorf(
			"%w: method %s declares >=%.1f compatibility across all %d questions, %d dimensions, %d policies",
			core.ErrAntiUniversality, rec.ID, universalityThreshold,
			len(s.questions), len(s.dimensions), len(s.policies))
	}
	return nil
}

func (r MethodRecord) lookup(axis calibration.ContextAxis, id string) calibration.CompatibilityLevel {
	if decls, ok := r.compat[axis]; ok {
		if level, ok := decls[id]; ok {
			return level
		}
	}
	return calibration.CompatUndeclared
}

// Method returns the frozen record for id.
func (s *Snapshot) Method(id core.MethodID) (MethodRecord, error) {
	rec, ok := s.methods[id]
	if !ok {
		return MethodRecord{}, fmt.Errorf("%w: %s", core.ErrMethodNotFound, id)
	}
	return rec, nil
}

// Compatibility resolves the declared level for (method, axis, value).
// Undeclared is a level in its own right, never an error.
func (s *Snapshot) Compatibility(method core.MethodID, axis calibration.ContextAxis, value string) (calibration.CompatibilityLevel, error) {
	rec, err := s.Method(method)
	if err != nil {
		return "", err
	}
	return rec.lookup(axis, value), nil
}

// Profile returns the role's frozen fusion profile.
func (s *Snapshot) Profile(role calibration.Role) (*fusion.Parameters, error) {
	p, ok := s.profiles[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrProfileNotFound, role)
	}
	return p, nil
}

// Cost returns the meta-layer cost thresholds.
func (s *Snapshot) Cost() CostThresholds { return s.cost }

// Version returns the configuration set version tag.
func (s *Snapshot) Version() string { return s.version }

// ConfigHash returns the deterministic hash of the active configuration.
func (s *Snapshot) ConfigHash() core.ConfigHash { return s.configHash }

// computeConfigHash renders every frozen piece of configuration in canonical
// order and hashes the result.
func (s *Snapshot) computeConfigHash() core.ConfigHash {
	var b strings.Builder
	fmt.Fprintf(&b, "version=%s", s.version)
	fmt.Fprintf(&b, "|cost=%.17g,%.17g,%.17g", s.cost.FastMillis, s.cost.AcceptableMillis, s.cost.NormalMemoryMB)

	methodIDs := make([]string, 0, len(s.methods))
	for id := range s.methods {
		methodIDs = append(methodIDs, string(id))
	}
	sort.Strings(methodIDs)
	for _, id := range methodIDs {
		rec := s.methods[core.MethodID(id)]
		fmt.Fprintf(&b, "|method=%s,role=%s,transform=%s", id, rec.Role, rec.UnitTransform)
		fmt.Fprintf(&b, ",base=%.17g,%.17g,%.17g/%.17g,%.17g,%.17g",
			rec.Base.Theory, rec.Base.Impl, rec.Base.Deploy,
			rec.Base.WTheory, rec.Base.WImpl, rec.Base.WDeploy)
		for _, l := range rec.ActiveLayers.Sorted() {
			fmt.Fprintf(&b, ",active=%s", l)
		}
		for _, axis := range []calibration.ContextAxis{calibration.AxisQuestion, calibration.AxisDimension, calibration.AxisPolicy} {
			decls := make(map[string]string, len(rec.compat[axis]))
			for k, v := range rec.compat[axis] {
				decls[k] = string(v)
			}
			fmt.Fprintf(&b, ",%s={%s}", axis, core.CanonicalMapString(decls))
		}
	}

	roles := make([]string, 0, len(s.profiles))
	for r := range s.profiles {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, r := range roles {
		b.WriteString("|")
		b.WriteString(s.profiles[calibration.Role(r)].CanonicalString())
	}

	fmt.Fprintf(&b, "|questions=%s|dimensions=%s|policies=%s",
		strings.Join(s.questions, ","), strings.Join(s.dimensions, ","), strings.Join(s.policies, ","))

	return core.NewConfigHash([]byte(b.String()))
}
