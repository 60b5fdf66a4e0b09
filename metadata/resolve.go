package metadata

import (
	"sort"
	"strconv"

	"github.com/harborstack/apidocs/logger"
)

// ResolveModels flattens the artifact's model list into concrete models.
// Deferred references are resolved against the model index, duplicates are
// dropped, and enum metadata is normalized in place. The result is sorted by
// name so repeated runs over unchanged input produce identical documents.
func ResolveModels(artifact *Artifact, log logger.Logger) []*Model {
	index := make(map[string]*Model, len(artifact.Models))
	order := make([]string, 0, len(artifact.Models))

	for i := range artifact.Models {
		m := &artifact.Models[i]
		if m.IsRef() {
			continue
		}
		if _, dup := index[m.Name]; dup {
			continue
		}
		index[m.Name] = m
		order = append(order, m.Name)
	}

	// Deferred references resolve to already-indexed entries; anything left
	// dangling is dropped rather than failing the whole pipeline.
	for i := range artifact.Models {
		m := &artifact.Models[i]
		if !m.IsRef() {
			continue
		}
		if _, ok := index[m.Ref]; !ok {
			log.Debug().Str("ref", m.Ref).Msg("dropping unresolvable model reference")
		}
	}

	sort.Strings(order)

	resolved := make([]*Model, 0, len(order))
	for _, name := range order {
		m := index[name]
		normalizeEnums(m)
		resolved = append(resolved, m)
	}

	return resolved
}

// normalizeEnums attaches display names for enum-valued properties.
// The generator emits enum members as a name-to-value mapping; reverse-mapped
// numeric keys are ignored and the remaining member names become EnumNames.
func normalizeEnums(m *Model) {
	for i := range m.Properties {
		p := &m.Properties[i]
		if len(p.Enum) == 0 {
			continue
		}

		names := make([]string, 0, len(p.Enum))
		for key := range p.Enum {
			if _, err := strconv.ParseFloat(key, 64); err == nil {
				continue
			}
			names = append(names, key)
		}
		sort.Strings(names)
		p.EnumNames = names
	}
}

// EnumValues returns the property's enum values ordered by member name, so
// schema output stays deterministic.
func (p *Property) EnumValues() []any {
	if len(p.Enum) == 0 {
		return nil
	}

	names := p.EnumNames
	if names == nil {
		names = make([]string, 0, len(p.Enum))
		for key := range p.Enum {
			if _, err := strconv.ParseFloat(key, 64); err == nil {
				continue
			}
			names = append(names, key)
		}
		sort.Strings(names)
	}

	values := make([]any, 0, len(names))
	for _, name := range names {
		values = append(values, p.Enum[name])
	}
	return values
}
