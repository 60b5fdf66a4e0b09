package document

import (
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/harborstack/apidocs/metadata"
)

const schemaRefPrefix = "#/components/schemas/"

// extEnumNames carries enum member display names alongside the raw values.
const extEnumNames = "x-enumNames"

// SchemaRefFor returns the component reference for a named schema.
func SchemaRefFor(name string) string {
	return schemaRefPrefix + name
}

// CollectModels turns resolved models into component schemas. Property order
// inside a schema follows the source declaration order; the map key set is
// the model names, already unique after resolution.
func CollectModels(models []*metadata.Model) openapi3.Schemas {
	schemas := make(openapi3.Schemas, len(models))
	for _, m := range models {
		schemas[m.Name] = &openapi3.SchemaRef{Value: modelSchema(m)}
	}
	return schemas
}

func modelSchema(m *metadata.Model) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:        &openapi3.Types{openapi3.TypeObject},
		Description: m.Comment,
		Properties:  openapi3.Schemas{},
	}

	var required []string
	for i := range m.Properties {
		p := &m.Properties[i]
		name := p.JSONName
		if name == "" {
			name = p.Name
		}
		schema.Properties[name] = propertySchemaRef(p)
		if p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	schema.Required = required

	return schema
}

// propertySchemaRef builds the schema for one property. Named object types
// become component references; everything else is inlined.
func propertySchemaRef(p *metadata.Property) *openapi3.SchemaRef {
	if p.Type == "object" && p.SchemaRef != "" {
		return openapi3.NewSchemaRef(SchemaRefFor(p.SchemaRef), nil)
	}

	schema := &openapi3.Schema{
		Type:        &openapi3.Types{p.Type},
		Format:      p.Format,
		Description: p.Comment,
	}

	if p.Example != "" {
		schema.Example = exampleValue(p)
	}

	if p.Type == openapi3.TypeArray {
		schema.Items = arrayItemsRef(p)
	}

	if len(p.Enum) > 0 {
		schema.Enum = p.EnumValues()
		if names := p.EnumNames; len(names) > 0 {
			schema.Extensions = map[string]any{extEnumNames: names}
		}
	}

	applyConstraints(schema, p)

	return &openapi3.SchemaRef{Value: schema}
}

func arrayItemsRef(p *metadata.Property) *openapi3.SchemaRef {
	if p.SchemaRef != "" {
		return openapi3.NewSchemaRef(SchemaRefFor(p.SchemaRef), nil)
	}
	elem := p.ElemType
	if elem == "" {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeObject}}}
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{elem}}}
}

// exampleValue coerces the example tag string toward the property type so
// numeric and boolean examples render unquoted.
func exampleValue(p *metadata.Property) any {
	switch p.Type {
	case openapi3.TypeInteger:
		if v, err := strconv.ParseInt(p.Example, 10, 64); err == nil {
			return v
		}
	case openapi3.TypeNumber:
		if v, err := strconv.ParseFloat(p.Example, 64); err == nil {
			return v
		}
	case openapi3.TypeBoolean:
		if v, err := strconv.ParseBool(p.Example); err == nil {
			return v
		}
	}
	return p.Example
}

// applyConstraints maps validate-tag constraints onto the schema fields that
// carry the same meaning. min/max are length bounds on strings, item bounds
// on arrays and value bounds on numbers.
func applyConstraints(schema *openapi3.Schema, p *metadata.Property) {
	for key, raw := range p.Constraints {
		switch key {
		case "min":
			applyLowerBound(schema, p.Type, raw)
		case "max":
			applyUpperBound(schema, p.Type, raw)
		case "len":
			if n, err := strconv.ParseUint(raw, 10, 64); err == nil && p.Type == openapi3.TypeString {
				schema.MinLength = n
				schema.MaxLength = &n
			}
		case "email":
			schema.Format = "email"
		case "uuid":
			schema.Format = "uuid"
		case "url", "uri":
			schema.Format = "uri"
		}
	}
}

func applyLowerBound(schema *openapi3.Schema, typ, raw string) {
	switch typ {
	case openapi3.TypeString:
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			schema.MinLength = n
		}
	case openapi3.TypeArray:
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			schema.MinItems = n
		}
	case openapi3.TypeInteger, openapi3.TypeNumber:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			schema.Min = &v
		}
	}
}

func applyUpperBound(schema *openapi3.Schema, typ, raw string) {
	switch typ {
	case openapi3.TypeString:
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			schema.MaxLength = &n
		}
	case openapi3.TypeArray:
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			schema.MaxItems = &n
		}
	case openapi3.TypeInteger, openapi3.TypeNumber:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			schema.Max = &v
		}
	}
}
