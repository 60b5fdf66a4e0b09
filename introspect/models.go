package introspect

import (
	"go/ast"
	"go/token"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/harborstack/apidocs/metadata"
)

// enumInfo collects the members of a named constant type.
type enumInfo struct {
	baseType string
	members  map[string]any
}

// collectModels extracts DTO structs from files matching the configured
// suffixes, resolving enum types from the package's const blocks.
func (a *Analyzer) collectModels(artifact *metadata.Artifact, dir string, pkg *ast.Package) {
	enums := collectEnums(pkg)

	for path, file := range pkg.Files {
		if !a.matchesSuffix(path, a.cfg.DTOFileSuffixes) {
			continue
		}

		relPath, err := filepath.Rel(a.cfg.ProjectRoot, path)
		if err != nil {
			relPath = path
		}

		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok || !typeSpec.Name.IsExported() {
					continue
				}
				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					continue
				}

				model := metadata.Model{
					Name:       typeSpec.Name.Name,
					Package:    file.Name.Name,
					File:       relPath,
					Properties: a.extractProperties(structType, enums),
				}
				if a.cfg.IntrospectComments {
					model.Comment = typeDocComment(genDecl, typeSpec)
				}
				artifact.Models = append(artifact.Models, model)
			}
		}
	}

	slices.SortFunc(artifact.Models, func(x, y metadata.Model) int {
		return strings.Compare(x.Name, y.Name)
	})
}

// typeDocComment prefers the TypeSpec doc and falls back to the GenDecl doc
// for single-spec declarations.
func typeDocComment(genDecl *ast.GenDecl, typeSpec *ast.TypeSpec) string {
	if typeSpec.Doc != nil {
		return joinCommentGroup(typeSpec.Doc)
	}
	if len(genDecl.Specs) == 1 {
		return joinCommentGroup(genDecl.Doc)
	}
	return ""
}

func (a *Analyzer) extractProperties(structType *ast.StructType, enums map[string]enumInfo) []metadata.Property {
	var props []metadata.Property

	for _, field := range structType.Fields.List {
		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}

			prop := metadata.Property{Name: name.Name}
			a.applyFieldType(&prop, field.Type, enums)
			if prop.Type == "" {
				continue
			}

			tags := parseStructTag(field.Tag)
			jsonName, skip := jsonNameFromTags(tags, name.Name)
			if skip {
				continue
			}
			prop.JSONName = jsonName
			if a.cfg.IntrospectComments {
				prop.Comment = fieldComment(field)
			}
			if example, ok := tags["example"]; ok {
				prop.Example = example
			}
			if a.cfg.ValidateTagConstraints {
				prop.Required, prop.Constraints = parseValidateTag(tags["validate"])
			}

			props = append(props, prop)
		}
	}

	return props
}

// applyFieldType maps a Go field type onto schema metadata, resolving named
// enum types through the package's const blocks.
func (a *Analyzer) applyFieldType(prop *metadata.Property, expr ast.Expr, enums map[string]enumInfo) {
	switch t := expr.(type) {
	case *ast.Ident:
		if enum, ok := enums[t.Name]; ok {
			prop.Type = schemaType(enum.baseType)
			prop.Enum = enum.members
			return
		}
		if st := schemaType(t.Name); st != "" {
			prop.Type = st
			prop.Format = schemaFormat(t.Name)
			return
		}
		// Named type defined elsewhere: reference by schema name
		prop.Type = "object"
		prop.SchemaRef = t.Name

	case *ast.StarExpr:
		a.applyFieldType(prop, t.X, enums)

	case *ast.ArrayType:
		var elem metadata.Property
		a.applyFieldType(&elem, t.Elt, enums)
		prop.Type = "array"
		prop.ElemType = elem.Type
		prop.SchemaRef = elem.SchemaRef

	case *ast.SelectorExpr:
		if pkg, ok := t.X.(*ast.Ident); ok && pkg.Name == "time" && t.Sel.Name == "Time" {
			prop.Type = "string"
			prop.Format = "date-time"
			return
		}
		prop.Type = "object"
		prop.SchemaRef = t.Sel.Name

	case *ast.MapType, *ast.InterfaceType:
		prop.Type = "object"
	}
}

func schemaType(goType string) string {
	switch goType {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64":
		return "integer"
	case "float32", "float64":
		return "number"
	case "any":
		return "object"
	default:
		return ""
	}
}

func schemaFormat(goType string) string {
	switch goType {
	case "int32":
		return "int32"
	case "int64":
		return "int64"
	case "float32":
		return "float"
	case "float64":
		return "double"
	default:
		return ""
	}
}

func fieldComment(field *ast.Field) string {
	if field.Doc != nil {
		return joinCommentGroup(field.Doc)
	}
	return joinCommentGroup(field.Comment)
}

// parseStructTag decodes a raw struct tag literal into its key/value pairs.
func parseStructTag(tag *ast.BasicLit) map[string]string {
	result := make(map[string]string)
	if tag == nil {
		return result
	}

	raw := strings.Trim(tag.Value, "`")
	st := reflect.StructTag(raw)
	for _, key := range []string{"json", "validate", "example", "doc"} {
		if value, ok := st.Lookup(key); ok {
			result[key] = value
		}
	}
	return result
}

// jsonNameFromTags returns the effective JSON property name, and whether the
// field is excluded from serialization.
func jsonNameFromTags(tags map[string]string, fieldName string) (name string, skip bool) {
	jsonTag, ok := tags["json"]
	if !ok || jsonTag == "" {
		return lowerFirst(fieldName), false
	}

	parts := strings.Split(jsonTag, ",")
	if parts[0] == "-" {
		return "", true
	}
	if parts[0] == "" {
		return lowerFirst(fieldName), false
	}
	return parts[0], false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// parseValidateTag splits a validate tag into the required flag and the
// remaining constraint pairs.
func parseValidateTag(tag string) (required bool, constraints map[string]string) {
	if tag == "" {
		return false, nil
	}

	constraints = make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "required" {
			required = true
			continue
		}
		if key, value, found := strings.Cut(part, "="); found {
			constraints[key] = value
		} else {
			constraints[part] = "true"
		}
	}
	if len(constraints) == 0 {
		constraints = nil
	}
	return required, constraints
}

// collectEnums finds named constant types and their members across a package.
// Both `type Status int` iota blocks and string-valued enums are supported.
func collectEnums(pkg *ast.Package) map[string]enumInfo {
	types := make(map[string]string) // named type -> base type

	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if ident, ok := typeSpec.Type.(*ast.Ident); ok && schemaType(ident.Name) != "" {
					types[typeSpec.Name.Name] = ident.Name
				}
			}
		}
	}

	enums := make(map[string]enumInfo)
	for _, file := range pkg.Files {
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.CONST {
				continue
			}
			collectEnumBlock(genDecl, types, enums)
		}
	}

	return enums
}

// collectEnumBlock walks one const block, tracking iota and the implied type
// of untyped continuation specs.
func collectEnumBlock(genDecl *ast.GenDecl, types map[string]string, enums map[string]enumInfo) {
	currentType := ""
	usesIota := false

	for specIndex, spec := range genDecl.Specs {
		valueSpec, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}

		if ident, ok := valueSpec.Type.(*ast.Ident); ok {
			if _, known := types[ident.Name]; known {
				currentType = ident.Name
			} else {
				currentType = ""
			}
		} else if valueSpec.Type != nil {
			currentType = ""
		}

		if currentType == "" {
			continue
		}

		for i, name := range valueSpec.Names {
			if name.Name == "_" {
				continue
			}

			var value any
			switch {
			case i < len(valueSpec.Values):
				value, usesIota = constValue(valueSpec.Values[i], specIndex)
			case usesIota:
				value = specIndex
			default:
				continue
			}
			if value == nil {
				continue
			}

			info, ok := enums[currentType]
			if !ok {
				info = enumInfo{baseType: types[currentType], members: make(map[string]any)}
			}
			info.members[name.Name] = value
			enums[currentType] = info
		}
	}
}

// constValue evaluates simple constant expressions: literals and iota.
func constValue(expr ast.Expr, iotaValue int) (value any, isIota bool) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.INT:
			if v, err := strconv.Atoi(e.Value); err == nil {
				return v, false
			}
		case token.FLOAT:
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil {
				return v, false
			}
		case token.STRING:
			return strings.Trim(e.Value, `"`), false
		}
	case *ast.Ident:
		if e.Name == "iota" {
			return iotaValue, true
		}
	}
	return nil, false
}
