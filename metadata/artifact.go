// Package metadata defines the machine-readable artifact the introspection
// step produces and the loader the documentation pipeline consumes it with.
package metadata

import "time"

// Artifact is the generated description of a project's handler and model
// structure. It is produced out of process by the generator CLI and treated
// as input here; access stays tolerant of missing optional pieces.
type Artifact struct {
	Module      string       `json:"module"`
	GoVersion   string       `json:"goVersion,omitempty"`
	GeneratedAt time.Time    `json:"generatedAt"`
	RunID       string       `json:"runId,omitempty"`
	Controllers []Controller `json:"controllers"`
	Models      []Model      `json:"models"`
}

// Controller groups the documented handler methods of one module.
type Controller struct {
	Name    string   `json:"name"`
	Package string   `json:"package"`
	Comment string   `json:"comment,omitempty"`
	Methods []Method `json:"methods"`
}

// Method is one HTTP-handling method with its comment-derived text and
// declared return type.
type Method struct {
	Name       string   `json:"name"`
	HTTPMethod string   `json:"httpMethod,omitempty"`
	Path       string   `json:"path,omitempty"`
	Comment    string   `json:"comment,omitempty"`
	ReturnType *TypeRef `json:"returnType,omitempty"`
}

// TypeRef names a declared payload type.
type TypeRef struct {
	Name      string `json:"name"`
	Package   string `json:"package,omitempty"`
	IsArray   bool   `json:"isArray,omitempty"`
	IsGeneric bool   `json:"isGeneric,omitempty"`
}

// Model describes one DTO/model class. An entry may instead be a deferred
// reference: only Ref set, resolved later against the artifact's model index.
type Model struct {
	Name       string     `json:"name,omitempty"`
	Package    string     `json:"package,omitempty"`
	File       string     `json:"file,omitempty"`
	Comment    string     `json:"comment,omitempty"`
	Ref        string     `json:"ref,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// IsRef reports whether the entry is a deferred reference.
func (m *Model) IsRef() bool {
	return m.Ref != "" && m.Name == ""
}

// Property is one model property with its comment and schema metadata.
// Enum carries the enum member mapping the way the introspection emits it:
// member names mapped to their values, possibly mixed with reverse-mapped
// numeric keys. EnumNames is filled in by the model processor.
type Property struct {
	Name        string            `json:"name"`
	JSONName    string            `json:"jsonName,omitempty"`
	Type        string            `json:"type"`
	Format      string            `json:"format,omitempty"`
	ElemType    string            `json:"elemType,omitempty"`
	SchemaRef   string            `json:"schemaRef,omitempty"`
	Comment     string            `json:"comment,omitempty"`
	Required    bool              `json:"required,omitempty"`
	Example     string            `json:"example,omitempty"`
	Enum        map[string]any    `json:"enum,omitempty"`
	EnumNames   []string          `json:"enumNames,omitempty"`
	Constraints map[string]string `json:"constraints,omitempty"`
}
