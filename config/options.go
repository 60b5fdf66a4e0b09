package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Options is the root configuration for document generation.
// It is immutable once loaded; the docs service owns it for its lifetime.
type Options struct {
	Plugin   PluginOptions   `koanf:"plugin"`
	Response ResponseOptions `koanf:"response"`
	Builder  BuilderOptions  `koanf:"builder"`
	Output   OutputOptions   `koanf:"output"`
	Log      LogOptions      `koanf:"log"`
	Debug    bool            `koanf:"debug"`

	// k holds the underlying Koanf instance for flexible access to custom configuration
	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// PluginOptions controls how the introspection step discovers source files
// and what it extracts from them.
type PluginOptions struct {
	// DTOFileSuffixes selects files considered model/DTO sources, e.g. "_dto.go".
	DTOFileSuffixes []string `koanf:"dto_file_suffixes"`
	// ControllerFileSuffixes selects files considered handler sources, e.g. "_module.go".
	ControllerFileSuffixes []string `koanf:"controller_file_suffixes"`
	// IntrospectComments enables doc comment extraction for handlers and fields.
	IntrospectComments bool `koanf:"introspect_comments"`
	// ValidateTagConstraints derives schema constraints from validate struct tags.
	ValidateTagConstraints bool `koanf:"validate_tag_constraints"`
	Debug                  bool `koanf:"debug"`
}

// ResponseOptions describes the common response envelope every wrapped
// operation's payload is composed into.
type ResponseOptions struct {
	// Name is the schema name of the envelope, e.g. "CommonResponse".
	Name string `koanf:"name"`
	// PayloadProperty names the envelope property holding the handler payload, e.g. "data".
	PayloadProperty string `koanf:"payload_property"`
}

// Enabled reports whether envelope wrapping is configured at all.
func (r ResponseOptions) Enabled() bool {
	return r.Name != "" && r.PayloadProperty != ""
}

// BuilderOptions carries the document metadata applied to the skeleton.
// Absent optional fields leave the underlying document default untouched.
type BuilderOptions struct {
	Title            string                           `koanf:"title" validate:"required"`
	Description      string                           `koanf:"description"`
	Version          string                           `koanf:"version" validate:"required"`
	TermsOfService   string                           `koanf:"terms_of_service"`
	Contact          *ContactOptions                  `koanf:"contact"`
	License          *LicenseOptions                  `koanf:"license"`
	Servers          []ServerOptions                  `koanf:"servers" validate:"dive"`
	Tags             []TagOptions                     `koanf:"tags"`
	SecuritySchemes  map[string]SecuritySchemeOptions `koanf:"security_schemes" validate:"dive"`
	Security         []map[string][]string            `koanf:"security"`
	ExternalDocs     *ExternalDocsOptions             `koanf:"external_docs"`
	Extensions       map[string]any                   `koanf:"extensions"`
	GlobalResponses  map[string]string                `koanf:"global_responses"`
	GlobalParameters []ParameterOptions               `koanf:"global_parameters"`
}

// ContactOptions is the document contact block.
type ContactOptions struct {
	Name  string `koanf:"name"`
	URL   string `koanf:"url"`
	Email string `koanf:"email"`
}

// LicenseOptions is the document license block.
type LicenseOptions struct {
	Name string `koanf:"name"`
	URL  string `koanf:"url"`
}

// ServerOptions describes one server entry.
type ServerOptions struct {
	URL         string                    `koanf:"url" validate:"required"`
	Description string                    `koanf:"description"`
	Variables   map[string]ServerVariable `koanf:"variables"`
}

// ServerVariable describes a substitutable server URL variable.
type ServerVariable struct {
	Default     string   `koanf:"default"`
	Enum        []string `koanf:"enum"`
	Description string   `koanf:"description"`
}

// TagOptions describes one document-level tag.
type TagOptions struct {
	Name        string `koanf:"name"`
	Description string `koanf:"description"`
}

// SecuritySchemeOptions describes one named security scheme.
// Type is one of http, apiKey, oauth2, openIdConnect.
type SecuritySchemeOptions struct {
	Type             string            `koanf:"type" validate:"required,oneof=http apiKey oauth2 openIdConnect"`
	Scheme           string            `koanf:"scheme"`
	BearerFormat     string            `koanf:"bearer_format"`
	In               string            `koanf:"in"`
	Name             string            `koanf:"name"`
	Description      string            `koanf:"description"`
	OpenIDConnectURL string            `koanf:"open_id_connect_url"`
	Flows            *OAuthFlowOptions `koanf:"flows"`
}

// OAuthFlowOptions describes the oauth2 flows of a security scheme.
// Only the fields relevant to the configured flow need to be set.
type OAuthFlowOptions struct {
	AuthorizationURL string            `koanf:"authorization_url"`
	TokenURL         string            `koanf:"token_url"`
	RefreshURL       string            `koanf:"refresh_url"`
	Scopes           map[string]string `koanf:"scopes"`
}

// ExternalDocsOptions points at external documentation.
type ExternalDocsOptions struct {
	URL         string `koanf:"url"`
	Description string `koanf:"description"`
}

// ParameterOptions describes one global parameter applied to every operation.
type ParameterOptions struct {
	Name        string `koanf:"name" validate:"required"`
	In          string `koanf:"in" validate:"required,oneof=query header path cookie"`
	Required    bool   `koanf:"required"`
	Description string `koanf:"description"`
	Schema      string `koanf:"schema"`
}

// OutputOptions controls where artifacts land and how the worker runs.
type OutputOptions struct {
	// ProjectRoot is the source tree handed to the generator.
	ProjectRoot string `koanf:"project_root"`
	// SourceRoot and OutputRoot drive the path rewrite applied to the
	// artifact so embedded file references resolve in the compiled process.
	SourceRoot string `koanf:"source_root"`
	OutputRoot string `koanf:"output_root"`
	// ArtifactPath is where the generator writes the metadata artifact.
	ArtifactPath string `koanf:"artifact_path"`
	// DocumentPath is where the assembled document is persisted.
	DocumentPath string `koanf:"document_path"`
	// GeneratorBinary is the external generator executable to invoke.
	GeneratorBinary string `koanf:"generator_binary"`
	// WorkerTimeout bounds a single generation run.
	WorkerTimeout time.Duration `koanf:"worker_timeout"`
}

// LogOptions controls module logging.
type LogOptions struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Koanf exposes the underlying instance for custom key access.
func (o *Options) Koanf() *koanf.Koanf {
	return o.k
}
