package metadata

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/artifact.schema.json
var artifactSchema []byte

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("artifact.schema.json", bytes.NewReader(artifactSchema)); err != nil {
		panic(fmt.Sprintf("metadata: invalid embedded schema: %v", err))
	}
	return c.MustCompile("artifact.schema.json")
}

// Exists reports whether an artifact file is present at path.
// Callers must check this before Load; a missing artifact is a Load error.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads, validates, and decodes the artifact at path.
// It fails when the file is absent, is not valid JSON, or does not conform
// to the artifact schema.
func Load(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("artifact %s is not valid JSON: %w", path, err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("artifact %s failed schema validation: %w", path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}

	return &artifact, nil
}

// FindController returns the controller entry matching name, tolerating case
// differences the way the generator emits package names.
func (a *Artifact) FindController(name string) *Controller {
	for i := range a.Controllers {
		if strings.EqualFold(a.Controllers[i].Name, name) {
			return &a.Controllers[i]
		}
	}
	return nil
}

// FindMethod looks up comment/type metadata for a controller method pair.
// A nil result means the method has no recorded operation metadata.
func (a *Artifact) FindMethod(controller, method string) *Method {
	c := a.FindController(controller)
	if c == nil {
		return nil
	}
	for i := range c.Methods {
		if strings.EqualFold(c.Methods[i].Name, method) {
			return &c.Methods[i]
		}
	}
	return nil
}

// FindModel returns the model entry with the given name, skipping deferred
// references.
func (a *Artifact) FindModel(name string) *Model {
	for i := range a.Models {
		if !a.Models[i].IsRef() && a.Models[i].Name == name {
			return &a.Models[i]
		}
	}
	return nil
}
