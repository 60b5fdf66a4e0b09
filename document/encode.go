package document

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Encode serializes the document for the given target path: YAML for .yaml
// and .yml files, pretty-printed JSON for everything else.
func Encode(doc *openapi3.T, path string) ([]byte, error) {
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return jsonToYAML(raw)
	default:
		var buf map[string]any
		if err := json.Unmarshal(raw, &buf); err != nil {
			return nil, fmt.Errorf("failed to decode document for formatting: %w", err)
		}
		return json.MarshalIndent(buf, "", "  ")
	}
}

func jsonToYAML(raw []byte) ([]byte, error) {
	var buf map[string]any
	if err := json.Unmarshal(raw, &buf); err != nil {
		return nil, fmt.Errorf("failed to decode document for yaml export: %w", err)
	}
	out, err := yaml.Marshal(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document as yaml: %w", err)
	}
	return out, nil
}
