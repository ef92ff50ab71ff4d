package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// DraftSevenURI identifies the JSON Schema dialect of Document.
const DraftSevenURI = "http://json-schema.org/draft-07/schema#"

// Document renders the schema as a JSON Schema draft-7 object model, the same
// shape the API documentation publishes for each request body.
func (s *Schema) Document() map[string]any {
	properties := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		properties[p.Name] = map[string]any{"type": string(p.Type)}
	}

	doc := map[string]any{
		"$schema":    DraftSevenURI,
		"title":      s.Name,
		"type":       "object",
		"properties": properties,
	}
	if len(s.Required) > 0 {
		required := make([]any, 0, len(s.Required))
		for _, r := range s.Required {
			required = append(required, r)
		}
		doc["required"] = required
	}
	return doc
}

// Compile loads Document through gojsonschema with meta-schema validation
// turned on, proving the published model is a well-formed draft-7 schema.
func (s *Schema) Compile() (*gojsonschema.Schema, error) {
	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.Validate = true

	compiled, err := loader.Compile(gojsonschema.NewGoLoader(s.Document()))
	if err != nil {
		return nil, fmt.Errorf("schema %q is not valid JSON Schema: %w", s.Name, err)
	}
	return compiled, nil
}
