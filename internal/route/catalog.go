package route

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/deppfellow/fleet-gateway/internal/validation"
	"gopkg.in/yaml.v3"
)

// defaultCatalog is the catalog shipped with the binary.
//
//go:embed catalog.yaml
var defaultCatalog []byte

// Descriptor is one route entry of a catalog file.
type Descriptor struct {
	Method             string      `yaml:"method"`
	Path               string      `yaml:"path"`
	Model              string      `yaml:"model"`
	ValidateBody       bool        `yaml:"validateBody"`
	ValidateParameters bool        `yaml:"validateParameters"`
	Parameters         []Parameter `yaml:"parameters"`
}

// Catalog is the declarative description of all models and routes.
type Catalog struct {
	Models []validation.Schema `yaml:"models"`
	Routes []Descriptor        `yaml:"routes"`
}

// ParseCatalog decodes a YAML catalog. Unknown keys are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse route catalog: %w", err)
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads the catalog at path, or the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// Table builds the route table described by the catalog.
func (c *Catalog) Table() (*Table, error) {
	routes := make([]Route, 0, len(c.Routes))
	for _, d := range c.Routes {
		routes = append(routes, Route{
			Method:             d.Method,
			Path:               SplitPath(d.Path),
			Schema:             d.Model,
			ValidateBody:       d.ValidateBody,
			ValidateParameters: d.ValidateParameters,
			Parameters:         d.Parameters,
		})
	}
	return NewTable(c.Models, routes)
}

// Load reads the catalog at path (or the embedded default) and builds the table.
func Load(path string) (*Table, error) {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return catalog.Table()
}
