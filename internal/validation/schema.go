package validation

import (
	"errors"
	"fmt"
)

// Type is the JSON type a property must have.
type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeObject Type = "object"
)

// Valid reports whether t is one of the supported property types.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeObject:
		return true
	}
	return false
}

// Property declares one body field.
type Property struct {
	Name string `yaml:"name" json:"name"`
	Type Type   `yaml:"type" json:"type"`
}

// Schema is a named request body model.
//
// Properties keep their declaration order; validation errors are reported in
// that order. Required lists field names that must be present and non-null.
type Schema struct {
	Name       string     `yaml:"name" json:"name"`
	Properties []Property `yaml:"properties" json:"properties"`
	Required   []string   `yaml:"required" json:"required"`
}

// Property returns the declared property called name.
func (s *Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// IsRequired reports whether name is in the required set.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Check verifies the schema is internally consistent:
//   - it has a name
//   - property names are unique and non-empty, types are supported
//   - required fields are unique and every one is a declared property
//
// All problems are returned joined, so a broken catalog reports everything
// at once.
func (s *Schema) Check() error {
	var problems []error

	if s.Name == "" {
		problems = append(problems, errors.New("schema has no name"))
	}

	seen := make(map[string]bool, len(s.Properties))
	for _, p := range s.Properties {
		switch {
		case p.Name == "":
			problems = append(problems, fmt.Errorf("schema %q: property with empty name", s.Name))
		case seen[p.Name]:
			problems = append(problems, fmt.Errorf("schema %q: property %q declared twice", s.Name, p.Name))
		}
		seen[p.Name] = true

		if !p.Type.Valid() {
			problems = append(problems, fmt.Errorf("schema %q: property %q has unsupported type %q", s.Name, p.Name, p.Type))
		}
	}

	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		if required[r] {
			problems = append(problems, fmt.Errorf("schema %q: required field %q listed twice", s.Name, r))
		}
		required[r] = true

		if !seen[r] {
			problems = append(problems, fmt.Errorf("schema %q: required field %q is not a declared property", s.Name, r))
		}
	}

	return errors.Join(problems...)
}
