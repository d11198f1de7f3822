package schema

import (
	"fmt"
	"sort"
)

// Schema is the subset of JSON Schema used to describe tool arguments
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single argument
type Property struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Object builds an object schema from its properties
func Object(properties map[string]Property, required ...string) Schema {
	return Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// String describes a string argument
func String(description string) Property {
	return Property{Type: "string", Description: description}
}

// ValidationError names the offending field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

// Validate checks input against the schema. Fields are visited in name order
// so the reported error is stable. Fields the schema does not describe are
// ignored.
func (s Schema) Validate(input map[string]any) error {
	for _, field := range s.Required {
		if _, ok := input[field]; !ok {
			return &ValidationError{Field: field, Reason: "missing required field"}
		}
	}

	fields := make([]string, 0, len(input))
	for field := range input {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		property, ok := s.Properties[field]
		if !ok {
			continue
		}
		if property.Type == "string" {
			if _, ok := input[field].(string); !ok {
				return &ValidationError{Field: field, Reason: "must be a string"}
			}
		}
	}

	return nil
}
