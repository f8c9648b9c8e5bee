package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON Schema subset tools use to declare their input. The same value
// is rendered for the model provider and compiled for argument validation.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Default     any                `json:"default,omitempty"`

	once     sync.Once
	compiled *gojsonschema.Schema
	err      error
}

// Object is shorthand for an object schema with the given properties.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: "object", Properties: props, Required: required}
}

// String is a string property.
func String(desc string) *Schema {
	return &Schema{Type: "string", Description: desc}
}

// Enum is a string property restricted to values.
func Enum(desc string, values ...string) *Schema {
	s := &Schema{Type: "string", Description: desc}
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return s
}

// Bool is a boolean property.
func Bool(desc string) *Schema {
	return &Schema{Type: "boolean", Description: desc}
}

// Integer is an integer property; bounds are applied with Between.
func Integer(desc string) *Schema {
	return &Schema{Type: "integer", Description: desc}
}

// Between sets inclusive numeric bounds and returns s.
func (s *Schema) Between(min, max float64) *Schema {
	s.Minimum = &min
	s.Maximum = &max
	return s
}

// JSON renders the schema document.
func (s *Schema) JSON() []byte {
	b, err := json.Marshal(s)
	if err != nil {
		// Schema holds only JSON-safe values; a failure here is a programming error.
		panic(fmt.Sprintf("schema: marshal: %v", err))
	}
	return b
}

// Validate checks args against the schema. A nil map is validated as {}.
func (s *Schema) Validate(args map[string]any) error {
	s.once.Do(func() {
		s.compiled, s.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(s.JSON()))
	})
	if s.err != nil {
		return fmt.Errorf("compile schema: %w", s.err)
	}
	if args == nil {
		args = map[string]any{}
	}
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
	}
	return nil
}
