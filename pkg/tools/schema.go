package tools

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Schema describes one tool as advertised to clients and models.
type Schema struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Parameters  Parameters `json:"parameters" yaml:"parameters"`
}

// Parameters is the JSON Schema object describing a tool's arguments.
type Parameters struct {
	Type       string              `json:"type" yaml:"type"`
	Properties map[string]Property `json:"properties" yaml:"properties"`
	Required   []string            `json:"required,omitempty" yaml:"required"`
}

// Property describes a single tool parameter.
type Property struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description"`
	Enum        []any  `json:"enum,omitempty" yaml:"enum"`
	Default     any    `json:"default,omitempty" yaml:"default"`
}

// Document is the static tool schema document loaded at startup.
type Document struct {
	Tools []Schema `json:"tools" yaml:"tools"`
}

var jsonSchemaTypes = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
	"boolean": true,
	"object":  true,
	"array":   true,
}

// LoadDocument reads and checks a tool schema document. JSON documents are
// valid YAML, so a single decoder serves both.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool schema document %q: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("invalid tool schema document %q: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes and checks a tool schema document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}
	for i := range doc.Tools {
		doc.Tools[i].normalize()
	}
	return &doc, nil
}

// Check reports every structural problem in the document.
func (d *Document) Check() error {
	if len(d.Tools) == 0 {
		return errors.New("document declares no tools")
	}

	var errs []error
	seen := make(map[string]bool, len(d.Tools))
	for i, s := range d.Tools {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("tools[%d]: name is required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("tools[%d]: duplicate tool %q", i, s.Name))
		}
		seen[s.Name] = true
		if err := s.check(); err != nil {
			errs = append(errs, fmt.Errorf("tool %q: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s Schema) check() error {
	if s.Parameters.Type != "" && s.Parameters.Type != "object" {
		return fmt.Errorf("parameters type must be object, got %q", s.Parameters.Type)
	}

	var errs []error
	for name, p := range s.Parameters.Properties {
		if p.Type != "" && !jsonSchemaTypes[p.Type] {
			errs = append(errs, fmt.Errorf("parameter %q: unknown type %q", name, p.Type))
		}
	}
	for _, req := range s.Parameters.Required {
		if _, ok := s.Parameters.Properties[req]; !ok {
			errs = append(errs, fmt.Errorf("required parameter %q is not declared", req))
		}
	}
	return errors.Join(errs...)
}

func (s *Schema) normalize() {
	if s.Parameters.Type == "" {
		s.Parameters.Type = "object"
	}
	if s.Parameters.Properties == nil {
		s.Parameters.Properties = map[string]Property{}
	}
}

// JSONSchema renders the parameters as a JSON Schema document usable by a
// validator.
func (p Parameters) JSONSchema() map[string]any {
	props := make(map[string]any, len(p.Properties))
	for name, prop := range p.Properties {
		def := map[string]any{}
		if prop.Type != "" {
			def["type"] = prop.Type
		}
		if prop.Description != "" {
			def["description"] = prop.Description
		}
		if len(prop.Enum) > 0 {
			def["enum"] = prop.Enum
		}
		props[name] = def
	}

	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(p.Required) > 0 {
		required := make([]any, len(p.Required))
		for i, r := range p.Required {
			required[i] = r
		}
		out["required"] = required
	}
	return out
}

func (s Schema) clone() Schema {
	out := s
	out.Parameters.Properties = make(map[string]Property, len(s.Parameters.Properties))
	for k, v := range s.Parameters.Properties {
		out.Parameters.Properties[k] = v
	}
	out.Parameters.Required = append([]string(nil), s.Parameters.Required...)
	return out
}
