package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Params holds decoded invocation parameters.
type Params map[string]any

// String returns the named parameter if it is a string.
func (p Params) String(key string) (string, bool) {
	v, ok := p[key].(string)
	return v, ok
}

// RequiredString returns the named parameter, failing if it is absent,
// not a string or blank.
func (p Params) RequiredString(key string) (string, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter %q must not be empty", key)
	}
	return s, nil
}

// OptionalString returns the named parameter or def when it is absent or
// empty.
func (p Params) OptionalString(key, def string) (string, error) {
	raw, present := p[key]
	if !present || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// Validate checks params against the tool's declared parameter schema.
func (t *Tool) Validate(params Params) error {
	if t.validator == nil {
		return nil
	}
	if params == nil {
		params = Params{}
	}

	result, err := t.validator.Validate(gojsonschema.NewGoLoader(map[string]any(params)))
	if err != nil {
		return fmt.Errorf("validate parameters: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		if field := desc.Field(); field != "" && field != "(root)" {
			msgs = append(msgs, field+": "+desc.Description())
			continue
		}
		msgs = append(msgs, desc.Description())
	}
	return &ParameterError{Tool: t.Schema.Name, Problems: msgs}
}

// ParameterError reports parameter schema violations.
type ParameterError struct {
	Tool     string
	Problems []string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}
