// Package template provides prompt template storage and rendering.
//
// Templates use {{variable}} placeholders with recursive resolution
// (variables may themselves contain placeholders). The Registry is the
// default implementation of the engine's prompt-compilation collaborator.
package template

import (
	"fmt"
	"strings"
)

// maxPasses bounds recursive placeholder resolution.
const maxPasses = 3

// Renderer handles variable substitution in template text.
type Renderer struct{}

// NewRenderer creates a new template renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render applies variable substitution with recursive resolution. If
// var1="{{var2}}" and var2="value", the result resolves to "value".
// Returns an error if any placeholders remain unresolved.
func (r *Renderer) Render(templateText string, vars map[string]string) (string, error) {
	result := templateText

	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for key, value := range vars {
			placeholder := fmt.Sprintf("{{%s}}", key)
			if strings.Contains(result, placeholder) {
				result = strings.ReplaceAll(result, placeholder, value)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	if unresolved := findUnresolvedPlaceholders(result); len(unresolved) > 0 {
		return "", fmt.Errorf("unresolved template placeholders: %v", unresolved)
	}

	return result, nil
}

// ValidateRequiredVars checks that all required variables are provided and
// non-empty, returning an error listing any missing ones.
func (r *Renderer) ValidateRequiredVars(requiredVars []string, vars map[string]string) error {
	var missing []string
	for _, required := range requiredVars {
		if value, exists := vars[required]; !exists || value == "" {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required variables: %v", missing)
	}
	return nil
}

// MergeVars merges variable maps with later maps taking precedence.
func MergeVars(varMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, vars := range varMaps {
		for k, v := range vars {
			result[k] = v
		}
	}
	return result
}

// findUnresolvedPlaceholders extracts remaining {{variable}} placeholders
// for error reporting.
func findUnresolvedPlaceholders(text string) []string {
	var placeholders []string
	for i := 0; i < len(text)-3; i++ {
		if text[i:i+2] == "{{" {
			for j := i + 2; j < len(text)-1; j++ {
				if text[j:j+2] == "}}" {
					placeholders = append(placeholders, text[i:j+2])
					i = j + 1
					break
				}
			}
		}
	}
	return placeholders
}
