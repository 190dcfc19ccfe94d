package template

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrTemplateNotFound is returned when compiling an unregistered template.
var ErrTemplateNotFound = errors.New("template not found")

// Template is a registered prompt template.
type Template struct {
	ID           string            `json:"id" yaml:"id"`
	Text         string            `json:"text" yaml:"text"`
	RequiredVars []string          `json:"required_vars,omitempty" yaml:"required_vars,omitempty"`
	Defaults     map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// Registry stores templates by ID and compiles them on demand. It is safe
// for concurrent use and satisfies the engine's prompt compiler contract.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
	renderer  *Renderer
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]Template),
		renderer:  NewRenderer(),
	}
}

// Register adds or replaces a template. Last registration wins.
func (r *Registry) Register(tmpl Template) error {
	if tmpl.ID == "" {
		return errors.New("template ID is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[tmpl.ID] = tmpl
	return nil
}

// Get returns the template registered under id.
func (r *Registry) Get(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[id]
	return tmpl, ok
}

// IDs returns all registered template IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	return ids
}

// Compile renders the template registered under templateID with the given
// variables merged over the template's defaults.
func (r *Registry) Compile(_ context.Context, templateID string, vars map[string]string) (string, error) {
	tmpl, ok := r.Get(templateID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}

	merged := MergeVars(tmpl.Defaults, vars)
	if err := r.renderer.ValidateRequiredVars(tmpl.RequiredVars, merged); err != nil {
		return "", fmt.Errorf("template %q: %w", templateID, err)
	}

	text, err := r.renderer.Render(tmpl.Text, merged)
	if err != nil {
		return "", fmt.Errorf("template %q: %w", templateID, err)
	}
	return text, nil
}
