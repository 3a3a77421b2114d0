package models

// Candidate is one upstream model identifier in the ordered attempt sequence
// for a request. Provider is resolved from a "provider:model" spec.
type Candidate struct {
	Spec     string `json:"spec"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Fallback bool   `json:"fallback,omitzero"`
}

// String returns the provider-qualified model name.
func (c Candidate) String() string {
	return c.Provider + "/" + c.Model
}

// PolicyConfig holds the model policy table as loaded from YAML.
// Empty sections are filled from the built-in defaults.
type PolicyConfig struct {
	Tasks           map[string]string          `json:"tasks,omitzero" yaml:"tasks"`
	Complexity      map[ModelComplexity]string `json:"complexity,omitzero" yaml:"complexity"`
	FallbackModel   string                     `json:"fallback_model,omitzero" yaml:"fallback_model"`
	DefaultProvider string                     `json:"default_provider,omitzero" yaml:"default_provider"`
}
