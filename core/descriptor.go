package core

// Descriptor advertises an agent's capability: its unique name, a
// human-readable description shown to the language model, and a minimal
// JSON-Schema-like parameter specification used both for capability
// advertisement and for argument validation before dispatch.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
