package protocol

import "encoding/json"

// Tool describes a capability the model may invoke by name.
// Parameters uses JSON Schema format to describe the tool's input.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Schema returns Parameters encoded as compact JSON. Tools without
// parameters yield an empty object schema.
func (t Tool) Schema() string {
	if len(t.Parameters) == 0 {
		return `{"type":"object","properties":{}}`
	}
	data, err := json.Marshal(t.Parameters)
	if err != nil {
		return "{}"
	}
	return string(data)
}
