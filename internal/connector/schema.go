package connector

// FunctionSchema describes one callable query function in OpenAI
// function-calling format. Schemas are declared statically per connector,
// not derived from data.
type FunctionSchema struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Parameters  ObjectSchema `json:"parameters"`
}

type ObjectSchema struct {
	Type       string                   `json:"type"`
	Properties map[string]ParameterSpec `json:"properties"`
	Required   []string                 `json:"required"`
}

type ParameterSpec struct {
	Type        string   `json:"type"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description"`
}
