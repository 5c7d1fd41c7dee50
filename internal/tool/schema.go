package tool

import "encoding/json"

// ObjectSchema renders a flat JSON Schema object with the given
// property name → type pairs. Catalog schemas are simple enough that a
// tiny builder beats hand-kept JSON literals per tool.
func ObjectSchema(props map[string]string, required []string) json.RawMessage {
	properties := map[string]any{}
	for name, typ := range props {
		properties[name] = map[string]any{"type": typ}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	data, _ := json.Marshal(schema)
	return data
}
