package tool

import "fmt"

// Argument extraction helpers. The schema layer has already validated
// shape, so failures here are surfaced as ordinary validation-error
// Outputs by callers, not panics.

// StringArg returns a required string argument.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("parameter %s must not be empty", key)
	}
	return s, nil
}

// OptString returns an optional string argument and whether it was set.
func OptString(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok && s != ""
}

// OptBool returns an optional boolean argument and whether it was set.
func OptBool(args map[string]any, key string) (bool, bool) {
	b, ok := args[key].(bool)
	return b, ok
}

// OptInt returns an optional integer argument and whether it was set.
// JSON numbers decode as float64, so both forms are accepted.
func OptInt(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
