package tool

import "encoding/json"

// FromExec normalizes a local-execution outcome into an Output.
// IsError is set iff errorOutput is present. The content is output if
// non-empty, else errorOutput, else the caller-supplied fallback (for
// commands like lock that succeed silently).
func FromExec(output, errorOutput, fallback string) Output {
	out := Output{IsError: errorOutput != ""}
	switch {
	case output != "":
		out.Content = output
	case errorOutput != "":
		out.Content = errorOutput
	default:
		out.Content = fallback
	}
	return out
}

// FromAPI normalizes a remote-execution outcome into an Output.
// IsError is set iff errorMessage is present. The content is the error
// message if present, else the pretty-printed JSON form of data (raw
// strings pass through unquoted), else the caller-supplied fallback.
func FromAPI(data any, errorMessage, fallback string) Output {
	if errorMessage != "" {
		return Output{Content: errorMessage, IsError: true}
	}
	if data == nil {
		return Output{Content: fallback}
	}
	if s, ok := data.(string); ok {
		if s == "" {
			return Output{Content: fallback}
		}
		return Output{Content: s}
	}

	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		// Data came out of json.Unmarshal, so this should be unreachable;
		// degrade to the fallback rather than panicking.
		return Output{Content: fallback}
	}
	return Output{Content: string(pretty)}
}
