// Package tool defines the tool interface, the registry, and the
// response normalizers for vaultmcp. Tools are the security boundary:
// every operation an agent performs goes through a registered tool whose
// execution path ends at an allowlist gate.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is the interface all vaultmcp tools implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Schema returns a JSON Schema describing the tool's parameters.
	Schema() json.RawMessage

	// Execute runs the tool. Arguments arrive as the decoded JSON
	// argument bag from the protocol layer. Execute never panics past
	// this boundary and never returns a Go error: every outcome,
	// including validation and guard failures, is an Output.
	Execute(ctx context.Context, args map[string]any) Output
}

// Output is the single normalized result shape returned to the protocol
// layer for every call.
type Output struct {
	// Content is the textual payload.
	Content string

	// IsError marks validation errors, guard rejections, and execution
	// failures alike.
	IsError bool
}

// Outcome returns "error" or "success" for audit metadata and metric
// labels.
func (o Output) Outcome() string {
	if o.IsError {
		return "error"
	}
	return "success"
}

// Text returns a successful Output with the given content.
func Text(content string) Output {
	return Output{Content: content}
}

// Errorf returns an error Output with a formatted message.
func Errorf(format string, a ...any) Output {
	return Output{Content: fmt.Sprintf(format, a...), IsError: true}
}
