package tool

import "errors"

// Registry errors.
var (
	ErrEmptyToolName = errors.New("tool name is empty")
	ErrDuplicateTool = errors.New("tool already registered")
	ErrToolNotFound  = errors.New("tool not found")
)
