package vaultcli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warpvault/vaultmcp/internal/security"
)

// Command construction errors.
var (
	ErrEmptyCommand      = errors.New("empty command")
	ErrCommandNotAllowed = errors.New("command not allowed")
)

// Command is an ordered argument vector for a vault CLI invocation:
// the verb followed by its arguments. A Command produced by Build or
// Parse has an allowlisted verb and control-byte-free tokens.
type Command struct {
	Verb string
	Args []string
}

// Build constructs a Command from a verb and individually passed
// arguments. The verb must be on the allowlist and every token must be
// free of NUL/CR/LF; dangerous tokens are rejected, never rewritten.
func Build(verb string, args ...string) (Command, error) {
	if verb == "" {
		return Command{}, ErrEmptyCommand
	}
	if !IsAllowedCommand(verb) {
		return Command{}, fmt.Errorf("%w: %s", ErrCommandNotAllowed, verb)
	}
	for _, arg := range args {
		if err := security.ValidateArg(arg); err != nil {
			return Command{}, err
		}
	}
	return Command{Verb: verb, Args: args}, nil
}

// Parse builds a Command from a free-text command string. The string is
// narrowed with security.Sanitize first (a lossy strip, see that
// function's contract), split on whitespace, and then routed through
// the same Build gate as individually passed arguments.
func Parse(raw string) (Command, error) {
	fields := strings.Fields(security.Sanitize(raw))
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}
	return Build(fields[0], fields[1:]...)
}

// Argv returns the full argument vector, verb first.
func (c Command) Argv() []string {
	return append([]string{c.Verb}, c.Args...)
}

// String renders the command for logging. Argument values are elided so
// secrets passed as parameters (an unlock password, for instance) never
// reach the log stream.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Verb
	}
	return fmt.Sprintf("%s (%d args)", c.Verb, len(c.Args))
}
