package vaultcli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/warpvault/vaultmcp/internal/security"
)

// DefaultTimeout bounds vault CLI execution when no timeout is
// configured. The CLI talks to a remote sync server and can stall; an
// unbounded wait would hang the calling agent indefinitely.
const DefaultTimeout = 60 * time.Second

// ExecResult captures a finished CLI invocation. Output and ErrorOutput
// are the separately captured stdout and stderr; both may be populated.
// Immutable once produced.
type ExecResult struct {
	Output      string
	ErrorOutput string
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// CLIPath is the vault CLI binary. Defaults to "bw".
	CLIPath string

	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration

	// SessionEnv is the environment variable the CLI reads its session
	// token from. Defaults to "BW_SESSION".
	SessionEnv string

	// Session is the ambient session token. When set it is exported to
	// the child; the rest of the parent environment is inherited so the
	// CLI can find its own configuration.
	Session string

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Audit receives guard_rejection events; the tool catalog emits the
	// tool_call/tool_result pair through the same logger. Optional.
	Audit *security.AuditLogger
}

// Runner executes guarded Commands against the vault CLI.
type Runner struct {
	cliPath    string
	timeout    time.Duration
	sessionEnv string
	session    string
	logger     *slog.Logger
	audit      *security.AuditLogger
}

// NewRunner creates a Runner, filling zero-value config with defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.CLIPath == "" {
		cfg.CLIPath = "bw"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SessionEnv == "" {
		cfg.SessionEnv = "BW_SESSION"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{
		cliPath:    cfg.CLIPath,
		timeout:    cfg.Timeout,
		sessionEnv: cfg.SessionEnv,
		session:    cfg.Session,
		logger:     cfg.Logger,
		audit:      cfg.Audit,
	}
}

// Run executes the command and captures stdout and stderr separately.
// The allowlist and control-byte checks are re-evaluated here as the
// final gate immediately before the subprocess is created, regardless
// of how the Command was assembled. Run never panics past this
// boundary: spawn failures, non-zero exits, and timeouts all come back
// as an ExecResult with only ErrorOutput set.
func (r *Runner) Run(ctx context.Context, cmd Command) ExecResult {
	if !IsAllowedCommand(cmd.Verb) {
		r.audit.Log(security.AuditEvent{
			Type:    security.EventGuardRejection,
			Surface: security.SurfaceCLI,
			Detail:  "disallowed verb: " + cmd.Verb,
		})
		return ExecResult{ErrorOutput: fmt.Sprintf("invalid or unsafe command: %s", cmd.Verb)}
	}
	for _, arg := range cmd.Args {
		if err := security.ValidateArg(arg); err != nil {
			r.audit.Log(security.AuditEvent{
				Type:    security.EventGuardRejection,
				Surface: security.SurfaceCLI,
				Detail:  err.Error(),
			})
			return ExecResult{ErrorOutput: fmt.Sprintf("invalid or unsafe command: %s", err)}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	c := exec.CommandContext(ctx, r.cliPath, cmd.Argv()...)
	c.Env = r.childEnv()

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	r.logger.Debug("vault cli finished",
		"command", cmd.String(),
		"duration", elapsed,
		"success", err == nil,
	)

	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if ctx.Err() == context.DeadlineExceeded {
			msg = fmt.Sprintf("command timed out after %s", r.timeout)
		} else if msg == "" {
			msg = err.Error()
		}
		return ExecResult{ErrorOutput: msg}
	}

	return ExecResult{
		Output:      strings.TrimSpace(stdout.String()),
		ErrorOutput: strings.TrimSpace(stderr.String()),
	}
}

// childEnv inherits the parent environment and overlays the session
// token so ambient CLI configuration stays visible to the child.
func (r *Runner) childEnv() []string {
	env := os.Environ()
	if r.session != "" {
		env = append(env, r.sessionEnv+"="+r.session)
	}
	return env
}
