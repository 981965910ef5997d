// Package orch runs the external orchestration CLI for user-triggered
// session commands.
package orch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/ppds/orchdash/internal/logger"
)

const DefaultBinary = "orch"

// CommandError is returned when orch runs but exits non-zero. Its message is
// the captured standard error, verbatim. When orch wrote nothing to stderr the
// message names the subcommand and exit status instead of being empty.
type CommandError struct {
	Subcommand string
	ExitCode   int
	Stderr     string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("orch %s exited with status %d", e.Subcommand, e.ExitCode)
	}
	return e.Stderr
}

// Client invokes orch subcommands. There is no timeout and no retry; a call
// blocks until the subprocess exits or ctx is cancelled.
type Client struct {
	binary string
}

// NewClient creates a client for the given executable name or path.
func NewClient(binary string) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{binary: binary}
}

// ForwardMessage runs `orch forward <sessionID> <message>`.
func (c *Client) ForwardMessage(ctx context.Context, sessionID, message string) error {
	return c.run(ctx, "forward", sessionID, message)
}

// CancelSession runs `orch cancel <sessionID>`.
func (c *Client) CancelSession(ctx context.Context, sessionID string) error {
	return c.run(ctx, "cancel", sessionID)
}

func (c *Client) run(ctx context.Context, subcommand string, args ...string) error {
	cmd := exec.CommandContext(ctx, c.binary, append([]string{subcommand}, args...)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debugf("🔧 Running %s %s for session %s", c.binary, subcommand, args[0])

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("orch %s interrupted: %w", subcommand, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr := &CommandError{
			Subcommand: subcommand,
			ExitCode:   exitErr.ExitCode(),
			Stderr:     stderr.String(),
		}
		logger.Warnf("⚠️ orch %s failed (exit %d): %s", subcommand, cmdErr.ExitCode, cmdErr.Stderr)
		return cmdErr
	}

	return fmt.Errorf("failed to run orch %s: %w", subcommand, err)
}
