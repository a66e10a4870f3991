package tools

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// blockedPatterns are command substrings that are refused outright.
// Execution runs with the user's own privileges, so this is a seatbelt
// against accidents, not a sandbox.
var blockedPatterns = []string{
	"rm -rf /", "rm -rf *", "mkfs", "dd", "shutdown", "reboot", "halt", "poweroff",
	"kill -9 1", "chmod 777 -R /", "chown -R", ":(){ :|:& };:",
}

// ShellCapability runs a shell command with a timeout and a blocklist.
type ShellCapability struct {
	timeout time.Duration
}

func NewShellCapability(timeout time.Duration) *ShellCapability {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShellCapability{timeout: timeout}
}

func (c *ShellCapability) Name() string { return "run_command" }

func (c *ShellCapability) Description() string {
	return "Run a shell command and return its output. Destructive commands are blocked."
}

func (c *ShellCapability) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, ok := stringArg(args, "command")
	if !ok {
		return "Error: command is required", nil
	}

	for _, pattern := range blockedPatterns {
		if strings.Contains(command, pattern) {
			return fmt.Sprintf("Error: command %q is blocked for safety.", command), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Error: command timed out after %s", c.timeout), nil
	}
	if err != nil {
		if len(out) > 0 {
			return fmt.Sprintf("Command failed: %v\n%s", err, strings.TrimSpace(string(out))), nil
		}
		return fmt.Sprintf("Command failed: %v", err), nil
	}

	result := strings.TrimSpace(string(out))
	if result == "" {
		return "Command executed successfully.", nil
	}
	return result, nil
}
