// Package build runs the underlying build tool for a restricted project list.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultTool is the build tool used when none is configured.
const DefaultTool = "mvn"

// interruptGrace is how long the build tool may take to exit after an
// interrupt before it is killed.
const interruptGrace = 10 * time.Second

// Runner spawns the build tool with the caller's standard streams.
type Runner struct {
	Tool    string        // executable name or path; DefaultTool if empty
	Timeout time.Duration // 0 means no limit
	Stdin   io.Reader     // os.Stdin if nil
	Stdout  io.Writer     // os.Stdout if nil
	Stderr  io.Writer     // os.Stderr if nil
	Logger  *slog.Logger
}

// Run executes the tool in dir with args and waits for it. A tool that
// starts and exits non-zero is not an error: its status is returned as is.
// An error means the tool could not be started or was cancelled.
func (r *Runner) Run(ctx context.Context, dir string, args []string) (int, error) {
	tool := r.Tool
	if tool == "" {
		tool = DefaultTool
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Dir = dir
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if r.Stdin != nil {
		cmd.Stdin = r.Stdin
	}
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = interruptGrace

	if r.Logger != nil {
		r.Logger.Info("starting build tool", "tool", tool, "dir", dir, "args", strings.Join(args, " "))
	}
	start := time.Now()
	err := cmd.Run()
	if r.Logger != nil {
		r.Logger.Debug("build tool finished", "tool", tool, "duration", time.Since(start))
	}

	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return exitCode(err), fmt.Errorf("%s interrupted: %w", tool, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("starting %s: %w", tool, err)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode()
	}
	return -1
}
