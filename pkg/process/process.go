// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package process runs external stage commands and captures their output.
package process

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultGracePeriod is how long a cancelled child gets between the interrupt
// and the kill.
const DefaultGracePeriod = 5 * time.Second

// 🔧 Command is one child process to run
type Command struct {
	Args []string // program followed by its arguments
	Dir  string   // working directory; empty means the current one
}

// 📤 Result holds the captured output of a finished child
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 when the process never started or was killed
	Duration time.Duration
}

// 🏃 Runner runs commands to completion
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (*Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// ⚙️ Options configures an ExecRunner
type Options struct {
	// Timeout bounds every child. Zero means no timeout.
	Timeout time.Duration
	// GracePeriod is the delay between interrupt and kill on cancellation.
	GracePeriod time.Duration
}

// 🏭 ExecRunner runs commands with os/exec
type ExecRunner struct {
	opts Options
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates a runner applying opts to every command.
func NewExecRunner(opts Options) *ExecRunner {
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	return &ExecRunner{opts: opts}
}

// Run starts cmd, waits for it and returns its output. A non-zero exit, a
// spawn failure, a timeout or a cancellation returns a *ExecutionError
// alongside whatever output was captured.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Args) == 0 || cmd.Args[0] == "" {
		return nil, &ExecutionError{Args: cmd.Args, ExitCode: -1, Err: errors.New("program is required")}
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...) //nolint:gosec // running user commands is the point
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// interrupt first so the child can clean up its partial output
	c.Cancel = func() error {
		if err := c.Process.Signal(os.Interrupt); err != nil {
			return c.Process.Kill()
		}
		return nil
	}
	c.WaitDelay = r.opts.GracePeriod

	zerolog.Ctx(ctx).Trace().Strs("args", cmd.Args).Str("dir", cmd.Dir).Msg("starting process")

	start := time.Now()
	err := c.Run()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() != nil {
			err = errors.Errorf("killed by context: %w", ctx.Err())
		}
		return result, &ExecutionError{
			Args:     cmd.Args,
			ExitCode: result.ExitCode,
			Stdout:   string(result.Stdout),
			Stderr:   string(result.Stderr),
			Err:      err,
		}
	}

	return result, nil
}
