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

package process

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ExecutionError describes a command that exited non-zero or never started.
type ExecutionError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command %s failed (exit code %d): %v", e.CommandLine(), e.ExitCode, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// CommandLine renders the arguments quoted so the line can be pasted into a shell.
func (e *ExecutionError) CommandLine() string {
	return strings.TrimSpace(shellquote.Join(e.Args...))
}
