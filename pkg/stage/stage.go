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

package stage

import (
	"time"

	"github.com/walteh/dirpipe/pkg/pipeline"
)

// 📊 State is where a stage is in its run
type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded // every file processed, input drained
	StateFailed    // at least one file failed, output drained
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📄 FileResult is the outcome of one file
type FileResult struct {
	Entry    Entry
	Args     []string // expanded command, empty if expansion failed
	ExitCode int
	Duration time.Duration
	Err      error // nil on success
}

// OK reports whether the file was processed successfully.
func (f FileResult) OK() bool {
	return f.Err == nil
}

// 🧾 Result is the outcome of one stage run
type Result struct {
	Index     int
	Stage     pipeline.Stage
	Total     int // files in the manifest
	Processed int // files whose command exited 0
	Failed    []FileResult
	Cancelled bool
	Removed   int // files removed by cleanup
}

// Succeeded reports whether every file of the stage succeeded.
func (r *Result) Succeeded() bool {
	return len(r.Failed) == 0 && !r.Cancelled
}

// State returns the terminal state of the stage.
func (r *Result) State() State {
	if r.Succeeded() {
		return StateSucceeded
	}
	return StateFailed
}

// 👀 Observer is notified while a stage runs
type Observer interface {
	StageStarted(index int, st pipeline.Stage, files int)
	FileFinished(index int, st pipeline.Stage, file FileResult)
	StageFinished(res *Result)
}

type nopObserver struct{}

func (nopObserver) StageStarted(int, pipeline.Stage, int)        {}
func (nopObserver) FileFinished(int, pipeline.Stage, FileResult) {}
func (nopObserver) StageFinished(*Result)                        {}
