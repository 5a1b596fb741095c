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

package operation

import (
	"fmt"

	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/stage"
)

// 🛑 PipelineExecutionError reports the stage that halted a pipeline run.
// It is the only error a caller needs to inspect to pick an exit code.
type PipelineExecutionError struct {
	StageIndex int
	Stage      pipeline.Stage
	Failed     []stage.FileResult
	Err        error // first file error, cancellation or cleanup failure
}

func (e *PipelineExecutionError) Error() string {
	msg := fmt.Sprintf("stage %d (%s) failed", e.StageIndex, e.Stage.Label())
	if n := len(e.Failed); n > 0 {
		msg = fmt.Sprintf("%s: %d file(s) failed", msg, n)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *PipelineExecutionError) Unwrap() error { return e.Err }
