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

package opts

import (
	"github.com/walteh/dirpipe/pkg/config"
	"github.com/walteh/dirpipe/pkg/operation"
	"github.com/walteh/dirpipe/pkg/process"
	"github.com/walteh/dirpipe/pkg/stage"
	"gitlab.com/tozd/go/errors"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Settings *config.Settings
	// Runner overrides the process runner; nil runs real processes.
	Runner process.Runner
}

// NewOrchestrator wires a process runner and a stage executor from the
// settings. A non-nil observer is told about every stage and file.
func (o *RootOpts) NewOrchestrator(observer stage.Observer) (*operation.Orchestrator, error) {
	if o.Settings == nil {
		return nil, errors.New("settings are not loaded")
	}

	runner := o.Runner
	if runner == nil {
		runner = process.NewExecRunner(process.Options{
			Timeout:     o.Settings.ProcessTimeout(),
			GracePeriod: o.Settings.KillGracePeriod(),
		})
	}

	stageOpts := stage.Options{
		Workdir:  o.Settings.Workdir,
		Prefix:   o.Settings.Executable,
		FailFast: o.Settings.FailFast,
		Ignore:   o.Settings.Ignore,
	}
	if observer != nil {
		stageOpts.Observer = observer
	}

	executor, err := stage.NewExecutor(runner, stageOpts)
	if err != nil {
		return nil, errors.Errorf("creating stage executor: %w", err)
	}

	return operation.NewOrchestrator(executor)
}
