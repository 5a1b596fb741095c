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
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/progress"
	"github.com/walteh/dirpipe/pkg/stage"
	"gitlab.com/tozd/go/errors"
)

// 🎯 StageRunner runs a single stage; *stage.Executor implements it
type StageRunner interface {
	Run(ctx context.Context, index int, st pipeline.Stage, onProgress progress.Func) (*stage.Result, error)
}

var _ StageRunner = (*stage.Executor)(nil)

// 📊 Report describes one pipeline run
type Report struct {
	States  []stage.State   // one per pipeline stage
	Results []*stage.Result // one per stage that was run
}

// Succeeded reports whether every stage succeeded.
func (r *Report) Succeeded() bool {
	for _, s := range r.States {
		if s != stage.StateSucceeded {
			return false
		}
	}
	return true
}

// Processed returns the number of files processed across all stages.
func (r *Report) Processed() int {
	n := 0
	for _, res := range r.Results {
		n += res.Processed
	}
	return n
}

// Total returns the number of files queued across the stages that were run.
func (r *Report) Total() int {
	n := 0
	for _, res := range r.Results {
		n += res.Total
	}
	return n
}

// 🎮 Orchestrator drives the stages of a pipeline in order
type Orchestrator struct {
	stages StageRunner
}

// NewOrchestrator creates an orchestrator running stages with runner.
func NewOrchestrator(runner StageRunner) (*Orchestrator, error) {
	if runner == nil {
		return nil, errors.New("stage runner is required")
	}
	return &Orchestrator{stages: runner}, nil
}

// 🏃 Execute runs the stages of p in order and stops at the first failed
// stage, returning a *PipelineExecutionError for it. Stages that already
// succeeded keep their drained inputs. onProgress receives a pipeline-wide
// percentage that never decreases.
func (o *Orchestrator) Execute(ctx context.Context, p *pipeline.Pipeline, onProgress progress.Func) (*Report, error) {
	logger := zerolog.Ctx(ctx)
	tracker := progress.NewTracker(onProgress)

	total := len(p.Stages)
	report := &Report{States: make([]stage.State, total)}

	logger.Info().Str("root", p.Root).Int("stages", total).Msg("executing pipeline")

	if total == 0 {
		tracker.Report(100)
		logger.Warn().Msg("pipeline has no stages")
		return report, nil
	}

	for i, st := range p.Stages {
		report.States[i] = stage.StateRunning

		res, err := o.stages.Run(ctx, i, st, progress.Scale(i, total, tracker.Report))
		if res != nil {
			report.Results = append(report.Results, res)
		}
		if err != nil {
			report.States[i] = stage.StateFailed
			return report, &PipelineExecutionError{StageIndex: i, Stage: st, Err: err}
		}

		report.States[i] = res.State()
		if !res.Succeeded() {
			return report, stageFailure(ctx, i, st, res)
		}
	}

	logger.Info().Int("processed", report.Processed()).Msg("pipeline execution succeeded")
	return report, nil
}

func stageFailure(ctx context.Context, index int, st pipeline.Stage, res *stage.Result) error {
	perr := &PipelineExecutionError{
		StageIndex: index,
		Stage:      st,
		Failed:     res.Failed,
	}
	switch {
	case res.Cancelled && ctx.Err() != nil:
		perr.Err = ctx.Err()
	case len(res.Failed) > 0:
		perr.Err = res.Failed[0].Err
	}
	return perr
}

// 📂 ExecuteFolder loads the pipeline stored under root and executes it.
func (o *Orchestrator) ExecuteFolder(ctx context.Context, root string, onProgress progress.Func) (*Report, error) {
	p, err := pipeline.Load(ctx, root)
	if err != nil {
		return nil, errors.Errorf("loading pipeline: %w", err)
	}
	return o.Execute(ctx, p, onProgress)
}
