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
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/progress"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Operation is one unit of work started from the command line
type Operation interface {
	Name() string
	Execute(ctx context.Context) error
}

// 🧩 StageSpec describes a stage to append when creating a pipeline
type StageSpec struct {
	Label   string
	Command string
}

// 💬 Prompter asks the user for input during interactive creation
type Prompter interface {
	Text(prompt string) (string, error)
	Confirm(prompt string, defaultValue bool) (bool, error)
	// Help shows text that is not a question, such as the placeholder list.
	Help(text string)
}

// 🔧 CreateOptions configures a create operation
type CreateOptions struct {
	// Folder is the pipeline root. When empty it is asked through Prompter.
	Folder string
	// Stages are appended in order. When empty they are asked through Prompter.
	Stages []StageSpec
	// Prompter drives interactive creation. May be nil when Folder and
	// Stages are both given.
	Prompter Prompter
	// PlaceholderHelp is shown before every command prompt.
	PlaceholderHelp string
}

// 🏗️ NewCreateOperation creates an operation that builds and saves a pipeline
func NewCreateOperation(opts CreateOptions) (*CreateOperation, error) {
	if opts.Prompter == nil && (opts.Folder == "" || len(opts.Stages) == 0) {
		return nil, errors.New("folder and stages are required when not interactive")
	}
	return &CreateOperation{opts: opts}, nil
}

// CreateOperation builds a pipeline stage by stage and saves its marker.
type CreateOperation struct {
	opts     CreateOptions
	pipeline *pipeline.Pipeline
}

// Name implements Operation.
func (op *CreateOperation) Name() string { return "create" }

// Pipeline returns the created pipeline, nil until Execute succeeds.
func (op *CreateOperation) Pipeline() *pipeline.Pipeline { return op.pipeline }

// Execute implements Operation.
func (op *CreateOperation) Execute(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("creating pipeline")

	folder := op.opts.Folder
	if folder == "" {
		answer, err := op.opts.Prompter.Text("Pipeline folder (e.g. $HOME/Desktop/my_pipeline)")
		if err != nil {
			return errors.Errorf("asking pipeline folder: %w", err)
		}
		folder = answer
	}

	p, err := pipeline.New(ctx, folder)
	if err != nil {
		return errors.Errorf("preparing pipeline folder: %w", err)
	}

	if len(op.opts.Stages) > 0 {
		for _, spec := range op.opts.Stages {
			if _, err := p.AddStage(ctx, spec.Label, spec.Command); err != nil {
				return errors.Errorf("adding stage %q: %w", spec.Label, err)
			}
		}
	} else if err := op.promptStages(ctx, p); err != nil {
		return err
	}

	if err := pipeline.Save(ctx, p); err != nil {
		return errors.Errorf("saving pipeline: %w", err)
	}

	op.pipeline = p
	logger.Info().Str("root", p.Root).Int("stages", len(p.Stages)).Msg("pipeline created")
	return nil
}

// promptStages asks for stages until the user declines another one. An
// invalid stage is reported and asked again.
func (op *CreateOperation) promptStages(ctx context.Context, p *pipeline.Pipeline) error {
	logger := zerolog.Ctx(ctx)

	for {
		label, err := op.opts.Prompter.Text("Name of the processing stage (e.g. image_convert)")
		if err != nil {
			return errors.Errorf("asking stage name: %w", err)
		}

		if op.opts.PlaceholderHelp != "" {
			op.opts.Prompter.Help(op.opts.PlaceholderHelp)
		}

		command, err := op.opts.Prompter.Text("Command (e.g. image convert {in_file_path} -od {out_dir} -f png)")
		if err != nil {
			return errors.Errorf("asking stage command: %w", err)
		}

		if _, err := p.AddStage(ctx, label, strings.TrimSpace(command)); err != nil {
			logger.Error().Err(err).Str("label", label).Msg("invalid stage")
			op.opts.Prompter.Help(fmt.Sprintf("Invalid stage: %v", err))
			continue
		}

		another, err := op.opts.Prompter.Confirm("Need another pipeline stage?", false)
		if err != nil {
			return errors.Errorf("asking for another stage: %w", err)
		}
		if !another {
			return nil
		}
	}
}

// 🔧 ExecuteOptions configures an execute operation
type ExecuteOptions struct {
	Folder       string
	Orchestrator *Orchestrator
	OnProgress   progress.Func
}

// 🏗️ NewExecuteOperation creates an operation that runs a saved pipeline
func NewExecuteOperation(opts ExecuteOptions) (*ExecuteOperation, error) {
	if opts.Folder == "" {
		return nil, errors.New("pipeline folder is required")
	}
	if opts.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	return &ExecuteOperation{opts: opts}, nil
}

// ExecuteOperation loads a pipeline fresh from disk and executes it.
type ExecuteOperation struct {
	opts   ExecuteOptions
	report *Report
}

// Name implements Operation.
func (op *ExecuteOperation) Name() string { return "execute" }

// Report returns the report of the last run, nil before Execute.
func (op *ExecuteOperation) Report() *Report { return op.report }

// Execute implements Operation.
func (op *ExecuteOperation) Execute(ctx context.Context) error {
	report, err := op.opts.Orchestrator.ExecuteFolder(ctx, op.opts.Folder, op.opts.OnProgress)
	op.report = report
	return err
}
