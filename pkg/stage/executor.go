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
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/process"
	"github.com/walteh/dirpipe/pkg/progress"
	"github.com/walteh/dirpipe/pkg/template"
	"gitlab.com/tozd/go/errors"
)

// ⚙️ Options configures an Executor
type Options struct {
	// Workdir is the working directory of every stage command.
	Workdir string
	// Prefix is tokenized in front of every command template.
	Prefix string
	// FailFast stops a stage at its first failed file. By default the
	// remaining files are still attempted so that every failure is reported.
	FailFast bool
	// Ignore holds doublestar globs; matching file names are never queued.
	Ignore []string
	// Observer is notified about stage and file progress. May be nil.
	Observer Observer
}

// 🏭 Executor runs one stage over the files queued in its input directory
type Executor struct {
	runner process.Runner
	opts   Options
}

// NewExecutor creates an executor running commands through runner.
func NewExecutor(runner process.Runner, opts Options) (*Executor, error) {
	if runner == nil {
		return nil, errors.New("process runner is required")
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Executor{runner: runner, opts: opts}, nil
}

// 🏃 Run processes every file queued for st.
//
// When all files succeed the processed inputs are removed from st.InDir.
// When any file fails, every file in st.OutDir is removed instead and
// st.InDir is left as it was, ready for a retry. The returned error is
// only set when the queue itself could not be read or cleaned; per-file
// failures are reported in the Result.
func (e *Executor) Run(ctx context.Context, index int, st pipeline.Stage, onProgress progress.Func) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Int("stage", index).Str("label", st.Label()).Logger()
	if onProgress == nil {
		onProgress = progress.Nop
	}

	manifest, err := Snapshot(st.InDir, e.opts.Ignore)
	if err != nil {
		return nil, errors.Errorf("listing stage input: %w", err)
	}

	res := &Result{
		Index: index,
		Stage: st,
		Total: manifest.Len(),
	}

	logger.Info().Int("files", res.Total).Str("in_dir", st.InDir).Msg("executing stage")
	e.opts.Observer.StageStarted(index, st, res.Total)

	if res.Total == 0 {
		logger.Info().Msg("no files queued, nothing to do")
		onProgress(100)
		e.opts.Observer.StageFinished(res)
		return res, nil
	}

	for _, entry := range manifest.Entries {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("stage cancelled")
			res.Cancelled = true
			break
		}

		fr := e.runFile(ctx, logger, st, entry)
		e.opts.Observer.FileFinished(index, st, fr)

		if fr.OK() {
			res.Processed++
			onProgress(float64(entry.Index+1) / float64(res.Total) * 100)
			continue
		}

		res.Failed = append(res.Failed, fr)
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if e.opts.FailFast {
			break
		}
	}

	if err := e.cleanup(logger, manifest, res); err != nil {
		return res, err
	}

	if res.Succeeded() {
		logger.Info().Int("processed", res.Processed).Msg("finished stage")
	} else {
		logger.Error().
			Int("processed", res.Processed).
			Int("failed", len(res.Failed)).
			Bool("cancelled", res.Cancelled).
			Msg("stage failed")
	}

	e.opts.Observer.StageFinished(res)
	return res, nil
}

func (e *Executor) runFile(ctx context.Context, logger zerolog.Logger, st pipeline.Stage, entry Entry) FileResult {
	fr := FileResult{Entry: entry, ExitCode: -1}

	args, err := template.Expand(st.Command, template.Binding{
		File:   entry.Path,
		InDir:  st.InDir,
		OutDir: st.OutDir,
		Prefix: e.opts.Prefix,
	})
	if err != nil {
		logger.Error().Err(err).Str("file", entry.Path).Msg("expanding command")
		fr.Err = err
		return fr
	}
	fr.Args = args

	logger.Debug().Strs("command", args).Str("file", entry.Path).Msg("processing file")

	result, err := e.runner.Run(ctx, process.Command{Args: args, Dir: e.opts.Workdir})
	if result != nil {
		fr.ExitCode = result.ExitCode
		fr.Duration = result.Duration
	}

	if err == nil && result != nil && result.ExitCode != 0 {
		// a runner that reports the exit code without an error
		err = &process.ExecutionError{
			Args:     args,
			ExitCode: result.ExitCode,
			Stdout:   string(result.Stdout),
			Stderr:   string(result.Stderr),
			Err:      errors.Errorf("exit code %d", result.ExitCode),
		}
	}
	if err == nil && result == nil {
		err = errors.New("runner returned no result")
	}

	if err != nil {
		ev := logger.Error().Err(err).Str("file", entry.Path).Strs("command", args).Int("exit_code", fr.ExitCode)
		var execErr *process.ExecutionError
		if errors.As(err, &execErr) {
			ev = ev.Str("stdout", execErr.Stdout).Str("stderr", execErr.Stderr)
		}
		ev.Msg("processing file failed")
		fr.Err = err
		return fr
	}

	logger.Debug().Str("file", entry.Path).Dur("duration", fr.Duration).Msg("processed file")
	return fr
}

func (e *Executor) cleanup(logger zerolog.Logger, manifest *Manifest, res *Result) error {
	if res.Succeeded() {
		removed, err := manifest.Drain()
		res.Removed = removed
		if err != nil {
			return errors.Errorf("draining stage input: %w", err)
		}
		logger.Debug().Int("removed", removed).Str("dir", manifest.Dir).Msg("drained stage input")
		return nil
	}

	removed, err := DrainDir(res.Stage.OutDir)
	res.Removed = removed
	if err != nil {
		return errors.Errorf("cleaning stage output: %w", err)
	}
	logger.Debug().Int("removed", removed).Str("dir", res.Stage.OutDir).Msg("discarded stage output")
	return nil
}
