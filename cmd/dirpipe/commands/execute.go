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

package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/dirpipe/cmd/dirpipe/opts"
	"github.com/walteh/dirpipe/pkg/log"
	"github.com/walteh/dirpipe/pkg/operation"
	"github.com/walteh/dirpipe/pkg/progress"
	"github.com/walteh/dirpipe/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewExecuteCmd creates a new execute command
func NewExecuteCmd(opts *opts.RootOpts) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "execute <folder>",
		Short: "Run every file queued in a pipeline",
		Long: `Execute loads the pipeline saved in folder and runs its stages in order.
It will:
1. Run the stage command once for every file waiting in the stage input
2. Remove the inputs when every file of the stage succeeded
3. Discard the stage output and stop when any file failed

Files added while a stage runs are left for the next execution.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			folder := args[0]

			ul := log.FromContext(ctx)
			ul.Header("execute " + folder)

			orch, err := opts.NewOrchestrator(ul)
			if err != nil {
				return err
			}

			var onProgress progress.Func = progress.Nop
			if !noProgress {
				bar, err := progressBar(ul.Console()).Start()
				if err != nil {
					return errors.Errorf("starting progress bar: %w", err)
				}
				defer bar.Stop()
				onProgress = barProgress(bar)
			}

			op, err := operation.NewExecuteOperation(operation.ExecuteOptions{
				Folder:       folder,
				Orchestrator: orch,
				OnProgress:   onProgress,
			})
			if err != nil {
				return errors.Errorf("creating operation: %w", err)
			}

			if err := operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op); err != nil {
				return err
			}

			report := op.Report()
			ul.LogValidation(true, fmt.Sprintf("Pipeline finished: %d file(s) processed", report.Processed()), nil)
			fmt.Fprintln(cmd.OutOrStdout(), status.FormatProgress(report.Processed(), report.Total()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not draw a progress bar")

	return cmd
}

// progressBar draws on the same writer as the stage lines so pterm can clear
// and redraw the bar around every printed line.
func progressBar(console io.Writer) *pterm.ProgressbarPrinter {
	return pterm.DefaultProgressbar.
		WithTotal(100).
		WithTitle("Executing pipeline").
		WithWriter(console)
}

// barProgress moves bar to each reported percentage. Values arrive in
// non-decreasing order.
func barProgress(bar *pterm.ProgressbarPrinter) progress.Func {
	return func(percent float64) {
		if delta := int(percent) - bar.Current; delta > 0 {
			bar.Add(delta)
		}
	}
}
