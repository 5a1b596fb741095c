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

	"github.com/spf13/cobra"
	"github.com/walteh/dirpipe/cmd/dirpipe/opts"
	"github.com/walteh/dirpipe/pkg/pipeline"
	"github.com/walteh/dirpipe/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status <folder>",
		Short: "Show how many files wait in front of each stage",
		Long: `Status reads the pipeline saved in folder and counts the files queued for
every stage. Nothing is run or removed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			p, err := pipeline.Load(ctx, args[0])
			if err != nil {
				return errors.Errorf("loading pipeline: %w", err)
			}

			st, err := status.Inspect(ctx, p, opts.Settings.Ignore)
			if err != nil {
				return errors.Errorf("inspecting pipeline: %w", err)
			}

			fmt.Fprint(out, status.FormatPipeline(st))

			if verbose {
				for _, s := range st.Stages {
					fmt.Fprintln(out)
					fmt.Fprint(out, status.FormatStageDetails(s))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also show directories and commands")

	return cmd
}
