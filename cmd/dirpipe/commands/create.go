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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/dirpipe/cmd/dirpipe/opts"
	"github.com/walteh/dirpipe/pkg/log"
	"github.com/walteh/dirpipe/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewCreateCmd creates a new create command
func NewCreateCmd(opts *opts.RootOpts) *cobra.Command {
	var stages []string

	cmd := &cobra.Command{
		Use:   "create [folder]",
		Short: "Create a pipeline",
		Long: `Create builds a pipeline in folder and saves it as .dirpipe.json.

Without --stage the folder, the stages and their commands are asked
interactively. With --stage every value is the command of one stage, in
order, and the stages are labelled stage_1, stage_2, ...

Command templates may use:
` + placeholderList(),
		Example: `  dirpipe create ~/Desktop/photos
  dirpipe create ~/Desktop/photos \
    --stage "magick {in_file_path} {out_dir}/{in_file_name}.png" \
    --stage "pngquant --output {out_dir}/{in_file_name}.png {in_file_path}"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			createOpts := operation.CreateOptions{}
			if len(args) == 1 {
				createOpts.Folder = args[0]
			}

			if len(stages) > 0 {
				if createOpts.Folder == "" {
					return errors.New("folder argument is required with --stage")
				}
				for i, command := range stages {
					createOpts.Stages = append(createOpts.Stages, operation.StageSpec{
						Label:   fmt.Sprintf("stage_%d", i+1),
						Command: command,
					})
				}
			} else {
				help, err := placeholderTable()
				if err != nil {
					return errors.Errorf("rendering placeholders: %w", err)
				}
				createOpts.Prompter = ptermPrompter{}
				createOpts.PlaceholderHelp = help
			}

			op, err := operation.NewCreateOperation(createOpts)
			if err != nil {
				return errors.Errorf("creating operation: %w", err)
			}

			if err := operation.NewRunner(zerolog.Ctx(ctx)).Run(ctx, op); err != nil {
				return err
			}

			ul := log.FromContext(ctx)
			p := op.Pipeline()
			for _, st := range p.Stages {
				ul.LogStateChange(fmt.Sprintf("Stage %s: %s", st.Label(), st.Command))
			}
			ul.LogValidation(true, fmt.Sprintf("Pipeline saved to %s", p.MarkerPath()), nil)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&stages, "stage", "s", nil, "command template of one stage (repeatable)")

	return cmd
}
