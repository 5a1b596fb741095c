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
	"gitlab.com/tozd/go/errors"
)

// NewPlaceholdersCmd creates a new placeholders command
func NewPlaceholdersCmd(opts *opts.RootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "placeholders",
		Short: "List the placeholders a stage command may use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := placeholderTable()
			if err != nil {
				return errors.Errorf("rendering placeholders: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
