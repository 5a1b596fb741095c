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

package main

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/dirpipe/cmd/dirpipe/commands"
	"github.com/walteh/dirpipe/cmd/dirpipe/opts"
	"github.com/walteh/dirpipe/pkg/config"
	"github.com/walteh/dirpipe/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	configFile string
	debug      bool
	workdir    string
	timeout    string
	failFast   bool
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, f *rootFlags) {
	cmd.PersistentFlags().StringVarP(&f.configFile, "config", "c", "", "settings file (.json, .yaml or .hcl)")
	cmd.PersistentFlags().BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&f.workdir, "workdir", "", "working directory of stage commands")
	cmd.PersistentFlags().StringVar(&f.timeout, "timeout", "", "per-process timeout, e.g. 90s")
	cmd.PersistentFlags().BoolVar(&f.failFast, "fail-fast", false, "stop a stage at its first failed file")
}

// newRootOpts loads the settings file and applies flag overrides
func newRootOpts(ctx context.Context, cmd *cobra.Command, f *rootFlags) (*opts.RootOpts, error) {
	settings, err := config.LoadSettings(ctx, f.configFile)
	if err != nil {
		return nil, errors.Errorf("loading settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("workdir") {
		settings.Workdir = f.workdir
	}
	if flags.Changed("timeout") {
		settings.Timeout = f.timeout
	}
	if flags.Changed("fail-fast") {
		settings.FailFast = f.failFast
	}
	if f.debug {
		settings.LogLevel = zerolog.DebugLevel.String()
	}

	if err := settings.Validate(); err != nil {
		return nil, errors.Errorf("validating settings: %w", err)
	}

	return &opts.RootOpts{Settings: settings}, nil
}

// setupLogging builds the root logger
func setupLogging(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// newRootCmd creates the root command. ro is filled in before any
// subcommand runs; a Runner already set on it is kept.
func newRootCmd(ro *opts.RootOpts, logOut, console io.Writer) *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "dirpipe",
		Short: "Run files through a chain of command stages",
		Long: `dirpipe runs every file dropped into a folder through an ordered chain of
stages. Each stage runs a command template once per file, writes into its own
directory, and feeds the next stage. Inputs are removed only when the whole
stage succeeds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			loaded, err := newRootOpts(ctx, cmd, f)
			if err != nil {
				return err
			}

			logger := setupLogging(logOut, loaded.Settings.Level()).With().Str("command", cmd.Name()).Logger()
			ctx = logger.WithContext(ctx)
			ctx = log.NewContext(ctx, log.NewUserLogger(ctx, console))
			cmd.SetContext(ctx)

			logger.Debug().Str("settings", loaded.Settings.String()).Msg("settings ready")

			loaded.Runner = ro.Runner
			*ro = *loaded
			return nil
		},
	}

	addRootFlags(rootCmd, f)

	rootCmd.AddCommand(
		commands.NewCreateCmd(ro),
		commands.NewExecuteCmd(ro),
		commands.NewStatusCmd(ro),
		commands.NewPlaceholdersCmd(ro),
	)

	return rootCmd
}
