/*
Copyright 2024 The Torrust Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package app assembles the deployer root command: cobra wiring around the
// C7 command handlers, generalized from the teacher's controller-manager
// command in the same way internal/container generalizes its Manager.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/torrust/tracker-deployer/cmd/deployer/app/options"
	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/logging"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/view"
)

const commandName = "deployer"

// NewDeployerCommand builds the root command and every subcommand the
// deployer exposes (spec.md §4.5's lifecycle verbs plus show/list).
func NewDeployerCommand() *cobra.Command {
	opts := &options.RunOptions{}
	runCtx := &options.RunContext{Options: opts}

	cmd := &cobra.Command{
		Use:           commandName,
		Short:         "Deploy and operate a Torrust Tracker environment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %s\n", err)
				return err
			}
			runCtx.Container = c
			return nil
		},
	}
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newCreateCommand(runCtx),
		newValidateCommand(runCtx),
		newProvisionCommand(runCtx),
		newRegisterCommand(runCtx),
		newConfigureCommand(runCtx),
		newReleaseCommand(runCtx),
		newRunCommand(runCtx),
		newTestCommand(runCtx),
		newDestroyCommand(runCtx),
		newShowCommand(runCtx),
		newListCommand(runCtx),
	)
	return cmd
}

// buildContainer assembles the Container (C8) from parsed RunOptions: a
// real OS filesystem, the real advisory file lock, and a logger that
// always writes data-dir/logs/log.txt and additionally tees to stderr
// unless --quiet was given, matching internal/logging's doc contract.
func buildContainer(opts *options.RunOptions) (*container.Container, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	logsDir := filepath.Join(opts.DataDir, "logs")
	if err := os.MkdirAll(logsDir, 0o750); err != nil {
		return nil, err
	}
	logFile, err := os.OpenFile(filepath.Join(logsDir, "log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}

	mode := logging.FileAndStderr
	if opts.Quiet {
		mode = logging.FileOnly
	}
	logger, err := logging.New(level, mode, logFile, os.Stderr)
	if err != nil {
		return nil, err
	}

	v := view.New(os.Stdout, os.Stderr, verbosityFor(opts))
	return container.New(logger, v, afero.NewOsFs(), repository.OSLockFactory, opts.DataDir, opts.BuildDir), nil
}

func verbosityFor(opts *options.RunOptions) view.Verbosity {
	if opts.Quiet {
		return view.Quiet
	}
	switch {
	case opts.Verbose >= 2:
		return view.Debug
	case opts.Verbose == 1:
		return view.Verbose
	default:
		return view.Normal
	}
}

// ExitCodeFor maps a command's returned error to spec.md §6's process exit
// code contract.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return apperrors.ExitCode(apperrors.KindOf(err))
}
