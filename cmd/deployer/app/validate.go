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

package app

import (
	"github.com/spf13/cobra"

	"github.com/torrust/tracker-deployer/cmd/deployer/app/options"
	"github.com/torrust/tracker-deployer/internal/commands"
)

func newValidateCommand(runCtx *options.RunContext) *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config file against the environment schema without side effects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := commands.Validate(envFile); err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			runCtx.Container.View.Success("config is valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to the environment config file")
	_ = cmd.MarkFlagRequired("env-file")
	return cmd
}
