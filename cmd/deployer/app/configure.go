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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/torrust/tracker-deployer/cmd/deployer/app/options"
	"github.com/torrust/tracker-deployer/internal/commands"
)

func newConfigureCommand(runCtx *options.RunContext) *cobra.Command {
	return &cobra.Command{
		Use:   "configure <environment>",
		Short: "Install the base system (Docker, firewall) over SSH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvArg(args)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			if _, err := commands.Configure(cmd.Context(), runCtx.Container, name); err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			runCtx.Container.View.Success(fmt.Sprintf("configured %q", name))
			return nil
		},
	}
}
