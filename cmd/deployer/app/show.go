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

func newShowCommand(runCtx *options.RunContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <environment>",
		Short: "Print an environment's current state and runtime outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvArg(args)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			snap, err := commands.Show(runCtx.Container, name)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			runCtx.Container.View.Result(fmt.Sprintf("name: %s", snap.Name()))
			runCtx.Container.View.Result(fmt.Sprintf("state: %s", snap.State()))
			if ip := snap.RuntimeOutputs().InstanceIP; ip != "" {
				runCtx.Container.View.Result(fmt.Sprintf("instance_ip: %s", ip))
			}
			runCtx.Container.View.Result(fmt.Sprintf("updated_at: %s", snap.UpdatedAt()))
			return nil
		},
	}
}
