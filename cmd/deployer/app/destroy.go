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
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/torrust/tracker-deployer/cmd/deployer/app/options"
	"github.com/torrust/tracker-deployer/internal/commands"
)

func newDestroyCommand(runCtx *options.RunContext) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <environment>",
		Short: "Tear down infrastructure best-effort and remove local state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvArg(args)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			force := runCtx.Options.Force
			if !force {
				if snap, err := commands.Show(runCtx.Container, name); err == nil && snap.IsRegistered() {
					fmt.Fprintf(cmd.ErrOrStderr(), "environment %q was registered, not provisioned; destroy it? [y/N] ", name)
					answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					force = strings.TrimSpace(answer) == "y"
				}
			}
			if err := commands.Destroy(cmd.Context(), runCtx.Container, name, force); err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			runCtx.Container.View.Success(fmt.Sprintf("destroyed %q", name))
			return nil
		},
	}
}
