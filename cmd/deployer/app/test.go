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
	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/commands"
)

func newTestCommand(runCtx *options.RunContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <environment>",
		Short: "Probe every configured tracker listener without changing state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := parseEnvArg(args)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			report, err := commands.Test(cmd.Context(), runCtx.Container, name)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			for _, endpoint := range report.Endpoints {
				status := "ok"
				if !endpoint.OK {
					status = "failed: " + endpoint.Err.Error()
				}
				runCtx.Container.View.Result(fmt.Sprintf("%s: %s", endpoint.Name, status))
			}
			if !report.AllOK() {
				err := apperrors.Newf(apperrors.KindUnreachable, "one or more endpoints did not respond")
				runCtx.Container.View.Error(err)
				return err
			}
			return nil
		},
	}
}
