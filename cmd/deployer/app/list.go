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

	"github.com/gobuffalo/flect"
	"github.com/spf13/cobra"

	"github.com/torrust/tracker-deployer/cmd/deployer/app/options"
	"github.com/torrust/tracker-deployer/internal/commands"
)

func newListCommand(runCtx *options.RunContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every environment's name under the data root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := commands.List(runCtx.Container)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			for _, name := range names {
				runCtx.Container.View.Result(name.String())
			}
			noun := flect.Pluralize("environment")
			if len(names) == 1 {
				noun = flect.Singularize(noun)
			}
			runCtx.Container.View.Success(fmt.Sprintf("%d %s", len(names), noun))
			return nil
		},
	}
}
