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

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/torrust/tracker-deployer/cmd/deployer/app/options"
	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/commands"
	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/providerconfig"
)

// newCreateCommand is the spec.md §6 `create` group: `create environment`
// and `create template` are distinct subcommands, not flags on one verb.
func newCreateCommand(runCtx *options.RunContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new environment, or scaffold a starter config",
	}
	cmd.AddCommand(
		newCreateEnvironmentCommand(runCtx),
		newCreateTemplateCommand(runCtx),
	)
	return cmd
}

func newCreateEnvironmentCommand(runCtx *options.RunContext) *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "environment",
		Short: "Validate a config file and register a new environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := commands.Create(runCtx.Container, envFile)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			runCtx.Container.View.Success(fmt.Sprintf("created environment %q", created.Config().EnvironmentName))
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to the environment config file")
	_ = cmd.MarkFlagRequired("env-file")
	return cmd
}

func newCreateTemplateCommand(runCtx *options.RunContext) *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "template <output-path>",
		Short: "Emit a starter environment config for --provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseProviderKind(provider)
			if err != nil {
				runCtx.Container.View.Error(err)
				return err
			}
			data, err := yaml.Marshal(envconfig.Starter(kind))
			if err != nil {
				err = apperrors.Wrap(apperrors.KindTemplateRender, err, "failed to render starter config")
				runCtx.Container.View.Error(err)
				return err
			}
			outputPath := args[0]
			if err := afero.WriteFile(runCtx.Container.Fs(), outputPath, data, 0o640); err != nil {
				err = apperrors.Wrapf(apperrors.KindIoError, err, "failed to write %s", outputPath)
				runCtx.Container.View.Error(err)
				return err
			}
			runCtx.Container.View.Success(fmt.Sprintf("wrote starter config to %q", outputPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "provider variant: lxd or hetzner")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func parseProviderKind(s string) (providerconfig.Kind, error) {
	switch providerconfig.Kind(s) {
	case providerconfig.KindLxd:
		return providerconfig.KindLxd, nil
	case providerconfig.KindHetzner:
		return providerconfig.KindHetzner, nil
	default:
		return "", apperrors.Newf(apperrors.KindInvalidInput, "--provider must be %q or %q, got %q",
			providerconfig.KindLxd, providerconfig.KindHetzner, s)
	}
}
