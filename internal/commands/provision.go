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

package commands

import (
	"context"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/providerconfig"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/templateengine"
)

// Provision implements spec.md §4.5.3: render the provider's OpenTofu
// module, apply it, and record the instance address it produces.
func Provision(ctx context.Context, c *container.Container, name names.EnvironmentName) (environment.Provisioned, error) {
	var provisioned environment.Provisioned
	err := lockedRepository(c, name, func(repo *repository.Repository) error {
		return step(c, "provision", func() error {
			snap, err := repo.Load(name)
			if err != nil {
				return err
			}
			created, err := snap.AsCreated()
			if err != nil {
				return err
			}

			commandID := newCommandID()
			provisioning := created.BeginProvisioning(commandID)
			if err := repo.Store(provisioning.Snapshot()); err != nil {
				return err
			}

			provider := provisioning.Config().Provider.ResolvedKind()
			family := tofuFamilyFor(provider)

			engine := c.TemplateEngine(name.String())
			if err := engine.Render(family, templateengine.NewTofuContext(provisioning.Config())); err != nil {
				return failProvisioning(repo, provisioning, commandID, err)
			}

			adapter := c.TofuAdapter(name.String(), string(provider))
			if err := adapter.Init(ctx); err != nil {
				return failProvisioning(repo, provisioning, commandID, err)
			}
			if err := adapter.Apply(ctx); err != nil {
				return failProvisioning(repo, provisioning, commandID, err)
			}
			ip, err := adapter.InstanceIP(ctx)
			if err != nil {
				return failProvisioning(repo, provisioning, commandID, err)
			}

			provisioning = provisioning.WithInstanceIP(ip)
			provisioned = provisioning.Succeed(commandID)
			return repo.Store(provisioned.Snapshot())
		})
	})
	return provisioned, err
}

func tofuFamilyFor(provider providerconfig.Kind) templateengine.Family {
	if provider == providerconfig.KindHetzner {
		return templateengine.FamilyTofuHetzner
	}
	return templateengine.FamilyTofuLxd
}

// failProvisioning transitions provisioning to ProvisionFailed with cause's
// message recorded in state_history.note (spec.md §4.5.3 step 3), persists
// it, and returns cause so the caller still reports the original error.
func failProvisioning(repo *repository.Repository, provisioning environment.Provisioning, commandID string, cause error) error {
	failed := provisioning.Fail(commandID, cause.Error())
	if storeErr := repo.Store(failed.Snapshot()); storeErr != nil {
		return storeErr
	}
	return cause
}
