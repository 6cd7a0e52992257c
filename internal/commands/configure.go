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
	"path/filepath"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/sshprobe"
	"github.com/torrust/tracker-deployer/internal/templateengine"
)

// configurePlaybooks is the declared order spec.md §4.5.5 names. Each is
// independent: the first failure stops the run and fails the command.
var configurePlaybooks = []string{
	"update-apt-cache.yml",
	"install-docker.yml",
	"install-docker-compose.yml",
	"setup-firewall.yml",
}

// Configure implements spec.md §4.5.5: probe SSH reachability, render the
// Ansible inventory and playbooks, and run the base-system playbooks in
// order.
func Configure(ctx context.Context, c *container.Container, name names.EnvironmentName) (environment.Configured, error) {
	var configured environment.Configured
	err := lockedRepository(c, name, func(repo *repository.Repository) error {
		return step(c, "configure", func() error {
			snap, err := repo.Load(name)
			if err != nil {
				return err
			}
			provisioned, err := snap.AsProvisioned()
			if err != nil {
				return err
			}

			commandID := newCommandID()
			configuring := provisioned.BeginConfiguring(commandID)
			if err := repo.Store(configuring.Snapshot()); err != nil {
				return err
			}

			creds, err := configuring.Config().SSHCredentials.Resolve()
			if err != nil {
				return failConfiguring(repo, configuring, commandID, err)
			}
			instanceIP := configuring.RuntimeOutputs().InstanceIP
			if err := c.SSHProbe().WaitUntilReachable(ctx, instanceIP, creds, sshprobe.DefaultTimeout); err != nil {
				return failConfiguring(repo, configuring, commandID, err)
			}

			engine := c.TemplateEngine(name.String())
			ansibleCtx := templateengine.NewAnsibleContext(configuring.Config(), instanceIP)
			if err := engine.Render(templateengine.FamilyAnsible, ansibleCtx); err != nil {
				return failConfiguring(repo, configuring, commandID, err)
			}

			adapter := c.AnsibleAdapter(name.String())
			inventory := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "inventory.ini")
			extraVars := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "extra_vars.json")
			for _, playbook := range configurePlaybooks {
				path := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "playbooks", playbook)
				if err := adapter.Playbook(ctx, path, inventory, extraVars); err != nil {
					return failConfiguring(repo, configuring, commandID, err)
				}
			}

			configured = configuring.Succeed(commandID)
			return repo.Store(configured.Snapshot())
		})
	})
	return configured, err
}

func failConfiguring(repo *repository.Repository, configuring environment.Configuring, commandID string, cause error) error {
	failed := configuring.Fail(commandID, cause.Error())
	if storeErr := repo.Store(failed.Snapshot()); storeErr != nil {
		return storeErr
	}
	return cause
}
