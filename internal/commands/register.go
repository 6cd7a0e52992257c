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
	"fmt"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/sshprobe"
)

// Register implements spec.md §4.5.4: the Provision alternative for
// infrastructure the user already created out of band. Unlike Provision, a
// failed SSH probe does not fail the command — it warns and still
// transitions to Provisioned, since the config itself is sound and a
// genuinely incompatible host will fail loudly on the next command anyway.
func Register(ctx context.Context, c *container.Container, name names.EnvironmentName, instanceIP string) (environment.Provisioned, error) {
	var provisioned environment.Provisioned
	err := lockedRepository(c, name, func(repo *repository.Repository) error {
		return step(c, "register", func() error {
			snap, err := repo.Load(name)
			if err != nil {
				return err
			}
			created, err := snap.AsCreated()
			if err != nil {
				return err
			}

			commandID := newCommandID()
			provisioning := created.BeginRegistering(commandID, instanceIP)
			if err := repo.Store(provisioning.Snapshot()); err != nil {
				return err
			}

			var probeErr error
			creds, err := provisioning.Config().SSHCredentials.Resolve()
			if err != nil {
				probeErr = err
			} else {
				probeErr = c.SSHProbe().WaitUntilReachable(ctx, instanceIP, creds, sshprobe.DefaultTimeout)
			}

			registering := provisioning.MarkRegistered()
			if probeErr != nil {
				note := fmt.Sprintf("SSH probe failed: %s", probeErr)
				c.View.Warning(note)
				provisioned = registering.SucceedWithWarning(commandID, note)
			} else {
				provisioned = registering.Succeed(commandID)
			}
			return repo.Store(provisioned.Snapshot())
		})
	})
	return provisioned, err
}
