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

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/repository"
)

// Destroy implements spec.md §4.5.9: tear down infrastructure best-effort
// and remove an environment's on-disk state. force must be true when the
// environment was registered rather than provisioned, matching the
// confirmation requirement spec.md §4.5.4 and §6 impose on user-owned
// infrastructure; the interactive "y" alternative is cmd/deployer's
// responsibility, not this handler's.
func Destroy(ctx context.Context, c *container.Container, name names.EnvironmentName, force bool) error {
	return lockedRepository(c, name, func(repo *repository.Repository) error {
		return step(c, "destroy", func() error {
			snap, err := repo.Load(name)
			if err != nil {
				return err
			}

			if snap.IsRegistered() && !force {
				return apperrors.Newf(apperrors.KindInvalidInput,
					"environment %q was registered, not provisioned; destroying it requires confirmation", name).
					WithHint("rerun with --force, or confirm interactively, to destroy a registered environment")
			}

			if !snap.IsRegistered() {
				provider := snap.Config().Provider.ResolvedKind()
				adapter := c.TofuAdapter(name.String(), string(provider))
				if err := adapter.Destroy(ctx); err != nil {
					c.View.Warning("tofu destroy failed, continuing with local cleanup: " + err.Error())
				}
			}

			if err := c.RemoveBuildDir(name.String()); err != nil {
				return err
			}
			return repo.Delete(name)
		})
	})
}
