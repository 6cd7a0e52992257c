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

	"golang.org/x/sync/errgroup"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/templateengine"
)

// Release implements spec.md §4.5.6: render the release artifacts (compose
// file, tracker config, monitoring/backup config), copy them to the
// instance, and pull the images they reference. Releasing has no declared
// Failed successor (see DESIGN.md) — a failure here leaves the entity
// persisted in Releasing; only Destroy accepts that state afterward.
func Release(ctx context.Context, c *container.Container, name names.EnvironmentName) (environment.Released, error) {
	var released environment.Released
	err := lockedRepository(c, name, func(repo *repository.Repository) error {
		return step(c, "release", func() error {
			snap, err := repo.Load(name)
			if err != nil {
				return err
			}
			configured, err := snap.AsConfigured()
			if err != nil {
				return err
			}

			commandID := newCommandID()
			releasing := configured.BeginReleasing(commandID)
			if err := repo.Store(releasing.Snapshot()); err != nil {
				return err
			}

			// The release compose stack and the Ansible artifacts that
			// deploy it render into independent build subdirectories from
			// independent contexts, so they render in parallel (spec.md
			// §5: "rendering OpenTofu and Ansible artifacts in parallel").
			engine := c.TemplateEngine(name.String())
			instanceIP := releasing.RuntimeOutputs().InstanceIP
			ansibleCtx := templateengine.NewAnsibleContext(releasing.Config(), instanceIP)

			g, _ := errgroup.WithContext(ctx)
			g.Go(func() error {
				return engine.Render(templateengine.FamilyRelease, templateengine.NewReleaseContext(releasing.Config()))
			})
			g.Go(func() error {
				return engine.Render(templateengine.FamilyAnsible, ansibleCtx)
			})
			if err := g.Wait(); err != nil {
				return err
			}

			adapter := c.AnsibleAdapter(name.String())
			inventory := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "inventory.ini")
			extraVars := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "extra_vars.json")
			playbook := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "playbooks", "deploy-release.yml")
			if err := adapter.Playbook(ctx, playbook, inventory, extraVars); err != nil {
				return err
			}

			released = releasing.Succeed(commandID)
			return repo.Store(released.Snapshot())
		})
	})
	return released, err
}
