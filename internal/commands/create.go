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
	"os"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/repository"
)

// Create implements spec.md §4.5.1: validate configPath, reject an
// already-used name, lay out the data directory, and persist the initial
// Created entity.
func Create(c *container.Container, configPath string) (environment.Created, error) {
	var created environment.Created
	err := step(c, "create", func() error {
		f, err := os.Open(configPath)
		if err != nil {
			return apperrors.Wrapf(apperrors.KindIoError, err, "failed to open config file %s", configPath)
		}
		defer f.Close()

		cfg, err := envconfig.Parse(f)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		repo := c.Repository()
		exists, err := repo.Exists(cfg.EnvironmentName)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.Newf(apperrors.KindNameAlreadyExists, "environment %q already exists", cfg.EnvironmentName)
		}

		return lockedRepository(c, cfg.EnvironmentName, func(repo *repository.Repository) error {
			if err := repo.EnsureLayout(cfg.EnvironmentName); err != nil {
				return err
			}
			entity, err := environment.New(newCommandID(), cfg)
			if err != nil {
				return err
			}
			if err := repo.Store(entity.Snapshot()); err != nil {
				return err
			}
			created = entity
			return nil
		})
	})
	return created, err
}
