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

// Package commands implements the command handlers (C7, spec.md §4.5): one
// function per lifecycle verb, each following the common shape spec.md
// §4.5 describes — acquire the environment's lock, load and narrow the
// entity to its required precondition state, run the handler's algorithm
// against the external-tool adapters (C5) and SSH probe (C6), compute and
// persist the successor entity, release the lock on return.
package commands

import (
	"time"

	"github.com/google/uuid"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/repository"
)

// newCommandID mints the opaque identifier correlating every history entry
// one invocation appends (spec.md §3.1).
func newCommandID() string {
	return uuid.New().String()
}

// lockedRepository acquires name's advisory lock and hands the repository
// to fn, releasing the lock unconditionally when fn returns — spec.md
// §4.5 steps 1 and 6 shared by every handler that mutates an environment.
func lockedRepository(c *container.Container, name names.EnvironmentName, fn func(repo *repository.Repository) error) error {
	repo := c.Repository()
	guard, err := repo.AcquireLock(name)
	if err != nil {
		return err
	}
	defer guard.Release()
	return fn(repo)
}

// step times a handler phase and reports it through the view, matching the
// Start/Complete pairing internal/view expects.
func step(c *container.Container, name string, fn func() error) error {
	c.View.Start(name)
	start := time.Now()
	err := fn()
	c.View.Complete(name, time.Since(start))
	return err
}
