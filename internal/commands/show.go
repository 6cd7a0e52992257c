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
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
)

// Show implements the single-environment half of spec.md §4.5.10: load an
// environment's current state, history, and runtime outputs without
// acquiring its lock — a concurrent writer may be mid-transition, and a
// stale-by-a-moment read is an acceptable trade-off for a status command.
func Show(c *container.Container, name names.EnvironmentName) (environment.Snapshot, error) {
	return c.Repository().Load(name)
}

// List implements the multi-environment half of spec.md §4.5.10: the
// names of every environment under the data root, sorted.
func List(c *container.Container) ([]names.EnvironmentName, error) {
	return c.Repository().List()
}
