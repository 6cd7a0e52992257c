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

// Package container is the dependency resolver (C8, spec.md §4.6): eager
// logging/view/path roots, plus thread-safe lazy singletons for the
// repository and SSH probe, and lightweight per-invocation factories for
// the template engine and external-tool adapters (each is "parameterized
// by working directory — one per command invocation", per spec.md §4.6,
// so they are not singletons themselves).
package container

import (
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/sshprobe"
	"github.com/torrust/tracker-deployer/internal/templateengine"
	"github.com/torrust/tracker-deployer/internal/tools/ansible"
	"github.com/torrust/tracker-deployer/internal/tools/tofu"
	"github.com/torrust/tracker-deployer/internal/view"
)

// Container is built once per process invocation and threaded through the
// controller (C9) to every command handler (C7).
type Container struct {
	// Eager.
	Logger  logr.Logger
	View    *view.UserOutput
	DataDir string // spec.md §6: holds data/<env>/environment.json + logs/
	BuildDir string // spec.md §6: holds build/<env>/{tofu,ansible,release}

	fs          afero.Fs
	lockFactory repository.LockFactory

	repoOnce sync.Once
	repo     *repository.Repository

	proberOnce sync.Once
	prober     *sshprobe.Prober
}

// New builds a Container. fs is injected so tests can substitute an
// afero.MemMapFs; production callers pass afero.NewOsFs(). lockFactory is
// likewise injected so tests can substitute an in-memory advisory lock;
// production callers pass repository.OSLockFactory.
func New(logger logr.Logger, v *view.UserOutput, fs afero.Fs, lockFactory repository.LockFactory, dataDir, buildDir string) *Container {
	return &Container{Logger: logger, View: v, fs: fs, lockFactory: lockFactory, DataDir: dataDir, BuildDir: buildDir}
}

// Repository returns the shared Repository, constructing it on first use.
func (c *Container) Repository() *repository.Repository {
	c.repoOnce.Do(func() {
		c.repo = repository.New(c.fs, c.DataDir, c.lockFactory)
	})
	return c.repo
}

// SSHProbe returns the shared Prober, constructing it on first use.
func (c *Container) SSHProbe() *sshprobe.Prober {
	c.proberOnce.Do(func() {
		c.prober = sshprobe.New()
	})
	return c.prober
}

// TemplateEngine returns a new Engine bound to envName's build directory.
// The engine carries no mutable state of its own (spec.md §5), so a fresh
// value per call is as cheap as a singleton and avoids threading one
// environment's build directory into another's.
func (c *Container) TemplateEngine(envName string) *templateengine.Engine {
	return templateengine.New(c.fs, filepath.Join(c.BuildDir, envName))
}

// TofuAdapter returns a new OpenTofu adapter bound to envName's rendered
// module directory for provider.
func (c *Container) TofuAdapter(envName, provider string) *tofu.Adapter {
	workingDir := filepath.Join(c.BuildDir, envName, "tofu", provider)
	logDir := filepath.Join(c.DataDir, envName, "logs")
	return tofu.New(workingDir, logDir, c.Logger)
}

// AnsibleAdapter returns a new Ansible adapter bound to envName's rendered
// ansible directory.
func (c *Container) AnsibleAdapter(envName string) *ansible.Adapter {
	workingDir := filepath.Join(c.BuildDir, envName, "ansible")
	logDir := filepath.Join(c.DataDir, envName, "logs")
	return ansible.New(workingDir, logDir, c.Logger)
}

// Fs returns the injected filesystem, for callers (e.g. `create template`)
// that need to write a file outside the repository's own layout.
func (c *Container) Fs() afero.Fs {
	return c.fs
}

// RemoveBuildDir deletes envName's rendered artifact tree under BuildDir
// (spec.md §4.5.9 step 2). Deleting an already-absent directory is a no-op.
func (c *Container) RemoveBuildDir(envName string) error {
	if err := c.fs.RemoveAll(filepath.Join(c.BuildDir, envName)); err != nil {
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to remove build directory")
	}
	return nil
}
