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

package container_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/view"
)

func newTestContainer() *container.Container {
	var stdout, stderr bytes.Buffer
	v := view.New(&stdout, &stderr, view.Normal)
	return container.New(logr.Discard(), v, afero.NewMemMapFs(), inMemoryLockFactory(), "/data", "/build")
}

// inMemoryLockFactory gives container tests a Locker that never touches a
// real filesystem, since the container itself is built over afero.MemMapFs.
func inMemoryLockFactory() repository.LockFactory {
	held := map[string]bool{}
	return func(path string) repository.Locker {
		return &memLocker{path: path, held: held}
	}
}

type memLocker struct {
	path string
	held map[string]bool
}

func (l *memLocker) TryLock() (bool, error) {
	if l.held[l.path] {
		return false, nil
	}
	l.held[l.path] = true
	return true, nil
}

func (l *memLocker) Unlock() error {
	delete(l.held, l.path)
	return nil
}

func TestRepositoryIsASingleton(t *testing.T) {
	c := newTestContainer()
	assert.Same(t, c.Repository(), c.Repository())
}

func TestSSHProbeIsASingleton(t *testing.T) {
	c := newTestContainer()
	assert.Same(t, c.SSHProbe(), c.SSHProbe())
}

func TestRepositoryInitIsConcurrencySafe(t *testing.T) {
	c := newTestContainer()
	var wg sync.WaitGroup
	results := make([]interface{}, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Repository()
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestTemplateEngineAndAdaptersAreParameterizedPerEnvironment(t *testing.T) {
	c := newTestContainer()

	engineA := c.TemplateEngine("env-a")
	engineB := c.TemplateEngine("env-b")
	assert.NotSame(t, engineA, engineB)

	tofuAdapter := c.TofuAdapter("env-a", "lxd")
	assert.NotNil(t, tofuAdapter)

	ansibleAdapter := c.AnsibleAdapter("env-a")
	assert.NotNil(t, ansibleAdapter)
}
