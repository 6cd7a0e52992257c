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

package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/providerconfig"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/sshcred"
	"github.com/torrust/tracker-deployer/internal/trackerconfig"
	"github.com/torrust/tracker-deployer/internal/view"
)

// newTestContainer builds a Container rooted at a real temporary directory
// (not an in-memory afero.Fs): Provision/Configure/Release/Run hand their
// working directories to real `tofu`/`ansible-playbook` child processes,
// which can only see the real filesystem.
func newTestContainer(t *testing.T) (*container.Container, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	var stdout, stderr bytes.Buffer
	v := view.New(&stdout, &stderr, view.Debug)
	c := container.New(logr.Discard(), v, afero.NewOsFs(), memLockFactory(),
		filepath.Join(root, "data"), filepath.Join(root, "build"))
	return c, &stdout, &stderr
}

func memLockFactory() repository.LockFactory {
	var mu sync.Mutex
	held := map[string]bool{}
	return func(path string) repository.Locker {
		return &memLocker{mu: &mu, path: path, held: held}
	}
}

type memLocker struct {
	mu   *sync.Mutex
	path string
	held map[string]bool
}

func (l *memLocker) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[l.path] {
		return false, nil
	}
	l.held[l.path] = true
	return true, nil
}

func (l *memLocker) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, l.path)
	return nil
}

func minimalConfig(t *testing.T, name string) envconfig.Config {
	t.Helper()
	return envconfig.Config{
		EnvironmentName: names.MustParse(name),
		SSHCredentials: sshcred.Credentials{
			PrivateKeyPath: writeTempFile(t, "key", "private"),
			PublicKeyPath:  writeTempFile(t, "key.pub", "public"),
			Username:       "torrust",
		},
		Provider: providerconfig.Config{Lxd: &providerconfig.Lxd{ProfileName: "default"}},
		Tracker: trackerconfig.Config{
			Database:     trackerconfig.DatabaseSQLite,
			UDPTrackers:  []trackerconfig.UDPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 6969}}},
			HTTPTrackers: []trackerconfig.HTTPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 7070}}},
			API:          trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 1212},
			HealthCheck:  trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 1313},
		},
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeConfigFile(t *testing.T, cfg envconfig.Config) string {
	t.Helper()
	raw, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}
