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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrust/tracker-deployer/internal/commands"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
)

// newFakeTofu writes an executable shell script named "tofu" into a fresh
// directory and prepends it to PATH, mirroring internal/tools/tofu's own
// test fake so Provision exercises a real exec.Command round-trip.
func newFakeTofu(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tofu")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestProvision_AppliesAndRecordsInstanceIP(t *testing.T) {
	newFakeTofu(t, `
case "$1" in
  init) exit 0 ;;
  apply) exit 0 ;;
  output) echo '{"instance_ip":{"value":"10.10.0.7"}}' ;;
esac
`)
	c, _, _ := newTestContainer(t)
	configPath := writeConfigFile(t, minimalConfig(t, "dev"))
	_, err := commands.Create(c, configPath)
	require.NoError(t, err)

	provisioned, err := commands.Provision(context.Background(), c, names.MustParse("dev"))
	require.NoError(t, err)
	assert.Equal(t, environment.StateProvisioned, provisioned.State())
	assert.Equal(t, "10.10.0.7", provisioned.RuntimeOutputs().InstanceIP)

	loaded, err := c.Repository().Load(names.MustParse("dev"))
	require.NoError(t, err)
	assert.Equal(t, environment.StateProvisioned, loaded.State())
}

func TestProvision_ApplyFailureTransitionsToProvisionFailed(t *testing.T) {
	newFakeTofu(t, `
case "$1" in
  init) exit 0 ;;
  apply) echo "quota exceeded" >&2; exit 1 ;;
esac
`)
	c, _, _ := newTestContainer(t)
	configPath := writeConfigFile(t, minimalConfig(t, "dev"))
	_, err := commands.Create(c, configPath)
	require.NoError(t, err)

	_, err = commands.Provision(context.Background(), c, names.MustParse("dev"))
	require.Error(t, err)

	loaded, err := c.Repository().Load(names.MustParse("dev"))
	require.NoError(t, err)
	assert.Equal(t, environment.StateProvisionFailed, loaded.State())
}
