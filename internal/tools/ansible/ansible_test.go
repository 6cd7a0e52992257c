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

package ansible_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/tools/ansible"
)

func newFakeAnsiblePlaybook(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ansible-playbook")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func newInventoryAndExtraVars(t *testing.T) (inventory, extraVars string) {
	t.Helper()
	dir := t.TempDir()
	inventory = filepath.Join(dir, "inventory.ini")
	extraVars = filepath.Join(dir, "extra_vars.json")
	require.NoError(t, os.WriteFile(inventory, []byte("[all]\n10.0.0.5\n"), 0o644))
	require.NoError(t, os.WriteFile(extraVars, []byte("{}"), 0o644))
	return inventory, extraVars
}

func TestPlaybook_Succeeds(t *testing.T) {
	newFakeAnsiblePlaybook(t, `exit 0`)
	inventory, extraVars := newInventoryAndExtraVars(t)
	a := ansible.New(t.TempDir(), t.TempDir(), logr.Discard())
	require.NoError(t, a.Playbook(context.Background(), "install-docker.yml", inventory, extraVars))
}

func TestPlaybook_MissingInventoryIsToolInvocation(t *testing.T) {
	newFakeAnsiblePlaybook(t, `exit 0`)
	a := ansible.New(t.TempDir(), t.TempDir(), logr.Discard())
	_, extraVars := newInventoryAndExtraVars(t)
	err := a.Playbook(context.Background(), "install-docker.yml", "/no/such/inventory.ini", extraVars)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindToolInvocation, apperrors.KindOf(err))
}

func TestPlaybook_UnreachableExitCodeIsClassified(t *testing.T) {
	newFakeAnsiblePlaybook(t, `exit 3`)
	inventory, extraVars := newInventoryAndExtraVars(t)
	a := ansible.New(t.TempDir(), t.TempDir(), logr.Discard())
	err := a.Playbook(context.Background(), "install-docker.yml", inventory, extraVars)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnreachable, apperrors.KindOf(err))
}

func TestPlaybook_FailedTaskIsToolInvocation(t *testing.T) {
	newFakeAnsiblePlaybook(t, `exit 2`)
	inventory, extraVars := newInventoryAndExtraVars(t)
	a := ansible.New(t.TempDir(), t.TempDir(), logr.Discard())
	err := a.Playbook(context.Background(), "install-docker.yml", inventory, extraVars)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindToolInvocation, apperrors.KindOf(err))
}
