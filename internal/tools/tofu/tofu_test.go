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

package tofu_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/tools/tofu"
)

// newFakeTofu writes an executable shell script named "tofu" into a fresh
// directory and prepends it to PATH, so the adapter exercises a real
// exec.Command/exec.LookPath round-trip without depending on OpenTofu being
// installed on the test machine.
func newFakeTofu(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tofu")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestInit_Succeeds(t *testing.T) {
	newFakeTofu(t, `exit 0`)
	a := tofu.New(t.TempDir(), t.TempDir(), logr.Discard())
	require.NoError(t, a.Init(context.Background()))
}

func TestApply_NonZeroExitIsToolInvocation(t *testing.T) {
	newFakeTofu(t, `echo "boom" >&2; exit 1`)
	a := tofu.New(t.TempDir(), t.TempDir(), logr.Discard())
	err := a.Apply(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindToolInvocation, apperrors.KindOf(err))
}

func TestInstanceIP_ParsesOutputJSON(t *testing.T) {
	newFakeTofu(t, `echo '{"instance_ip":{"value":"10.0.0.5"},"other":{"value":1}}'`)
	a := tofu.New(t.TempDir(), t.TempDir(), logr.Discard())
	ip, err := a.InstanceIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)
}

func TestInstanceIP_MissingOutputIsToolInvocation(t *testing.T) {
	newFakeTofu(t, `echo '{"other":{"value":1}}'`)
	a := tofu.New(t.TempDir(), t.TempDir(), logr.Discard())
	_, err := a.InstanceIP(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindToolInvocation, apperrors.KindOf(err))
}

func TestDestroy_Succeeds(t *testing.T) {
	newFakeTofu(t, `exit 0`)
	a := tofu.New(t.TempDir(), t.TempDir(), logr.Discard())
	require.NoError(t, a.Destroy(context.Background()))
}
