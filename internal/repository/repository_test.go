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

package repository_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/providerconfig"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/sshcred"
	"github.com/torrust/tracker-deployer/internal/trackerconfig"
)

func minimalConfig(t *testing.T, name string) envconfig.Config {
	t.Helper()
	return envconfig.Config{
		EnvironmentName: names.MustParse(name),
		SSHCredentials: sshcred.Credentials{
			PrivateKeyPath: "/keys/id_rsa",
			PublicKeyPath:  "/keys/id_rsa.pub",
			Username:       "torrust",
		},
		Provider: providerconfig.Config{Lxd: &providerconfig.Lxd{ProfileName: "p"}},
		Tracker: trackerconfig.Config{
			Database:     trackerconfig.DatabaseSQLite,
			UDPTrackers:  []trackerconfig.UDPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 6969}}},
			HTTPTrackers: []trackerconfig.HTTPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 7070}}},
			API:          trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 1212},
			HealthCheck:  trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 1313},
		},
	}
}

func newTestRepository() *repository.Repository {
	fs := afero.NewMemMapFs()
	return repository.New(fs, "/data", newInMemoryLockFactory())
}

func TestStoreLoad_RoundTrip(t *testing.T) {
	repo := newTestRepository()
	name := names.MustParse("dev")

	created, err := environment.New("cmd-1", minimalConfig(t, "dev"))
	require.NoError(t, err)
	require.NoError(t, repo.EnsureLayout(name))
	require.NoError(t, repo.Store(created.Snapshot()))

	loaded, err := repo.Load(name)
	require.NoError(t, err)
	assert.Equal(t, environment.StateCreated, loaded.State())
	assert.Equal(t, "dev", loaded.Name().String())
}

func TestLoad_MissingIsNotFound(t *testing.T) {
	repo := newTestRepository()
	_, err := repo.Load(names.MustParse("ghost"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestAcquireLock_SecondCallerIsBusy(t *testing.T) {
	repo := newTestRepository()
	name := names.MustParse("dev")

	guard, err := repo.AcquireLock(name)
	require.NoError(t, err)

	_, err = repo.AcquireLock(name)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindBusy, apperrors.KindOf(err))

	require.NoError(t, guard.Release())

	guard2, err := repo.AcquireLock(name)
	require.NoError(t, err)
	require.NoError(t, guard2.Release())
}

func TestDelete_IsIdempotent(t *testing.T) {
	repo := newTestRepository()
	name := names.MustParse("dev")

	require.NoError(t, repo.Delete(name))

	created, err := environment.New("cmd-1", minimalConfig(t, "dev"))
	require.NoError(t, err)
	require.NoError(t, repo.Store(created.Snapshot()))
	require.NoError(t, repo.Delete(name))

	exists, err := repo.Exists(name)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestList_ReturnsStoredEnvironments(t *testing.T) {
	repo := newTestRepository()
	for _, n := range []string{"staging", "dev"} {
		e, err := environment.New("cmd-1", minimalConfig(t, n))
		require.NoError(t, err)
		require.NoError(t, repo.Store(e.Snapshot()))
	}

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"dev", "staging"}, []string{list[0].String(), list[1].String()})
}

func TestList_IgnoresTheReservedLogsDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	repo := repository.New(fs, "/data", newInMemoryLockFactory())

	e, err := environment.New("cmd-1", minimalConfig(t, "dev"))
	require.NoError(t, err)
	require.NoError(t, repo.Store(e.Snapshot()))

	// The process log directory ("logs") parses as a valid
	// EnvironmentName but is not one; buildContainer creates it on every
	// invocation regardless of the subcommand run.
	require.NoError(t, fs.MkdirAll("/data/logs", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/data/logs/log.txt", []byte{}, 0o640))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dev", list[0].String())
}

func TestList_IgnoresADirectoryWithoutAnEntityFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	repo := repository.New(fs, "/data", newInMemoryLockFactory())

	e, err := environment.New("cmd-1", minimalConfig(t, "dev"))
	require.NoError(t, err)
	require.NoError(t, repo.Store(e.Snapshot()))

	require.NoError(t, fs.MkdirAll("/data/orphaned", 0o755))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dev", list[0].String())
}
