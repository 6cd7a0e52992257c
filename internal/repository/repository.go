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

// Package repository implements the environment repository (C3, spec.md
// §4.1): durable, crash-safe, single-writer persistence of
// environment.Snapshot by name, filesystem-abstracted via afero.Fs so
// tests run against an in-memory tree instead of real disk.
package repository

import (
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
)

const entityFileName = "environment.json"
const lockFileName = ".lock"
const logsDirName = "logs"

// Repository is the single entry point for reading and writing environment
// state under one data root.
type Repository struct {
	fs          afero.Fs
	dataDir     string
	lockFactory LockFactory
}

// New builds a Repository rooted at dataDir, using fs for all file access
// and factory to build advisory locks. Pass repository.OSLockFactory in
// production; tests typically pass a factory over an in-memory map so
// locking is exercised without real files.
func New(fs afero.Fs, dataDir string, factory LockFactory) *Repository {
	return &Repository{fs: fs, dataDir: dataDir, lockFactory: factory}
}

func (r *Repository) envDir(name names.EnvironmentName) string {
	return filepath.Join(r.dataDir, name.String())
}

func (r *Repository) entityPath(name names.EnvironmentName) string {
	return filepath.Join(r.envDir(name), entityFileName)
}

func (r *Repository) lockPath(name names.EnvironmentName) string {
	return filepath.Join(r.envDir(name), lockFileName)
}

// LogsDir returns the directory adapters should write
// <timestamp>-<tool>-<op>.{stdout,stderr}.log files into (spec.md §6).
func (r *Repository) LogsDir(name names.EnvironmentName) string {
	return filepath.Join(r.envDir(name), logsDirName)
}

// Exists reports whether name's entity directory is present.
func (r *Repository) Exists(name names.EnvironmentName) (bool, error) {
	ok, err := afero.DirExists(r.fs, r.envDir(name))
	if err != nil {
		return false, apperrors.Wrap(apperrors.KindIoError, err, "failed to stat environment directory")
	}
	return ok, nil
}

// EnsureLayout creates the data/<name>/logs/ directory tree, idempotently.
// Called once, by the Create handler, before the initial store.
func (r *Repository) EnsureLayout(name names.EnvironmentName) error {
	if err := r.fs.MkdirAll(r.LogsDir(name), 0o755); err != nil {
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to create environment data directory")
	}
	return nil
}

// Load reads and decodes name's entity. Fails with KindNotFound,
// KindCorrupt or KindIncompatibleVersion (the latter two surfaced verbatim
// from environment.Decode).
func (r *Repository) Load(name names.EnvironmentName) (environment.Snapshot, error) {
	exists, err := r.Exists(name)
	if err != nil {
		return environment.Snapshot{}, err
	}
	if !exists {
		return environment.Snapshot{}, apperrors.Newf(apperrors.KindNotFound, "environment %q does not exist", name)
	}

	raw, err := afero.ReadFile(r.fs, r.entityPath(name))
	if err != nil {
		return environment.Snapshot{}, apperrors.Wrap(apperrors.KindIoError, err, "failed to read environment.json")
	}
	return environment.Decode(raw)
}

// Store serializes snap and writes it atomically: encode to a temp file in
// the entity's own directory, fsync, then rename-over the real path — so a
// reader never observes a partially written file (spec.md §4.1).
func (r *Repository) Store(snap environment.Snapshot) error {
	dir := r.envDir(snap.Name())
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to create environment directory")
	}

	raw, err := environment.Encode(snap)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(r.fs, dir, entityFileName+".tmp-*")
	if err != nil {
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to create temp file for environment.json")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to write environment.json")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = r.fs.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to fsync environment.json")
	}
	if err := tmp.Close(); err != nil {
		_ = r.fs.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to close temp file for environment.json")
	}

	if err := r.fs.Rename(tmpName, r.entityPath(snap.Name())); err != nil {
		_ = r.fs.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to publish environment.json")
	}
	return nil
}

// Delete removes name's entire data directory, including logs and the lock
// file. Deleting an already-absent environment is a no-op (Destroy's
// idempotence, spec.md §8).
func (r *Repository) Delete(name names.EnvironmentName) error {
	if err := r.fs.RemoveAll(r.envDir(name)); err != nil {
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to remove environment directory")
	}
	return nil
}

// AcquireLock acquires the exclusive, non-blocking advisory lock for name.
// Fails with KindBusy if another process holds it.
func (r *Repository) AcquireLock(name names.EnvironmentName) (*Guard, error) {
	if err := r.fs.MkdirAll(r.envDir(name), 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to create environment directory")
	}
	locker := r.lockFactory(r.lockPath(name))
	ok, err := locker.TryLock()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindIoError, err, "failed to acquire lock for environment %q", name)
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.KindBusy, "environment %q is locked by another command", name).
			WithHint("wait for the other command to finish, or check for a stale lock if you are certain none is running")
	}
	return &Guard{locker: locker}, nil
}

// List returns the names of every environment under the data root, sorted
// lexicographically by name.
func (r *Repository) List() ([]names.EnvironmentName, error) {
	exists, err := afero.DirExists(r.fs, r.dataDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to stat data directory")
	}
	if !exists {
		return nil, nil
	}
	entries, err := afero.ReadDir(r.fs, r.dataDir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to list data directory")
	}
	var out []names.EnvironmentName
	for _, e := range entries {
		if !e.IsDir() || e.Name() == logsDirName {
			continue
		}
		n, err := names.Parse(e.Name())
		if err != nil {
			continue
		}
		ok, err := afero.Exists(r.fs, filepath.Join(r.dataDir, e.Name(), entityFileName))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to stat environment entity file")
		}
		if !ok {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
