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

package repository

import "github.com/gofrs/flock"

// Locker is the advisory-lock contract spec.md §4.1 requires of
// acquire_lock: a non-blocking, exclusive, cross-process lock bound to a
// path. It is an interface (rather than *flock.Flock directly) so tests can
// exercise Repository against an in-memory afero.Fs without touching the
// real filesystem, while production code locks actual files.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// LockFactory builds a Locker bound to path. Repository calls it once per
// AcquireLock.
type LockFactory func(path string) Locker

// OSLockFactory is the default LockFactory: a real advisory file lock via
// github.com/gofrs/flock, matching spec.md §4.1's "e.g., flock on
// data/<name>/.lock".
func OSLockFactory(path string) Locker {
	return &flockLocker{f: flock.New(path)}
}

type flockLocker struct{ f *flock.Flock }

func (l *flockLocker) TryLock() (bool, error) { return l.f.TryLock() }
func (l *flockLocker) Unlock() error          { return l.f.Unlock() }
