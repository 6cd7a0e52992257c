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
	"sync"

	"github.com/torrust/tracker-deployer/internal/repository"
)

// newInMemoryLockFactory simulates cross-process advisory locking with a
// process-local mutex map, so repository tests exercise AcquireLock's Busy
// path without touching real files (flock needs a real inode to lock).
func newInMemoryLockFactory() repository.LockFactory {
	held := &sync.Map{}
	return func(path string) repository.Locker {
		return fakeLocker{path: path, held: held}
	}
}

type fakeLocker struct {
	path string
	held *sync.Map
}

func (l fakeLocker) TryLock() (bool, error) {
	_, alreadyHeld := l.held.LoadOrStore(l.path, true)
	return !alreadyHeld, nil
}

func (l fakeLocker) Unlock() error {
	l.held.Delete(l.path)
	return nil
}
