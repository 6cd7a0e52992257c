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

import "github.com/torrust/tracker-deployer/internal/apperrors"

// Guard represents one held advisory lock. Handlers acquire it at the start
// of a command and `defer guard.Release()` immediately, so the lock is
// released on every return path — including a panic — per spec.md §4.1
// ("Held for the duration of a command; released on scope exit including
// panic/abnormal termination").
type Guard struct {
	locker Locker
}

// Release unlocks the guarded path. Safe to call once; a second call
// returns whatever the underlying locker reports for double-unlock, which
// callers are expected to ignore (Release is normally deferred).
func (g *Guard) Release() error {
	if g == nil || g.locker == nil {
		return nil
	}
	if err := g.locker.Unlock(); err != nil {
		return apperrors.Wrap(apperrors.KindIoError, err, "failed to release environment lock")
	}
	return nil
}
