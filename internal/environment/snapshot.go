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

package environment

import "github.com/torrust/tracker-deployer/internal/apperrors"

// Snapshot is what the repository returns from Load: an entity whose state
// is only known at runtime (spec.md §4.1's Environment<Unknown>). A handler
// must narrow it to the specific typed state its precondition requires
// before it can call any transition method — there is deliberately no way
// to call, say, Configuring's Succeed on a Snapshot directly.
type Snapshot struct {
	record
}

func unexpectedState(got State, want ...State) error {
	return apperrors.Newf(apperrors.KindUnexpectedState,
		"environment is in state %q, but this command requires %v", got, want).
		WithHint("run `show` to see the environment's current state and history")
}

// AsCreated narrows s to Created, or fails UnexpectedState.
func (s Snapshot) AsCreated() (Created, error) {
	if s.state != StateCreated {
		return Created{}, unexpectedState(s.state, StateCreated)
	}
	return Created{s.record}, nil
}

// AsProvisioned narrows s to Provisioned, or fails UnexpectedState.
func (s Snapshot) AsProvisioned() (Provisioned, error) {
	if s.state != StateProvisioned {
		return Provisioned{}, unexpectedState(s.state, StateProvisioned)
	}
	return Provisioned{s.record}, nil
}

// AsConfigured narrows s to Configured, or fails UnexpectedState.
func (s Snapshot) AsConfigured() (Configured, error) {
	if s.state != StateConfigured {
		return Configured{}, unexpectedState(s.state, StateConfigured)
	}
	return Configured{s.record}, nil
}

// AsReleased narrows s to Released, or fails UnexpectedState.
func (s Snapshot) AsReleased() (Released, error) {
	if s.state != StateReleased {
		return Released{}, unexpectedState(s.state, StateReleased)
	}
	return Released{s.record}, nil
}

// AsRunning narrows s to Running, or fails UnexpectedState.
func (s Snapshot) AsRunning() (Running, error) {
	if s.state != StateRunning {
		return Running{}, unexpectedState(s.state, StateRunning)
	}
	return Running{s.record}, nil
}

// BeginDestroying narrows s into Destroyed. Unlike the other As* methods it
// has no precondition beyond "not already gone" — spec.md §4.5.9 allows
// Destroy from any non-Destroyed state, including the two Failed states and
// the mid-flight Provisioning/Configuring/Releasing states a crash left
// behind.
func (s Snapshot) BeginDestroying(commandID string) Destroyed {
	return Destroyed{s.record.transition(StateDestroyed, commandID, "")}
}
