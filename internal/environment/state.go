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

// Package environment implements Environment<S> (spec.md §3): the central
// entity and its eleven-state typed lifecycle. Illegal transitions are
// unrepresentable because each state is its own Go type and a transition
// method only exists on the type it is legal from; a Snapshot loaded from
// the repository must be narrowed to a specific state type (AsCreated,
// AsProvisioned, ...) before a handler can act on it.
package environment

// State identifies one of the eleven positions in the lifecycle DAG from
// spec.md §3.
type State string

const (
	StateCreated         State = "Created"
	StateProvisioning    State = "Provisioning"
	StateProvisioned     State = "Provisioned"
	StateProvisionFailed State = "ProvisionFailed"
	StateConfiguring     State = "Configuring"
	StateConfigured      State = "Configured"
	StateConfigureFailed State = "ConfigureFailed"
	StateReleasing       State = "Releasing"
	StateReleased        State = "Released"
	StateRunning         State = "Running"
	StateDestroyed       State = "Destroyed"
)

// hasInstanceIP reports whether a state is required to carry
// runtime_outputs.instance_ip per spec.md §3's invariant. ProvisionFailed
// and ConfigureFailed are deliberately excluded: the invariant is stated
// only for the successful forward path.
func (s State) hasInstanceIP() bool {
	switch s {
	case StateProvisioned, StateConfiguring, StateConfigured, StateReleasing, StateReleased, StateRunning:
		return true
	default:
		return false
	}
}
