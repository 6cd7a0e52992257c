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

// Each type below wraps record and is reachable only through the
// constructor or transition method that is legal to produce it — a handler
// holding a Provisioned value has no way to call Configuring's Succeed,
// because Provisioned has no such method. This is spec.md §9's "typed state
// machine" discipline: the type of the value in hand is the proof of the
// precondition.

// Created is the state produced by Create (spec.md §4.5.1): no
// infrastructure has been touched yet.
type Created struct{ record }

// Provisioning is produced by both Provision and Register (spec.md §4.5.3,
// §4.5.4): the interim state persisted immediately so a crash mid-apply
// leaves a diagnostic trail instead of a silent gap.
type Provisioning struct{ record }

// Provisioned is produced once runtime_outputs.instance_ip is known and
// reachable (or, for Register, known and probed best-effort).
type Provisioned struct{ record }

// ProvisionFailed is terminal-until-Destroyed (spec.md §3).
type ProvisionFailed struct{ record }

// Configuring is the interim state persisted before Ansible playbooks run.
type Configuring struct{ record }

// Configured is produced once every configuration playbook has succeeded.
type Configured struct{ record }

// ConfigureFailed is terminal-until-Destroyed (spec.md §3).
type ConfigureFailed struct{ record }

// Releasing is the interim state persisted before release artifacts are
// copied to the instance. It has no declared Failed successor (spec.md §3
// lists none): a failure leaves the environment persisted in Releasing,
// which — like the two declared Failed states — only Destroy accepts as a
// precondition from that point on. See DESIGN.md for this Open Question
// resolution.
type Releasing struct{ record }

// Released is produced once release artifacts are in place and images are
// pulled.
type Released struct{ record }

// Running is produced once the stack is started and health checks pass.
type Running struct{ record }

// Destroyed is the terminal state; the repository deletes the entity's
// on-disk representation immediately after a handler reaches it, so this
// value is never itself persisted or reloaded.
type Destroyed struct{ record }

// Snapshot erases c's static type so the repository can serialize it. Every
// state type below has the same method, for the same reason.
func (c Created) Snapshot() Snapshot { return Snapshot{c.record} }

// Snapshot erases p's static type so the repository can serialize it.
func (p Provisioning) Snapshot() Snapshot { return Snapshot{p.record} }

// Snapshot erases p's static type so the repository can serialize it.
func (p Provisioned) Snapshot() Snapshot { return Snapshot{p.record} }

// Snapshot erases p's static type so the repository can serialize it.
func (p ProvisionFailed) Snapshot() Snapshot { return Snapshot{p.record} }

// Snapshot erases c's static type so the repository can serialize it.
func (c Configuring) Snapshot() Snapshot { return Snapshot{c.record} }

// Snapshot erases c's static type so the repository can serialize it.
func (c Configured) Snapshot() Snapshot { return Snapshot{c.record} }

// Snapshot erases c's static type so the repository can serialize it.
func (c ConfigureFailed) Snapshot() Snapshot { return Snapshot{c.record} }

// Snapshot erases r's static type so the repository can serialize it.
func (r Releasing) Snapshot() Snapshot { return Snapshot{r.record} }

// Snapshot erases r's static type so the repository can serialize it.
func (r Released) Snapshot() Snapshot { return Snapshot{r.record} }

// Snapshot erases r's static type so the repository can serialize it.
func (r Running) Snapshot() Snapshot { return Snapshot{r.record} }

// Snapshot erases d's static type. Destroyed is never actually persisted —
// the repository deletes the directory instead — but the method is kept
// for symmetry and for tests that want to inspect the final history entry.
func (d Destroyed) Snapshot() Snapshot { return Snapshot{d.record} }

// BeginProvisioning transitions Created -> Provisioning for the Provision
// command (spec.md §4.5.3 step 1).
func (c Created) BeginProvisioning(commandID string) Provisioning {
	return Provisioning{c.record.transition(StateProvisioning, commandID, "")}
}

// BeginRegistering transitions Created -> Provisioning for the Register
// command (spec.md §4.5.4 step 1) and immediately populates the
// caller-supplied instance IP, since Register never invokes OpenTofu to
// discover one.
func (c Created) BeginRegistering(commandID, instanceIP string) Provisioning {
	next := c.record.transition(StateProvisioning, commandID, "")
	return Provisioning{next.withInstanceIP(instanceIP)}
}

// WithInstanceIP records the address OpenTofu's apply() output produced
// (spec.md §4.5.3 step 4), without changing state.
func (p Provisioning) WithInstanceIP(ip string) Provisioning {
	return Provisioning{p.record.withInstanceIP(ip)}
}

// MarkRegistered sets metadata registered=true (spec.md §4.5.4 step 4),
// without changing state.
func (p Provisioning) MarkRegistered() Provisioning {
	return Provisioning{p.record.withMetadata("registered", "true")}
}

// Succeed transitions Provisioning -> Provisioned.
func (p Provisioning) Succeed(commandID string) Provisioned {
	return Provisioned{p.record.transition(StateProvisioned, commandID, "")}
}

// SucceedWithWarning transitions Provisioning -> Provisioned but records
// note in state_history — used by Register when the SSH probe fails
// (spec.md §4.5.4 step 3: "still transition to Provisioned... record a
// warning in history").
func (p Provisioning) SucceedWithWarning(commandID, note string) Provisioned {
	return Provisioned{p.record.transition(StateProvisioned, commandID, note)}
}

// Fail transitions Provisioning -> ProvisionFailed, recording reason.
func (p Provisioning) Fail(commandID, reason string) ProvisionFailed {
	return ProvisionFailed{p.record.transition(StateProvisionFailed, commandID, reason)}
}

// BeginConfiguring transitions Provisioned -> Configuring (spec.md §4.5.5
// step 1).
func (p Provisioned) BeginConfiguring(commandID string) Configuring {
	return Configuring{p.record.transition(StateConfiguring, commandID, "")}
}

// Succeed transitions Configuring -> Configured.
func (c Configuring) Succeed(commandID string) Configured {
	return Configured{c.record.transition(StateConfigured, commandID, "")}
}

// Fail transitions Configuring -> ConfigureFailed, recording reason. It
// clears runtime_outputs.instance_ip, which ConfigureFailed does not carry
// (see State.hasInstanceIP), so the persisted record passes Decode.
func (c Configuring) Fail(commandID, reason string) ConfigureFailed {
	return ConfigureFailed{c.record.withInstanceIP("").transition(StateConfigureFailed, commandID, reason)}
}

// BeginReleasing transitions Configured -> Releasing (spec.md §4.5.6).
func (c Configured) BeginReleasing(commandID string) Releasing {
	return Releasing{c.record.transition(StateReleasing, commandID, "")}
}

// Succeed transitions Releasing -> Released.
func (r Releasing) Succeed(commandID string) Released {
	return Released{r.record.transition(StateReleased, commandID, "")}
}

// Succeed transitions Released -> Running (spec.md §4.5.7). Named the same
// as Releasing's own Succeed — each is unambiguous on its own receiver type,
// the same way io.Writer's Write is unambiguous per concrete type.
func (r Released) Succeed(commandID string) Running {
	return Running{r.record.transition(StateRunning, commandID, "")}
}
