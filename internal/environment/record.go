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

import (
	"encoding/json"
	"time"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/names"
)

// record is the state-agnostic representation carried by every typed
// wrapper. It is never exported directly: callers only ever hold one of the
// per-state types (Created, Provisioning, ...) or a Snapshot, both of which
// embed record and expose it through read-only accessors.
type record struct {
	name           names.EnvironmentName
	config         envconfig.Config
	state          State
	runtimeOutputs RuntimeOutputs
	metadata       map[string]string
	createdAt      time.Time
	updatedAt      time.Time
	history        []HistoryEntry
	unknown        map[string]json.RawMessage
}

// Name is the environment's validated, immutable identity.
func (r record) Name() names.EnvironmentName { return r.name }

// Config is the EnvironmentConfig the environment was created from.
func (r record) Config() envconfig.Config { return r.config }

// State is the current lifecycle position.
func (r record) State() State { return r.state }

// RuntimeOutputs returns a copy of the values provisioning populated.
func (r record) RuntimeOutputs() RuntimeOutputs { return r.runtimeOutputs }

// Metadata returns a copy of the free-form string map so callers cannot
// mutate the record's own map through the returned value.
func (r record) Metadata() map[string]string {
	out := make(map[string]string, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// IsRegistered reports metadata["registered"] == "true" (spec.md §4.5.4).
func (r record) IsRegistered() bool { return r.metadata["registered"] == "true" }

// CreatedAt is when the environment was first persisted in Created state.
func (r record) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt is the timestamp of the most recent transition.
func (r record) UpdatedAt() time.Time { return r.updatedAt }

// History returns a copy of the append-only state_history slice.
func (r record) History() []HistoryEntry {
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

// transition returns a copy of r advanced to newState, with updatedAt set to
// now and a new HistoryEntry appended — spec.md §3's "any transition writes
// a new updated_at and appends to state_history atomically with the state
// change", implemented as a pure value transformation so the repository's
// subsequent store() is the only place the change becomes durable.
func (r record) transition(newState State, commandID, note string) record {
	now := time.Now().UTC()

	next := r
	next.state = newState
	next.updatedAt = now
	next.metadata = r.Metadata()

	seq := 1
	if len(r.history) > 0 {
		seq = r.history[len(r.history)-1].Sequence + 1
	}
	next.history = append(r.History(), HistoryEntry{
		Sequence:  seq,
		CommandID: commandID,
		State:     newState,
		Timestamp: now,
		Note:      note,
	})
	return next
}

func (r record) withMetadata(key, value string) record {
	next := r
	next.metadata = r.Metadata()
	next.metadata[key] = value
	return next
}

func (r record) withInstanceIP(ip string) record {
	next := r
	next.runtimeOutputs = RuntimeOutputs{InstanceIP: ip}
	return next
}

// validate re-checks spec.md §3's invariants that survive independently of
// any single transition, used both on construction and on repository load
// so a file that fails this check surfaces as Corrupt rather than being
// silently accepted.
func (r record) validate() error {
	if r.name.IsZero() {
		return apperrors.New(apperrors.KindCorrupt, "environment record has no name")
	}
	if r.state.hasInstanceIP() != r.runtimeOutputs.HasInstanceIP() {
		return apperrors.Newf(apperrors.KindCorrupt,
			"environment %q: runtime_outputs.instance_ip presence does not match state %q", r.name, r.state)
	}
	return nil
}
