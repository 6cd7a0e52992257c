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

// CurrentSchemaVersion is written to every environment.json this build
// produces. Decode rejects a file whose schema_version is greater than this
// (KindIncompatibleVersion): an older binary must not silently accept a
// newer file it cannot fully interpret.
const CurrentSchemaVersion = 1

// wireRecord is the on-disk shape of environment.json (spec.md §6's
// data/<env>/environment.json). EnvironmentName and Config round-trip
// through their own Marshal/Unmarshal implementations; everything else is a
// direct field mirror of record.
type wireRecord struct {
	SchemaVersion  int                   `json:"schema_version"`
	Name           names.EnvironmentName `json:"name"`
	Config         envconfig.Config      `json:"config"`
	State          State                 `json:"state"`
	RuntimeOutputs RuntimeOutputs        `json:"runtime_outputs"`
	Metadata       map[string]string     `json:"metadata"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	History        []HistoryEntry        `json:"state_history"`
}

// Encode serializes s to the environment.json wire format, merging back in
// any keys a newer writer added that this build's wireRecord does not know
// about (s.unknown), satisfying spec.md §4.1's round-trip requirement.
func Encode(s Snapshot) ([]byte, error) {
	r := s.record
	wire := wireRecord{
		SchemaVersion:  CurrentSchemaVersion,
		Name:           r.name,
		Config:         r.config,
		State:          r.state,
		RuntimeOutputs: r.runtimeOutputs,
		Metadata:       r.Metadata(),
		CreatedAt:      r.createdAt,
		UpdatedAt:      r.updatedAt,
		History:        r.History(),
	}

	buf, err := json.Marshal(wire)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to encode environment record")
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(buf, &merged); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to encode environment record")
	}
	for k, v := range r.unknown {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to encode environment record")
	}
	return out, nil
}

// knownWireKeys mirrors wireRecord's json tags, used to separate unknown
// top-level keys from known ones on Decode.
var knownWireKeys = map[string]bool{
	"schema_version": true, "name": true, "config": true, "state": true,
	"runtime_outputs": true, "metadata": true, "created_at": true,
	"updated_at": true, "state_history": true,
}

// Decode parses raw as environment.json into a Snapshot. It re-validates
// spec.md §3's invariants; a file that fails validation is reported as
// KindCorrupt rather than silently accepted or "fixed".
func Decode(raw []byte) (Snapshot, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.KindCorrupt, err, "environment.json is not valid JSON")
	}

	var wire wireRecord
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.KindCorrupt, err, "failed to decode environment record")
	}

	if wire.SchemaVersion > CurrentSchemaVersion {
		return Snapshot{}, apperrors.Newf(apperrors.KindIncompatibleVersion,
			"environment.json schema_version %d is newer than this build supports (%d)",
			wire.SchemaVersion, CurrentSchemaVersion)
	}

	unknown := map[string]json.RawMessage{}
	for k, v := range all {
		if !knownWireKeys[k] {
			unknown[k] = v
		}
	}

	r := record{
		name:           wire.Name,
		config:         wire.Config,
		state:          wire.State,
		runtimeOutputs: wire.RuntimeOutputs,
		metadata:       wire.Metadata,
		createdAt:      wire.CreatedAt,
		updatedAt:      wire.UpdatedAt,
		history:        wire.History,
		unknown:        unknown,
	}
	if r.metadata == nil {
		r.metadata = map[string]string{}
	}
	if err := r.validate(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{r}, nil
}
