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

import "time"

// HistoryEntry is one append-only state_history record. Sequence and
// CommandID supplement spec.md §3's {state, timestamp, note?} per
// SPEC_FULL.md §3.1: Sequence is monotonic within one environment, CommandID
// correlates every entry a single CLI invocation appended.
type HistoryEntry struct {
	Sequence  int       `json:"sequence"`
	CommandID string    `json:"command_id"`
	State     State     `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// RuntimeOutputs holds values produced by provisioning, populated no later
// than the Provisioned transition. It is a value type copied (never
// aliased) between successive Environment records.
type RuntimeOutputs struct {
	InstanceIP string `json:"instance_ip,omitempty"`
}

// HasInstanceIP reports whether provisioning has populated an address yet.
func (r RuntimeOutputs) HasInstanceIP() bool { return r.InstanceIP != "" }
