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
	"time"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/envconfig"
)

// New builds the initial Created entity for the Create command (spec.md
// §4.5.1). cfg must already have passed cfg.Validate(); name-uniqueness and
// on-disk directory layout are the Create handler's and repository's
// responsibility (spec.md §4.5.1), not the entity's.
func New(commandID string, cfg envconfig.Config) (Created, error) {
	if cfg.EnvironmentName.IsZero() {
		return Created{}, apperrors.New(apperrors.KindInvalidInput, "cannot construct an environment from a zero-value EnvironmentConfig")
	}
	now := time.Now().UTC()
	r := record{
		name:      cfg.EnvironmentName,
		config:    cfg,
		state:     StateCreated,
		metadata:  map[string]string{},
		createdAt: now,
		updatedAt: now,
		history: []HistoryEntry{{
			Sequence:  1,
			CommandID: commandID,
			State:     StateCreated,
			Timestamp: now,
		}},
	}
	return Created{r}, nil
}
