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

package commands

import (
	"os"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/envconfig"
)

// Validate implements spec.md §4.5.2: parse and validate configPath against
// every structural and cross-field rule in §3, without checking name
// uniqueness, SSH key readability, or provider reachability, and without
// any side effect.
func Validate(configPath string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindIoError, err, "failed to open config file %s", configPath)
	}
	defer f.Close()

	cfg, err := envconfig.Parse(f)
	if err != nil {
		return err
	}
	return cfg.Validate()
}
