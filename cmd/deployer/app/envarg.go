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

package app

import "github.com/torrust/tracker-deployer/internal/names"

// parseEnvArg parses a subcommand's sole positional argument as an
// environment name, shared by every verb after create.
func parseEnvArg(args []string) (names.EnvironmentName, error) {
	return names.Parse(args[0])
}
