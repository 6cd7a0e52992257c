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

// Package sshcred implements SshCredentials: the username, port and key
// paths used to reach a provisioned or registered instance. Key paths are
// validated lazily (at Resolve time, i.e. when a command actually needs
// them) rather than at construction, since a config may be authored on a
// machine other than the one that will run `provision`/`configure`.
package sshcred

import (
	"os"

	"github.com/torrust/tracker-deployer/internal/apperrors"
)

// Credentials is the typed SSH connection profile for an environment.
type Credentials struct {
	PrivateKeyPath string `yaml:"private_key_path" json:"private_key_path"`
	PublicKeyPath  string `yaml:"public_key_path" json:"public_key_path"`
	Username       string `yaml:"username" json:"username"`
	Port           int    `yaml:"port" json:"port"`
}

// DefaultPort is used when a config omits Port.
const DefaultPort = 22

// Resolve validates that the key files exist and are readable on the
// current host, defaulting Port when unset. Call this at the start of any
// command that actually needs to open an SSH connection (Register,
// Configure, Run, Test) — never at config parse time.
func (c Credentials) Resolve() (Credentials, error) {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	for _, path := range []string{c.PrivateKeyPath, c.PublicKeyPath} {
		f, err := os.Open(path)
		if err != nil {
			return c, apperrors.Wrapf(apperrors.KindSSHKeyUnavailable, err,
				"ssh key %q is not readable on this host", path)
		}
		_ = f.Close()
	}
	return c, nil
}
