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

package sshcred

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torrust/tracker-deployer/internal/apperrors"
)

func TestResolve_MissingKeyIsSSHKeyUnavailable(t *testing.T) {
	c := Credentials{PrivateKeyPath: "/no/such/path", PublicKeyPath: "/no/such/path.pub", Username: "u"}
	_, err := c.Resolve()
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if apperrors.KindOf(err) != apperrors.KindSSHKeyUnavailable {
		t.Errorf("expected KindSSHKeyUnavailable, got %v", apperrors.KindOf(err))
	}
}

func TestResolve_DefaultsPortAndReadsExistingKeys(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "id_rsa")
	pub := filepath.Join(dir, "id_rsa.pub")
	if err := os.WriteFile(priv, []byte("priv"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pub, []byte("pub"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Credentials{PrivateKeyPath: priv, PublicKeyPath: pub, Username: "u"}
	resolved, err := c.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Port != DefaultPort {
		t.Errorf("expected default port %d, got %d", DefaultPort, resolved.Port)
	}
}
