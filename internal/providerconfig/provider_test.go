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

package providerconfig

import "testing"

func TestValidate_ExactlyOneVariant(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error when neither variant set")
	}
	if err := (Config{Lxd: &Lxd{ProfileName: "p"}, Hetzner: &Hetzner{APIToken: "t", ServerType: "s", Location: "l", Image: "i"}}).Validate(); err == nil {
		t.Error("expected error when both variants set")
	}
}

func TestValidate_Lxd(t *testing.T) {
	if err := (Config{Lxd: &Lxd{}}).Validate(); err == nil {
		t.Error("expected error for empty profile_name")
	}
	if err := (Config{Lxd: &Lxd{ProfileName: "torrust-profile-dev"}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Hetzner(t *testing.T) {
	full := Hetzner{APIToken: "tok", ServerType: "cx22", Location: "nbg1", Image: "ubuntu-22.04"}
	if err := (Config{Hetzner: &full}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	missing := full
	missing.APIToken = ""
	if err := (Config{Hetzner: &missing}).Validate(); err == nil {
		t.Error("expected error for missing api_token")
	}
}

func TestResolvedKind(t *testing.T) {
	if (Config{Lxd: &Lxd{}}).ResolvedKind() != KindLxd {
		t.Error("expected lxd kind")
	}
	if (Config{Hetzner: &Hetzner{}}).ResolvedKind() != KindHetzner {
		t.Error("expected hetzner kind")
	}
}
