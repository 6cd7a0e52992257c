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

// Package providerconfig implements the ProviderConfig tagged variant from
// spec.md §3: Lxd or Hetzner. Providers differ only at the
// OpenTofu-template-selection boundary (see internal/templateengine).
package providerconfig

import (
	"github.com/torrust/tracker-deployer/internal/apperrors"
)

// Kind names the provider variant, also used to select the OpenTofu
// module subdirectory under build/<env>/tofu/<kind>/.
type Kind string

const (
	KindLxd     Kind = "lxd"
	KindHetzner Kind = "hetzner"
)

// Config is the tagged union. Exactly one of Lxd/Hetzner is non-nil; use
// ResolvedKind to find out which.
type Config struct {
	Lxd     *Lxd     `yaml:"lxd,omitempty" json:"lxd,omitempty"`
	Hetzner *Hetzner `yaml:"hetzner,omitempty" json:"hetzner,omitempty"`
}

// Lxd configures a local LXD profile-backed instance.
type Lxd struct {
	ProfileName string `yaml:"profile_name" json:"profile_name"`
}

// Hetzner configures a Hetzner Cloud server. APIToken is a secret: never
// logged, and rendered only into owner-only-permission files (see
// templateengine.Engine.Render and SPEC_FULL.md §4.3.1).
type Hetzner struct {
	APIToken   string `yaml:"api_token" json:"api_token"`
	ServerType string `yaml:"server_type" json:"server_type"`
	Location   string `yaml:"location" json:"location"`
	Image      string `yaml:"image" json:"image"`
}

// Validate checks that exactly one variant is populated and its required
// fields are set.
func (c Config) Validate() error {
	switch {
	case c.Lxd != nil && c.Hetzner != nil:
		return apperrors.New(apperrors.KindConfigInvalid, "provider: exactly one of lxd or hetzner must be set, got both")
	case c.Lxd != nil:
		if c.Lxd.ProfileName == "" {
			return apperrors.New(apperrors.KindConfigInvalid, "provider.lxd.profile_name is required")
		}
		return nil
	case c.Hetzner != nil:
		h := c.Hetzner
		if h.APIToken == "" {
			return apperrors.New(apperrors.KindConfigInvalid, "provider.hetzner.api_token is required")
		}
		if h.ServerType == "" {
			return apperrors.New(apperrors.KindConfigInvalid, "provider.hetzner.server_type is required")
		}
		if h.Location == "" {
			return apperrors.New(apperrors.KindConfigInvalid, "provider.hetzner.location is required")
		}
		if h.Image == "" {
			return apperrors.New(apperrors.KindConfigInvalid, "provider.hetzner.image is required")
		}
		return nil
	default:
		return apperrors.New(apperrors.KindConfigInvalid, "provider: exactly one of lxd or hetzner must be set, got neither")
	}
}

// ResolvedKind returns the Kind for whichever variant is populated. Config
// stores no kind field of its own; with no Hetzner variant it reports
// KindLxd.
func (c Config) ResolvedKind() Kind {
	if c.Hetzner != nil {
		return KindHetzner
	}
	return KindLxd
}
