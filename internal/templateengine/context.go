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

package templateengine

import (
	"github.com/torrust/tracker-deployer/internal/envconfig"
	"github.com/torrust/tracker-deployer/internal/trackerconfig"
)

// TofuContext is the template data for one provider's OpenTofu module.
type TofuContext struct {
	EnvironmentName string
	Lxd             *envconfig_Lxd
	Hetzner         *envconfig_Hetzner
}

// envconfig_Lxd and envconfig_Hetzner mirror providerconfig's variant
// structs. They are redeclared here (rather than imported directly) only
// for template readability (`.Lxd.ProfileName` instead of a package-
// qualified type in the template data); NewTofuContext populates them by copying
// fields out of envconfig.Config.Provider.
type envconfig_Lxd struct {
	ProfileName string
}

type envconfig_Hetzner struct {
	APIToken   string
	ServerType string
	Location   string
	Image      string
}

// AnsibleContext is the template data for the rendered inventory and
// playbooks.
type AnsibleContext struct {
	EnvironmentName string
	InstanceIP      string
	SSHUsername     string
	SSHPort         int
	SSHPrivateKey   string
}

// ReleaseContext is the template data for the docker-compose stack and its
// companion configuration files rendered at Release (spec.md §4.5.6).
type ReleaseContext struct {
	EnvironmentName string
	Tracker         trackerconfig.Config
	Prometheus      *envconfig.PrometheusOptions
	Grafana         *envconfig.GrafanaOptions
	Backup          *envconfig.BackupOptions
	HTTPS           *envconfig.HTTPSOptions
}

// NewTofuContext builds a TofuContext from the environment's config.
func NewTofuContext(cfg envconfig.Config) TofuContext {
	ctx := TofuContext{EnvironmentName: cfg.EnvironmentName.String()}
	if l := cfg.Provider.Lxd; l != nil {
		ctx.Lxd = &envconfig_Lxd{ProfileName: l.ProfileName}
	}
	if h := cfg.Provider.Hetzner; h != nil {
		ctx.Hetzner = &envconfig_Hetzner{
			APIToken: h.APIToken, ServerType: h.ServerType, Location: h.Location, Image: h.Image,
		}
	}
	return ctx
}

// NewAnsibleContext builds an AnsibleContext for a reachable instance.
func NewAnsibleContext(cfg envconfig.Config, instanceIP string) AnsibleContext {
	return AnsibleContext{
		EnvironmentName: cfg.EnvironmentName.String(),
		InstanceIP:      instanceIP,
		SSHUsername:     cfg.SSHCredentials.Username,
		SSHPort:         cfg.SSHCredentials.Port,
		SSHPrivateKey:   cfg.SSHCredentials.PrivateKeyPath,
	}
}

// NewReleaseContext builds a ReleaseContext from the environment's config.
func NewReleaseContext(cfg envconfig.Config) ReleaseContext {
	return ReleaseContext{
		EnvironmentName: cfg.EnvironmentName.String(),
		Tracker:         cfg.Tracker,
		Prometheus:      cfg.Prometheus,
		Grafana:         cfg.Grafana,
		Backup:          cfg.Backup,
		HTTPS:           cfg.HTTPS,
	}
}
