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

// Package envconfig implements EnvironmentConfig (spec.md §3), the input
// DTO to the Create command, and its strict YAML decoding (unknown
// top-level keys rejected, per spec.md §6).
package envconfig

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/providerconfig"
	"github.com/torrust/tracker-deployer/internal/sshcred"
	"github.com/torrust/tracker-deployer/internal/trackerconfig"
)

// PrometheusOptions carries the operational detail for the bundled
// Prometheus instance rendered at Release (spec.md §4.5.6), layered on top
// of the tracker's own scrape-enable toggle (trackerconfig.Monitoring).
type PrometheusOptions struct {
	ScrapeInterval string `yaml:"scrape_interval,omitempty" json:"scrape_interval,omitempty"`
	RetentionDays  int    `yaml:"retention_days,omitempty" json:"retention_days,omitempty"`
}

// GrafanaOptions carries the operational detail for the bundled Grafana.
type GrafanaOptions struct {
	AdminPassword string `yaml:"admin_password,omitempty" json:"admin_password,omitempty"`
}

// BackupOptions carries the operational detail for the scheduled backup
// job rendered at Release, layered on top of trackerconfig.Backup.
type BackupOptions struct {
	Destination   string `yaml:"destination,omitempty" json:"destination,omitempty"`
	RetentionDays int    `yaml:"retention_days,omitempty" json:"retention_days,omitempty"`
}

// HTTPSOptions carries the operational detail for the TLS-terminating
// reverse proxy rendered at Release.
type HTTPSOptions struct {
	CertResolver string `yaml:"cert_resolver,omitempty" json:"cert_resolver,omitempty"`
}

// Config is EnvironmentConfig: the file Create reads.
type Config struct {
	EnvironmentName names.EnvironmentName `yaml:"environment_name" json:"environment_name"`
	Description     string                `yaml:"description,omitempty" json:"description,omitempty"`
	SSHCredentials  sshcred.Credentials   `yaml:"ssh_credentials" json:"ssh_credentials"`
	Provider        providerconfig.Config `yaml:"provider" json:"provider"`
	Tracker         trackerconfig.Config  `yaml:"tracker" json:"tracker"`
	Prometheus      *PrometheusOptions    `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
	Grafana         *GrafanaOptions       `yaml:"grafana,omitempty" json:"grafana,omitempty"`
	Backup          *BackupOptions        `yaml:"backup,omitempty" json:"backup,omitempty"`
	HTTPS           *HTTPSOptions         `yaml:"https,omitempty" json:"https,omitempty"`
}

// Parse strictly decodes r as YAML into a Config. Unknown top-level (and
// nested) keys are rejected via yaml.v3's KnownFields, catching typos per
// spec.md §6.
func Parse(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, apperrors.Wrap(apperrors.KindConfigInvalid, err, "failed to parse environment config")
	}
	return cfg, nil
}

// ParseBytes is a convenience wrapper around Parse.
func ParseBytes(b []byte) (Config, error) {
	return Parse(bytes.NewReader(b))
}

// Validate runs every structural and cross-field rule spec.md §3 requires,
// independent of whether the named environment already exists (that check
// belongs to the Create handler, not here — see spec.md §4.5.2).
func (c Config) Validate() error {
	if c.EnvironmentName.IsZero() {
		return apperrors.New(apperrors.KindConfigInvalid, "environment_name is required")
	}
	if c.SSHCredentials.Username == "" {
		return apperrors.New(apperrors.KindConfigInvalid, "ssh_credentials.username is required")
	}
	if c.SSHCredentials.PrivateKeyPath == "" || c.SSHCredentials.PublicKeyPath == "" {
		return apperrors.New(apperrors.KindConfigInvalid, "ssh_credentials.private_key_path and public_key_path are required")
	}
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	if err := c.Tracker.Validate(); err != nil {
		return err
	}
	return nil
}

// Starter builds a sensible starting-point Config for provider, the DTO
// `create template` (spec.md §6) serializes to YAML. Its name, key paths
// and (for Hetzner) API token are placeholders for the operator to edit
// before running `create environment`; Validate only checks that fields are
// set, so Create accepts the placeholders as they are.
func Starter(provider providerconfig.Kind) Config {
	cfg := Config{
		EnvironmentName: names.MustParse("my-environment"),
		Description:     "edit me",
		SSHCredentials: sshcred.Credentials{
			PrivateKeyPath: "/home/user/.ssh/id_rsa",
			PublicKeyPath:  "/home/user/.ssh/id_rsa.pub",
			Username:       "torrust",
			Port:           sshcred.DefaultPort,
		},
		Tracker: trackerconfig.Config{
			Database:     trackerconfig.DatabaseSQLite,
			UDPTrackers:  []trackerconfig.UDPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 6969}}},
			HTTPTrackers: []trackerconfig.HTTPTracker{{Listener: trackerconfig.Listener{BindAddress: "0.0.0.0", Port: 7070}}},
			API:          trackerconfig.Listener{BindAddress: "127.0.0.1", Port: 1212},
			HealthCheck:  trackerconfig.Listener{BindAddress: "127.0.0.1", Port: 1313},
		},
	}

	switch provider {
	case providerconfig.KindHetzner:
		cfg.Provider = providerconfig.Config{
			Hetzner: &providerconfig.Hetzner{
				APIToken:   "edit me",
				ServerType: "cx22",
				Location:   "nbg1",
				Image:      "ubuntu-24.04",
			},
		}
	default:
		cfg.Provider = providerconfig.Config{
			Lxd: &providerconfig.Lxd{ProfileName: "torrust-profile-dev"},
		}
	}

	return cfg
}
