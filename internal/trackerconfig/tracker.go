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

// Package trackerconfig implements TrackerConfig (spec.md §3): a nested
// record describing the BitTorrent tracker's database choice, UDP/HTTP
// listeners, API listener, health-check listener, TLS settings, monitoring
// toggles and backup schedule. Its internal structure is an external
// contract per spec.md §1 — this package only enforces the cross-field
// invariants the core is required to check on construction.
package trackerconfig

import (
	"fmt"

	"github.com/torrust/tracker-deployer/internal/apperrors"
)

// Database selects the tracker's storage backend.
type Database string

const (
	DatabaseSQLite Database = "sqlite"
	DatabaseMySQL  Database = "mysql"
)

// Listener is a bind address + port pair shared by every listener kind.
type Listener struct {
	BindAddress string `yaml:"bind_address" json:"bind_address"`
	Port        int    `yaml:"port" json:"port"`
}

// UDPTracker is one UDP announce listener.
type UDPTracker struct {
	Listener `yaml:",inline" json:",inline"`
}

// HTTPTracker is one HTTP announce listener, optionally fronted by a TLS
// terminating proxy.
type HTTPTracker struct {
	Listener    `yaml:",inline" json:",inline"`
	UseTLSProxy bool `yaml:"use_tls_proxy" json:"use_tls_proxy"`
}

// Monitoring toggles Prometheus metrics export and a bundled Grafana.
type Monitoring struct {
	Prometheus Toggle `yaml:"prometheus" json:"prometheus"`
	Grafana    Toggle `yaml:"grafana" json:"grafana"`
}

// Toggle is a named on/off switch.
type Toggle struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Backup describes the scheduled database backup, if any.
type Backup struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Cron    string `yaml:"cron,omitempty" json:"cron,omitempty"`
}

// HTTPS carries the fields required when any listener terminates TLS.
type HTTPS struct {
	AdminEmail string `yaml:"admin_email" json:"admin_email"`
}

// Config is the full tracker configuration DTO.
type Config struct {
	Database     Database      `yaml:"database" json:"database"`
	Domain       string        `yaml:"domain,omitempty" json:"domain,omitempty"`
	UDPTrackers  []UDPTracker  `yaml:"udp_trackers" json:"udp_trackers"`
	HTTPTrackers []HTTPTracker `yaml:"http_trackers" json:"http_trackers"`
	API          Listener      `yaml:"api" json:"api"`
	HealthCheck  Listener      `yaml:"health_check" json:"health_check"`
	Monitoring   Monitoring    `yaml:"monitoring" json:"monitoring"`
	Backup       Backup        `yaml:"backup" json:"backup"`
	HTTPS        *HTTPS        `yaml:"https,omitempty" json:"https,omitempty"`
}

// Validate checks the cross-field invariants from spec.md §3:
//   - use_tls_proxy=true ⇒ domain is set
//   - any TLS service ⇒ https.admin_email is set
//   - grafana enabled ⇒ prometheus enabled
//   - all listener ports pairwise unique
func (c Config) Validate() error {
	anyTLS := false
	for i, h := range c.HTTPTrackers {
		if h.UseTLSProxy {
			anyTLS = true
			if c.Domain == "" {
				return apperrors.Newf(apperrors.KindConfigInvalid,
					"tracker.http_trackers[%d].use_tls_proxy is true but tracker.domain is not set", i)
			}
		}
	}

	if anyTLS {
		if c.HTTPS == nil || c.HTTPS.AdminEmail == "" {
			return apperrors.New(apperrors.KindConfigInvalid,
				"tracker uses TLS on at least one service but tracker.https.admin_email is not set")
		}
	}

	if c.Monitoring.Grafana.Enabled && !c.Monitoring.Prometheus.Enabled {
		return apperrors.New(apperrors.KindConfigInvalid,
			"tracker.monitoring.grafana.enabled requires tracker.monitoring.prometheus.enabled")
	}

	if err := c.validateUniquePorts(); err != nil {
		return err
	}

	return nil
}

func (c Config) validateUniquePorts() error {
	seen := make(map[int]string)
	check := func(label string, port int) error {
		if other, ok := seen[port]; ok {
			return apperrors.Newf(apperrors.KindConfigInvalid,
				"port %d is used by both %s and %s; listener ports must be pairwise unique", port, other, label)
		}
		seen[port] = label
		return nil
	}

	for i, u := range c.UDPTrackers {
		if err := check(fmt.Sprintf("udp_trackers[%d]", i), u.Port); err != nil {
			return err
		}
	}
	for i, h := range c.HTTPTrackers {
		if err := check(fmt.Sprintf("http_trackers[%d]", i), h.Port); err != nil {
			return err
		}
	}
	if err := check("api", c.API.Port); err != nil {
		return err
	}
	if err := check("health_check", c.HealthCheck.Port); err != nil {
		return err
	}
	return nil
}
