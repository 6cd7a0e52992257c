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
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/sshcred"
)

// bep15ProtocolID is the fixed magic constant (BEP 15) opening a UDP
// tracker connect handshake.
const bep15ProtocolID uint64 = 0x41727101980

const probeTimeout = 5 * time.Second

// EndpointResult is one probed endpoint's outcome.
type EndpointResult struct {
	Name string
	OK   bool
	Err  error
}

// Report is Test's read-only result: one entry per probed listener
// (spec.md §4.5.8), in no particular order of success.
type Report struct {
	Endpoints []EndpointResult
}

// AllOK reports whether every probed endpoint responded.
func (r Report) AllOK() bool {
	for _, e := range r.Endpoints {
		if !e.OK {
			return false
		}
	}
	return true
}

// Test implements spec.md §4.5.8: probe every configured tracker listener
// (UDP announce, HTTP announce, API, health check) without changing state.
func Test(ctx context.Context, c *container.Container, name names.EnvironmentName) (Report, error) {
	repo := c.Repository()
	var report Report
	err := step(c, "test", func() error {
		snap, err := repo.Load(name)
		if err != nil {
			return err
		}
		running, err := snap.AsRunning()
		if err != nil {
			return err
		}

		instanceIP := running.RuntimeOutputs().InstanceIP
		creds := running.Config().SSHCredentials
		tracker := running.Config().Tracker

		for i, u := range tracker.UDPTrackers {
			report.Endpoints = append(report.Endpoints, probeUDPAnnounce(ctx, fmt.Sprintf("udp_trackers[%d]", i), instanceIP, u.Port))
		}
		for i, h := range tracker.HTTPTrackers {
			report.Endpoints = append(report.Endpoints, probeHTTP(ctx, c, creds, fmt.Sprintf("http_trackers[%d]", i), instanceIP, h.Port, "/announce"))
		}
		report.Endpoints = append(report.Endpoints, probeHTTP(ctx, c, creds, "api", instanceIP, tracker.API.Port, "/"))
		report.Endpoints = append(report.Endpoints, probeHTTP(ctx, c, creds, "health_check", instanceIP, tracker.HealthCheck.Port, "/health_check"))
		return nil
	})
	return report, err
}

// probeHTTP tries a direct request first; if the operator's machine can't
// reach the instance directly (e.g. only SSH ingress is open to it), it
// falls back to curling the same path from the instance's own loopback
// interface over SSH (probeLocalHTTP, sshprobe.Prober.Run's documented use).
func probeHTTP(ctx context.Context, c *container.Container, creds sshcred.Credentials, label, ip string, port int, path string) EndpointResult {
	url := fmt.Sprintf("http://%s:%d%s", ip, port, path)
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err == nil {
		resp, doErr := http.DefaultClient.Do(req)
		if doErr == nil {
			defer resp.Body.Close()
			return EndpointResult{Name: label, OK: resp.StatusCode < 500}
		}
		err = doErr
	}

	ok, sshErr := probeLocalHTTP(ctx, c, ip, creds, port, path)
	if sshErr != nil {
		return EndpointResult{Name: label, Err: apperrors.Wrapf(apperrors.KindUnreachable, err, "%s did not respond directly or over ssh", label)}
	}
	return EndpointResult{Name: label, OK: ok}
}

// probeUDPAnnounce sends a BEP 15 connect request and checks for a
// well-formed connect response, confirming the announce listener is alive
// without actually announcing a torrent.
func probeUDPAnnounce(ctx context.Context, label, ip string, port int) EndpointResult {
	addr := fmt.Sprintf("%s:%d", ip, port)
	conn, err := (&net.Dialer{Timeout: probeTimeout}).DialContext(ctx, "udp", addr)
	if err != nil {
		return EndpointResult{Name: label, Err: apperrors.Wrapf(apperrors.KindUnreachable, err, "%s dial failed", label)}
	}
	defer conn.Close()

	const transactionID uint32 = 0x1337
	request := make([]byte, 16)
	binary.BigEndian.PutUint64(request[0:8], bep15ProtocolID)
	binary.BigEndian.PutUint32(request[8:12], 0) // action: connect
	binary.BigEndian.PutUint32(request[12:16], transactionID)

	_ = conn.SetDeadline(time.Now().Add(probeTimeout))
	if _, err := conn.Write(request); err != nil {
		return EndpointResult{Name: label, Err: apperrors.Wrapf(apperrors.KindUnreachable, err, "%s write failed", label)}
	}

	response := make([]byte, 16)
	n, err := conn.Read(response)
	if err != nil {
		return EndpointResult{Name: label, Err: apperrors.Wrapf(apperrors.KindUnreachable, err, "%s did not respond", label)}
	}
	if n < 8 || binary.BigEndian.Uint32(response[4:8]) != transactionID {
		return EndpointResult{Name: label, Err: apperrors.Newf(apperrors.KindUnreachable, "%s returned a malformed connect response", label)}
	}
	return EndpointResult{Name: label, OK: true}
}
