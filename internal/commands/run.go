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
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/environment"
	"github.com/torrust/tracker-deployer/internal/names"
	"github.com/torrust/tracker-deployer/internal/repository"
	"github.com/torrust/tracker-deployer/internal/sshcred"
	"github.com/torrust/tracker-deployer/internal/templateengine"
	"github.com/torrust/tracker-deployer/internal/trackerconfig"
)

const (
	healthCheckBackoffStart = 2 * time.Second
	healthCheckBackoffCap   = 15 * time.Second
	healthCheckTimeout      = 60 * time.Second
)

// Run implements spec.md §4.5.7: start the compose stack and wait for the
// tracker's health-check endpoint to respond before transitioning to
// Running. Unlike Provision/Configure/Release there is no interim
// persisted state — spec.md §4.5.7 names only the precondition and the
// final transition.
func Run(ctx context.Context, c *container.Container, name names.EnvironmentName) (environment.Running, error) {
	var running environment.Running
	err := lockedRepository(c, name, func(repo *repository.Repository) error {
		return step(c, "run", func() error {
			snap, err := repo.Load(name)
			if err != nil {
				return err
			}
			released, err := snap.AsReleased()
			if err != nil {
				return err
			}

			instanceIP := released.RuntimeOutputs().InstanceIP
			engine := c.TemplateEngine(name.String())
			ansibleCtx := templateengine.NewAnsibleContext(released.Config(), instanceIP)
			if err := engine.Render(templateengine.FamilyAnsible, ansibleCtx); err != nil {
				return err
			}

			adapter := c.AnsibleAdapter(name.String())
			inventory := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "inventory.ini")
			extraVars := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "extra_vars.json")
			playbook := filepath.Join(engine.PathFor(templateengine.FamilyAnsible), "playbooks", "start-stack.yml")
			if err := adapter.Playbook(ctx, playbook, inventory, extraVars); err != nil {
				return err
			}

			creds := released.Config().SSHCredentials
			if err := waitForHealthCheck(ctx, c, creds, instanceIP, released.Config().Tracker.HealthCheck); err != nil {
				return err
			}

			commandID := newCommandID()
			running = released.Succeed(commandID)
			return repo.Store(running.Snapshot())
		})
	})
	return running, err
}

// waitForHealthCheck polls the tracker's health-check listener, backing
// off the same way sshprobe.WaitUntilReachable does, until it responds
// with a successful status or healthCheckTimeout elapses. A direct
// request that fails to connect at all (rather than responding with an
// error status) falls back to probeLocalHTTP, in case the operator's
// machine has no direct route to the instance's published ports.
func waitForHealthCheck(ctx context.Context, c *container.Container, creds sshcred.Credentials, instanceIP string, listener trackerconfig.Listener) error {
	url := fmt.Sprintf("http://%s:%d/health_check", instanceIP, listener.Port)
	deadline := time.Now().Add(healthCheckTimeout)
	backoff := healthCheckBackoffStart
	client := &http.Client{Timeout: backoff}

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err == nil {
			resp, doErr := client.Do(req)
			if doErr == nil {
				resp.Body.Close()
				if resp.StatusCode < 500 {
					return nil
				}
			} else if ok, sshErr := probeLocalHTTP(ctx, c, instanceIP, creds, listener.Port, "/health_check"); sshErr == nil && ok {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return apperrors.Newf(apperrors.KindUnreachable, "tracker health check at %s did not respond within %s", url, healthCheckTimeout)
		}
		select {
		case <-ctx.Done():
			return apperrors.Wrap(apperrors.KindCancelled, ctx.Err(), "health check wait was cancelled")
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > healthCheckBackoffCap {
			backoff = healthCheckBackoffCap
		}
	}
}
