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
	"strconv"
	"strings"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/container"
	"github.com/torrust/tracker-deployer/internal/sshcred"
)

// probeLocalHTTP curls path from the instance's own loopback interface
// over SSH, the fallback path sshprobe.Prober.Run documents for Run and
// Test (SPEC_FULL.md §4.6.1): used when a direct HTTP request from the
// operator's machine can't reach the instance, e.g. only SSH ingress is
// open to it.
func probeLocalHTTP(ctx context.Context, c *container.Container, ip string, creds sshcred.Credentials, port int, path string) (bool, error) {
	command := fmt.Sprintf("curl -fsS -o /dev/null -w '%%{http_code}' http://localhost:%d%s", port, path)
	stdout, _, err := c.SSHProbe().Run(ctx, ip, creds, command, probeTimeout)
	if err != nil {
		return false, err
	}
	code, err := strconv.Atoi(strings.TrimSpace(stdout))
	if err != nil {
		return false, apperrors.Wrapf(apperrors.KindUnreachable, err, "unexpected curl output %q", stdout)
	}
	return code < 500, nil
}
