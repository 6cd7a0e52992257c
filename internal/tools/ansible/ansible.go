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

// Package ansible is the Ansible adapter (C5, spec.md §4.3): runs
// playbooks against a rendered inventory, classifying non-zero exits into
// PlaybookFailed, InventoryMissing and Unreachable per spec.md §4.3.
package ansible

import (
	"context"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/toolexec"
)

// ansible-playbook's own exit code contract (man ansible-playbook).
const (
	exitPlaybookFailed = 2
	exitUnreachable    = 3
	exitParserError    = 4
)

// Adapter is bound to one environment's rendered Ansible tree
// (build/<env>/ansible/).
type Adapter struct {
	workingDir string
	logDir     string
	logger     logr.Logger
}

// New binds an Adapter to workingDir.
func New(workingDir, logDir string, logger logr.Logger) *Adapter {
	return &Adapter{workingDir: workingDir, logDir: logDir, logger: logger}
}

// Playbook runs a single playbook against inventory, with extra variables
// supplied from a JSON file (spec.md §6: "--extra-vars @<file>").
//
// Failure modes: InventoryMissing (the inventory file does not exist),
// Unreachable (no host in inventory responded), PlaybookFailed (one or
// more tasks failed on a reachable host).
func (a *Adapter) Playbook(ctx context.Context, playbook, inventory, extraVarsFile string) error {
	if _, err := os.Stat(inventory); err != nil {
		return apperrors.Wrapf(apperrors.KindToolInvocation, err, "ansible inventory %s is missing", inventory).
			WithHint("render Ansible artifacts (C4) before running a playbook")
	}

	res, err := toolexec.Run(ctx, toolexec.Invocation{
		Tool: "ansible-playbook", Operation: playbook,
		Args:       []string{"-i", inventory, playbook, "--extra-vars", "@" + extraVarsFile},
		WorkingDir: a.workingDir, LogDir: a.logDir, Logger: a.logger, Now: time.Now(),
	})
	if err == nil {
		return nil
	}

	switch res.ExitCode {
	case exitUnreachable:
		return apperrors.Newf(apperrors.KindUnreachable, "ansible playbook %s: no host in %s was reachable", playbook, inventory)
	case exitPlaybookFailed, exitParserError:
		return apperrors.Newf(apperrors.KindToolInvocation, "ansible playbook %s failed (exit %d)", playbook, res.ExitCode).
			WithHint("see the per-invocation stdout/stderr log for the failed task and host")
	default:
		return apperrors.Wrapf(apperrors.KindToolInvocation, err, "ansible playbook %s failed", playbook)
	}
}
