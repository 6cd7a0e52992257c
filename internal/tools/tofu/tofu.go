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

// Package tofu is the OpenTofu adapter (C5, spec.md §4.3): init, apply,
// destroy and output-parsing, each a single argv-only invocation through
// internal/toolexec.
package tofu

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-logr/logr"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/toolexec"
)

// Adapter is bound to one environment's rendered OpenTofu module directory.
// A fresh Adapter is built per command invocation (spec.md §5: "a fresh
// adapter is instantiated per command").
type Adapter struct {
	workingDir string
	logDir     string
	logger     logr.Logger
}

// New binds an Adapter to workingDir (build/<env>/tofu/<provider>/).
func New(workingDir, logDir string, logger logr.Logger) *Adapter {
	return &Adapter{workingDir: workingDir, logDir: logDir, logger: logger}
}

func (a *Adapter) invoke(ctx context.Context, operation string, args ...string) (toolexec.Result, error) {
	fullArgs := append([]string{"-chdir=" + a.workingDir}, args...)
	return toolexec.Run(ctx, toolexec.Invocation{
		Tool: "tofu", Operation: operation, Args: fullArgs,
		WorkingDir: a.workingDir, LogDir: a.logDir, Logger: a.logger, Now: time.Now(),
	})
}

// Init initializes the working directory. Safe to re-run (spec.md §4.3).
func (a *Adapter) Init(ctx context.Context) error {
	if _, err := a.invoke(ctx, "init", "init", "-input=false"); err != nil {
		return apperrors.Wrap(apperrors.KindToolInvocation, err, "tofu init failed")
	}
	return nil
}

// Apply plans and applies the module. Output parsing is a separate step
// (Outputs) so Provision's handler can distinguish ApplyFailed from
// OutputMissing per spec.md §4.3.
func (a *Adapter) Apply(ctx context.Context) error {
	if _, err := a.invoke(ctx, "apply", "apply", "-auto-approve", "-input=false"); err != nil {
		return apperrors.Wrap(apperrors.KindToolInvocation, err, "tofu apply failed")
	}
	return nil
}

// Destroy tears down all managed resources. Idempotent: "nothing to
// destroy" exits 0, same as any other successful apply/destroy.
func (a *Adapter) Destroy(ctx context.Context) error {
	if _, err := a.invoke(ctx, "destroy", "destroy", "-auto-approve", "-input=false"); err != nil {
		return apperrors.Wrap(apperrors.KindToolInvocation, err, "tofu destroy failed")
	}
	return nil
}

type tofuOutput struct {
	Value interface{} `json:"value"`
}

// InstanceIP runs `tofu output -json` and extracts the instance_ip output
// declared by every provider module. Fails with KindToolInvocation
// (OutputMissing per spec.md §4.3) if the output is absent or not a
// string.
func (a *Adapter) InstanceIP(ctx context.Context) (string, error) {
	res, err := a.invoke(ctx, "output", "output", "-json")
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindToolInvocation, err, "tofu output failed")
	}

	var outputs map[string]tofuOutput
	if err := json.Unmarshal([]byte(res.Stdout), &outputs); err != nil {
		return "", apperrors.Wrap(apperrors.KindToolInvocation, err, "failed to parse tofu output -json")
	}

	ip, ok := outputs["instance_ip"]
	if !ok {
		return "", apperrors.New(apperrors.KindToolInvocation, "tofu apply succeeded but declared no instance_ip output").
			WithHint("the OpenTofu module for this provider must declare an `instance_ip` output")
	}
	s, ok := ip.Value.(string)
	if !ok || s == "" {
		return "", apperrors.Newf(apperrors.KindToolInvocation, "tofu output instance_ip has unexpected type %T", ip.Value)
	}
	return s, nil
}
