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

// Package toolexec is the shared child-process runner behind the OpenTofu
// and Ansible adapters (C5, spec.md §4.3): argv-only invocation, captured
// stdout/stderr tee'd to per-invocation log files, SIGTERM-then-SIGKILL
// cancellation, and a structured log line per call.
package toolexec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/torrust/tracker-deployer/internal/apperrors"
)

// killGrace is how long a child process gets to exit cleanly after SIGTERM
// before toolexec escalates to SIGKILL (spec.md §5).
const killGrace = 5 * time.Second

// Invocation describes one child-process call.
type Invocation struct {
	Tool       string   // binary name, looked up on PATH — never a shell string
	Operation  string   // short verb for logging and log file names, e.g. "apply"
	WorkingDir string   // spec.md §4.3: each adapter is bound to a working directory
	Args       []string
	LogDir     string    // spec.md §6: data/<env>/logs/
	Logger     logr.Logger
	Now        time.Time // invocation timestamp, used to name log files
}

// Result is what the caller gets back regardless of success or failure, so
// handlers can attach stdout/stderr to an error's hint even on failure.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Run executes inv.Tool with inv.Args, tees stdout/stderr to files under
// inv.LogDir, and returns once the process exits or ctx is cancelled.
func Run(ctx context.Context, inv Invocation) (Result, error) {
	path, err := exec.LookPath(inv.Tool)
	if err != nil {
		return Result{}, apperrors.Wrapf(apperrors.KindToolMissing, err, "%s not found on PATH", inv.Tool).
			WithHint(fmt.Sprintf("install %s and ensure it is on PATH", inv.Tool))
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLog, stderrLog, closeLogs, err := openLogFiles(inv)
	if err != nil {
		return Result{}, err
	}
	defer closeLogs()

	cmd := exec.Command(path, inv.Args...)
	cmd.Dir = inv.WorkingDir

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, apperrors.Wrapf(apperrors.KindToolInvocation, err, "failed to open stdout pipe for %s %s", inv.Tool, inv.Operation)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, apperrors.Wrapf(apperrors.KindToolInvocation, err, "failed to open stderr pipe for %s %s", inv.Tool, inv.Operation)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, apperrors.Wrapf(apperrors.KindToolInvocation, err, "failed to start %s %s", inv.Tool, inv.Operation)
	}

	waitDone := make(chan struct{})
	go watchCancellation(ctx, cmd, waitDone)

	// stdout and stderr are drained on two goroutines (spec.md §5) so a
	// tool that fills one pipe's buffer without reading the other can't
	// deadlock the capture.
	drainErr := drainPipes(ctx, map[io.Writer]io.Reader{
		io.MultiWriter(&stdoutBuf, stdoutLog): stdoutPipe,
		io.MultiWriter(&stderrBuf, stderrLog): stderrPipe,
	})

	waitErr := cmd.Wait()
	close(waitDone)
	duration := time.Since(start)

	if drainErr != nil && waitErr == nil {
		return Result{}, apperrors.Wrapf(apperrors.KindToolInvocation, drainErr, "failed to capture output of %s %s", inv.Tool, inv.Operation)
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if ok := asExitError(waitErr, &exitErr); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, apperrors.Wrapf(apperrors.KindToolInvocation, waitErr, "failed to run %s %s", inv.Tool, inv.Operation)
		}
	}

	result := Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), ExitCode: exitCode, Duration: duration}

	inv.Logger.Info("tool invocation",
		"tool", inv.Tool, "operation", inv.Operation, "working_dir", inv.WorkingDir,
		"exit_code", exitCode, "duration_ms", duration.Milliseconds())

	if ctx.Err() != nil {
		return result, apperrors.Wrapf(apperrors.KindCancelled, ctx.Err(), "%s %s was cancelled", inv.Tool, inv.Operation)
	}
	if exitCode != 0 {
		return result, apperrors.Newf(apperrors.KindToolInvocation, "%s %s exited %d", inv.Tool, inv.Operation, exitCode)
	}
	return result, nil
}

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*target = exitErr
	return true
}

// watchCancellation sends SIGTERM as soon as ctx is done, escalating to
// SIGKILL after killGrace if the process has not yet exited (spec.md §5).
func watchCancellation(ctx context.Context, cmd *exec.Cmd, done <-chan struct{}) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(killGrace):
		_ = cmd.Process.Kill()
	}
}

func openLogFiles(inv Invocation) (stdout, stderr io.WriteCloser, closeFn func(), err error) {
	ts := inv.Now.Format("20060102T150405.000Z0700")
	base := filepath.Join(inv.LogDir, fmt.Sprintf("%s-%s-%s", ts, inv.Tool, inv.Operation))

	stdoutFile, err := createLogFile(base + ".stdout.log")
	if err != nil {
		return nil, nil, nil, err
	}
	stderrFile, err := createLogFile(base + ".stderr.log")
	if err != nil {
		_ = stdoutFile.Close()
		return nil, nil, nil, err
	}
	return stdoutFile, stderrFile, func() {
		_ = stdoutFile.Close()
		_ = stderrFile.Close()
	}, nil
}

func createLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIoError, err, "failed to create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindIoError, err, "failed to create log file %s", path)
	}
	return f, nil
}

// drainPipes copies every reader to its paired writer concurrently, one
// goroutine per pair, and waits for all of them — Run's mechanism for
// capturing a child's stdout and stderr on two goroutines (spec.md §5).
func drainPipes(ctx context.Context, pairs map[io.Writer]io.Reader) error {
	g, _ := errgroup.WithContext(ctx)
	for w, r := range pairs {
		w, r := w, r
		g.Go(func() error {
			_, err := io.Copy(w, r)
			return err
		})
	}
	return g.Wait()
}
