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

package toolexec_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/toolexec"
)

func TestRun_CapturesStdoutOnSuccess(t *testing.T) {
	res, err := toolexec.Run(context.Background(), toolexec.Invocation{
		Tool: "sh", Operation: "echo", Args: []string{"-c", "echo hello"},
		WorkingDir: t.TempDir(), LogDir: t.TempDir(), Logger: logr.Discard(), Now: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "hello")
}

func TestRun_NonZeroExitIsToolInvocation(t *testing.T) {
	_, err := toolexec.Run(context.Background(), toolexec.Invocation{
		Tool: "sh", Operation: "fail", Args: []string{"-c", "exit 3"},
		WorkingDir: t.TempDir(), LogDir: t.TempDir(), Logger: logr.Discard(), Now: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindToolInvocation, apperrors.KindOf(err))
}

func TestRun_MissingBinaryIsToolMissing(t *testing.T) {
	_, err := toolexec.Run(context.Background(), toolexec.Invocation{
		Tool: "definitely-not-a-real-binary-xyz", Operation: "noop",
		WorkingDir: t.TempDir(), LogDir: t.TempDir(), Logger: logr.Discard(), Now: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindToolMissing, apperrors.KindOf(err))
}

func TestRun_CancellationStopsChild(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := toolexec.Run(ctx, toolexec.Invocation{
		Tool: "sh", Operation: "sleep", Args: []string{"-c", "sleep 5"},
		WorkingDir: t.TempDir(), LogDir: t.TempDir(), Logger: logr.Discard(), Now: time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindCancelled, apperrors.KindOf(err))
}
