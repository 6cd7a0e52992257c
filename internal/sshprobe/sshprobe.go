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

// Package sshprobe is the SSH probe and remote-action layer (C6,
// spec.md §4.4): connectivity waits with bounded exponential backoff, and
// single remote command execution with a timeout. It is environment-
// agnostic — it only ever sees an IP and credentials.
package sshprobe

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/torrust/tracker-deployer/internal/apperrors"
	"github.com/torrust/tracker-deployer/internal/sshcred"
)

const (
	backoffStart = 2 * time.Second
	backoffCap   = 15 * time.Second

	// DefaultTimeout is used when a caller passes a zero timeout to
	// WaitUntilReachable (spec.md §4.4).
	DefaultTimeout = 300 * time.Second
)

// Prober dials a single host per call; it holds no state between calls
// beyond the host key it has already seen for a given address, used to
// detect a changed host key across retries within one
// WaitUntilReachable call (e.g. the instance was recreated under the
// same IP mid-probe).
type Prober struct {
	seenHostKeys map[string]string
}

// New returns a ready-to-use Prober.
func New() *Prober {
	return &Prober{seenHostKeys: make(map[string]string)}
}

func (p *Prober) clientConfig(addr string, creds sshcred.Credentials) (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(creds.PrivateKeyPath)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindSSHKeyUnavailable, err, "ssh private key %q is not readable", creds.PrivateKeyPath)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindSSHKeyUnavailable, err, "ssh private key %q is not a valid key", creds.PrivateKeyPath)
	}

	return &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: p.verifyHostKey(addr),
		Timeout:         backoffCap,
	}, nil
}

func (p *Prober) verifyHostKey(addr string) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		fingerprint := ssh.FingerprintSHA256(key)
		if prev, ok := p.seenHostKeys[addr]; ok && prev != fingerprint {
			return fmt.Errorf("host key for %s changed from %s to %s", addr, prev, fingerprint)
		}
		p.seenHostKeys[addr] = fingerprint
		return nil
	}
}

func dial(ctx context.Context, ip string, port int, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	addr := net.JoinHostPort(ip, fmt.Sprintf("%d", port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

// classify turns a dial/handshake error into the single Unreachable Kind
// (spec.md §7 has no separate AuthFailed/HostKeyChanged Kind) with a
// distinguishing message, mirroring the ToolInvocation convention in
// internal/tools/tofu and internal/tools/ansible.
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "host key"):
		return apperrors.Wrap(apperrors.KindUnreachable, err, "ssh host key changed").
			WithHint("the instance may have been recreated under the same IP; verify and remove any stale known-hosts entry")
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "handshake failed"):
		return apperrors.Wrap(apperrors.KindUnreachable, err, "ssh authentication failed").
			WithHint("check ssh_credentials.username and the instance's authorized_keys")
	default:
		return apperrors.Wrap(apperrors.KindUnreachable, err, "ssh connection failed")
	}
}

// WaitUntilReachable polls the host with exponential backoff (2s, capped
// at 15s) until a trivial `true` command succeeds over SSH, timeout
// elapses, or ctx is cancelled. Zero timeout defaults to DefaultTimeout.
func (p *Prober) WaitUntilReachable(ctx context.Context, ip string, creds sshcred.Credentials, timeout time.Duration) error {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	creds, err := creds.Resolve()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := backoffStart
	var lastErr error
	for {
		_, _, err := p.run(ctx, ip, creds, "true", backoffCap)
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return apperrors.Wrapf(apperrors.KindUnreachable, lastErr, "ssh probe of %s timed out after %s", ip, timeout)
			}
			return apperrors.Wrapf(apperrors.KindCancelled, ctx.Err(), "ssh probe of %s was cancelled", ip)
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
}

// Run executes command over SSH and returns its captured stdout/stderr.
// Used by the Run and Test command handlers (spec.md §4.5.7/§4.5.8,
// SPEC_FULL.md §4.6.1) when no direct HTTP egress to the instance's
// published ports exists from the operator's machine.
func (p *Prober) Run(ctx context.Context, ip string, creds sshcred.Credentials, command string, timeout time.Duration) (stdout, stderr string, err error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	creds, err = creds.Resolve()
	if err != nil {
		return "", "", err
	}
	return p.run(ctx, ip, creds, command, timeout)
}

func (p *Prober) run(ctx context.Context, ip string, creds sshcred.Credentials, command string, timeout time.Duration) (stdout, stderr string, err error) {
	cfg, err := p.clientConfig(ip, creds)
	if err != nil {
		return "", "", err
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := dial(dialCtx, ip, creds.Port, cfg)
	if err != nil {
		return "", "", classify(err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", "", classify(err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case runErr := <-done:
		if runErr != nil {
			return stdoutBuf.String(), stderrBuf.String(), apperrors.Wrapf(apperrors.KindUnreachable, runErr, "remote command %q failed", command)
		}
		return stdoutBuf.String(), stderrBuf.String(), nil
	case <-dialCtx.Done():
		_ = session.Signal(ssh.SIGTERM)
		return stdoutBuf.String(), stderrBuf.String(), apperrors.Wrapf(apperrors.KindCancelled, dialCtx.Err(), "remote command %q timed out", command)
	}
}
