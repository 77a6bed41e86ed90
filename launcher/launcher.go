/*
 * This file is part of Go Schedbench.
 *
 * Go Schedbench is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go Schedbench is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go Schedbench. If not, see <https://www.gnu.org/licenses/>.
 */

package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/schedbench/goschedbench/ccw"
	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/debug"
	"github.com/schedbench/goschedbench/utilities"
	"golang.org/x/exp/slices"
)

var (
	ErrExecutableNotFound = errors.New("executable not found")
	ErrInvalidPolicy      = errors.New("invalid scheduling policy")
	ErrServerNotReady     = errors.New("server did not accept connections")
)

// ClientIDVariable is set in the environment of every client to the id that
// the client was started with.
const ClientIDVariable = "SCHEDBENCH_CLIENT_ID"

// Launcher starts the server and client binaries. Relative binary paths are
// resolved against WorkDir, which is also the working directory of every
// process it starts. A bare name is looked for in WorkDir first and then on
// the PATH.
type Launcher struct {
	ServerPath string
	ClientPath string
	WorkDir    string
	// When set, the stdout of every client is appended here once the client
	// exits, each line tagged with the client id. Server output goes here as
	// it is produced.
	Transcript *ccw.ConcurrentWriter
	Debugging  *debug.DebugWithPrefix
	// How long a cancelled process has to exit before it is killed.
	ShutdownGrace time.Duration
}

func NewLauncher(serverPath string, clientPath string, workDir string, debugging *debug.DebugWithPrefix) *Launcher {
	return &Launcher{
		ServerPath:    serverPath,
		ClientPath:    clientPath,
		WorkDir:       workDir,
		Debugging:     debugging,
		ShutdownGrace: constants.DefaultShutdownGrace,
	}
}

func (l *Launcher) resolve(path string) (string, error) {
	if !strings.ContainsRune(path, filepath.Separator) {
		if local, err := l.resolve("." + string(filepath.Separator) + path); err == nil {
			return local, nil
		}
		found, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, ErrExecutableNotFound)
		}
		return found, nil
	}
	if !filepath.IsAbs(path) {
		absolute, err := filepath.Abs(filepath.Join(l.WorkDir, path))
		if err != nil {
			return "", fmt.Errorf("could not resolve %s: %w", path, err)
		}
		path = absolute
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, ErrExecutableNotFound)
		}
		return "", err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("%s is not executable: %w", path, ErrExecutableNotFound)
	}
	return path, nil
}

func (l *Launcher) command(ctx context.Context, path string, args []string) (*exec.Cmd, error) {
	resolved, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, resolved, args...)
	cmd.Dir = l.WorkDir
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return terminateGroup(cmd.Process)
	}
	cmd.WaitDelay = l.ShutdownGrace
	return cmd, nil
}

func (l *Launcher) debugf(format string, args ...interface{}) {
	if l.Debugging != nil && debug.IsDebug(l.Debugging.Level) {
		l.Debugging.Logger().Debugf(format, args...)
	}
}

// Server is a running server process.
type Server struct {
	Policy    string
	ctx       context.Context
	cmd       *exec.Cmd
	done      chan struct{}
	waitErr   error
	stopping  bool
	debugging *debug.DebugWithPrefix
}

// StartServer starts the server with policy as its only argument. An empty
// policy starts it with no argument at all. The server runs in its own
// process group so that Terminate reaches anything it spawns.
func (l *Launcher) StartServer(ctx context.Context, policy string) (*Server, error) {
	args := []string{}
	if policy != "" {
		if !slices.Contains(constants.SchedulingPolicies, policy) {
			return nil, fmt.Errorf("%q: %w", policy, ErrInvalidPolicy)
		}
		args = append(args, policy)
	}
	cmd, err := l.command(ctx, l.ServerPath, args)
	if err != nil {
		return nil, fmt.Errorf("could not start server: %w", err)
	}
	if l.Transcript != nil {
		cmd.Stdout = l.Transcript
		cmd.Stderr = l.Transcript
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start server: %w", err)
	}
	l.debugf("Started server (pid %d) with policy %q", cmd.Process.Pid, policy)

	server := &Server{Policy: policy, ctx: ctx, cmd: cmd, done: make(chan struct{}), debugging: l.Debugging}
	go func() {
		server.waitErr = cmd.Wait()
		close(server.done)
	}()
	return server, nil
}

// Exited is closed once the server process has exited.
func (s *Server) Exited() <-chan struct{} {
	return s.done
}

// Terminate asks the server's process group to exit and waits up to grace
// for it to do so before killing the group. A server that exited on its own
// is not signalled; a failing exit status is reported instead.
func (s *Server) Terminate(grace time.Duration) error {
	select {
	case <-s.done:
		if s.waitErr != nil && !s.stopping && s.ctx.Err() == nil {
			return fmt.Errorf("server exited before it was stopped: %w", s.waitErr)
		}
		return nil
	default:
	}
	s.stopping = true
	if err := terminateGroup(s.cmd.Process); err != nil {
		return fmt.Errorf("could not terminate server: %w", err)
	}
	if utilities.OrTimeout(func() { <-s.done }, grace) {
		return nil
	}
	if s.debugging != nil {
		s.debugging.Logger().Warnf("Server (pid %d) ignored termination for %v; killing it.", s.cmd.Process.Pid, grace)
	}
	if err := killGroup(s.cmd.Process); err != nil {
		return fmt.Errorf("could not kill server: %w", err)
	}
	<-s.done
	return nil
}

// ClientRun is the outcome of one client invocation.
type ClientRun struct {
	ID      int
	Args    []string
	Stdout  []byte
	Elapsed time.Duration
	Err     error
}

func (r ClientRun) String() string {
	if r.Err != nil {
		return fmt.Sprintf("client %d: %v", r.ID, r.Err)
	}
	return fmt.Sprintf("client %d: completed in %v", r.ID, r.Elapsed)
}

// Client is a client process started in the background.
type Client struct {
	ID       int
	args     []string
	cmd      *exec.Cmd
	stdout   *bytes.Buffer
	started  time.Time
	launcher *Launcher
}

// StartClient starts the client with args and returns without waiting for
// it.
func (l *Launcher) StartClient(ctx context.Context, id int, args ...string) (*Client, error) {
	cmd, err := l.command(ctx, l.ClientPath, args)
	if err != nil {
		return nil, fmt.Errorf("could not start client %d: %w", id, err)
	}
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%d", ClientIDVariable, id))
	stdout := &bytes.Buffer{}
	cmd.Stdout = stdout
	if l.Transcript != nil {
		cmd.Stderr = l.Transcript
	} else {
		cmd.Stderr = io.Discard
	}
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start client %d: %w", id, err)
	}
	l.debugf("Started client %d (pid %d) with arguments %v", id, cmd.Process.Pid, args)
	return &Client{ID: id, args: args, cmd: cmd, stdout: stdout, started: started, launcher: l}, nil
}

// Wait blocks until the client exits.
func (c *Client) Wait() ClientRun {
	err := c.cmd.Wait()
	run := ClientRun{
		ID:      c.ID,
		Args:    c.args,
		Stdout:  c.stdout.Bytes(),
		Elapsed: time.Since(c.started),
	}
	if err != nil {
		run.Err = fmt.Errorf("client %d failed: %w", c.ID, err)
	}
	if c.launcher.Transcript != nil {
		c.launcher.Transcript.WriteBlock(fmt.Sprintf("[client %d] ", c.ID), run.Stdout)
	}
	c.launcher.debugf("%v", run)
	return run
}

// RunClient runs the client with args to completion. The elapsed time is
// wall-clock time measured around the whole process.
func (l *Launcher) RunClient(ctx context.Context, id int, args ...string) ClientRun {
	client, err := l.StartClient(ctx, id, args...)
	if err != nil {
		return ClientRun{ID: id, Args: args, Err: err}
	}
	return client.Wait()
}

// WaitReady polls address until it accepts a TCP connection, timeout passes
// or ctx is done.
func WaitReady(ctx context.Context, address string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	dialer := net.Dialer{Timeout: 250 * time.Millisecond}
	for {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s after %v: %w", address, timeout, ErrServerNotReady)
		case <-time.After(50 * time.Millisecond):
		}
	}
}
