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
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/schedbench/goschedbench/ccw"
	SchedbenchTesting "github.com/schedbench/goschedbench/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLauncher(t *testing.T, server string, client string) *Launcher {
	dir := t.TempDir()
	SchedbenchTesting.WriteScript(t, dir, "server", server)
	SchedbenchTesting.WriteScript(t, dir, "client", client)
	launcher := NewLauncher("./server", "./client", dir, nil)
	launcher.ShutdownGrace = 200 * time.Millisecond
	return launcher
}

func TestRunClientCapturesStdout(t *testing.T) {
	launcher := newTestLauncher(t, "", `echo "Average time per client: 1.5 seconds"`)

	run := launcher.RunClient(context.Background(), 0)
	require.NoError(t, run.Err)
	assert.Equal(t, "Average time per client: 1.5 seconds\n", string(run.Stdout))
	assert.Greater(t, run.Elapsed, time.Duration(0))
}

func TestRunClientPassesArguments(t *testing.T) {
	launcher := newTestLauncher(t, "", `echo "$@"; pwd`)

	run := launcher.RunClient(context.Background(), 3, "config.json")
	require.NoError(t, run.Err)
	lines := strings.Split(strings.TrimSpace(string(run.Stdout)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "config.json", lines[0])

	// The client runs in the working directory.
	expected, err := filepath.EvalSymlinks(launcher.WorkDir)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(lines[1])
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestRunClientSeesItsID(t *testing.T) {
	launcher := newTestLauncher(t, "", `echo "$SCHEDBENCH_CLIENT_ID"`)

	run := launcher.RunClient(context.Background(), 7)
	require.NoError(t, run.Err)
	assert.Equal(t, "7\n", string(run.Stdout))
}

func TestRunClientFailure(t *testing.T) {
	launcher := newTestLauncher(t, "", "exit 3")

	run := launcher.RunClient(context.Background(), 1)
	require.Error(t, run.Err)
	assert.False(t, errors.Is(run.Err, ErrExecutableNotFound))
}

func TestMissingExecutable(t *testing.T) {
	launcher := NewLauncher("./server", "./client", t.TempDir(), nil)

	run := launcher.RunClient(context.Background(), 0)
	assert.ErrorIs(t, run.Err, ErrExecutableNotFound)

	_, err := launcher.StartServer(context.Background(), "fifo")
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestNonExecutableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client"), []byte("echo hi\n"), 0o644))
	launcher := NewLauncher("./server", "./client", dir, nil)

	run := launcher.RunClient(context.Background(), 0)
	assert.ErrorIs(t, run.Err, ErrExecutableNotFound)
}

func TestRunClientCancelled(t *testing.T) {
	launcher := newTestLauncher(t, "", "sleep 10")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	then := time.Now()
	run := launcher.RunClient(ctx, 0)
	assert.Error(t, run.Err)
	assert.Less(t, time.Since(then), 5*time.Second)
}

func TestTranscript(t *testing.T) {
	launcher := newTestLauncher(t, "", `echo "line one"; echo "line two"`)
	transcript := &bytes.Buffer{}
	launcher.Transcript = ccw.NewConcurrentWriter(transcript)

	run := launcher.RunClient(context.Background(), 2)
	require.NoError(t, run.Err)
	assert.Equal(t, "[client 2] line one\n[client 2] line two\n", transcript.String())
}

func TestStartServerRejectsUnknownPolicy(t *testing.T) {
	launcher := newTestLauncher(t, "sleep 10", "")

	_, err := launcher.StartServer(context.Background(), "lottery")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestServerReceivesPolicyAndTerminates(t *testing.T) {
	launcher := newTestLauncher(t,
		`echo "$1" > policy.txt; trap 'exit 0' TERM; while true; do sleep 0.1; done`,
		"")

	server, err := launcher.StartServer(context.Background(), "fair")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		contents, err := os.ReadFile(filepath.Join(launcher.WorkDir, "policy.txt"))
		return err == nil && strings.TrimSpace(string(contents)) == "fair"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, server.Terminate(2*time.Second))
	select {
	case <-server.Exited():
	default:
		t.Fatalf("Server should have exited after Terminate.")
	}
	// A second Terminate is harmless.
	assert.NoError(t, server.Terminate(time.Second))
}

func TestServerIgnoringTerminationIsKilled(t *testing.T) {
	launcher := newTestLauncher(t, `trap '' TERM; while true; do sleep 0.1; done`, "")

	server, err := launcher.StartServer(context.Background(), "")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	then := time.Now()
	require.NoError(t, server.Terminate(300*time.Millisecond))
	assert.Less(t, time.Since(then), 5*time.Second)
}

func TestServerThatExitedOnItsOwnReportsItsStatus(t *testing.T) {
	launcher := newTestLauncher(t, "exit 3", "")

	server, err := launcher.StartServer(context.Background(), "fifo")
	require.NoError(t, err)
	select {
	case <-server.Exited():
	case <-time.After(5 * time.Second):
		t.Fatalf("Server should have exited by itself.")
	}
	err = server.Terminate(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before it was stopped")
}

func TestKilledServerTerminatesQuietlyAgain(t *testing.T) {
	launcher := newTestLauncher(t, `trap '' TERM; while true; do sleep 0.1; done`, "")

	server, err := launcher.StartServer(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, server.Terminate(100*time.Millisecond))
	assert.NoError(t, server.Terminate(100*time.Millisecond))
}

func TestBareNameResolvesInWorkDir(t *testing.T) {
	launcher := newTestLauncher(t, "", `echo "local"`)
	launcher.ClientPath = "client"
	t.Setenv("PATH", t.TempDir())

	run := launcher.RunClient(context.Background(), 0)
	require.NoError(t, run.Err)
	assert.Equal(t, "local\n", string(run.Stdout))

	launcher.ClientPath = "no-such-client"
	run = launcher.RunClient(context.Background(), 0)
	assert.ErrorIs(t, run.Err, ErrExecutableNotFound)
}

func TestStartClientInBackground(t *testing.T) {
	launcher := newTestLauncher(t, "", `sleep 0.2; echo "done $1"`)

	clients := make([]*Client, 0)
	for i := 0; i < 4; i++ {
		client, err := launcher.StartClient(context.Background(), i, "x")
		require.NoError(t, err)
		clients = append(clients, client)
	}
	for i, client := range clients {
		run := client.Wait()
		require.NoError(t, run.Err)
		assert.Equal(t, i, run.ID)
		assert.Equal(t, "done x\n", string(run.Stdout))
	}
}

func TestWaitReady(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	assert.NoError(t, WaitReady(context.Background(), listener.Addr().String(), time.Second))
}

func TestWaitReadyTimesOut(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	listener.Close()

	err = WaitReady(context.Background(), address, 300*time.Millisecond)
	assert.ErrorIs(t, err, ErrServerNotReady)
}
