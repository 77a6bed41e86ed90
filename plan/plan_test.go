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
package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/parser"
	"github.com/schedbench/goschedbench/utilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	for _, kind := range Kinds {
		experiment := Defaults(kind)
		assert.NoError(t, experiment.IsValid(), "defaults of %s", kind)
		assert.Equal(t, experiment, experiment.WithDefaults(), "defaults of %s", kind)
	}
}

func TestDefaultsFollowTheScripts(t *testing.T) {
	packet := Defaults(PacketSweep)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, packet.Values)
	assert.Equal(t, 10, packet.Runs)
	assert.Equal(t, "plot.png", packet.Output)

	policy := Defaults(PolicySweep)
	assert.Equal(t, []int{1, 2, 4, 8, 16, 32}, policy.Values)
	assert.Equal(t, []string{"fifo", "fair"}, policy.Policies)
	assert.Equal(t, "scheduling_performance.png", policy.Output)

	rogue := Defaults(Rogue)
	assert.Equal(t, "config_4.json", rogue.Config)
	assert.Equal(t, []string{"fair", "fifo"}, rogue.Policies)
	assert.Equal(t, 10, rogue.Pool)
	assert.Equal(t, 5, rogue.Repeats)
	assert.Equal(t, 9, rogue.NormalClients)
	assert.Equal(t, 3, rogue.ConfigClients)
	assert.Equal(t, "fairness.txt", rogue.Summary)

	files := Defaults(RogueFiles)
	assert.Equal(t, 14, files.NormalClients+files.RogueClients)
	window, err := files.WindowDuration()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, window)
	assert.Equal(t, "rogue_client_experiment_results.png", files.Output)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Rogue-Files ")
	require.NoError(t, err)
	assert.Equal(t, RogueFiles, kind)

	_, err = ParseKind("lottery")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "plan.yaml", `
server: ./bin/server
workdir: /tmp/bench
experiments:
  - kind: packet-sweep
    values: [1, 2]
    runs: 3
    source: elapsed
  - name: rogue-fifo
    kind: rogue
    policies: [fifo]
    isolate: true
    manage_server: false
`)
	plan, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, plan.IsValid())

	assert.Equal(t, "./bin/server", plan.Server)
	assert.Equal(t, constants.DefaultClientPath, plan.Client)
	assert.Equal(t, "/tmp/bench", plan.WorkDir)
	require.Len(t, plan.Experiments, 2)

	packet := plan.Experiments[0]
	assert.Equal(t, "packet-sweep", packet.Name)
	assert.Equal(t, []int{1, 2}, packet.Values)
	assert.Equal(t, 3, packet.Runs)
	assert.Equal(t, SourceElapsed, packet.Source)
	assert.Equal(t, constants.DefaultConfigPath, packet.Config)
	assert.True(t, utilities.IsNone(packet.Parser()))

	rogue := plan.Experiments[1]
	assert.Equal(t, "rogue-fifo", rogue.Name)
	assert.Equal(t, []string{"fifo"}, rogue.Policies)
	assert.True(t, rogue.Isolate)
	assert.False(t, rogue.StartsServer())
	assert.True(t, rogue.PassesConfig())
	assert.Equal(t, 10, rogue.Pool)
	parsing := rogue.Parser()
	require.True(t, utilities.IsSome(parsing))
	assert.Equal(t, parser.Marker, utilities.GetSome(parsing).Method)
	assert.Equal(t, constants.CompletionMarker, utilities.GetSome(parsing).Marker)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "plan.json", `{"experiments": [{"kind": "policy-sweep", "values": [2, 4]}]}`)
	plan, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, plan.IsValid())
	assert.Equal(t, []int{2, 4}, plan.Experiments[0].Values)
	assert.Equal(t, []string{"fifo", "fair"}, plan.Experiments[0].Policies)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeFile(t, "plan.json", `{"experiments": [{"kind": "rogue", "colour": "blue"}]}`))
	assert.ErrorIs(t, err, ErrPlanMalformed)

	_, err = Load(writeFile(t, "plan.yml", "experiments: [\n"))
	assert.ErrorIs(t, err, ErrPlanMalformed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsValid(t *testing.T) {
	unknown := Defaults(PacketSweep)
	unknown.Kind = "lottery"
	assert.ErrorIs(t, unknown.IsValid(), ErrUnknownKind)

	runs := Defaults(PacketSweep)
	runs.Runs = -1
	assert.ErrorIs(t, runs.IsValid(), ErrInvalidExperiment)

	policy := Defaults(PolicySweep)
	policy.Policies = []string{"fifo", "lottery"}
	assert.ErrorIs(t, policy.IsValid(), ErrInvalidExperiment)

	empty := Defaults(PacketSweep)
	empty.Values = []int{}
	assert.ErrorIs(t, empty.IsValid(), ErrInvalidExperiment)

	negative := Defaults(PolicySweep)
	negative.Values = []int{1, 0}
	assert.ErrorIs(t, negative.IsValid(), ErrInvalidExperiment)

	isolated := Defaults(PolicySweep)
	isolated.Isolate = true
	assert.ErrorIs(t, isolated.IsValid(), ErrInvalidExperiment)

	window := Defaults(RogueFiles)
	window.Window = "a minute"
	assert.ErrorIs(t, window.IsValid(), ErrInvalidExperiment)

	source := Defaults(PacketSweep)
	source.Source = "telepathy"
	assert.ErrorIs(t, source.IsValid(), ErrInvalidExperiment)

	assert.ErrorIs(t, New().IsValid(), ErrInvalidExperiment)
}

func TestClientSweepValuesMayBeEmpty(t *testing.T) {
	sweep := Defaults(ClientSweep)
	assert.Empty(t, sweep.Values)
	assert.NoError(t, sweep.IsValid())
}

func TestApplyEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", "SCHEDBENCH_SERVER=/opt/bench/server\nSCHEDBENCH_CLIENT=/opt/bench/client\n")
	t.Setenv(EnvServer, "")
	t.Setenv(EnvClient, "/usr/local/bin/client")
	t.Setenv(EnvWorkDir, "")

	plan := New(Defaults(Rogue))
	require.NoError(t, ApplyEnvironment(plan, envFile))
	assert.Equal(t, "/opt/bench/server", plan.Server)
	assert.Equal(t, "/usr/local/bin/client", plan.Client)
	assert.Equal(t, ".", plan.WorkDir)
}

func TestApplyEnvironmentMissingFile(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvClient, "")
	t.Setenv(EnvWorkDir, "/srv/bench")

	plan := New(Defaults(Rogue))
	require.NoError(t, ApplyEnvironment(plan, filepath.Join(t.TempDir(), ".env")))
	assert.Equal(t, constants.DefaultServerPath, plan.Server)
	assert.Equal(t, "/srv/bench", plan.WorkDir)
}
