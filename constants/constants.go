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

package constants

import "time"

var (
	// The external binaries, relative to the working directory.
	DefaultServerPath string = "./server"
	DefaultClientPath string = "./client"

	// The shared configuration files rewritten between runs. The concurrent
	// rogue-client experiment keeps its own copy.
	DefaultConfigPath      string = "config.json"
	DefaultRogueConfigPath string = "config_4.json"

	// The stdout line from which a client's completion time is read.
	CompletionMarker string = "Average time per client:"
	// The prefix of a structured result record emitted by a client.
	ResultRecordPrefix string = "SCHEDBENCH-RESULT"
	// The per-client output file written by file-reporting clients.
	ClientOutputFilePattern string = "output_client_%d.txt"

	// The scheduling policies understood by the server.
	SchedulingPolicyFIFO string   = "fifo"
	SchedulingPolicyFair string   = "fair"
	SchedulingPolicies   []string = []string{SchedulingPolicyFIFO, SchedulingPolicyFair}

	// The number of client invocations for each value of a packet-size sweep.
	DefaultRunsPerValue int = 10
	// The packet sizes (words per packet) swept by default.
	DefaultPacketWords []int = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	// The largest client count of a client sweep when the configuration does
	// not name one, and the distance between swept client counts.
	DefaultMaxClients int = 32
	ClientSweepStep   int = 4
	// The client counts swept by the policy comparison.
	DefaultPolicySweepClients []int = []int{1, 2, 4, 8, 16, 32}

	// Concurrent rogue-client experiment: worker-pool size, back-to-back
	// requests issued by the rogue client, normal single-shot clients and the
	// number of threads each client process runs.
	DefaultPoolSize           int = 10
	DefaultRogueRepeats       int = 5
	DefaultNormalClients      int = 9
	DefaultRogueConfigClients int = 3

	// File-reporting rogue-client experiment: background rogue processes
	// launched next to the normal clients.
	DefaultRogueFileClients int = 5

	// The amount of time to give the server to start before clients connect
	// when its address is unknown, and the longest time to wait for a known
	// address to accept connections.
	DefaultStartupGrace   time.Duration = 1 * time.Second
	DefaultStartupTimeout time.Duration = 5 * time.Second
	// The amount of time that the server has to exit after being signalled.
	DefaultShutdownGrace time.Duration = 1 * time.Second
	// The longest time that file-reporting clients may run.
	DefaultExperimentWindow time.Duration = 60 * time.Second

	// Default artifacts.
	DefaultPlotFile       string = "plot.png"
	SchedulingPlotFile    string = "scheduling_performance.png"
	RogueResultsPlotFile  string = "rogue_client_experiment_results.png"
	FairnessSummaryFile   string = "fairness.txt"
	DefaultEnvironmentFile string = ".env"

	// The default determination of whether to run in debug mode.
	DefaultDebug bool = false
)
