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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schedbench/goschedbench/ccw"
	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/debug"
	"github.com/schedbench/goschedbench/experiment"
	"github.com/schedbench/goschedbench/launcher"
	"github.com/schedbench/goschedbench/plan"
	"github.com/schedbench/goschedbench/utilities"
)

var (
	// Variables to hold CLI arguments.
	experimentKind = flag.String("experiment", "", "kind of experiment to run: packet-sweep, client-sweep, policy-sweep, rogue or rogue-files.")
	planPath       = flag.String("plan", "", "run the experiments listed in this YAML or JSON plan.")
	configPath     = flag.String("config", "", "configuration file rewritten between runs (default depends on the experiment).")
	serverPath     = flag.String("server", constants.DefaultServerPath, "path to the server binary.")
	clientPath     = flag.String("client", constants.DefaultClientPath, "path to the client binary.")
	workDir        = flag.String("workdir", ".", "directory in which the binaries run and artifacts are written.")
	values         = flag.String("values", "", "comma-separated packet sizes or client counts to sweep.")
	policies       = flag.String("policies", "", "comma-separated scheduling policies (fifo, fair).")
	runs           = flag.Int("runs", 0, "client invocations for each swept value.")
	source         = flag.String("source", "", "where completion times come from: record, marker, trailing, elapsed or files.")
	output         = flag.String("output", "", "file that the chart is written to.")
	summary        = flag.String("summary", "", "file that the fairness summary is written to.")
	csvPath        = flag.String("csv", "", "export every completion time to this CSV file.")
	transcript     = flag.String("transcript", "", "append the output of the server and every client to this file.")
	envFile        = flag.String("env", constants.DefaultEnvironmentFile, "file holding SCHEDBENCH_* environment overrides.")
	isolate        = flag.Bool("isolate", false, "give every client invocation its own copy of the configuration.")
	window         = flag.Duration("window", 0, "longest time that background clients may run.")
	debugFlag      = flag.Bool("debug", constants.DefaultDebug, "Enable debugging.")
	timeout        = flag.Int("timeout", 0, "Maximum time (in seconds) to spend on all experiments. Unlimited by default.")
	profile        = flag.String("profile", "", "Enable client runtime profiling and specify storage location. Disabled by default.")
)

func parseValues(list string) ([]int, error) {
	parsed := make([]int, 0)
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", field, err)
		}
		parsed = append(parsed, value)
	}
	return parsed, nil
}

func parsePolicies(list string) []string {
	parsed := utilities.Fmap(strings.Split(list, ","), func(policy string) string {
		return strings.ToLower(strings.TrimSpace(policy))
	})
	return utilities.Filter(parsed, func(policy string) bool { return policy != "" })
}

// override applies the flags given on the command line to e.
func override(e plan.Experiment, given map[string]bool) (plan.Experiment, error) {
	if given["config"] {
		e.Config = *configPath
	}
	if given["values"] {
		parsed, err := parseValues(*values)
		if err != nil {
			return e, err
		}
		e.Values = parsed
	}
	if given["policies"] {
		e.Policies = parsePolicies(*policies)
	}
	if given["runs"] {
		e.Runs = *runs
	}
	if given["source"] {
		e.Source = *source
	}
	if given["output"] {
		e.Output = *output
	}
	if given["summary"] {
		e.Summary = *summary
	}
	if given["csv"] {
		e.CSV = *csvPath
	}
	if given["isolate"] {
		e.Isolate = *isolate
	}
	if given["window"] {
		e.Window = window.String()
	}
	return e, nil
}

func buildPlan(given map[string]bool) (*plan.Plan, error) {
	var p *plan.Plan
	switch {
	case *planPath != "" && *experimentKind != "":
		return nil, fmt.Errorf("-plan and -experiment cannot be used together")
	case *planPath != "":
		loaded, err := plan.Load(*planPath)
		if err != nil {
			return nil, err
		}
		p = loaded
	case *experimentKind != "":
		kind, err := plan.ParseKind(*experimentKind)
		if err != nil {
			return nil, err
		}
		p = plan.New(plan.Defaults(kind))
	default:
		return nil, fmt.Errorf("one of -experiment or -plan is required")
	}

	if err := plan.ApplyEnvironment(p, *envFile); err != nil {
		return nil, err
	}
	// Flags given on the command line win over the plan and the environment.
	if given["server"] {
		p.Server = *serverPath
	}
	if given["client"] {
		p.Client = *clientPath
	}
	if given["workdir"] {
		p.WorkDir = *workDir
	}
	for i := range p.Experiments {
		overridden, err := override(p.Experiments[i], given)
		if err != nil {
			return nil, err
		}
		p.Experiments[i] = overridden
	}
	return p, p.IsValid()
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	given := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { given[f.Name] = true })

	level := utilities.Conditional(*debugFlag, debug.Debug, debug.NoDebug)
	logger := debug.NewLogger(level, os.Stderr)
	debugging := debug.NewDebugWithPrefix(logger, level, "schedbench")

	p, err := buildPlan(given)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*timeout)*time.Second)
		defer cancel()
	}

	if len(*profile) != 0 {
		f, err := os.Create(*profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Profiling requested with storage in %s but that file could not be opened: %v\n", *profile, err)
			return 1
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	l := launcher.NewLauncher(p.Server, p.Client, p.WorkDir, debugging.Extend("launcher"))
	if len(*transcript) != 0 {
		transcriptHandle, err := os.OpenFile(*transcript, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: Could not open transcript %s: %v\n", *transcript, err)
			return 1
		}
		defer transcriptHandle.Close()
		l.Transcript = ccw.NewConcurrentFileWriter(transcriptHandle)
	}

	env := experiment.NewEnvironment(l, debugging)
	status := 0
	for _, e := range p.Experiments {
		result, err := experiment.NewRunner(env, e).Run(ctx)
		if err != nil {
			logger.Errorf("Experiment %s failed: %v", e.Name, err)
			status = 1
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, artifact := range result.Artifacts {
			fmt.Printf("%s: wrote %s\n", e.Name, artifact)
		}
	}
	return status
}
