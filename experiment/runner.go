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

package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schedbench/goschedbench/config"
	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/datalogger"
	"github.com/schedbench/goschedbench/debug"
	"github.com/schedbench/goschedbench/launcher"
	"github.com/schedbench/goschedbench/plan"
	"github.com/schedbench/goschedbench/report"
	"github.com/schedbench/goschedbench/samples"
	"github.com/schedbench/goschedbench/stats"
	"github.com/schedbench/goschedbench/utilities"
)

// SampleDataPoint is one completion time as exported to CSV.
type SampleDataPoint struct {
	Experiment     string  `Description:"experiment"`
	Parameter      string  `Description:"parameter"`
	Policy         string  `Description:"policy"`
	ClientID       int     `Description:"client"`
	Role           string  `Description:"role"`
	CompletionTime float64 `Description:"completion time (s)"`
}

// Client roles in the rogue-client experiments.
const (
	RoleNormal = "normal"
	RoleRogue  = "rogue"
)

// Environment is what every experiment shares: the binaries, the directory
// that they run in and where reports go.
type Environment struct {
	Launcher  *launcher.Launcher
	WorkDir   string
	Debugging *debug.DebugWithPrefix
	// Console receives the textual reports.
	Console io.Writer

	StartupGrace   time.Duration
	StartupTimeout time.Duration
	ShutdownGrace  time.Duration
}

func NewEnvironment(l *launcher.Launcher, debugging *debug.DebugWithPrefix) *Environment {
	return &Environment{
		Launcher:       l,
		WorkDir:        l.WorkDir,
		Debugging:      debugging,
		Console:        os.Stdout,
		StartupGrace:   constants.DefaultStartupGrace,
		StartupTimeout: constants.DefaultStartupTimeout,
		ShutdownGrace:  constants.DefaultShutdownGrace,
	}
}

// Resolve interprets path relative to the working directory.
func (env *Environment) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(env.WorkDir, path)
}

// Result is what an experiment produced.
type Result struct {
	Experiment plan.Experiment
	// The outcome of every point, grouped by scheduling policy. Experiments
	// that do not vary the policy file their points under "".
	Outcomes  map[string][]report.Outcome
	Artifacts []string
}

func newResult(experiment plan.Experiment) *Result {
	return &Result{Experiment: experiment, Outcomes: map[string][]report.Outcome{}}
}

func (r *Result) add(policy string, outcome report.Outcome) {
	r.Outcomes[policy] = append(r.Outcomes[policy], outcome)
}

// Runner runs one experiment.
type Runner struct {
	env        *Environment
	experiment plan.Experiment
	debugging  *debug.DebugWithPrefix
	samples    datalogger.DataLogger[SampleDataPoint]
	scratch    string
}

func NewRunner(env *Environment, experiment plan.Experiment) *Runner {
	return &Runner{
		env:        env,
		experiment: experiment,
		debugging:  env.Debugging.Extend(experiment.Name),
		samples:    datalogger.CreateNullDataLogger[SampleDataPoint](),
	}
}

// Run runs the experiment and writes its artifacts. Missing binaries and
// configuration problems abort the run. Clients that produce no completion
// time are reported and left out.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.experiment.IsValid(); err != nil {
		return nil, err
	}
	r.debugging.Logger().Infof("Running %s experiment %s.", r.experiment.Kind, r.experiment.Name)

	if r.experiment.Isolate {
		scratch, err := os.MkdirTemp("", "schedbench-")
		if err != nil {
			return nil, fmt.Errorf("could not create a directory for isolated configurations: %w", err)
		}
		r.scratch = scratch
		defer os.RemoveAll(scratch)
	}
	if r.experiment.CSV != "" {
		logger, err := datalogger.CreateCSVDataLogger[SampleDataPoint](r.env.Resolve(r.experiment.CSV))
		if err != nil {
			return nil, err
		}
		r.samples = logger
		defer func() {
			if !logger.Export() {
				r.debugging.Logger().Errorf("Could not export samples to %s.", r.experiment.CSV)
			}
			logger.Close()
		}()
	}

	var result *Result
	var err error
	switch r.experiment.Kind {
	case plan.PacketSweep:
		result, err = r.runPacketSweep(ctx)
	case plan.ClientSweep:
		result, err = r.runClientSweep(ctx)
	case plan.PolicySweep:
		result, err = r.runPolicySweep(ctx)
	case plan.Rogue:
		result, err = r.runRogue(ctx)
	case plan.RogueFiles:
		result, err = r.runRogueFiles(ctx)
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", r.experiment.Name, err)
	}
	if r.experiment.CSV != "" {
		result.Artifacts = append(result.Artifacts, r.env.Resolve(r.experiment.CSV))
	}
	return result, nil
}

func (r *Runner) configPath() string {
	return r.env.Resolve(r.experiment.Config)
}

func chain(mutations []func(*config.RunConfiguration) error) func(*config.RunConfiguration) error {
	return func(c *config.RunConfiguration) error {
		for _, mutate := range mutations {
			if err := mutate(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// configure rewrites the shared configuration with mutations and returns the
// arguments that the client is to be invoked with.
func (r *Runner) configure(mutations ...func(*config.RunConfiguration) error) ([]string, error) {
	configuration, err := config.Mutate(r.configPath(), chain(mutations))
	if err != nil {
		return nil, err
	}
	r.debugging.Logger().Debugf("Configuration is now %v", configuration)
	if r.experiment.PassesConfig() {
		return []string{r.experiment.Config}, nil
	}
	return nil, nil
}

// configureRun writes the private configuration of a single client
// invocation of an isolated experiment and returns its arguments.
func (r *Runner) configureRun(runID string, mutations ...func(*config.RunConfiguration) error) ([]string, error) {
	isolated, err := config.Isolate(r.configPath(), r.scratch, runID, chain(mutations))
	if err != nil {
		return nil, err
	}
	return []string{isolated}, nil
}

// sample extracts the completion time of a client run. Every run that
// yields no completion time is reported exactly once.
func (r *Runner) sample(run launcher.ClientRun) (utilities.Optional[float64], error) {
	if run.Err != nil {
		if errors.Is(run.Err, launcher.ErrExecutableNotFound) {
			return utilities.None[float64](), run.Err
		}
		r.debugging.Logger().Warnf("Dropping the sample of client %d: %v", run.ID, run.Err)
		return utilities.None[float64](), nil
	}
	if r.experiment.Source == plan.SourceElapsed {
		return utilities.Some(run.Elapsed.Seconds()), nil
	}
	parsing := r.experiment.Parser()
	if utilities.IsNone(parsing) {
		return utilities.None[float64](), fmt.Errorf("samples of %s do not come from client output", r.experiment.Name)
	}
	value := utilities.GetSome(parsing).Parse(string(run.Stdout))
	if utilities.IsNone(value) {
		r.debugging.Logger().Warnf("Could not find a completion time in the output of client %d: %q",
			run.ID, strings.TrimSpace(string(run.Stdout)))
	}
	return value, nil
}

func (r *Runner) record(parameter string, policy string, clientID int, role string, value float64) {
	r.samples.LogRecord(SampleDataPoint{
		Experiment:     r.experiment.Name,
		Parameter:      parameter,
		Policy:         policy,
		ClientID:       clientID,
		Role:           role,
		CompletionTime: value,
	})
}

// summarize turns a sample set into an outcome. An empty set becomes an
// outcome that reports the error.
func (r *Runner) summarize(set *samples.SampleSet[float64]) report.Outcome {
	result, err := stats.Summarize(set)
	if err != nil {
		r.debugging.Logger().Errorf("No valid completion times for %s: %v", set.Label(), err)
		return report.Outcome{Label: set.Label(), Result: result, Err: err}
	}
	if result.Rejected > 0 {
		r.debugging.Logger().Warnf("%s: %d completion times were negative or not finite and are left out of the quantiles.",
			set.Label(), result.Rejected)
	}
	r.debugging.Logger().Infof("%s: %v", set, result)
	return report.Outcome{Label: set.Label(), Result: result}
}

func (r *Runner) serverPolicy() string {
	if len(r.experiment.Policies) == 1 {
		return r.experiment.Policies[0]
	}
	return ""
}
