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
	"math"
	"strings"

	"github.com/schedbench/goschedbench/chart"
	"github.com/schedbench/goschedbench/config"
	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/launcher"
	"github.com/schedbench/goschedbench/report"
	"github.com/schedbench/goschedbench/samples"
	"github.com/schedbench/goschedbench/utilities"
)

var runIDCleaner = strings.NewReplacer(" ", "", "=", "")

func runID(label string, policy string, run int) string {
	parts := []string{runIDCleaner.Replace(label)}
	if policy != "" {
		parts = append(parts, policy)
	}
	return strings.Join(append(parts, fmt.Sprint(run)), "-")
}

// runPoint gathers the samples of one point of a sweep: the configuration
// is rewritten, a server is started when the experiment manages one and the
// client runs once per run, one at a time.
func (r *Runner) runPoint(
	ctx context.Context,
	label string,
	policy string,
	mutations ...func(*config.RunConfiguration) error,
) (*samples.SampleSet[float64], error) {
	set := samples.NewSampleSet[float64](label)

	var args []string
	var err error
	if !r.experiment.Isolate {
		if args, err = r.configure(mutations...); err != nil {
			return set, err
		}
	}
	if r.experiment.StartsServer() {
		server, err := r.startServer(ctx, policy)
		if err != nil {
			return set, err
		}
		defer r.stopServer(server)
	}

	for i := 0; i < r.experiment.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return set, err
		}
		runArgs := args
		if r.experiment.Isolate {
			if runArgs, err = r.configureRun(runID(label, policy, i), mutations...); err != nil {
				return set, err
			}
		}
		run := r.env.Launcher.RunClient(ctx, i, runArgs...)
		value, err := r.sample(run)
		if err != nil {
			return set, err
		}
		if set.AddOptional(value) {
			r.record(label, policy, i, RoleNormal, utilities.GetSome(value))
		}
	}
	return set, nil
}

// plot saves c as the experiment's chart. A chart that cannot be drawn is
// reported but does not fail the experiment.
func (r *Runner) plot(result *Result, c chart.Chart) {
	if r.experiment.Output == "" {
		return
	}
	path := r.env.Resolve(r.experiment.Output)
	if err := c.Save(path); err != nil {
		r.debugging.Logger().Errorf("Could not plot results: %v", err)
		return
	}
	r.debugging.Logger().Infof("Plot saved as %s", path)
	result.Artifacts = append(result.Artifacts, path)
}

// point is where an outcome goes on a chart: its mean with the error given
// by spread, or nowhere when it failed.
func point(outcome report.Outcome, spread func(report.Outcome) float64) (float64, float64) {
	if outcome.Failed() {
		return math.NaN(), math.NaN()
	}
	return outcome.Result.Mean, spread(outcome)
}

func standardError(outcome report.Outcome) float64 {
	return outcome.Result.StdErr
}

func standardDeviation(outcome report.Outcome) float64 {
	return outcome.Result.StdDev
}

func (r *Runner) runPacketSweep(ctx context.Context) (*Result, error) {
	result := newResult(r.experiment)
	series := chart.Series{}

	for _, words := range r.experiment.Values {
		label := fmt.Sprintf("p = %d", words)
		r.debugging.Logger().Infof("Running %d clients with %d words per packet.", r.experiment.Runs, words)
		set, err := r.runPoint(ctx, label, r.serverPolicy(), config.SetInt(config.KeyPacketWords, words))
		if err != nil {
			return result, err
		}
		outcome := r.summarize(set)
		result.add("", outcome)

		mean, spread := point(outcome, standardError)
		series.X = append(series.X, float64(words))
		series.Y = append(series.Y, mean)
		series.Err = append(series.Err, spread)
	}

	report.WriteSweep(r.env.Console, "Completion time vs words per packet", result.Outcomes[""])
	r.plot(result, chart.Chart{
		Title:  "Completion Time vs Words per Packet",
		XLabel: "p (words per packet)",
		YLabel: "Completion Time (seconds)",
		Series: []chart.Series{series},
	})
	return result, nil
}

// clientCounts is the list of client counts to sweep: the experiment's own
// or 1 through max_clients of the configuration in steps of four.
func (r *Runner) clientCounts() ([]int, error) {
	if len(r.experiment.Values) > 0 {
		return r.experiment.Values, nil
	}
	configuration, err := config.Load(r.configPath())
	if err != nil {
		return nil, err
	}
	maximum, ok := configuration.Int(config.KeyMaxClients)
	if !ok {
		maximum = constants.DefaultMaxClients
	}
	return utilities.IotaStep(1, maximum, constants.ClientSweepStep), nil
}

func (r *Runner) runClientSweep(ctx context.Context) (*Result, error) {
	result := newResult(r.experiment)
	series := chart.Series{}

	counts, err := r.clientCounts()
	if err != nil {
		return result, err
	}
	for _, count := range counts {
		label := fmt.Sprintf("n = %d", count)
		set, err := r.runFileClients(ctx, label, count)
		if err != nil {
			return result, err
		}
		outcome := r.summarize(set)
		result.add("", outcome)

		mean, spread := point(outcome, standardDeviation)
		series.X = append(series.X, float64(count))
		series.Y = append(series.Y, mean)
		series.Err = append(series.Err, spread)
	}

	report.WriteSweep(r.env.Console, "Average completion time vs number of clients", result.Outcomes[""])
	r.plot(result, chart.Chart{
		Title:  "Average Completion Time vs Number of Clients",
		XLabel: "Number of Clients",
		YLabel: "Average Completion Time per Client (seconds)",
		Series: []chart.Series{series},
	})
	return result, nil
}

// runFileClients runs a client that spawns count client threads, each of
// which reports its completion time in its own output file.
func (r *Runner) runFileClients(ctx context.Context, label string, count int) (*samples.SampleSet[float64], error) {
	set := samples.NewSampleSet[float64](label)
	args, err := r.configure(config.SetClientCount(count))
	if err != nil {
		return set, err
	}
	if r.experiment.StartsServer() {
		server, err := r.startServer(ctx, r.serverPolicy())
		if err != nil {
			return set, err
		}
		defer r.stopServer(server)
	}

	for i := 0; i < r.experiment.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return set, err
		}
		if err := removeClientFiles(r.env.WorkDir, count); err != nil {
			r.debugging.Logger().Warnf("Could not remove stale output files: %v", err)
		}
		run := r.env.Launcher.RunClient(ctx, i, args...)
		if run.Err != nil {
			if errors.Is(run.Err, launcher.ErrExecutableNotFound) {
				return set, run.Err
			}
			r.debugging.Logger().Warnf("Client run %d of %s failed: %v", i, label, run.Err)
		}
		collected, clients := CollectFileSamples(r.env.WorkDir, label, count, r.debugging)
		for _, client := range clients {
			set.AddElement(client.Value)
			r.record(label, r.serverPolicy(), client.ID, RoleNormal, client.Value)
		}
		for d := 0; d < collected.Dropped(); d++ {
			set.Drop()
		}
	}
	return set, nil
}

func (r *Runner) runPolicySweep(ctx context.Context) (*Result, error) {
	result := newResult(r.experiment)
	lines := make([]chart.Series, 0, len(r.experiment.Policies))

	for _, policy := range r.experiment.Policies {
		series := chart.Series{Label: policy}
		for _, count := range r.experiment.Values {
			label := fmt.Sprintf("n = %d", count)
			r.debugging.Logger().Infof("Running experiment: %s scheduling with %d clients", policy, count)
			set, err := r.runPoint(ctx, label, policy, config.SetClientCount(count))
			if err != nil {
				return result, err
			}
			outcome := r.summarize(set)
			result.add(policy, outcome)
			if !outcome.Failed() {
				r.debugging.Logger().Infof("Completed: %s scheduling with %d clients. Average time: %.2f seconds",
					policy, count, outcome.Result.Mean)
			}

			mean, _ := point(outcome, standardError)
			series.X = append(series.X, float64(count))
			series.Y = append(series.Y, mean)
		}
		lines = append(lines, series)
	}

	for _, policy := range r.experiment.Policies {
		report.WriteSweep(r.env.Console, report.PolicyName(policy)+" scheduling", result.Outcomes[policy])
	}
	r.plot(result, chart.Chart{
		Title:  "Performance Comparison of Scheduling Policies",
		XLabel: "Number of Clients (n)",
		YLabel: "Average Completion Time (seconds)",
		Series: lines,
	})
	return result, nil
}
