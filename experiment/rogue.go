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
	"fmt"

	"github.com/schedbench/goschedbench/chart"
	"github.com/schedbench/goschedbench/config"
	"github.com/schedbench/goschedbench/executor"
	"github.com/schedbench/goschedbench/launcher"
	"github.com/schedbench/goschedbench/report"
	"github.com/schedbench/goschedbench/samples"
	"github.com/schedbench/goschedbench/timeoutat"
	"github.com/schedbench/goschedbench/utilities"
)

// clientOutcome is the completion time of one client of a rogue-client
// experiment, if it produced one.
type clientOutcome struct {
	ID    int
	Role  string
	Value utilities.Optional[float64]
	Err   error
}

// clientTask runs the client repeats times, back to back, and reports the
// mean of the completion times it found. Unless runs are isolated, every
// invocation is handed shared, the arguments for the shared configuration.
func (r *Runner) clientTask(id int, role string, repeats int, label string, shared []string) executor.Task[clientOutcome] {
	return func(ctx context.Context) clientOutcome {
		outcome := clientOutcome{ID: id, Role: role, Value: utilities.None[float64]()}
		values := make([]float64, 0, repeats)
		for i := 0; i < repeats; i++ {
			if ctx.Err() != nil {
				outcome.Err = ctx.Err()
				return outcome
			}
			args := shared
			if r.experiment.Isolate {
				var err error
				if args, err = r.configureRun(runID(label, role, id*repeats+i), config.SetClientCount(r.experiment.ConfigClients)); err != nil {
					outcome.Err = err
					return outcome
				}
			}
			value, err := r.sample(r.env.Launcher.RunClient(ctx, id, args...))
			if err != nil {
				outcome.Err = err
				return outcome
			}
			if utilities.IsSome(value) {
				values = append(values, utilities.GetSome(value))
			}
		}
		if len(values) > 0 {
			outcome.Value = utilities.Some(utilities.CalculateAverage(values))
		}
		return outcome
	}
}

// runRogue compares the policies with one rogue client, which issues its
// requests back to back, competing against single-shot clients on a bounded
// pool. Completion times are taken in the order that the clients finish.
func (r *Runner) runRogue(ctx context.Context) (*Result, error) {
	result := newResult(r.experiment)

	for _, policy := range r.experiment.Policies {
		r.debugging.Logger().Infof("Running the rogue-client experiment with %s scheduling...", report.PolicyName(policy))
		outcome, err := r.runRoguePolicy(ctx, policy)
		if err != nil {
			return result, err
		}
		result.add(policy, outcome)
	}

	outcomes := utilities.Fmap(r.experiment.Policies, func(policy string) report.Outcome {
		return result.Outcomes[policy][0]
	})
	report.WriteFairness(r.env.Console, outcomes)
	if r.experiment.Summary != "" {
		path := r.env.Resolve(r.experiment.Summary)
		if err := report.WriteFairnessFile(path, outcomes); err != nil {
			return result, err
		}
		r.debugging.Logger().Infof("Results saved in %s", path)
		result.Artifacts = append(result.Artifacts, path)
	}
	return result, nil
}

func (r *Runner) runRoguePolicy(ctx context.Context, policy string) (report.Outcome, error) {
	label := policy
	set := samples.NewSampleSet[float64](label)

	var shared []string
	if !r.experiment.Isolate {
		var err error
		if shared, err = r.configure(config.SetClientCount(r.experiment.ConfigClients)); err != nil {
			return report.Outcome{Label: label, Err: err}, err
		}
	}
	if r.experiment.StartsServer() {
		server, err := r.startServer(ctx, policy)
		if err != nil {
			return report.Outcome{Label: label, Err: err}, err
		}
		defer r.stopServer(server)
	}

	tasks := []executor.Task[clientOutcome]{r.clientTask(0, RoleRogue, r.experiment.Repeats, label, shared)}
	for id := 1; id <= r.experiment.NormalClients; id++ {
		tasks = append(tasks, r.clientTask(id, RoleNormal, 1, label, shared))
	}

	for _, client := range executor.Collect(ctx, r.experiment.Pool, tasks) {
		if client.Err != nil {
			return report.Outcome{Label: label, Err: client.Err}, fmt.Errorf("%s client %d: %w", client.Role, client.ID, client.Err)
		}
		if set.AddOptional(client.Value) {
			r.record(label, policy, client.ID, client.Role, utilities.GetSome(client.Value))
		}
	}
	return r.summarize(set), nil
}

// runRogueFiles compares the policies with normal and rogue clients all
// started at once in the background. Every client reports its completion
// time in its own output file; clients still running when the window closes
// are stopped.
func (r *Runner) runRogueFiles(ctx context.Context) (*Result, error) {
	result := newResult(r.experiment)
	groups := make([]chart.Group, 0, len(r.experiment.Policies))
	plottable := true

	for _, policy := range r.experiment.Policies {
		r.debugging.Logger().Infof("Running experiment with %s scheduling...", report.PolicyName(policy))
		outcome, values, err := r.runRogueFilesPolicy(ctx, policy)
		if err != nil {
			return result, err
		}
		result.add(policy, outcome)
		if outcome.Failed() {
			plottable = false
		}
		groups = append(groups, chart.Group{Label: report.PolicyName(policy), Values: values})
	}

	outcomes := utilities.Fmap(r.experiment.Policies, func(policy string) report.Outcome {
		return result.Outcomes[policy][0]
	})
	report.WritePolicyComparison(r.env.Console, outcomes)

	if !plottable {
		r.debugging.Logger().Errorf("Not enough data to plot results.")
		return result, nil
	}
	if r.experiment.Output != "" {
		path := r.env.Resolve(r.experiment.Output)
		if err := chart.BoxAndBar(path, "", groups); err != nil {
			r.debugging.Logger().Errorf("Could not plot results: %v", err)
		} else {
			r.debugging.Logger().Infof("Plot saved as %s", path)
			result.Artifacts = append(result.Artifacts, path)
		}
	}
	return result, nil
}

func (r *Runner) runRogueFilesPolicy(ctx context.Context, policy string) (report.Outcome, []float64, error) {
	label := policy
	total := r.experiment.NormalClients + r.experiment.RogueClients
	window, err := r.experiment.WindowDuration()
	if err != nil {
		return report.Outcome{Label: label, Err: err}, nil, err
	}

	args, err := r.configure(config.SetClientCount(r.experiment.ConfigClients))
	if err != nil {
		return report.Outcome{Label: label, Err: err}, nil, err
	}
	if err := removeClientFiles(r.env.WorkDir, total); err != nil {
		r.debugging.Logger().Warnf("Could not remove stale output files: %v", err)
	}

	var stop func()
	if r.experiment.StartsServer() {
		server, err := r.startServer(ctx, policy)
		if err != nil {
			return report.Outcome{Label: label, Err: err}, nil, err
		}
		stop = func() { r.stopServer(server) }
	}

	clientsCtx, cancelClients := context.WithCancel(ctx)
	defer cancelClients()
	clients := make([]*launcher.Client, 0, total)
	for _, id := range utilities.Iota(0, total) {
		role := utilities.Conditional(id < r.experiment.NormalClients, RoleNormal, RoleRogue)
		clientArgs := args
		if r.experiment.Isolate {
			if clientArgs, err = r.configureRun(runID(label, role, id), config.SetClientCount(r.experiment.ConfigClients)); err != nil {
				break
			}
		}
		var client *launcher.Client
		if client, err = r.env.Launcher.StartClient(clientsCtx, id, clientArgs...); err != nil {
			break
		}
		clients = append(clients, client)
	}
	if err != nil {
		cancelClients()
		// Reaped in order, so their failures are logged by client id.
		r.waitAll(clients, executor.Serial)
		if stop != nil {
			stop()
		}
		return report.Outcome{Label: label, Err: err}, nil, err
	}

	finished := make(chan struct{})
	go func() {
		r.waitAll(clients, executor.Parallel)
		close(finished)
	}()
	windowCtx, closeWindow := context.WithCancel(ctx)
	defer closeWindow()
	select {
	case <-finished:
	case <-timeoutat.TimeoutAfter(windowCtx, window, r.debugging):
		if ctx.Err() == nil {
			r.debugging.Logger().Warnf("Clients still running after %v; stopping them.", window)
		}
		cancelClients()
		<-finished
	}
	if stop != nil {
		stop()
	}
	if err := ctx.Err(); err != nil {
		return report.Outcome{Label: label, Err: err}, nil, err
	}

	set, collected := CollectFileSamples(r.env.WorkDir, label, total, r.debugging)
	for _, client := range collected {
		role := utilities.Conditional(client.ID < r.experiment.NormalClients, RoleNormal, RoleRogue)
		r.record(label, policy, client.ID, role, client.Value)
	}
	return r.summarize(set), set.Values(), nil
}

// waitAll reaps every background client.
func (r *Runner) waitAll(clients []*launcher.Client, method executor.ExecutionMethod) {
	r.debugging.Logger().Debugf("Waiting for %d clients (%s).", len(clients), method.ToString())
	units := utilities.Fmap(clients, func(client *launcher.Client) executor.ExecutionUnit {
		return func() {
			if run := client.Wait(); run.Err != nil {
				r.debugging.Logger().Debugf("%v", run)
			}
		}
	})
	executor.Execute(method, units).Wait()
}
