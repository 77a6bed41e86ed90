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

package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/stats"
	"github.com/schedbench/goschedbench/utilities"
)

// Outcome is the result of one point of an experiment: a parameter value, a
// policy or a client count. Err is set when the point produced no result.
type Outcome struct {
	Label  string
	Result stats.ExperimentResult
	Err    error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

// PolicyName is the display name of a scheduling policy.
func PolicyName(policy string) string {
	switch policy {
	case constants.SchedulingPolicyFIFO:
		return "FIFO"
	case constants.SchedulingPolicyFair:
		return "Fair"
	}
	return strings.ToUpper(policy)
}

// WriteFairness writes the rogue-client summary: one line per policy with
// the average completion time and Jain's fairness index.
func WriteFairness(w io.Writer, outcomes []Outcome) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "\nRogue Client Scenario Results:\n")
	for _, outcome := range outcomes {
		if outcome.Failed() {
			fmt.Fprintf(out, "%s Scheduling - Error occurred: %v\n", PolicyName(outcome.Label), outcome.Err)
			continue
		}
		fmt.Fprintf(out, "%s Scheduling - Avg Time: %.4f, Jain's Fairness Index: %.4f\n",
			PolicyName(outcome.Label), outcome.Result.Mean, outcome.Result.Fairness)
	}
	return out.Flush()
}

// WriteFairnessFile writes the rogue-client summary to path, replacing it.
func WriteFairnessFile(path string, outcomes []Outcome) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := WriteFairness(file, outcomes); err != nil {
		file.Close()
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return file.Close()
}

// WriteSweep writes one line per point of a sweep. Points that produced no
// result are reported as errors.
func WriteSweep(w io.Writer, title string, outcomes []Outcome) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, outcome := range outcomes {
		if outcome.Failed() {
			fmt.Fprintf(out, "  %s: Error occurred\n", outcome.Label)
			continue
		}
		result := outcome.Result
		fmt.Fprintf(out, "  %s: %.2f seconds (std. dev. %.4f, std. error %.4f, %d samples",
			outcome.Label, result.Mean, result.StdDev, result.StdErr, result.Samples)
		if result.Dropped > 0 {
			fmt.Fprintf(out, ", %d dropped", result.Dropped)
		}
		fmt.Fprintf(out, ")\n")
	}
	return out.Flush()
}

// WritePolicyComparison writes the average completion time and fairness of
// each policy. When exactly two policies succeeded, the second is compared
// to the first.
func WritePolicyComparison(w io.Writer, outcomes []Outcome) error {
	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "\nExperiment Results:\n")
	succeeded := utilities.Filter(outcomes, func(o Outcome) bool { return !o.Failed() })
	for _, outcome := range outcomes {
		fmt.Fprintf(out, "\n%s scheduling:\n", PolicyName(outcome.Label))
		if outcome.Failed() {
			fmt.Fprintf(out, "  Error occurred: %v\n", outcome.Err)
			continue
		}
		fmt.Fprintf(out, "  Average completion time: %.2f seconds\n", outcome.Result.Mean)
		fmt.Fprintf(out, "  Jain's fairness index: %.4f\n", outcome.Result.Fairness)
	}
	if len(succeeded) == 2 && succeeded[0].Result.Mean != 0 {
		fmt.Fprintf(out, "\n%s vs %s average completion time: %+.2f%%\n",
			PolicyName(succeeded[1].Label), PolicyName(succeeded[0].Label),
			utilities.SignedPercentDifference(succeeded[1].Result.Mean, succeeded[0].Result.Mean))
	}
	return out.Flush()
}
