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

package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/schedbench/goschedbench/distribution"
	"github.com/schedbench/goschedbench/samples"
	"github.com/schedbench/goschedbench/utilities"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmptySampleSet = errors.New("no samples to summarize")
	// Jain's index is undefined when every sample is zero.
	ErrDegenerateSamples = errors.New("samples are all zero")
)

// ExperimentResult summarizes the samples gathered for one value of a swept
// parameter.
type ExperimentResult struct {
	Parameter     string
	Samples       int
	Dropped       int
	Rejected      int // Negative or non-finite samples left out of the quantiles.
	Mean          float64
	StdDev        float64 // Population standard deviation.
	StdErr        float64 // Standard error of the mean (n-1 degrees of freedom).
	Fairness      float64 // Jain's fairness index.
	Minimum       float64
	Maximum       float64
	Median        float64
	LowerQuartile float64
	UpperQuartile float64
}

// Summarize computes the statistics of set. It fails with ErrEmptySampleSet
// when every sample was dropped.
func Summarize(set *samples.SampleSet[float64]) (ExperimentResult, error) {
	values := set.Values()
	result := ExperimentResult{
		Parameter: set.Label(),
		Samples:   len(values),
		Dropped:   set.Dropped(),
	}
	mean, ok := set.CalculateAverage()
	if !ok {
		return result, fmt.Errorf("%s: %w (%d of %d dropped)", set.Label(), ErrEmptySampleSet, set.Dropped(), set.Expected())
	}

	result.Mean = mean
	result.StdDev = utilities.CalculateStandardDeviation(values)
	if len(values) > 1 {
		result.StdErr = stat.StdErr(stat.StdDev(values, nil), float64(len(values)))
	}

	fairness, err := JainsFairnessIndex(values)
	if err != nil {
		result.Fairness = math.NaN()
	} else {
		result.Fairness = fairness
	}

	completionTimes := distribution.NewCompletionTimeDistribution()
	for _, value := range values {
		// Rejected samples still count towards the mean; they are only
		// left out of the quantiles.
		if err := completionTimes.AddSample(value); err != nil {
			result.Rejected++
		}
	}
	result.Minimum = completionTimes.GetMinimum()
	result.Maximum = completionTimes.GetMaximum()
	result.Median = completionTimes.GetMedian()
	result.LowerQuartile = completionTimes.GetPercentile(25)
	result.UpperQuartile = completionTimes.GetPercentile(75)

	return result, nil
}

// JainsFairnessIndex is (sum x)^2 / (n * sum x^2).
func JainsFairnessIndex(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySampleSet
	}
	index, ok := utilities.JainsFairnessIndex(values)
	if !ok {
		return 0, ErrDegenerateSamples
	}
	return index, nil
}

func (r ExperimentResult) String() string {
	return fmt.Sprintf(
		"%s: mean %.4f s, sd %.4f s, se %.4f s, Jain's index %.4f (%d samples, %d dropped)",
		r.Parameter,
		r.Mean,
		r.StdDev,
		r.StdErr,
		r.Fairness,
		r.Samples,
		r.Dropped,
	)
}
