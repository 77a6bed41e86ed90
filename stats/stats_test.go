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
	"math"
	"testing"

	"github.com/schedbench/goschedbench/samples"
	"github.com/schedbench/goschedbench/utilities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSetOf(label string, values ...float64) *samples.SampleSet[float64] {
	set := samples.NewSampleSet[float64](label)
	for _, v := range values {
		set.AddElement(v)
	}
	return set
}

func TestSummarize(t *testing.T) {
	result, err := Summarize(sampleSetOf("p=1", 2, 4, 6))
	require.NoError(t, err)

	assert.Equal(t, "p=1", result.Parameter)
	assert.Equal(t, 3, result.Samples)
	assert.Equal(t, 0, result.Dropped)
	assert.Equal(t, 0, result.Rejected)
	assert.InEpsilon(t, 4.0, result.Mean, 0.000001)
	assert.InEpsilon(t, 1.632993, result.StdDev, 0.000001)
	// The sample standard deviation is 2, so the standard error is 2/sqrt(3).
	assert.InEpsilon(t, 2.0/math.Sqrt(3), result.StdErr, 0.000001)
	assert.InEpsilon(t, 144.0/168.0, result.Fairness, 0.000001)
	assert.InEpsilon(t, 2.0, result.Minimum, 0.000001)
	assert.InEpsilon(t, 6.0, result.Maximum, 0.000001)
	assert.InEpsilon(t, 4.0, result.Median, 0.000001)
}

func TestSummarizeSingleSample(t *testing.T) {
	result, err := Summarize(sampleSetOf("n=1", 3.5))
	require.NoError(t, err)
	assert.InEpsilon(t, 3.5, result.Mean, 0.000001)
	assert.Equal(t, 0.0, result.StdDev)
	assert.Equal(t, 0.0, result.StdErr)
	assert.InEpsilon(t, 1.0, result.Fairness, 0.000001)
}

func TestSummarizeCountsDrops(t *testing.T) {
	set := sampleSetOf("fair", 1, 2)
	set.AddOptional(utilities.None[float64]())
	result, err := Summarize(set)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Samples)
	assert.Equal(t, 1, result.Dropped)
}

func TestSummarizeEmpty(t *testing.T) {
	set := samples.NewSampleSet[float64]("fifo")
	set.Drop()
	result, err := Summarize(set)
	assert.True(t, errors.Is(err, ErrEmptySampleSet))
	assert.ErrorContains(t, err, "1 of 1 dropped")
	assert.Equal(t, 1, result.Dropped)
}

func TestSummarizeAllZero(t *testing.T) {
	result, err := Summarize(sampleSetOf("zero", 0, 0))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(result.Fairness))
}

func TestJainsFairnessIndex(t *testing.T) {
	index, err := JainsFairnessIndex([]float64{10, 10})
	require.NoError(t, err)
	assert.InEpsilon(t, 1.0, index, 0.000001)

	index, err = JainsFairnessIndex([]float64{1, 9})
	require.NoError(t, err)
	assert.InDelta(t, 0.61, index, 0.01)

	_, err = JainsFairnessIndex(nil)
	assert.True(t, errors.Is(err, ErrEmptySampleSet))
	_, err = JainsFairnessIndex([]float64{0})
	assert.True(t, errors.Is(err, ErrDegenerateSamples))
}

func TestSummarizeCountsRejectedSamples(t *testing.T) {
	result, err := Summarize(sampleSetOf("rogue", 2, -1, 4, math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Samples)
	assert.Equal(t, 2, result.Rejected)
	// The extremes come from the valid completion times only.
	assert.InEpsilon(t, 2.0, result.Minimum, 0.000001)
	assert.InEpsilon(t, 4.0, result.Maximum, 0.000001)
}
