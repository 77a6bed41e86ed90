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
package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicCompletionTimeDistribution(t *testing.T) {
	d := NewCompletionTimeDistribution()
	assert.NoError(t, d.AddSample(1.0))
	assert.NoError(t, d.AddSample(2.0))
	assert.NoError(t, d.AddSample(3.0))
	assert.InEpsilon(t, 1.0, d.GetMinimum(), 0.000001)
	assert.InEpsilon(t, 3.0, d.GetMaximum(), 0.000001)
	assert.InEpsilon(t, 2.0, d.GetMedian(), 0.000001)
	assert.InEpsilon(t, 1.0, d.GetPercentile(10.0), 0.000001)
	assert.InEpsilon(t, 3.0, d.GetPercentile(90.0), 0.000001)
}

func TestRejectsInvalidSamples(t *testing.T) {
	d := NewCompletionTimeDistribution()
	assert.Error(t, d.AddSample(-1.0))
	assert.Error(t, d.AddSample(math.NaN()))
	assert.Error(t, d.AddSample(math.Inf(1)))
	assert.NoError(t, d.AddSample(0.0))
	assert.Equal(t, 0.0, d.GetMinimum())
	assert.Equal(t, 0.0, d.GetMaximum())
}

func TestEmptyDistribution(t *testing.T) {
	d := NewCompletionTimeDistribution()
	assert.True(t, math.IsNaN(d.GetMedian()))
	assert.True(t, math.IsNaN(d.GetMaximum()))
	assert.True(t, math.IsNaN(d.GetMinimum()))
}

func TestManySamples(t *testing.T) {
	d := NewCompletionTimeDistribution()
	for i := 1; i < 160000; i++ {
		d.AddSample(float64(i) / 10000.0)
	}
	assert.InEpsilon(t, 0.0001, d.GetMinimum(), 0.000001)
	assert.InEpsilon(t, 15.9999, d.GetMaximum(), 0.000001)
	assert.InEpsilon(t, 8.0, d.GetMedian(), 0.01)
	assert.InEpsilon(t, 1.6, d.GetPercentile(10), 0.01)
}
