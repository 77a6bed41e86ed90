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
package samples

import (
	"testing"

	"github.com/schedbench/goschedbench/utilities"
	"github.com/stretchr/testify/assert"
)

func TestAddOptional(t *testing.T) {
	set := NewSampleSet[float64]("p=1")
	assert.True(t, set.AddOptional(utilities.Some(1.5)))
	assert.False(t, set.AddOptional(utilities.None[float64]()))
	assert.True(t, set.AddOptional(utilities.Some(2.5)))

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 1, set.Dropped())
	assert.Equal(t, 3, set.Expected())
	assert.Equal(t, []float64{1.5, 2.5}, set.Values())
	assert.Equal(t, "p=1: 2 samples (1 dropped)", set.String())
}

func TestValuesIsACopy(t *testing.T) {
	set := NewSampleSet[int]("n=4")
	set.AddElement(1)
	values := set.Values()
	values[0] = 100
	assert.Equal(t, []int{1}, set.Values())
}

func TestCalculateAverage(t *testing.T) {
	set := NewSampleSet[float64]("empty")
	_, ok := set.CalculateAverage()
	assert.False(t, ok)

	set.AddElement(2)
	set.AddElement(4)
	average, ok := set.CalculateAverage()
	assert.True(t, ok)
	assert.InEpsilon(t, 3.0, average, 0.000001)
}
