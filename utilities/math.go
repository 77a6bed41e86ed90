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

package utilities

import (
	"math"

	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Float | constraints.Integer
}

func CalculateAverage[T Number](elements []T) float64 {
	total := float64(0)
	for i := 0; i < len(elements); i++ {
		total += float64(elements[i])
	}
	return total / float64(len(elements))
}

func SignedPercentDifference[T Number](
	current T,
	previous T,
) (difference float64) {
	fCurrent := float64(current)
	fPrevious := float64(previous)
	return ((fCurrent - fPrevious) / fPrevious) * 100.0
}

// CalculateStandardDeviation is the population standard deviation: the
// squared differences are divided by the number of elements.
func CalculateStandardDeviation[T Number](elements []T) float64 {
	average := CalculateAverage(elements)

	sds := float64(0)
	for _, value := range elements {
		sds += math.Pow(float64(value)-average, 2)
	}

	variance := sds / float64(len(elements))
	return math.Sqrt(variance)
}

// JainsFairnessIndex is (sum x)^2 / (n * sum x^2). For n positive values the
// result lies in [1/n, 1] and is 1 exactly when every value is the same.
// The second return value is false when the index is undefined (no elements
// or every element zero).
func JainsFairnessIndex[T Number](elements []T) (float64, bool) {
	if len(elements) == 0 {
		return 0, false
	}
	sum := float64(0)
	sumOfSquares := float64(0)
	for _, value := range elements {
		sum += float64(value)
		sumOfSquares += float64(value) * float64(value)
	}
	if sumOfSquares == 0 {
		return 0, false
	}
	return (sum * sum) / (float64(len(elements)) * sumOfSquares), true
}
