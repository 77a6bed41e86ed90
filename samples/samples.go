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
	"fmt"

	"github.com/schedbench/goschedbench/utilities"
)

// SampleSet is the ordered collection of completion times gathered for one
// value of a swept parameter. Samples that could not be obtained are counted
// but not stored.
type SampleSet[T utilities.Number] struct {
	label    string
	elements []T
	dropped  int
}

func NewSampleSet[T utilities.Number](label string) *SampleSet[T] {
	return &SampleSet[T]{label: label, elements: make([]T, 0)}
}

func (s *SampleSet[T]) AddElement(element T) {
	s.elements = append(s.elements, element)
}

// AddOptional stores the sample when there is one and counts a drop when
// there is not. It reports whether a sample was stored.
func (s *SampleSet[T]) AddOptional(element utilities.Optional[T]) bool {
	if utilities.IsNone(element) {
		s.dropped++
		return false
	}
	s.AddElement(utilities.GetSome(element))
	return true
}

func (s *SampleSet[T]) Drop() {
	s.dropped++
}

func (s *SampleSet[T]) Label() string {
	return s.label
}

func (s *SampleSet[T]) Len() int {
	return len(s.elements)
}

func (s *SampleSet[T]) Dropped() int {
	return s.dropped
}

// Expected is the number of samples that were attempted.
func (s *SampleSet[T]) Expected() int {
	return len(s.elements) + s.dropped
}

// Values returns a copy of the samples in the order they were added.
func (s *SampleSet[T]) Values() []T {
	values := make([]T, len(s.elements))
	copy(values, s.elements)
	return values
}

func (s *SampleSet[T]) CalculateAverage() (float64, bool) {
	if len(s.elements) == 0 {
		return 0, false
	}
	return utilities.CalculateAverage(s.elements), true
}

func (s *SampleSet[T]) String() string {
	return fmt.Sprintf("%s: %d samples (%d dropped)", s.label, len(s.elements), s.dropped)
}
