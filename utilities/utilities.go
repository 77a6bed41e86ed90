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
	"path/filepath"
	"strings"
	"time"
)

func Conditional[T any](condition bool, t T, f T) T {
	if condition {
		return t
	}
	return f
}

// FilenameAppend inserts appendage between the stem of filename and its
// extension: testing.csv + -appended = testing-appended.csv.
func FilenameAppend(filename, appendage string) string {
	extension := filepath.Ext(filename)
	return strings.TrimSuffix(filename, extension) + appendage + extension
}

// Iota returns the integers in [low, high).
func Iota(low int, high int) []int {
	if high <= low {
		return []int{}
	}
	result := make([]int, 0, high-low)
	for i := low; i < high; i++ {
		result = append(result, i)
	}
	return result
}

// IotaStep returns low, low+step, ... up to and including high.
func IotaStep(low int, high int, step int) []int {
	result := make([]int, 0)
	if step <= 0 {
		return result
	}
	for i := low; i <= high; i += step {
		result = append(result, i)
	}
	return result
}

// OrTimeout runs f and returns when f returns or when timeout elapses,
// whichever happens first. It reports whether f finished in time. When it did
// not, f is left running in the background.
func OrTimeout(f func(), timeout time.Duration) bool {
	completeChannel := make(chan interface{}, 1)
	go func() {
		f()
		completeChannel <- nil
	}()
	select {
	case <-completeChannel:
		return true
	case <-time.After(timeout):
		return false
	}
}

func Filter[S any](elements []S, predicate func(S) bool) []S {
	result := make([]S, 0, len(elements))
	for _, s := range elements {
		if predicate(s) {
			result = append(result, s)
		}
	}
	return result
}

func Fmap[S any, F any](elements []S, mapper func(S) F) []F {
	result := make([]F, 0, len(elements))
	for _, s := range elements {
		result = append(result, mapper(s))
	}
	return result
}
