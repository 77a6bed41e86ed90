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

package executor

import (
	"context"
	"sync"
)

type ExecutionMethod int

const (
	Parallel ExecutionMethod = iota
	Serial
)

type ExecutionUnit func()

func (ep ExecutionMethod) ToString() string {
	switch ep {
	case Parallel:
		return "Parallel"
	case Serial:
		return "Serial"
	}
	return "Unrecognized execution method"
}

func Execute(executionMethod ExecutionMethod, executionUnits []ExecutionUnit) *sync.WaitGroup {
	waiter := &sync.WaitGroup{}

	// Make sure that we Add to the wait group all the execution units
	// before starting to run any -- there is a potential race condition
	// otherwise.
	waiter.Add(len(executionUnits))

	for _, executionUnit := range executionUnits {
		executionUnit := executionUnit

		invoker := func() {
			executionUnit()
			waiter.Done()
		}
		switch executionMethod {
		case Parallel:
			go invoker()
		case Serial:
			invoker()
		default:
			panic("Invalid execution method value given.")
		}
	}

	return waiter
}

// Task is a unit of work that produces a result.
type Task[T any] func(ctx context.Context) T

// Bounded runs tasks on at most workers goroutines. Each result is delivered
// on the returned channel as soon as its task completes, so results arrive in
// completion order rather than submission order. The channel is closed once
// every task has completed. Tasks that have not started when ctx is done are
// still handed ctx, and should return promptly.
func Bounded[T any](ctx context.Context, workers int, tasks []Task[T]) <-chan T {
	if workers <= 0 {
		workers = 1
	}
	results := make(chan T, len(tasks))
	queue := make(chan Task[T])

	waiter := &sync.WaitGroup{}
	waiter.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer waiter.Done()
			for task := range queue {
				results <- task(ctx)
			}
		}()
	}

	go func() {
		for _, task := range tasks {
			queue <- task
		}
		close(queue)
		waiter.Wait()
		close(results)
	}()

	return results
}

// Collect runs tasks with Bounded and blocks until all of them have
// completed. The results are in completion order.
func Collect[T any](ctx context.Context, workers int, tasks []Task[T]) []T {
	collected := make([]T, 0, len(tasks))
	for result := range Bounded(ctx, workers, tasks) {
		collected = append(collected, result)
	}
	return collected
}
