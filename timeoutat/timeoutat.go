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

package timeoutat

import (
	"context"
	"time"

	"github.com/schedbench/goschedbench/debug"
)

// TimeoutAt returns a channel that receives one value when when arrives or
// ctx is done, whichever happens first. The channel is buffered so the timer
// goroutine never leaks when nobody is listening.
func TimeoutAt(
	ctx context.Context,
	when time.Time,
	debugging *debug.DebugWithPrefix,
) (response chan interface{}) {
	response = make(chan interface{}, 1)
	go func() {
		if debugging != nil && debug.IsDebug(debugging.Level) {
			debugging.Logger().Debugf("Timeout expected to end at %v", when)
		}
		timer := time.NewTimer(time.Until(when))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
		response <- struct{}{}
		if debugging != nil && debug.IsDebug(debugging.Level) {
			debugging.Logger().Debugf("Timeout ended at %v", time.Now())
		}
	}()
	return
}

// TimeoutAfter is TimeoutAt for a window that starts now.
func TimeoutAfter(
	ctx context.Context,
	window time.Duration,
	debugging *debug.DebugWithPrefix,
) chan interface{} {
	return TimeoutAt(ctx, time.Now().Add(window), debugging)
}
