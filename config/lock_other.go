//go:build !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd
// +build !darwin,!dragonfly,!freebsd,!linux,!netbsd,!openbsd

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

package config

import "sync"

// Without flock the lock only serializes writers inside this process.
var processLock sync.Mutex

type fileLock struct{}

func lockFile(path string) (*fileLock, error) {
	processLock.Lock()
	return &fileLock{}, nil
}

func (l *fileLock) unlock() error {
	processLock.Unlock()
	return nil
}
