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

package ccw

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

type syncer interface {
	Sync() error
}

// ConcurrentWriter serializes writes from many goroutines onto one
// destination. When the destination is a file it is synced after each write.
type ConcurrentWriter struct {
	lock        sync.Mutex
	destination io.Writer
}

func NewConcurrentFileWriter(file *os.File) *ConcurrentWriter {
	return &ConcurrentWriter{sync.Mutex{}, file}
}

func NewConcurrentWriter(destination io.Writer) *ConcurrentWriter {
	return &ConcurrentWriter{sync.Mutex{}, destination}
}

func (ccw *ConcurrentWriter) Write(p []byte) (n int, err error) {
	ccw.lock.Lock()
	defer ccw.lock.Unlock()
	n, err = ccw.destination.Write(p)
	ccw.sync()
	return
}

// WriteBlock writes every line of block, each preceded by prefix, without
// letting another writer interleave.
func (ccw *ConcurrentWriter) WriteBlock(prefix string, block []byte) error {
	buffer := bytes.Buffer{}
	scanner := bufio.NewScanner(bytes.NewReader(block))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintf(&buffer, "%s%s\n", prefix, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	ccw.lock.Lock()
	defer ccw.lock.Unlock()
	_, err := ccw.destination.Write(buffer.Bytes())
	ccw.sync()
	return err
}

func (ccw *ConcurrentWriter) sync() {
	if s, ok := ccw.destination.(syncer); ok {
		s.Sync()
	}
}
