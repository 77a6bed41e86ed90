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

package datalogger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
)

type DataLogger[T any] interface {
	LogRecord(record T)
	Export() bool
	Close() bool
}

// CSVDataLogger buffers records and writes them as CSV on Export. Column
// names come from the Description tag of each field and fall back to the
// field name.
type CSVDataLogger[T any] struct {
	mut         *sync.Mutex
	recordCount int
	data        []T
	isOpen      bool
	destination io.WriteCloser
}

func CreateCSVDataLogger[T any](filename string) (DataLogger[T], error) {
	destination, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CSV data logger %s: %w", filename, err)
	}
	return NewCSVDataLogger[T](destination), nil
}

// NewCSVDataLogger exports to destination, which is closed by Close.
func NewCSVDataLogger[T any](destination io.WriteCloser) DataLogger[T] {
	return &CSVDataLogger[T]{&sync.Mutex{}, 0, make([]T, 0), true, destination}
}

func (logger *CSVDataLogger[T]) LogRecord(record T) {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	logger.recordCount += 1
	logger.data = append(logger.data, record)
}

func (logger *CSVDataLogger[T]) Export() bool {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	if !logger.isOpen {
		return false
	}

	visibleFields := reflect.VisibleFields(reflect.TypeOf(new(T)).Elem())
	writer := csv.NewWriter(logger.destination)

	header := make([]string, 0, len(visibleFields))
	for _, v := range visibleFields {
		columnName := v.Name
		if description, success := v.Tag.Lookup("Description"); success {
			columnName = description
		}
		header = append(header, columnName)
	}
	if writer.Write(header) != nil {
		return false
	}

	for _, d := range logger.data {
		data := reflect.ValueOf(d)
		row := make([]string, 0, len(visibleFields))
		for _, v := range visibleFields {
			row = append(row, fmt.Sprintf("%v", data.FieldByIndex(v.Index)))
		}
		if writer.Write(row) != nil {
			return false
		}
	}
	writer.Flush()
	return writer.Error() == nil
}

func (logger *CSVDataLogger[T]) Close() bool {
	logger.mut.Lock()
	defer logger.mut.Unlock()
	if !logger.isOpen {
		return false
	}
	logger.destination.Close()
	logger.isOpen = false
	return true
}

// NullDataLogger discards every record.
type NullDataLogger[T any] struct{}

func CreateNullDataLogger[T any]() DataLogger[T] {
	return &NullDataLogger[T]{}
}

func (NullDataLogger[T]) LogRecord(_ T) {}
func (NullDataLogger[T]) Export() bool  { return true }
func (NullDataLogger[T]) Close() bool   { return true }
