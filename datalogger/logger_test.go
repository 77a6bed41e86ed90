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
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Parameter string  `Description:"parameter"`
	Client    int     `Description:"client"`
	Elapsed   float64 `Description:"completion time (s)"`
	Note      string
}

func TestCSVDataLoggerExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")
	logger, err := CreateCSVDataLogger[point](path)
	require.NoError(t, err)

	logger.LogRecord(point{"p=1", 0, 0.5, "plain"})
	logger.LogRecord(point{"p=2", 1, 1.25, "has, comma"})
	assert.True(t, logger.Export())
	assert.True(t, logger.Close())
	assert.False(t, logger.Close())
	assert.False(t, logger.Export())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"parameter,client,completion time (s),Note\n"+
			"p=1,0,0.5,plain\n"+
			"p=2,1,1.25,\"has, comma\"\n",
		string(contents))
}

func TestCSVDataLoggerConcurrentRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.csv")
	logger, err := CreateCSVDataLogger[point](path)
	require.NoError(t, err)

	wg := sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.LogRecord(point{Client: id})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, logger.(*CSVDataLogger[point]).recordCount)
	logger.Close()
}

func TestCreateCSVDataLoggerBadPath(t *testing.T) {
	_, err := CreateCSVDataLogger[point](filepath.Join(t.TempDir(), "missing", "samples.csv"))
	assert.Error(t, err)
}

func TestNullDataLogger(t *testing.T) {
	logger := CreateNullDataLogger[point]()
	logger.LogRecord(point{})
	assert.True(t, logger.Export())
	assert.True(t, logger.Close())
}
