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

package experiment

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/schedbench/goschedbench/debug"
	"github.com/schedbench/goschedbench/parser"
	"github.com/schedbench/goschedbench/samples"
	"github.com/schedbench/goschedbench/utilities"
)

// ClientSample is the completion time reported by one client.
type ClientSample struct {
	ID    int
	Value float64
}

// CollectFileSamples reads the completion time of clients 0 through
// count-1 from their output files in dir. A file that is missing or holds no
// completion time costs one warning and one dropped sample.
func CollectFileSamples(
	dir string,
	label string,
	count int,
	debugging *debug.DebugWithPrefix,
) (*samples.SampleSet[float64], []ClientSample) {
	set := samples.NewSampleSet[float64](label)
	collected := make([]ClientSample, 0, count)
	for _, id := range utilities.Iota(0, count) {
		path := filepath.Join(dir, parser.ClientFileName(id))
		value, err := parser.ParseClientFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				debugging.Logger().Warnf("Output file %s not found; no valid time for client %d.", path, id)
			} else {
				debugging.Logger().Warnf("Could not read output file of client %d: %v", id, err)
			}
			set.Drop()
			continue
		}
		if utilities.IsNone(value) {
			debugging.Logger().Warnf("No valid time found for client %d in %s.", id, path)
			set.Drop()
			continue
		}
		set.AddElement(utilities.GetSome(value))
		collected = append(collected, ClientSample{ID: id, Value: utilities.GetSome(value)})
	}
	return set, collected
}

// removeClientFiles deletes the output files of clients 0 through count-1 so
// that results of an earlier run cannot be mistaken for new ones.
func removeClientFiles(dir string, count int) error {
	problems := make([]string, 0)
	for _, id := range utilities.Iota(0, count) {
		err := os.Remove(filepath.Join(dir, parser.ClientFileName(id)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
