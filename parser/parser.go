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

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/utilities"
)

type Method int

const (
	// Only structured result records are accepted.
	Record Method = iota
	// The first token after the last occurrence of a marker string.
	Marker
	// The second-to-last token of the output ("Time taken: X seconds").
	TrailingToken
)

func (m Method) ToString() string {
	switch m {
	case Record:
		return "record"
	case Marker:
		return "marker"
	case TrailingToken:
		return "trailing"
	}
	return "Unrecognized parsing method"
}

func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(name) {
	case "record":
		return Record, nil
	case "marker":
		return Marker, nil
	case "trailing":
		return TrailingToken, nil
	}
	return Record, fmt.Errorf("unrecognized parsing method %q", name)
}

// Parser extracts a completion time, in seconds, from a client's stdout.
type Parser struct {
	Method Method
	Marker string
}

// NewParser returns a parser using method. The marker only matters to the
// Marker method; an empty one stands for the default completion marker.
func NewParser(method Method, marker string) Parser {
	return Parser{Method: method, Marker: marker}
}

// Parse prefers a structured result record when the output contains one and
// falls back to the configured method otherwise.
func (p Parser) Parse(output string) utilities.Optional[float64] {
	if record := FindRecord(output); utilities.IsSome(record) {
		if elapsed := utilities.GetSome(record).Elapsed(); utilities.IsSome(elapsed) {
			return elapsed
		}
	}
	switch p.Method {
	case Marker:
		return MarkedValue(output, utilities.Conditional(len(p.Marker) != 0, p.Marker, constants.CompletionMarker))
	case TrailingToken:
		return TrailingValue(output)
	}
	return utilities.None[float64]()
}

// MarkedValue scans output from the end for a line containing marker and
// parses the first token that follows the marker on that line.
func MarkedValue(output string, marker string) utilities.Optional[float64] {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		index := strings.Index(lines[i], marker)
		if index < 0 {
			continue
		}
		fields := strings.Fields(lines[i][index+len(marker):])
		if len(fields) == 0 {
			return utilities.None[float64]()
		}
		return parseFloat(fields[0])
	}
	return utilities.None[float64]()
}

// TrailingValue parses the second-to-last whitespace-separated token of
// output, which is where "Time taken: 0.25 seconds" keeps its number.
func TrailingValue(output string) utilities.Optional[float64] {
	fields := strings.Fields(output)
	if len(fields) < 2 {
		return utilities.None[float64]()
	}
	return parseFloat(fields[len(fields)-2])
}

// Result records look like
//
//	SCHEDBENCH-RESULT elapsed=0.52 client=3 policy=fair
//
// and carry the client's measurements as key=value pairs.
type ResultRecord struct {
	Fields map[string]string
}

func (r ResultRecord) Elapsed() utilities.Optional[float64] {
	value, ok := r.Fields["elapsed"]
	if !ok {
		return utilities.None[float64]()
	}
	return parseFloat(value)
}

// FindRecord returns the last result record in output.
func FindRecord(output string) utilities.Optional[ResultRecord] {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 || fields[0] != constants.ResultRecordPrefix {
			continue
		}
		record := ResultRecord{Fields: make(map[string]string)}
		for _, field := range fields[1:] {
			key, value, found := strings.Cut(field, "=")
			if !found || len(key) == 0 {
				continue
			}
			record.Fields[key] = value
		}
		return utilities.Some(record)
	}
	return utilities.None[ResultRecord]()
}

func ClientFileName(id int) string {
	return fmt.Sprintf(constants.ClientOutputFilePattern, id)
}

// ParseClientFile reads a per-client output file. The completion time is the
// second comma- or space-separated token of the last non-empty line. A missing
// file is an error (wrapping fs.ErrNotExist); a file whose last line holds no
// number yields None.
func ParseClientFile(path string) (utilities.Optional[float64], error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return utilities.None[float64](), fmt.Errorf("output file %s not found: %w", path, err)
		}
		return utilities.None[float64](), fmt.Errorf("could not open output file %s: %w", path, err)
	}
	defer file.Close()

	lastLine := ""
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); len(line) != 0 {
			lastLine = line
		}
	}
	if err := scanner.Err(); err != nil {
		return utilities.None[float64](), fmt.Errorf("could not read output file %s: %w", path, err)
	}

	tokens := strings.FieldsFunc(lastLine, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(tokens) < 2 {
		return utilities.None[float64](), nil
	}
	return parseFloat(tokens[1]), nil
}

func parseFloat(token string) utilities.Optional[float64] {
	value, err := strconv.ParseFloat(strings.TrimSpace(token), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return utilities.None[float64]()
	}
	return utilities.Some(value)
}
