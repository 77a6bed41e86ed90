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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/schedbench/goschedbench/utilities"
)

// Keys of the configuration document that the experiments read or rewrite.
const (
	KeyPacketWords = "p"
	KeyNumClients  = "num_clients"
	KeyClients     = "n"
	KeyMaxClients  = "max_clients"
	KeyPolicy      = "policy"
	KeyServerIP    = "server_ip"
	KeyServerPort  = "server_port"
)

var (
	ErrConfigMissing   = errors.New("configuration file not found")
	ErrConfigMalformed = errors.New("configuration file is malformed")
)

// RunConfiguration is the flat JSON object shared with the server and client
// binaries. Keys that the experiments do not know about are carried through
// a rewrite untouched.
type RunConfiguration struct {
	Source  string
	values  map[string]any
	// Keys set since the document was loaded.
	written map[string]bool
}

func New(source string) *RunConfiguration {
	return &RunConfiguration{Source: source, values: make(map[string]any), written: make(map[string]bool)}
}

func Load(path string) (*RunConfiguration, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrConfigMissing, path, err)
		}
		return nil, fmt.Errorf("could not read configuration %s: %w", path, err)
	}
	return Parse(contents, path)
}

func Parse(contents []byte, source string) (*RunConfiguration, error) {
	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.UseNumber()

	values := make(map[string]any)
	if err := decoder.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigMalformed, source, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after the configuration object", ErrConfigMalformed, source)
	}
	return &RunConfiguration{Source: source, values: values, written: make(map[string]bool)}, nil
}

func (c *RunConfiguration) Set(key string, value any) {
	c.values[key] = value
	c.written[key] = true
}

func (c *RunConfiguration) Get(key string) (any, bool) {
	value, ok := c.values[key]
	return value, ok
}

// Int reports the value of key when it holds an integer.
func (c *RunConfiguration) Int(key string) (int, bool) {
	value, ok := c.values[key]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		i, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Text reports the value of key when it holds a string.
func (c *RunConfiguration) Text(key string) (string, bool) {
	value, ok := c.values[key].(string)
	return value, ok
}

// Keys returns the keys of the document in sorted order.
func (c *RunConfiguration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Address is the server_ip:server_port pair that the client connects to.
func (c *RunConfiguration) Address() (string, bool) {
	ip, ok := c.Text(KeyServerIP)
	if !ok || len(ip) == 0 {
		return "", false
	}
	port, ok := c.Int(KeyServerPort)
	if !ok {
		return "", false
	}
	return net.JoinHostPort(ip, strconv.Itoa(port)), true
}

func (c *RunConfiguration) Marshal() ([]byte, error) {
	contents, err := json.MarshalIndent(c.values, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(contents, '\n'), nil
}

// Save writes the configuration back to where it was loaded from.
func (c *RunConfiguration) Save() error {
	return c.SaveAs(c.Source)
}

// SaveAs writes the configuration to path. The document is written to a
// temporary file in the same directory and renamed over path, so a reader
// never sees a partially written document.
func (c *RunConfiguration) SaveAs(path string) error {
	contents, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("could not serialize configuration for %s: %w", path, err)
	}

	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("could not create temporary file for %s: %w", path, err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(contents); err != nil {
		temporary.Close()
		return fmt.Errorf("could not write configuration to %s: %w", path, err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("could not write configuration to %s: %w", path, err)
	}
	if err := os.Chmod(temporary.Name(), 0o644); err != nil {
		return fmt.Errorf("could not set permissions on configuration %s: %w", path, err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("could not replace configuration %s: %w", path, err)
	}
	return nil
}

func (c *RunConfiguration) String() string {
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("Source: %s\n", c.Source))
	for _, key := range c.Keys() {
		builder.WriteString(fmt.Sprintf("%s: %v\n", key, c.values[key]))
	}
	return builder.String()
}

// IsValid checks every key of the document that the experiments know about.
func (c *RunConfiguration) IsValid() error {
	for _, key := range c.Keys() {
		if err := c.validate(key); err != nil {
			return err
		}
	}
	return nil
}

// validateWritten checks only the keys set since the document was loaded.
// Whatever else the document holds belongs to the binaries.
func (c *RunConfiguration) validateWritten() error {
	for _, key := range c.Keys() {
		if !c.written[key] {
			continue
		}
		if err := c.validate(key); err != nil {
			return err
		}
	}
	return nil
}

func (c *RunConfiguration) validate(key string) error {
	value, present := c.values[key]
	if !present {
		return nil
	}
	switch key {
	case KeyPacketWords, KeyNumClients, KeyClients, KeyMaxClients:
		if number, ok := c.Int(key); !ok || number <= 0 {
			return fmt.Errorf(
				"configuration value %s is invalid: %s",
				key,
				utilities.Conditional(ok, strconv.Itoa(number), "not an integer"),
			)
		}
	case KeyServerPort:
		if port, ok := c.Int(key); !ok || port < 1 || port > 65535 {
			return fmt.Errorf("configuration value %s is invalid: %v", key, value)
		}
	case KeyPolicy:
		if text, ok := value.(string); !ok || len(text) == 0 {
			return fmt.Errorf("configuration value %s is invalid: %v", key, value)
		}
	}
	return nil
}

// Mutate performs a locked read-modify-write of the configuration at path.
// Other Mutate calls on the same path, in this process or another, wait for
// the lock. Only the keys that mutate sets are validated. The configuration
// as written is returned.
func Mutate(path string, mutate func(*RunConfiguration) error) (*RunConfiguration, error) {
	lock, err := lockFile(path)
	if err != nil {
		return nil, err
	}
	defer lock.unlock()

	configuration, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := mutate(configuration); err != nil {
		return nil, fmt.Errorf("could not update configuration %s: %w", path, err)
	}
	if err := configuration.validateWritten(); err != nil {
		return nil, err
	}
	if err := configuration.Save(); err != nil {
		return nil, err
	}
	return configuration, nil
}

// Isolate writes a copy of the configuration at path, modified by mutate,
// into dir and returns the path of the copy. The shared file is left alone,
// so concurrent runs cannot observe each other's parameters.
func Isolate(path string, dir string, runID string, mutate func(*RunConfiguration) error) (string, error) {
	configuration, err := Load(path)
	if err != nil {
		return "", err
	}
	if err := mutate(configuration); err != nil {
		return "", fmt.Errorf("could not update configuration for run %s: %w", runID, err)
	}
	if err := configuration.validateWritten(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create directory for isolated configuration %s: %w", dir, err)
	}
	isolated := filepath.Join(dir, utilities.FilenameAppend(filepath.Base(path), "-"+runID))
	configuration.Source = isolated
	if err := configuration.Save(); err != nil {
		return "", err
	}
	return isolated, nil
}

// SetInt returns a mutation that sets key to value.
func SetInt(key string, value int) func(*RunConfiguration) error {
	return func(c *RunConfiguration) error {
		c.Set(key, value)
		return nil
	}
}

// SetClientCount returns a mutation that sets the number of clients. The
// count goes under "n" when the configuration uses that key and not
// "num_clients"; otherwise it goes under "num_clients".
func SetClientCount(count int) func(*RunConfiguration) error {
	return func(c *RunConfiguration) error {
		_, hasShort := c.Get(KeyClients)
		_, hasLong := c.Get(KeyNumClients)
		if hasShort && !hasLong {
			c.Set(KeyClients, count)
		} else {
			c.Set(KeyNumClients, count)
		}
		return nil
	}
}
