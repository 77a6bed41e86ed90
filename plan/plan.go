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

package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/schedbench/goschedbench/constants"
	"github.com/schedbench/goschedbench/parser"
	"github.com/schedbench/goschedbench/utilities"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	PacketSweep Kind = "packet-sweep"
	ClientSweep Kind = "client-sweep"
	PolicySweep Kind = "policy-sweep"
	Rogue       Kind = "rogue"
	RogueFiles  Kind = "rogue-files"
)

var Kinds = []Kind{PacketSweep, ClientSweep, PolicySweep, Rogue, RogueFiles}

// Sample sources besides the parser methods: the wall-clock time of the
// client process and the per-client output files.
const (
	SourceElapsed = "elapsed"
	SourceFiles   = "files"
)

var (
	ErrUnknownKind       = errors.New("unknown experiment kind")
	ErrInvalidExperiment = errors.New("invalid experiment")
	ErrPlanMalformed     = errors.New("experiment plan is malformed")
)

const (
	EnvServer  = "SCHEDBENCH_SERVER"
	EnvClient  = "SCHEDBENCH_CLIENT"
	EnvWorkDir = "SCHEDBENCH_WORKDIR"
)

func ParseKind(name string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Kinds, kind) {
		return "", fmt.Errorf("%q: %w", name, ErrUnknownKind)
	}
	return kind, nil
}

// Experiment describes one experiment of a plan. Fields left at their zero
// value take the defaults of the experiment's kind.
type Experiment struct {
	Name     string   `yaml:"name" json:"name"`
	Kind     Kind     `yaml:"kind" json:"kind"`
	Config   string   `yaml:"config" json:"config"`
	Values   []int    `yaml:"values" json:"values"`
	Policies []string `yaml:"policies" json:"policies"`
	Runs     int      `yaml:"runs" json:"runs"`
	Source   string   `yaml:"source" json:"source"`
	Marker   string   `yaml:"marker" json:"marker"`
	Output   string   `yaml:"output" json:"output"`
	Summary  string   `yaml:"summary" json:"summary"`
	CSV      string   `yaml:"csv" json:"csv"`
	Window   string   `yaml:"window" json:"window"`

	// Give every client invocation a private copy of the configuration.
	Isolate bool `yaml:"isolate" json:"isolate"`
	// Start a fresh server for every point of the experiment.
	ManageServer *bool `yaml:"manage_server" json:"manage_server"`
	// Invoke the client with the configuration file as its argument.
	PassConfig *bool `yaml:"pass_config" json:"pass_config"`

	// Rogue-client parameters.
	Pool          int `yaml:"pool" json:"pool"`
	Repeats       int `yaml:"repeats" json:"repeats"`
	NormalClients int `yaml:"normal_clients" json:"normal_clients"`
	RogueClients  int `yaml:"rogue_clients" json:"rogue_clients"`
	ConfigClients int `yaml:"config_clients" json:"config_clients"`
}

func boolPointer(value bool) *bool {
	return &value
}

// Defaults returns the experiment of kind as it runs when nothing is
// overridden.
func Defaults(kind Kind) Experiment {
	experiment := Experiment{
		Name:   string(kind),
		Kind:   kind,
		Config: constants.DefaultConfigPath,
		Marker: constants.CompletionMarker,
	}
	switch kind {
	case PacketSweep:
		experiment.Values = slices.Clone(constants.DefaultPacketWords)
		experiment.Runs = constants.DefaultRunsPerValue
		experiment.Source = parser.TrailingToken.ToString()
		experiment.Output = constants.DefaultPlotFile
		experiment.ManageServer = boolPointer(false)
		experiment.PassConfig = boolPointer(true)
	case ClientSweep:
		// The client counts come from the configuration's max_clients when
		// none are given.
		experiment.Runs = 1
		experiment.Source = SourceFiles
		experiment.Output = constants.DefaultPlotFile
		experiment.ManageServer = boolPointer(true)
		experiment.PassConfig = boolPointer(false)
	case PolicySweep:
		experiment.Values = slices.Clone(constants.DefaultPolicySweepClients)
		experiment.Policies = slices.Clone(constants.SchedulingPolicies)
		experiment.Runs = 1
		experiment.Source = parser.Marker.ToString()
		experiment.Output = constants.SchedulingPlotFile
		experiment.ManageServer = boolPointer(true)
		experiment.PassConfig = boolPointer(false)
	case Rogue:
		experiment.Config = constants.DefaultRogueConfigPath
		experiment.Policies = []string{constants.SchedulingPolicyFair, constants.SchedulingPolicyFIFO}
		experiment.Runs = 1
		experiment.Source = parser.Marker.ToString()
		experiment.Summary = constants.FairnessSummaryFile
		experiment.ManageServer = boolPointer(true)
		experiment.PassConfig = boolPointer(true)
		experiment.Pool = constants.DefaultPoolSize
		experiment.Repeats = constants.DefaultRogueRepeats
		experiment.NormalClients = constants.DefaultNormalClients
		experiment.ConfigClients = constants.DefaultRogueConfigClients
	case RogueFiles:
		experiment.Policies = slices.Clone(constants.SchedulingPolicies)
		experiment.Runs = 1
		experiment.Source = SourceFiles
		experiment.Output = constants.RogueResultsPlotFile
		experiment.Window = constants.DefaultExperimentWindow.String()
		experiment.ManageServer = boolPointer(true)
		experiment.PassConfig = boolPointer(false)
		experiment.NormalClients = constants.DefaultNormalClients
		experiment.RogueClients = constants.DefaultRogueFileClients
		experiment.ConfigClients = 1
	}
	return experiment
}

// WithDefaults fills every field left at its zero value from the defaults of
// the experiment's kind.
func (e Experiment) WithDefaults() Experiment {
	defaults := Defaults(e.Kind)
	e.Name = utilities.Conditional(e.Name == "", defaults.Name, e.Name)
	e.Config = utilities.Conditional(e.Config == "", defaults.Config, e.Config)
	if len(e.Values) == 0 {
		e.Values = defaults.Values
	}
	if len(e.Policies) == 0 {
		e.Policies = defaults.Policies
	}
	e.Runs = utilities.Conditional(e.Runs == 0, defaults.Runs, e.Runs)
	e.Source = utilities.Conditional(e.Source == "", defaults.Source, e.Source)
	e.Marker = utilities.Conditional(e.Marker == "", constants.CompletionMarker, e.Marker)
	e.Output = utilities.Conditional(e.Output == "", defaults.Output, e.Output)
	e.Summary = utilities.Conditional(e.Summary == "", defaults.Summary, e.Summary)
	e.Window = utilities.Conditional(e.Window == "", defaults.Window, e.Window)
	if e.ManageServer == nil {
		e.ManageServer = defaults.ManageServer
	}
	if e.PassConfig == nil {
		e.PassConfig = defaults.PassConfig
	}
	e.Pool = utilities.Conditional(e.Pool == 0, defaults.Pool, e.Pool)
	e.Repeats = utilities.Conditional(e.Repeats == 0, defaults.Repeats, e.Repeats)
	e.NormalClients = utilities.Conditional(e.NormalClients == 0, defaults.NormalClients, e.NormalClients)
	e.RogueClients = utilities.Conditional(e.RogueClients == 0, defaults.RogueClients, e.RogueClients)
	e.ConfigClients = utilities.Conditional(e.ConfigClients == 0, defaults.ConfigClients, e.ConfigClients)
	return e
}

func (e Experiment) StartsServer() bool {
	return e.ManageServer != nil && *e.ManageServer
}

func (e Experiment) PassesConfig() bool {
	return e.PassConfig != nil && *e.PassConfig
}

// WindowDuration is the longest time that background clients may run.
func (e Experiment) WindowDuration() (time.Duration, error) {
	if e.Window == "" {
		return constants.DefaultExperimentWindow, nil
	}
	window, err := time.ParseDuration(e.Window)
	if err != nil {
		return 0, fmt.Errorf("%s: window %q: %w", e.Name, e.Window, ErrInvalidExperiment)
	}
	return window, nil
}

// Parser returns the output parser named by the experiment's source, or None
// when samples do not come from client stdout.
func (e Experiment) Parser() utilities.Optional[parser.Parser] {
	method, err := parser.ParseMethod(e.Source)
	if err != nil {
		return utilities.None[parser.Parser]()
	}
	return utilities.Some(parser.NewParser(method, e.Marker))
}

func (e Experiment) invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s: %w", e.Name, fmt.Sprintf(format, args...), ErrInvalidExperiment)
}

func (e Experiment) IsValid() error {
	if !slices.Contains(Kinds, e.Kind) {
		return fmt.Errorf("%s: %q: %w", e.Name, e.Kind, ErrUnknownKind)
	}
	if e.Config == "" {
		return e.invalid("no configuration file")
	}
	if e.Runs <= 0 {
		return e.invalid("runs must be positive (got %d)", e.Runs)
	}
	switch e.Source {
	case SourceElapsed, SourceFiles:
	default:
		if _, err := parser.ParseMethod(e.Source); err != nil {
			return e.invalid("unknown sample source %q", e.Source)
		}
	}
	for _, value := range e.Values {
		if value <= 0 {
			return e.invalid("swept values must be positive (got %d)", value)
		}
	}
	for _, policy := range e.Policies {
		if !slices.Contains(constants.SchedulingPolicies, policy) {
			return e.invalid("unknown scheduling policy %q", policy)
		}
	}
	if e.Isolate && !e.PassesConfig() {
		return e.invalid("isolated configurations must be passed to the client")
	}
	if _, err := e.WindowDuration(); err != nil {
		return err
	}

	switch e.Kind {
	case PacketSweep:
		if len(e.Values) == 0 {
			return e.invalid("no packet sizes to sweep")
		}
	case ClientSweep:
		if e.Source != SourceFiles {
			return e.invalid("client sweeps read per-client output files")
		}
	case PolicySweep:
		if len(e.Values) == 0 || len(e.Policies) == 0 {
			return e.invalid("no client counts or policies to sweep")
		}
	case Rogue:
		if len(e.Policies) == 0 {
			return e.invalid("no policies to compare")
		}
		if e.Pool <= 0 || e.Repeats <= 0 || e.NormalClients < 0 || e.ConfigClients <= 0 {
			return e.invalid("pool, repeats and client counts must be positive")
		}
	case RogueFiles:
		if len(e.Policies) == 0 {
			return e.invalid("no policies to compare")
		}
		if e.Source != SourceFiles {
			return e.invalid("the file-based rogue experiment reads per-client output files")
		}
		if e.NormalClients+e.RogueClients <= 0 {
			return e.invalid("no clients to launch")
		}
	}
	return nil
}

// Plan is a list of experiments that share the server and client binaries
// and a working directory.
type Plan struct {
	Server      string       `yaml:"server" json:"server"`
	Client      string       `yaml:"client" json:"client"`
	WorkDir     string       `yaml:"workdir" json:"workdir"`
	Experiments []Experiment `yaml:"experiments" json:"experiments"`
}

// New returns a plan of the given experiments with the default binaries.
func New(experiments ...Experiment) *Plan {
	plan := &Plan{Experiments: experiments}
	plan.fillDefaults()
	return plan
}

func (p *Plan) fillDefaults() {
	p.Server = utilities.Conditional(p.Server == "", constants.DefaultServerPath, p.Server)
	p.Client = utilities.Conditional(p.Client == "", constants.DefaultClientPath, p.Client)
	p.WorkDir = utilities.Conditional(p.WorkDir == "", ".", p.WorkDir)
	for i := range p.Experiments {
		p.Experiments[i] = p.Experiments[i].WithDefaults()
	}
}

// Load reads a plan from path. The format follows the extension: YAML for
// .yaml and .yml, JSON otherwise.
func Load(path string) (*Plan, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read experiment plan: %w", err)
	}

	plan := &Plan{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(contents))
		decoder.KnownFields(true)
		err = decoder.Decode(plan)
	default:
		decoder := json.NewDecoder(bytes.NewReader(contents))
		decoder.DisallowUnknownFields()
		err = decoder.Decode(plan)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrPlanMalformed, err)
	}
	plan.fillDefaults()
	return plan, nil
}

func (p *Plan) IsValid() error {
	if len(p.Experiments) == 0 {
		return fmt.Errorf("no experiments: %w", ErrInvalidExperiment)
	}
	for _, experiment := range p.Experiments {
		if err := experiment.IsValid(); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvironment overrides the binaries and working directory of plan with
// SCHEDBENCH_SERVER, SCHEDBENCH_CLIENT and SCHEDBENCH_WORKDIR. Values from the
// process environment take precedence over values from envFile. A missing
// envFile is not an error.
func ApplyEnvironment(plan *Plan, envFile string) error {
	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("could not read environment file %s: %w", envFile, err)
		}
		if err == nil {
			dotenv = values
		}
	}
	lookup := func(key string) string {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(dotenv[key])
	}

	if value := lookup(EnvServer); value != "" {
		plan.Server = value
	}
	if value := lookup(EnvClient); value != "" {
		plan.Client = value
	}
	if value := lookup(EnvWorkDir); value != "" {
		plan.WorkDir = value
	}
	return nil
}
