// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config provides a simple way to manage the stack analyzer's
configuration.

Use [Load](filename) to load a configuration from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config, and
then [LoadGlobal]() to load the global config.

A config file is in YAML format. For example, a valid config file is:

	log-level: 4
	max-subroutine-depth: 512
	reports-dir: reports
	function-db: nwn-functions.yaml
*/
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// The global config file
var configFile string

// SetGlobalConfig sets the global config filename.
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig.
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config holds the stack analyzer's tunable options. Fields not present
// in a loaded YAML file keep their zero value.
type Config struct {
	// LogLevel controls the verbosity of LogGroup, from ErrLevel (1) to
	// TraceLevel (5). 0 (the zero value) behaves like ErrLevel.
	LogLevel int `yaml:"log-level"`

	// DummyFrameSize overrides stackanalysis.DummyFrameSize when
	// non-zero; useful for testing with a shallower caller context than
	// the real VM's 32-entry frame.
	DummyFrameSize int `yaml:"dummy-frame-size"`

	// MaxSubroutineDepth bounds JSR call depth (not call-graph
	// recursion, which is always rejected). 0 means unbounded.
	MaxSubroutineDepth int `yaml:"max-subroutine-depth"`

	// ReportsDir is where cmd/nwanalyze writes a DOT render of the
	// subroutine call graph when run with -dot. The text report itself
	// always goes to stdout.
	ReportsDir string `yaml:"reports-dir"`

	// FunctionDBPath is the path to the YAML engine-function signature
	// table consumed by package funcdb.
	FunctionDBPath string `yaml:"function-db"`

	sourceFile string
}

// SourceFile returns the filename this Config was loaded from, or "" for
// a Config built in memory.
func (c *Config) SourceFile() string {
	return c.sourceFile
}

// Load reads and parses the YAML config file at filename. An empty
// filename returns a zero-valued Config (all defaults).
func Load(filename string) (*Config, error) {
	c := &Config{}
	if filename == "" {
		return c, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %q: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("could not parse config file %q: %w", filename, err)
	}

	c.sourceFile = filename
	return c, nil
}
