// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// DefaultGracePeriod is how long a process may run after being interrupted
// before it is killed.
const DefaultGracePeriod = "5s"

// 🔌 Parser is the interface for settings parsers
type Parser interface {
	// 📝 Parse parses the settings from bytes
	Parse(ctx context.Context, data []byte, filename string) (*Settings, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ⚙️ Settings configure how pipelines are executed. They are separate from the
// pipeline marker file, which only describes stages.
type Settings struct {
	// Workdir is the working directory of stage commands. Empty means the
	// directory dirpipe was started from.
	Workdir string `json:"workdir,omitempty" yaml:"workdir,omitempty" hcl:"workdir,optional"`
	// Executable is tokenized in front of every command template.
	Executable  string   `json:"executable,omitempty" yaml:"executable,omitempty" hcl:"executable,optional"`
	Timeout     string   `json:"timeout,omitempty" yaml:"timeout,omitempty" hcl:"timeout,optional"`
	GracePeriod string   `json:"grace_period,omitempty" yaml:"grace_period,omitempty" hcl:"grace_period,optional"`
	FailFast    bool     `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty" hcl:"fail_fast,optional"`
	Ignore      []string `json:"ignore,omitempty" yaml:"ignore,omitempty" hcl:"ignore,optional"`
	LogLevel    string   `json:"log_level,omitempty" yaml:"log_level,omitempty" hcl:"log_level,optional"`

	timeout     time.Duration
	gracePeriod time.Duration
	level       zerolog.Level
}

// 🏭 Defaults returns validated default settings.
func Defaults() *Settings {
	s := &Settings{}
	if err := s.Validate(); err != nil {
		panic(err)
	}
	return s
}

// 🔍 Validate fills in defaults and checks durations, glob patterns and the
// log level. It must be called again after fields are changed.
func (s *Settings) Validate() error {
	if s.GracePeriod == "" {
		s.GracePeriod = DefaultGracePeriod
	}
	if s.LogLevel == "" {
		s.LogLevel = zerolog.InfoLevel.String()
	}
	s.Workdir = os.ExpandEnv(s.Workdir)

	var err error
	if s.timeout, err = parseDuration("timeout", s.Timeout); err != nil {
		return err
	}
	if s.gracePeriod, err = parseDuration("grace_period", s.GracePeriod); err != nil {
		return err
	}

	for _, pattern := range s.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("ignore: invalid pattern %q", pattern)
		}
	}

	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
		s.level, _ = zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	default:
		return errors.Errorf("log_level: must be one of debug, info, warn or error, got %q", s.LogLevel)
	}

	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, errors.Errorf("%s: must not be negative, got %s", field, value)
	}
	return d, nil
}

// ProcessTimeout is the parsed Timeout; zero means no limit.
func (s *Settings) ProcessTimeout() time.Duration { return s.timeout }

// KillGracePeriod is the parsed GracePeriod.
func (s *Settings) KillGracePeriod() time.Duration { return s.gracePeriod }

// Level is the parsed LogLevel.
func (s *Settings) Level() zerolog.Level { return s.level }

// 📝 String returns a string representation of the settings
func (s *Settings) String() string {
	timeout := "none"
	if s.timeout > 0 {
		timeout = s.timeout.String()
	}
	return fmt.Sprintf("workdir=%q executable=%q timeout=%s grace=%s fail_fast=%t ignore=%v",
		s.Workdir, s.Executable, timeout, s.gracePeriod, s.FailFast, s.Ignore)
}
