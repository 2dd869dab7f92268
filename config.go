// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application configuration structures.

package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/evolution-gaming/vidinfo/internal/tools"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	defaultLoadTimeout  = "10s"
	defaultBatchWorkers = 1
	defaultStderrLimit  = tools.DefaultStderrLimit
)

// Config represent application configuration.
type Config struct {
	FfprobePath  ConfigVal[string] `json:"ffprobe_path,omitempty" yaml:"ffprobe_path,omitempty"`
	FfprobeArgs  ConfigVal[string] `json:"ffprobe_args,omitempty" yaml:"ffprobe_args,omitempty"`
	LoadTimeout  ConfigVal[string] `json:"load_timeout,omitempty" yaml:"load_timeout,omitempty"`
	BatchWorkers ConfigVal[int]    `json:"batch_workers,omitempty" yaml:"batch_workers,omitempty"`
	MaxInFlight  ConfigVal[int]    `json:"max_in_flight,omitempty" yaml:"max_in_flight,omitempty"`
	StderrLimit  ConfigVal[uint]   `json:"stderr_limit,omitempty" yaml:"stderr_limit,omitempty"`
}

// Verify will check that configuration is valid.
//
// Will check that configuration option values are sensible.
func (c *Config) Verify() error {
	msgs := []string{}
	// Check that ffprobe exists.
	if !fileExists(c.FfprobePath.Value()) {
		msgs = append(msgs, "invalid ffprobe path")
	}
	if _, err := shlex.Split(c.FfprobeArgs.Value()); err != nil {
		msgs = append(msgs, fmt.Sprintf("invalid ffprobe args: %s", err))
	}
	if d, err := time.ParseDuration(c.LoadTimeout.Value()); err != nil || d <= 0 {
		msgs = append(msgs, "invalid load timeout")
	}
	if c.BatchWorkers.Value() < 1 {
		msgs = append(msgs, "batch workers should be at least 1")
	}
	if c.MaxInFlight.Value() < 1 {
		msgs = append(msgs, "max in flight should be at least 1")
	}
	if c.StderrLimit.Value() == 0 {
		msgs = append(msgs, "stderr limit should be positive")
	}

	if len(msgs) != 0 {
		return fmt.Errorf("%s: %w", strings.Join(msgs, ", "), ErrInvalidConfig)
	}
	return nil
}

// LoadTimeoutDuration returns parsed load timeout, tools.DefaultLoadTimeout if
// it is unset or invalid.
func (c *Config) LoadTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LoadTimeout.Value())
	if err != nil || d <= 0 {
		return tools.DefaultLoadTimeout
	}
	return d
}

// OverrideFrom will overwrite fields from given Config object.
//
// Only fields that are "not-nil" (as per IsNil() method) in src Config object will be
// overwritten.
func (c *Config) OverrideFrom(src Config) {
	if !src.FfprobePath.IsNil() {
		c.FfprobePath = src.FfprobePath
	}
	if !src.FfprobeArgs.IsNil() {
		c.FfprobeArgs = src.FfprobeArgs
	}
	if !src.LoadTimeout.IsNil() {
		c.LoadTimeout = src.LoadTimeout
	}
	if !src.BatchWorkers.IsNil() {
		c.BatchWorkers = src.BatchWorkers
	}
	if !src.MaxInFlight.IsNil() {
		c.MaxInFlight = src.MaxInFlight
	}
	if !src.StderrLimit.IsNil() {
		c.StderrLimit = src.StderrLimit
	}
}

// loadDefaultConfig will create a default configuration.
//
// For some configuration options a default value will be specified, for others an
// auto-detection mechanism will populate option values.
func loadDefaultConfig() (Config, error) {
	cfg := Config{
		FfprobeArgs:  NewConfigVal(""),
		LoadTimeout:  NewConfigVal(defaultLoadTimeout),
		BatchWorkers: NewConfigVal(defaultBatchWorkers),
		MaxInFlight:  NewConfigVal(runtime.NumCPU()),
		StderrLimit:  NewConfigVal(uint(defaultStderrLimit)),
	}

	// For default configuration attempt to locate ffprobe binary.
	ffprobe, err := tools.FfprobePath()
	if err != nil {
		return cfg, fmt.Errorf("DefaultConfig: %w", err)
	}
	cfg.FfprobePath = NewConfigVal(ffprobe)

	return cfg, nil
}

// loadConfigFromFile will load configuration from file.
//
// Format is chosen by file extension: JSON or YAML.
func loadConfigFromFile(f string) (cfg Config, err error) {
	fileExt := strings.ToLower(filepath.Ext(f))
	switch fileExt {
	case ".json":
		return loadJSON(f)
	case ".yaml", ".yml":
		return loadYAML(f)
	default:
		return cfg, fmt.Errorf("unknown config format: %s", fileExt)
	}
}

// LoadConfig will return merged default config and config from file. This is main
// function to use for config loading. Configuration file is optional e.g. can be "".
func LoadConfig(configFile string) (cfg Config, err error) {
	// Initialize default configuration.
	cfg, err = loadDefaultConfig()
	if err != nil && configFile == "" {
		return cfg, err
	}

	// Load configuration from file and override default configuration options.
	if configFile != "" {
		c, ferr := loadConfigFromFile(configFile)
		if ferr != nil {
			return cfg, ferr
		}
		// Failed ffprobe auto-detection only matters if config does not point to one.
		if err != nil && c.FfprobePath.IsNil() {
			return cfg, err
		}
		// Configuration file can specify full set or partial set of configuration
		// options. So we only want to override those options that have been specified in
		// config file, rest will remain as per default config.
		cfg.OverrideFrom(c)
	}

	return cfg, nil
}

func loadJSON(f string) (cfg Config, err error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return cfg, fmt.Errorf("config from JSON file: %w", err)
	}

	if len(b) == 0 {
		return cfg, fmt.Errorf("JSON file is empty: %w", ErrInvalidConfig)
	}

	if err = json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config from JSON document: %w", err)
	}

	return cfg, nil
}

func loadYAML(f string) (cfg Config, err error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return cfg, fmt.Errorf("config from YAML file: %w", err)
	}

	if len(strings.TrimSpace(string(b))) == 0 {
		return cfg, fmt.Errorf("YAML file is empty: %w", ErrInvalidConfig)
	}

	if err = yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config from YAML document: %w", err)
	}

	return cfg, nil
}

// In order to support Config overriding we have to implement wrapper type for Config
// fields. Otherwise it is hard to distinguish skipped fields, for instance when loading
// partial configuration from file: in that case it would be impossible to  distinguish
// between say string fields zero value and empty string values as explicitly specified in
// configuration file.

// NewConfigVal is constructor for ConfigVal. It will wrap its argument into ConfigVal.
func NewConfigVal[T any](v T) ConfigVal[T] {
	return ConfigVal[T]{v: &v}
}

// ConfigVal is a wrapper for Config field value.
type ConfigVal[T any] struct {
	// Store wrapped value as pointer in order to have ability to distinguish between
	// unspecified ConfigVal and a value that is the same as zero value for wrapped type.
	// In this case a zero value for pointer is nil.
	//
	// For example a zero value for string is "" which is impossible to distinguish from
	// explicit empty string "".
	v *T
}

// Value will return wrapped value.
//
// In case field has not been defined e.g. is zero value, then appropriate zero value of
// wrapped type will be returned.
func (o *ConfigVal[T]) Value() T {
	if o.IsNil() {
		var v T
		return v
	}
	return *o.v
}

// IsNil check if wrapped value is nil.
func (o *ConfigVal[T]) IsNil() bool {
	// Zero value for pointer type is nil.
	return o.v == nil
}

// IsZero is used by yaml "omitempty", only unset values are omitted.
func (o ConfigVal[T]) IsZero() bool {
	return o.v == nil
}

// UnmarshalJSON implements json.Unmarshaler interface for ConfigVal.
func (o *ConfigVal[T]) UnmarshalJSON(b []byte) error {
	var val T
	err := json.Unmarshal(b, &val)
	if err != nil {
		return err
	}
	o.v = &val
	return nil
}

// MarshalJSON implements json.Marshaler interface for ConfigVal.
func (o ConfigVal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value())
}

// UnmarshalYAML implements yaml.Unmarshaler interface for ConfigVal.
func (o *ConfigVal[T]) UnmarshalYAML(node *yaml.Node) error {
	var val T
	if err := node.Decode(&val); err != nil {
		return err
	}
	o.v = &val
	return nil
}

// MarshalYAML implements yaml.Marshaler interface for ConfigVal.
func (o ConfigVal[T]) MarshalYAML() (any, error) {
	return o.Value(), nil
}

func CreateDumpConfCommand() *DumpConfApp {
	longHelp := `Command "dump-conf" will print actual application configuration taking into account
configuration file provided and default configuration values.

Examples:

	vidinfo dump-conf
	vidinfo dump-conf -conf path/to/config.json
	vidinfo dump-conf -conf path/to/config.yaml -yaml`

	app := &DumpConfApp{
		fs:  flag.NewFlagSet("dump-conf", flag.ContinueOnError),
		gf:  globalFlags{},
		out: os.Stdout,
	}
	app.gf.Register(app.fs)
	app.fs.BoolVar(&app.flYAML, "yaml", false, "Output configuration as YAML instead of JSON")
	app.fs.Usage = func() {
		printSubCommandUsage(longHelp, app.fs)
	}

	return app
}

// Also define command "dump-conf" here.

// Make sure App implements Commander interface.
var _ Commander = (*DumpConfApp)(nil)

// DumpConfApp is subcommand application context that implements Commander interface.
// Although this is very simple application, but for consistency sake is is implemented in
// similar style as other subcommands.
type DumpConfApp struct {
	out    io.Writer
	fs     *flag.FlagSet
	gf     globalFlags
	flYAML bool
}

func (d *DumpConfApp) Name() string {
	return d.fs.Name()
}

func (d *DumpConfApp) Help() {
	d.fs.Usage()
}

// Run is main entry point into DumpConfApp execution.
func (d *DumpConfApp) Run(args []string) error {
	if err := d.gf.parse(d.fs, args); err != nil {
		return err
	}

	// Load application configuration.
	cfg, err := LoadConfig(d.gf.ConfFile)
	if err != nil {
		return &AppError{exitCode: 1, msg: err.Error()}
	}

	if d.flYAML {
		enc := yaml.NewEncoder(d.out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
		if err := enc.Close(); err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
	} else {
		enc := json.NewEncoder(d.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return &AppError{exitCode: 1, msg: err.Error()}
		}
	}

	// Also, report if configuration is valid.
	if err := cfg.Verify(); err != nil {
		return &AppError{exitCode: 1, msg: fmt.Sprintf("configuration validation: %s", err)}
	}

	return nil
}
