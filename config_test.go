// Copyright ©2022 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Application Config related tests.
package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func Test_loadDefaultConfig(t *testing.T) {
	ffprobe := fixFakeFfprobeOnPath(t, "phone_portrait.json")

	c, err := loadDefaultConfig()
	assert.NoError(t, err, "Should create DefaultConfig without errors")
	assert.Equal(t, ffprobe, c.FfprobePath.Value())
	assert.Equal(t, 10*time.Second, c.LoadTimeoutDuration())

	assert.NoError(t, c.Verify(), "DefaultConfig should be valid")
}

func Test_loadDefaultConfig_Negative(t *testing.T) {
	// Messing up PATH should result in failure detecting ffprobe which should
	// result in error from calling DefaultConfig().
	t.Setenv("PATH", "")
	t.Setenv("VIDINFO_FFPROBE", t.TempDir())
	_, err := loadDefaultConfig()
	assert.ErrorContains(t, err, "DefaultConfig: ")
}

func Test_loadConfigFile(t *testing.T) {
	// For this case we do not strictly need config that is valid as per Config.Verify(),
	// just verify that loading configuration from file works.
	tests := map[string]struct {
		want  Config
		name  string
		given string
	}{
		"Full JSON": {
			name: "config.json",
			given: `{
				"ffprobe_path": "test_ffprobe",
				"ffprobe_args": "-probesize 5M",
				"load_timeout": "3s",
				"batch_workers": 4,
				"max_in_flight": 8,
				"stderr_limit": 1024
			}`,
			want: Config{
				FfprobePath:  NewConfigVal("test_ffprobe"),
				FfprobeArgs:  NewConfigVal("-probesize 5M"),
				LoadTimeout:  NewConfigVal("3s"),
				BatchWorkers: NewConfigVal(4),
				MaxInFlight:  NewConfigVal(8),
				StderrLimit:  NewConfigVal(uint(1024)),
			},
		},
		"Partial JSON": {
			name:  "config.json",
			given: `{"ffprobe_args": "", "batch_workers": 2}`,
			want: Config{
				FfprobeArgs:  NewConfigVal(""),
				BatchWorkers: NewConfigVal(2),
			},
		},
		"Empty JSON": {
			name:  "config.json",
			given: `{}`,
			want:  Config{},
		},
		"Partial YAML": {
			name: "config.yaml",
			given: `
ffprobe_path: test_ffprobe
load_timeout: 500ms
`,
			want: Config{
				FfprobePath: NewConfigVal("test_ffprobe"),
				LoadTimeout: NewConfigVal("500ms"),
			},
		},
		"YML extension": {
			name:  "config.yml",
			given: "max_in_flight: 3\n",
			want:  Config{MaxInFlight: NewConfigVal(3)},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			confFile := fixConfigFile(t, tt.name, tt.given)

			// Load config and assert contents are as expected.
			got, err := loadConfigFromFile(confFile)
			assert.NoError(t, err, "Should be no error loading configuration from file")

			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_loadConfigFile_Negative(t *testing.T) {
	tests := map[string]struct {
		name  string
		given string
	}{
		"Unknown format":    {name: "config.toml", given: `ffprobe_path = "x"`},
		"Empty JSON file":   {name: "config.json", given: ""},
		"Empty YAML file":   {name: "config.yaml", given: "\n\n"},
		"Broken JSON":       {name: "config.json", given: `{"ffprobe_path": `},
		"Wrong JSON type":   {name: "config.json", given: `{"batch_workers": "many"}`},
		"Wrong YAML type":   {name: "config.yaml", given: "batch_workers: many\n"},
		"Negative limit":    {name: "config.yaml", given: "stderr_limit: -1\n"},
		"YAML is not a map": {name: "config.yaml", given: "- a\n- b\n"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfigFromFile(fixConfigFile(t, tt.name, tt.given))
			assert.Error(t, err)
		})
	}
}

func Test_LoadConfig(t *testing.T) {
	t.Run("Config file overrides defaults", func(t *testing.T) {
		ffprobe := fixFakeFfprobeOnPath(t, "phone_portrait.json")
		confFile := fixConfigFile(t, "config.yaml", "batch_workers: 3\nload_timeout: 2s\n")

		cfg, err := LoadConfig(confFile)
		require.NoError(t, err)
		assert.Equal(t, ffprobe, cfg.FfprobePath.Value(), "Auto-detected value is kept")
		assert.Equal(t, 3, cfg.BatchWorkers.Value())
		assert.Equal(t, 2*time.Second, cfg.LoadTimeoutDuration())
		assert.Equal(t, uint(defaultStderrLimit), cfg.StderrLimit.Value())
	})

	t.Run("Config file provides ffprobe when auto-detection fails", func(t *testing.T) {
		ffprobe := fixFakeFfprobeOnPath(t, "phone_portrait.json")
		t.Setenv("PATH", "")
		t.Setenv("VIDINFO_FFPROBE", t.TempDir())
		confFile := fixConfigFile(t, "config.json", `{"ffprobe_path": "`+ffprobe+`"}`)

		cfg, err := LoadConfig(confFile)
		require.NoError(t, err)
		assert.NoError(t, cfg.Verify())
	})

	t.Run("Auto-detection failure without config file", func(t *testing.T) {
		t.Setenv("PATH", "")
		t.Setenv("VIDINFO_FFPROBE", t.TempDir())
		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}

func Test_Config_Verify_Negative(t *testing.T) {
	valid := func(t *testing.T) Config {
		return Config{
			FfprobePath:  NewConfigVal(fixFakeFfprobeOnPath(t, "phone_portrait.json")),
			FfprobeArgs:  NewConfigVal(""),
			LoadTimeout:  NewConfigVal("10s"),
			BatchWorkers: NewConfigVal(1),
			MaxInFlight:  NewConfigVal(1),
			StderrLimit:  NewConfigVal(uint(16)),
		}
	}
	require.NoError(t, func() error { c := valid(t); return c.Verify() }())

	tests := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"Missing ffprobe":  {func(c *Config) { c.FfprobePath = NewConfigVal("/non-existent/ffprobe") }, "invalid ffprobe path"},
		"Broken args":      {func(c *Config) { c.FfprobeArgs = NewConfigVal(`-v "error`) }, "invalid ffprobe args"},
		"Bad timeout":      {func(c *Config) { c.LoadTimeout = NewConfigVal("soon") }, "invalid load timeout"},
		"Negative timeout": {func(c *Config) { c.LoadTimeout = NewConfigVal("-1s") }, "invalid load timeout"},
		"Zero workers":     {func(c *Config) { c.BatchWorkers = NewConfigVal(0) }, "batch workers"},
		"Zero in flight":   {func(c *Config) { c.MaxInFlight = NewConfigVal(0) }, "max in flight"},
		"Zero stderr":      {func(c *Config) { c.StderrLimit = NewConfigVal(uint(0)) }, "stderr limit"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid(t)
			tt.mutate(&c)
			err := c.Verify()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func Test_Config_LoadTimeoutDuration(t *testing.T) {
	c := Config{}
	assert.Equal(t, 10*time.Second, c.LoadTimeoutDuration(), "Unset falls back to default")
	c.LoadTimeout = NewConfigVal("250ms")
	assert.Equal(t, 250*time.Millisecond, c.LoadTimeoutDuration())
}

func Test_Config_OverrideFrom(t *testing.T) {
	fixBaseConf := func() Config {
		return Config{
			FfprobePath:  NewConfigVal("base_ffprobe"),
			FfprobeArgs:  NewConfigVal("-base"),
			LoadTimeout:  NewConfigVal("10s"),
			BatchWorkers: NewConfigVal(1),
			MaxInFlight:  NewConfigVal(2),
			StderrLimit:  NewConfigVal(uint(100)),
		}
	}

	tests := map[string]struct {
		want        Config
		overrideSrc Config
	}{
		"Full config overrides all fields": {
			overrideSrc: Config{
				FfprobePath:  NewConfigVal("test_ffprobe"),
				FfprobeArgs:  NewConfigVal("-test"),
				LoadTimeout:  NewConfigVal("1s"),
				BatchWorkers: NewConfigVal(5),
				MaxInFlight:  NewConfigVal(6),
				StderrLimit:  NewConfigVal(uint(7)),
			},
			want: Config{
				FfprobePath:  NewConfigVal("test_ffprobe"),
				FfprobeArgs:  NewConfigVal("-test"),
				LoadTimeout:  NewConfigVal("1s"),
				BatchWorkers: NewConfigVal(5),
				MaxInFlight:  NewConfigVal(6),
				StderrLimit:  NewConfigVal(uint(7)),
			},
		},
		"Partial config overrides partial fields": {
			overrideSrc: Config{
				// Explicit empty value still overrides.
				FfprobeArgs:  NewConfigVal(""),
				BatchWorkers: NewConfigVal(5),
			},
			want: Config{
				// Overridden fields.
				FfprobeArgs:  NewConfigVal(""),
				BatchWorkers: NewConfigVal(5),
				// Unmodified fields.
				FfprobePath: NewConfigVal("base_ffprobe"),
				LoadTimeout: NewConfigVal("10s"),
				MaxInFlight: NewConfigVal(2),
				StderrLimit: NewConfigVal(uint(100)),
			},
		},
		"Empty config does not override any fields": {
			overrideSrc: Config{},
			want:        fixBaseConf(),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// Create a base Config object. This is the Config that we shall attempt to
			// override.
			given := fixBaseConf()

			// Attempt to override config from overrideSrc.
			given.OverrideFrom(tt.overrideSrc)

			assert.Equal(t, tt.want, given)
		})
	}
}

func Test_ConfigVal_Marshal(t *testing.T) {
	c := Config{
		FfprobePath: NewConfigVal("/usr/bin/ffprobe"),
		FfprobeArgs: NewConfigVal(""),
	}

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"ffprobe_path": "/usr/bin/ffprobe",
		"ffprobe_args": "",
		"load_timeout": "",
		"batch_workers": 0,
		"max_in_flight": 0,
		"stderr_limit": 0
	}`, string(b))

	y, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.YAMLEq(t, "ffprobe_path: /usr/bin/ffprobe\nffprobe_args: \"\"\n", string(y))
}

func Test_DumpConfApp_Run(t *testing.T) {
	fixFakeFfprobeOnPath(t, "phone_portrait.json")

	tests := map[string]struct {
		args []string
		want string
	}{
		"JSON": {
			args: []string{"-conf", fixConfigFile(t, "config.json", `{"ffprobe_args": "-probesize 5M"}`)},
			want: `"ffprobe_args": "-probesize 5M"`,
		},
		"YAML": {
			args: []string{"-yaml", "-conf", fixConfigFile(t, "config.yaml", "load_timeout: 3s\n")},
			want: "load_timeout: 3s",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			commandOutput := &bytes.Buffer{}
			cmd := CreateDumpConfCommand()
			// Redirect output to buffer
			cmd.out = commandOutput

			err := cmd.Run(tt.args)
			assert.NoError(t, err, "Unexpected error running dump-conf")
			// Check that config dump contains options we specified in config file.
			assert.Contains(t, commandOutput.String(), tt.want)
			assert.Contains(t, commandOutput.String(), "batch_workers")
		})
	}
}

func Test_DumpConfApp_Run_Invalid(t *testing.T) {
	fixFakeFfprobeOnPath(t, "phone_portrait.json")
	cmd := CreateDumpConfCommand()
	cmd.out = &bytes.Buffer{}

	err := cmd.Run([]string{"-conf", fixConfigFile(t, "config.json", `{"batch_workers": 0}`)})
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 1, appErr.ExitCode())
	assert.Contains(t, cmd.out.(*bytes.Buffer).String(), `"batch_workers": 0`, "Config is dumped even if invalid")
}
